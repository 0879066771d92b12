// seed inserts a sample admin user, host, script, and cron schedule
// into a fresh database so a local operator has something to look at.
// Run: go run ./cmd/seed
package main

import (
	"context"
	"log"
	"os"

	"github.com/apimeister/unpatched-server/internal/auth"
	"github.com/apimeister/unpatched-server/internal/domain"
	"github.com/apimeister/unpatched-server/internal/infrastructure/postgres"
	"github.com/apimeister/unpatched-server/internal/repository"
)

const (
	seedEmail      = "admin@unpatched.local"
	seedPassword   = "unpatched-dev-password"
	seedAlias      = "seed-host-01"
	seedScriptName = "disk-usage-report"
)

func main() {
	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	pool, err := postgres.NewPool(ctx, dbURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	if err := postgres.Migrate(dbURL); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	users := postgres.NewUserRepository(pool)
	hosts := postgres.NewHostRepository(pool)
	scripts := postgres.NewScriptRepository(pool)
	schedules := postgres.NewScheduleRepository(pool)

	user, err := seedUser(ctx, users)
	if err != nil {
		log.Fatalf("seed user: %v", err)
	}
	log.Printf("user ready: %s (id=%s)", user.Email, user.ID)

	host, err := seedHost(ctx, hosts)
	if err != nil {
		log.Fatalf("seed host: %v", err)
	}
	log.Printf("host ready: %s (id=%s)", host.Alias, host.ID)

	script, err := seedScriptData(ctx, scripts)
	if err != nil {
		log.Fatalf("seed script: %v", err)
	}
	log.Printf("script ready: %s@%s (id=%s)", script.Name, script.Version, script.ID)

	schedule, err := seedSchedule(ctx, schedules, script.ID, host.ID)
	if err != nil {
		log.Fatalf("seed schedule: %v", err)
	}
	log.Printf("schedule ready: %s (cron=%s)", schedule.ID, schedule.Timer.Cron)

	log.Println("---")
	log.Println("how to test:")
	log.Printf(`  curl -X POST -H 'Content-Type: application/json' -d '{"client_id":"%s","client_secret":"%s"}' https://localhost:8443/api/v1/authorize`, seedEmail, seedPassword)
	log.Printf("  connect an agent with X_API_KEY: %s", host.ID)
}

func seedUser(ctx context.Context, users repository.UserRepository) (*domain.User, error) {
	if existing, err := users.GetByEmail(ctx, seedEmail); err == nil {
		return existing, nil
	}

	hash, err := auth.HashPassword(seedPassword)
	if err != nil {
		return nil, err
	}
	return users.Create(ctx, &domain.User{
		Email:    seedEmail,
		Password: hash,
		Roles:    []string{"admin"},
		Active:   true,
	})
}

func seedHost(ctx context.Context, hosts repository.HostRepository) (*domain.Host, error) {
	existing, err := hosts.List(ctx, repository.HostFilter{Alias: seedAlias})
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing[0], nil
	}

	return hosts.Create(ctx, &domain.Host{
		Alias:      seedAlias,
		Attributes: []string{"env:dev", "role:worker"},
		Active:     true,
	})
}

func seedScriptData(ctx context.Context, scripts repository.ScriptRepository) (*domain.Script, error) {
	existing, err := scripts.List(ctx, repository.ScriptFilter{Name: seedScriptName})
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing[0], nil
	}

	return scripts.Create(ctx, &domain.Script{
		Name:          seedScriptName,
		Version:       "1.0.0",
		OutputRegex:   `(?s).*`,
		Labels:        []string{"diagnostics"},
		ScriptContent: "#!/bin/sh\ndf -h\n",
	})
}

func seedSchedule(ctx context.Context, schedules repository.ScheduleRepository, scriptID, hostID string) (*domain.Schedule, error) {
	all, err := schedules.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range all {
		if s.ScriptID == scriptID && s.Target.Kind == domain.TargetHostID && s.Target.HostID == hostID {
			return s, nil
		}
	}

	return schedules.Create(ctx, &domain.Schedule{
		ScriptID: scriptID,
		Target:   domain.NewHostIDTarget(hostID),
		Timer:    domain.NewCronTimer("*/10 * * * *"),
		Active:   true,
	})
}
