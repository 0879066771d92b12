package domain

import "errors"

var (
	ErrHostNotFound        = errors.New("host not found")
	ErrScriptNotFound      = errors.New("script not found")
	ErrScheduleNotFound    = errors.New("schedule not found")
	ErrExecutionNotFound   = errors.New("execution not found")
	ErrExecutionNotClaimed = errors.New("execution is not in claimed state")
	ErrUserNotFound        = errors.New("user not found")
	ErrDuplicateUser       = errors.New("user with this email already exists")

	ErrInvalidTarget = errors.New("schedule target must set exactly one of attributes or host id")
	ErrInvalidTimer  = errors.New("schedule timer must set exactly one of cron or timestamp")

	ErrForeignKeyViolation = errors.New("referenced entity does not exist")

	ErrWrongCredentials   = errors.New("wrong credentials")
	ErrMissingCredentials = errors.New("missing credentials")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrTokenCreation      = errors.New("token creation failed")
	ErrInvalidToken       = errors.New("invalid token")
	ErrAgentUnauthorized  = errors.New("agent unauthorized")
)
