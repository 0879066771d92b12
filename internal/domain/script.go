package domain

import "time"

// Script is a named, versioned piece of shell text an agent can be
// asked to run.
type Script struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Version       string        `json:"version"`
	OutputRegex   string        `json:"outputRegex"`
	Labels        []string      `json:"labels"`
	Timeout       time.Duration `json:"timeout"`
	ScriptContent string        `json:"scriptContent"`
}
