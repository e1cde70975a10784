package config

import (
	"os"
	"strings"
)

// Required keys: the data service URL and the key sessions are signed with.
var RequiredEnvVars = []string{"DATABASE_URL", "JWT_SECRET"}

// Optional keys are reported but never make the configuration invalid.
var OptionalEnvVars = []string{"REDIS_ADDR", "APP_BASE_URL"}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

type OptionalResult struct {
	Missing []string `json:"missing"`
	Empty   []string `json:"empty"`
}

// ValidationResult describes which configuration keys are absent or blank.
type ValidationResult struct {
	Valid    bool           `json:"valid"`
	Missing  []string       `json:"missing"`
	Empty    []string       `json:"empty"`
	Optional OptionalResult `json:"optional"`
}

// Validate checks the required and optional keys through lookup.
// A nil lookup reads the process environment.
func Validate(lookup LookupFunc) ValidationResult {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	res := ValidationResult{
		Missing:  []string{},
		Empty:    []string{},
		Optional: OptionalResult{Missing: []string{}, Empty: []string{}},
	}

	for _, key := range RequiredEnvVars {
		v, ok := lookup(key)
		switch {
		case !ok:
			res.Missing = append(res.Missing, key)
		case strings.TrimSpace(v) == "":
			res.Empty = append(res.Empty, key)
		}
	}

	for _, key := range OptionalEnvVars {
		v, ok := lookup(key)
		switch {
		case !ok:
			res.Optional.Missing = append(res.Optional.Missing, key)
		case strings.TrimSpace(v) == "":
			res.Optional.Empty = append(res.Optional.Empty, key)
		}
	}

	res.Valid = len(res.Missing) == 0 && len(res.Empty) == 0
	return res
}

// ErrorMessage renders a user-facing description of the failed keys.
func (r ValidationResult) ErrorMessage() string {
	var lines []string
	if len(r.Missing) > 0 {
		lines = append(lines, "Missing required environment variables: "+strings.Join(r.Missing, ", "))
	}
	if len(r.Empty) > 0 {
		lines = append(lines, "Empty required environment variables: "+strings.Join(r.Empty, ", "))
	}
	return strings.Join(lines, "\n")
}
