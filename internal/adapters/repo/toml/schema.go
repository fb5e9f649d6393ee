package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version  int             `toml:"version"`
	Sessions []sessionSchema `toml:"sessions"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported sessions schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type sessionSchema struct {
	WorkerID   string    `toml:"worker_id"`
	Browser    string    `toml:"browser"`
	URL        string    `toml:"url"`
	SessionURL string    `toml:"session_url,omitempty"`
	Job        jobSchema `toml:"job,omitempty"`
	StartedAt  string    `toml:"started_at"`
}

type jobSchema struct {
	Name    string `toml:"name,omitempty"`
	Build   string `toml:"build,omitempty"`
	Project string `toml:"project,omitempty"`
}
