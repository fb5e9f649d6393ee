package domain

import (
	"fmt"
	"strings"
	"time"
)

type SessionRecord struct {
	WorkerID   WorkerID
	Browser    string
	URL        string
	SessionURL string
	Job        JobMeta
	StartedAt  time.Time
}

func (r SessionRecord) Validate() error {
	if strings.TrimSpace(string(r.WorkerID)) == "" {
		return fmt.Errorf("worker id is required")
	}
	if strings.TrimSpace(r.Browser) == "" {
		return fmt.Errorf("browser is required")
	}
	return nil
}
