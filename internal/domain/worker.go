package domain

import (
	"fmt"
	"strings"
	"time"
)

type WorkerID string
type WorkerStatus string

const (
	WorkerStatusQueued     WorkerStatus = "queue"
	WorkerStatusRunning    WorkerStatus = "running"
	WorkerStatusTerminated WorkerStatus = "terminated"
)

func (s WorkerStatus) IsRunning() bool {
	return strings.EqualFold(strings.TrimSpace(string(s)), string(WorkerStatusRunning))
}

type Worker struct {
	ID         WorkerID
	Status     WorkerStatus
	SessionURL string
}

type BrowserSettings struct {
	OS             string
	OSVersion      string
	Browser        string
	BrowserVersion string
	Device         string
	RealMobile     bool
	Resolution     string
}

// Label is the human readable browser name used in logs and errors.
func (s BrowserSettings) Label() string {
	if device := strings.TrimSpace(s.Device); device != "" {
		if s.OSVersion != "" {
			return fmt.Sprintf("%s (%s %s)", device, s.OS, s.OSVersion)
		}
		return device
	}

	parts := make([]string, 0, 2)
	for _, part := range []string{s.Browser, s.BrowserVersion} {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	name := strings.Join(parts, " ")
	if name == "" {
		name = "unknown browser"
	}

	platform := strings.TrimSpace(strings.TrimSpace(s.OS) + " " + strings.TrimSpace(s.OSVersion))
	if platform == "" {
		return name
	}
	return name + " on " + platform
}

func (s BrowserSettings) Validate() error {
	if strings.TrimSpace(s.Browser) == "" && strings.TrimSpace(s.Device) == "" {
		return fmt.Errorf("browser or device is required")
	}
	return nil
}

type JobMeta struct {
	Name    string
	Build   string
	Project string
}

// WorkerSpec is everything the farm needs to provision one worker.
type WorkerSpec struct {
	Settings       BrowserSettings
	URL            string
	Job            JobMeta
	WorkingTimeout time.Duration
}

type Quota struct {
	MaxSessions int
}
