package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bnema/browserfarm-cli/internal/domain"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

func addOutputFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "output", "o", outputText, "Output format: text, json or yaml")
}

func validateOutput(format string) error {
	switch strings.ToLower(format) {
	case outputText, outputJSON, outputYAML:
		return nil
	default:
		return fmt.Errorf("unsupported output format %q (want text, json or yaml)", format)
	}
}

// writeOutput encodes value for json/yaml and falls back to renderText.
func writeOutput(cmd *cobra.Command, format string, value any, renderText func() (string, error)) error {
	switch strings.ToLower(format) {
	case outputJSON:
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(value)
	case outputYAML:
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(value); err != nil {
			return err
		}
		return enc.Close()
	default:
		rendered, err := renderText()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
		return err
	}
}

type sessionView struct {
	WorkerID   string     `json:"worker_id" yaml:"worker_id"`
	Browser    string     `json:"browser" yaml:"browser"`
	URL        string     `json:"url" yaml:"url"`
	SessionURL string     `json:"session_url,omitempty" yaml:"session_url,omitempty"`
	Job        *jobView   `json:"job,omitempty" yaml:"job,omitempty"`
	StartedAt  *time.Time `json:"started_at,omitempty" yaml:"started_at,omitempty"`
}

type jobView struct {
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	Build   string `json:"build,omitempty" yaml:"build,omitempty"`
	Project string `json:"project,omitempty" yaml:"project,omitempty"`
}

type capacityView struct {
	MaxAllowed int `json:"max_allowed" yaml:"max_allowed"`
	Active     int `json:"active" yaml:"active"`
	Free       int `json:"free" yaml:"free"`
}

func toSessionView(record domain.SessionRecord) sessionView {
	view := sessionView{
		WorkerID:   string(record.WorkerID),
		Browser:    record.Browser,
		URL:        record.URL,
		SessionURL: record.SessionURL,
	}
	if record.Job != (domain.JobMeta{}) {
		view.Job = &jobView{Name: record.Job.Name, Build: record.Job.Build, Project: record.Job.Project}
	}
	if !record.StartedAt.IsZero() {
		startedAt := record.StartedAt.UTC()
		view.StartedAt = &startedAt
	}
	return view
}

func toSessionViews(records []domain.SessionRecord) []sessionView {
	views := make([]sessionView, 0, len(records))
	for _, record := range records {
		views = append(views, toSessionView(record))
	}
	return views
}

func toCapacityView(capacity domain.PoolCapacity) capacityView {
	return capacityView{
		MaxAllowed: capacity.MaxAllowed,
		Active:     capacity.ActiveCount,
		Free:       capacity.Free(),
	}
}
