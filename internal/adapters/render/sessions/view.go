package sessions

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bnema/browserfarm-cli/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

type RenderOptions struct {
	Now time.Time
	// StaleAfter flags sessions older than this; zero disables the marker.
	StaleAfter time.Duration
}

// Render draws the session ledger.
func Render(records []domain.SessionRecord, opts RenderOptions) (string, error) {
	return run(func(s styles) string {
		return renderSessions(records, opts, s)
	})
}

// RenderStarted draws a single freshly started worker.
func RenderStarted(record domain.SessionRecord) (string, error) {
	return run(func(s styles) string {
		return renderSession(record, RenderOptions{}, s)
	})
}

// RenderCapacity draws pool usage as a bar of busy machines.
func RenderCapacity(capacity domain.PoolCapacity) (string, error) {
	return run(func(s styles) string {
		return renderCapacity(capacity, s)
	})
}

func renderSessions(records []domain.SessionRecord, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Browser Sessions"),
		s.header.Render(fmt.Sprintf("sessions: %d", len(records))),
	}

	if len(records) == 0 {
		lines = append(lines, s.empty.Render("No recorded sessions."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, record := range records {
		lines = append(lines, s.section.Render(renderSession(record, opts, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderSession(record domain.SessionRecord, opts RenderOptions, s styles) string {
	title := s.browser.Render(sessionTitle(record))
	if isStale(record.StartedAt, opts) {
		title += " " + s.warning.Render("[stale]")
	}

	parts := []string{
		title,
		detailLine("url:", record.URL, s.detail, s),
	}
	if record.SessionURL != "" {
		parts = append(parts, detailLine("watch:", record.SessionURL, s.link, s))
	}
	if job := jobLabel(record.Job); job != "" {
		parts = append(parts, detailLine("job:", job, s.detail, s))
	}
	if !record.StartedAt.IsZero() {
		parts = append(parts, s.meta.Render(formatStarted(record.StartedAt, opts.Now)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func detailLine(key, value string, valueStyle lipgloss.Style, s styles) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, s.key.Render(key), " ", valueStyle.Render(value))
}

func sessionTitle(record domain.SessionRecord) string {
	browser := strings.TrimSpace(record.Browser)
	if browser == "" {
		browser = "unknown browser"
	}
	return fmt.Sprintf("%s (%s)", browser, record.WorkerID)
}

func jobLabel(job domain.JobMeta) string {
	parts := make([]string, 0, 3)
	for _, part := range []string{job.Project, job.Build, job.Name} {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, " / ")
}

func isStale(startedAt time.Time, opts RenderOptions) bool {
	if opts.StaleAfter <= 0 || opts.Now.IsZero() || startedAt.IsZero() {
		return false
	}
	return opts.Now.Sub(startedAt) > opts.StaleAfter
}

func renderCapacity(capacity domain.PoolCapacity, s styles) string {
	free := capacity.Free()
	usedPercent := 100.0
	if capacity.MaxAllowed > 0 {
		usedPercent = float64(capacity.ActiveCount) / float64(capacity.MaxAllowed) * 100
	}

	label := s.key.Render("machines:")
	meta := s.detail.Render(fmt.Sprintf("%d free of %d (%d busy)", max(free, 0), capacity.MaxAllowed, capacity.ActiveCount))
	line := lipgloss.JoinHorizontal(lipgloss.Top, label, " ", renderProgressBar(usedPercent, 24, s), " ", meta)

	if free <= 0 {
		line += " " + s.warning.Render("[full]")
	}

	return lipgloss.JoinVertical(lipgloss.Left, s.title.Render("Pool Capacity"), line)
}

// renderProgressBar fills the bar with the used share.
func renderProgressBar(usedPercent float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	used := clampPercent(usedPercent)
	filled := int(math.Round(float64(width) * used / 100.0))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}

	empty := width - filled
	fillSegment := s.barFill.Render(strings.Repeat("=", filled))
	emptySegment := s.barEmpty.Render(strings.Repeat("-", empty))

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		fillSegment,
		emptySegment,
		s.barBracket.Render("]"),
	)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func formatStarted(startedAt, now time.Time) string {
	if now.IsZero() {
		return "started " + startedAt.Format("15:04 on 02 Jan")
	}

	age := now.Sub(startedAt)
	if age < time.Minute {
		return "started just now"
	}
	if age < time.Hour {
		minutes := int(age.Minutes())
		return fmt.Sprintf("started %d %s ago", minutes, plural(minutes, "minute"))
	}
	if age < 24*time.Hour {
		hours := int(age.Hours())
		return fmt.Sprintf("started %d %s ago (%s)", hours, plural(hours, "hour"), startedAt.Format("15:04"))
	}

	days := int(age.Hours() / 24)
	return fmt.Sprintf("started %d %s ago (%s)", days, plural(days, "day"), startedAt.Format("15:04 on 02 Jan"))
}

func plural(n int, unit string) string {
	if n == 1 {
		return unit
	}
	return unit + "s"
}
