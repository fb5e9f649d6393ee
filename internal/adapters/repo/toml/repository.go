package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bnema/browserfarm-cli/internal/domain"
	"github.com/bnema/browserfarm-cli/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	SessionsPathKey = "sessions.path"

	sessionsFileMode   = 0o600
	sessionsDirMode    = 0o700
	sessionsConfigDir  = ".browserfarm"
	sessionsConfigFile = "sessions.toml"
	tempFilePattern    = ".sessions-*.toml.tmp"
)

// Repository is the on-disk ledger of sessions started by this machine.
type Repository struct {
	sessionsPath string
	mu           *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.SessionRepository = (*Repository)(nil)

func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}

	return filepath.Join(homeDir, sessionsConfigDir, sessionsConfigFile), nil
}

// NewRepository reads sessions.path from cfg, falling back to
// ~/.browserfarm/sessions.toml.
func NewRepository(cfg *viper.Viper) (*Repository, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	sessionsPath := cfg.GetString(SessionsPathKey)
	if sessionsPath == "" {
		defaultPath, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		sessionsPath = defaultPath
	}

	sessionsPath, err := normalizeSessionsPath(sessionsPath)
	if err != nil {
		return nil, err
	}

	return &Repository{sessionsPath: sessionsPath, mu: lockForPath(sessionsPath)}, nil
}

func (r *Repository) Path() string {
	return r.sessionsPath
}

func (r *Repository) Save(ctx context.Context, record domain.SessionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := record.Validate(); err != nil {
		return fmt.Errorf("invalid session record: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	encoded := toSchema(record)
	updated := false
	for i := range file.Sessions {
		if file.Sessions[i].WorkerID == encoded.WorkerID {
			file.Sessions[i] = encoded
			updated = true
			break
		}
	}

	if !updated {
		file.Sessions = append(file.Sessions, encoded)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return r.writeSchema(file)
}

func (r *Repository) GetByID(ctx context.Context, id domain.WorkerID) (domain.SessionRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.SessionRecord{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return domain.SessionRecord{}, err
	}

	for _, entry := range file.Sessions {
		if entry.WorkerID == string(id) {
			return fromSchema(entry), nil
		}
	}

	return domain.SessionRecord{}, domain.ErrSessionNotFound
}

func (r *Repository) List(ctx context.Context) ([]domain.SessionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return nil, err
	}

	records := make([]domain.SessionRecord, 0, len(file.Sessions))
	for _, entry := range file.Sessions {
		records = append(records, fromSchema(entry))
	}

	return records, nil
}

func (r *Repository) Delete(ctx context.Context, id domain.WorkerID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	kept := file.Sessions[:0]
	found := false
	for _, entry := range file.Sessions {
		if entry.WorkerID == string(id) {
			found = true
			continue
		}
		kept = append(kept, entry)
	}
	if !found {
		return domain.ErrSessionNotFound
	}
	file.Sessions = kept

	return r.writeSchema(file)
}

func (r *Repository) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(r.sessionsPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileSchema{}, nil
		}
		return fileSchema{}, fmt.Errorf("read sessions file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode sessions file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func normalizeSessionsPath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve sessions path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

// lockForPath shares one lock between every repository pointing at the same file.
func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

func (r *Repository) writeSchema(file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(r.sessionsPath), sessionsDirMode); err != nil {
		return fmt.Errorf("create sessions directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode sessions file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(r.sessionsPath), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp sessions file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp sessions file: %w", err)
	}

	if err := tempFile.Chmod(sessionsFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp sessions file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp sessions file: %w", err)
	}

	if err := os.Rename(tempName, r.sessionsPath); err != nil {
		return fmt.Errorf("replace sessions file: %w", err)
	}

	cleanup = false
	return nil
}

func toSchema(record domain.SessionRecord) sessionSchema {
	return sessionSchema{
		WorkerID:   string(record.WorkerID),
		Browser:    record.Browser,
		URL:        record.URL,
		SessionURL: record.SessionURL,
		Job: jobSchema{
			Name:    record.Job.Name,
			Build:   record.Job.Build,
			Project: record.Job.Project,
		},
		StartedAt: formatTime(record.StartedAt),
	}
}

func fromSchema(entry sessionSchema) domain.SessionRecord {
	return domain.SessionRecord{
		WorkerID:   domain.WorkerID(entry.WorkerID),
		Browser:    entry.Browser,
		URL:        entry.URL,
		SessionURL: entry.SessionURL,
		Job: domain.JobMeta{
			Name:    entry.Job.Name,
			Build:   entry.Job.Build,
			Project: entry.Job.Project,
		},
		StartedAt: parseTime(entry.StartedAt),
	}
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.UTC().Format(time.RFC3339)
}
