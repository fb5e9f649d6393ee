package tunnel

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/bnema/browserfarm-cli/internal/ports"
)

const (
	DefaultBinary       = "BrowserStackLocal"
	DefaultReadyMarker  = "You can now access your local server(s)"
	DefaultReadyTimeout = 30 * time.Second

	stopTimeout = 10 * time.Second
)

var (
	ErrUnavailable    = errors.New("tunnel binary unavailable")
	ErrAlreadyRunning = errors.New("tunnel already running")
	ErrReadyTimeout   = errors.New("tunnel not ready before timeout")
	ErrExited         = errors.New("tunnel exited before ready")
)

type Config struct {
	Binary          string
	AccessKey       string
	LocalIdentifier string
	ForceLocal      bool
	Args            []string
	ReadyMarker     string
	ReadyTimeout    time.Duration
}

type commandFunc func(name string, args ...string) *exec.Cmd

// run is one launched child. err is set before done is closed.
type run struct {
	cmd  *exec.Cmd
	done chan struct{}
	err  error
}

// Process runs the tunnel binary as a child process for the connector's lifetime.
type Process struct {
	cfg     Config
	logger  ports.Logger
	command commandFunc

	mu      sync.Mutex
	current *run
}

var _ ports.Tunnel = (*Process)(nil)

func NewProcess(cfg Config, logger ports.Logger) *Process {
	if cfg.Binary == "" {
		cfg.Binary = DefaultBinary
	}
	if cfg.ReadyMarker == "" {
		cfg.ReadyMarker = DefaultReadyMarker
	}
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = DefaultReadyTimeout
	}
	if logger == nil {
		logger = ports.NopLogger{}
	}

	return &Process{
		cfg:     cfg,
		logger:  logger.With("component", "tunnel", "local_identifier", cfg.LocalIdentifier),
		command: exec.Command,
	}
}

// Start launches the binary and blocks until it prints the ready marker.
func (p *Process) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current != nil {
		return ErrAlreadyRunning
	}

	path, err := exec.LookPath(p.cfg.Binary)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrUnavailable, p.cfg.Binary)
		}
		return fmt.Errorf("locate tunnel binary: %w", err)
	}

	cmd := p.command(path, p.args()...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("tunnel stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("tunnel stderr: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start tunnel: %w", err)
	}

	r := &run{cmd: cmd, done: make(chan struct{})}
	ready := make(chan struct{})
	var readyOnce sync.Once

	var drained sync.WaitGroup
	drained.Add(2)
	go func() {
		defer drained.Done()
		p.scan(stdout, func(line string) {
			if strings.Contains(line, p.cfg.ReadyMarker) {
				readyOnce.Do(func() { close(ready) })
			}
		})
	}()
	go func() {
		defer drained.Done()
		p.scan(stderr, nil)
	}()
	go func() {
		// Wait must not run before the pipes are fully read.
		drained.Wait()
		r.err = cmd.Wait()
		close(r.done)
	}()

	timer := time.NewTimer(p.cfg.ReadyTimeout)
	defer timer.Stop()

	select {
	case <-ready:
		p.current = r
		p.logger.Info("tunnel ready", "pid", cmd.Process.Pid)
		return nil
	case <-r.done:
		if r.err != nil {
			return fmt.Errorf("%w: %w", ErrExited, r.err)
		}
		return ErrExited
	case <-timer.C:
		p.kill(r)
		return fmt.Errorf("%w (%s)", ErrReadyTimeout, p.cfg.ReadyTimeout)
	case <-ctx.Done():
		p.kill(r)
		return ctx.Err()
	}
}

// Stop interrupts the process and kills it if it outlives ctx.
func (p *Process) Stop(ctx context.Context) error {
	p.mu.Lock()
	r := p.current
	p.current = nil
	p.mu.Unlock()

	if r == nil {
		return nil
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, stopTimeout)
		defer cancel()
	}

	if err := r.cmd.Process.Signal(os.Interrupt); err != nil && !errors.Is(err, os.ErrProcessDone) {
		p.logger.Warn("interrupt tunnel", "error", err)
	}

	select {
	case <-r.done:
		p.logger.Info("tunnel stopped")
		return nil
	case <-ctx.Done():
		p.kill(r)
		return fmt.Errorf("tunnel ignored interrupt, killed: %w", ctx.Err())
	}
}

// Running reports whether a ready process is attached and still alive.
func (p *Process) Running() bool {
	p.mu.Lock()
	r := p.current
	p.mu.Unlock()

	if r == nil {
		return false
	}
	select {
	case <-r.done:
		return false
	default:
		return true
	}
}

func (p *Process) args() []string {
	args := []string{"--key", p.cfg.AccessKey}
	if p.cfg.LocalIdentifier != "" {
		args = append(args, "--local-identifier", p.cfg.LocalIdentifier)
	}
	if p.cfg.ForceLocal {
		args = append(args, "--force-local")
	}
	return append(args, p.cfg.Args...)
}

func (p *Process) scan(r io.Reader, onLine func(string)) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		p.logger.Debug("tunnel output", "line", line)
		if onLine != nil {
			onLine(line)
		}
	}
}

func (p *Process) kill(r *run) {
	if err := r.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		p.logger.Warn("kill tunnel", "error", err)
	}
	<-r.done
}
