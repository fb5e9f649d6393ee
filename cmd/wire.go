package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/bnema/browserfarm-cli/internal/adapters/farm"
	"github.com/bnema/browserfarm-cli/internal/adapters/hub"
	"github.com/bnema/browserfarm-cli/internal/adapters/logger"
	"github.com/bnema/browserfarm-cli/internal/adapters/metrics"
	sessionsrender "github.com/bnema/browserfarm-cli/internal/adapters/render/sessions"
	tomlrepo "github.com/bnema/browserfarm-cli/internal/adapters/repo/toml"
	"github.com/bnema/browserfarm-cli/internal/adapters/tunnel"
	"github.com/bnema/browserfarm-cli/internal/application"
	"github.com/bnema/browserfarm-cli/internal/config"
	"github.com/bnema/browserfarm-cli/internal/domain"
	"github.com/bnema/browserfarm-cli/internal/ports"
	"github.com/google/uuid"
	"github.com/spf13/viper"
)

const skipWiringAnnotation = "bf/skip-wiring"

type app struct {
	cfg             config.Config
	logger          *logger.ZapLogger
	metrics         *metrics.Metrics
	hub             *hub.Hub
	connector       *application.Connector
	sessionRenderer func([]domain.SessionRecord, sessionsrender.RenderOptions) (string, error)
	now             func() time.Time
}

func (a *app) wire(configFile string) error {
	v := viper.New()
	cfg, err := config.Load(v, configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("wire logger: %w", err)
	}

	localIdentifier := cfg.Tunnel.LocalIdentifier
	if cfg.Tunnel.Enabled && localIdentifier == "" {
		localIdentifier = "bf-" + uuid.NewString()
	}

	client, err := farm.NewClient(farm.Config{
		BaseURL:         cfg.API.BaseURL,
		Username:        cfg.API.Username,
		AccessKey:       cfg.API.AccessKey,
		LocalIdentifier: localIdentifier,
		RequestTimeout:  cfg.API.RequestTimeout,
	}, http.DefaultClient, log)
	if err != nil {
		return fmt.Errorf("wire farm client: %w", err)
	}

	sessions, err := tomlrepo.NewRepository(v)
	if err != nil {
		return fmt.Errorf("wire session ledger: %w", err)
	}

	m := metrics.New()
	h := hub.New(hub.Config{Host: cfg.Hub.Host, Port: cfg.Hub.Port, BindAddress: cfg.Hub.BindAddress}, log, m)

	deps := application.ConnectorDeps{
		Pool:     client,
		Hub:      h,
		Sessions: sessions,
		Clock:    ports.SystemClock{},
		Logger:   log,
		Observer: m,
	}
	if cfg.Tunnel.Enabled {
		deps.Tunnel = tunnel.NewProcess(tunnel.Config{
			Binary:          cfg.Tunnel.Binary,
			AccessKey:       cfg.API.AccessKey,
			LocalIdentifier: localIdentifier,
			ForceLocal:      cfg.Tunnel.ForceLocal,
			Args:            cfg.Tunnel.Args,
			ReadyTimeout:    cfg.Tunnel.ReadyTimeout,
		}, log)
	}

	a.cfg = cfg
	a.logger = log
	a.metrics = m
	a.hub = h
	a.connector = application.NewConnector(deps)
	a.sessionRenderer = sessionsrender.Render
	a.now = time.Now
	return nil
}

func (a *app) close() {
	if a.logger != nil {
		a.logger.Sync()
	}
}

func (a *app) startOptions() application.StartOptions {
	return application.StartOptions{
		MaxAttempts: a.cfg.Session.MaxAttempts,
		OpenOptions: application.OpenOptions{
			OpeningTimeout: a.cfg.Session.OpeningTimeout,
			WorkingTimeout: a.cfg.Session.WorkingTimeout,
			PollInterval:   a.cfg.Session.PollInterval,
			PollAttempts:   a.cfg.Session.PollAttempts,
		},
	}
}
