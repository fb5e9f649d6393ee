package farm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bnema/browserfarm-cli/internal/domain"
	"github.com/bnema/browserfarm-cli/internal/ports"
)

const (
	DefaultBaseURL        = "https://api.browserstack.com/4"
	defaultRequestTimeout = 30 * time.Second
	maxResponseBytes      = 1 << 20
	maxErrorBodyBytes     = 512
)

type Config struct {
	BaseURL   string
	Username  string
	AccessKey string
	// LocalIdentifier routes created workers through one specific tunnel instance.
	LocalIdentifier string
	RequestTimeout  time.Duration
}

// Client talks to the device-farm worker API.
type Client struct {
	cfg    Config
	http   *http.Client
	logger ports.Logger
}

var _ ports.WorkerPool = (*Client)(nil)

func NewClient(cfg Config, httpClient *http.Client, logger ports.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, errors.New("api base url must use http or https")
	}
	if parsed.Host == "" {
		return nil, errors.New("api base url host is required")
	}
	cfg.BaseURL = strings.TrimRight(parsed.String(), "/")

	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = ports.NopLogger{}
	}

	return &Client{cfg: cfg, http: httpClient, logger: logger.With("component", "farm_client")}, nil
}

type createWorkerRequest struct {
	OS              string `json:"os,omitempty"`
	OSVersion       string `json:"os_version,omitempty"`
	Browser         string `json:"browser,omitempty"`
	BrowserVersion  string `json:"browser_version,omitempty"`
	Device          string `json:"device,omitempty"`
	RealMobile      bool   `json:"real_mobile,omitempty"`
	Resolution      string `json:"resolution,omitempty"`
	URL             string `json:"url"`
	Timeout         int64  `json:"timeout,omitempty"`
	Name            string `json:"name,omitempty"`
	Build           string `json:"build,omitempty"`
	Project         string `json:"project,omitempty"`
	Local           bool   `json:"browserstack.local,omitempty"`
	LocalIdentifier string `json:"browserstack.localIdentifier,omitempty"`
}

type workerResponse struct {
	ID         workerIDField `json:"id"`
	Status     string        `json:"status"`
	BrowserURL string        `json:"browser_url"`
}

type statusResponse struct {
	SessionsLimit   int `json:"sessions_limit"`
	RunningSessions int `json:"running_sessions"`
}

type terminateResponse struct {
	Time float64 `json:"time"`
}

func (c *Client) CreateWorker(ctx context.Context, spec domain.WorkerSpec) (domain.WorkerID, error) {
	if strings.TrimSpace(spec.URL) == "" {
		return "", errors.New("worker url is required")
	}

	body := createWorkerRequest{
		OS:             spec.Settings.OS,
		OSVersion:      spec.Settings.OSVersion,
		Browser:        spec.Settings.Browser,
		BrowserVersion: spec.Settings.BrowserVersion,
		Device:         spec.Settings.Device,
		RealMobile:     spec.Settings.RealMobile,
		Resolution:     spec.Settings.Resolution,
		URL:            spec.URL,
		Timeout:        int64(spec.WorkingTimeout / time.Second),
		Name:           spec.Job.Name,
		Build:          spec.Job.Build,
		Project:        spec.Job.Project,
	}
	if c.cfg.LocalIdentifier != "" {
		body.Local = true
		body.LocalIdentifier = c.cfg.LocalIdentifier
	}

	var out workerResponse
	if err := c.do(ctx, "create worker", http.MethodPost, "/worker", body, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", &domain.RemoteAPIError{Op: "create worker", Err: errors.New("response missing worker id")}
	}

	c.logger.Debug("worker created", "worker_id", out.ID, "browser", spec.Settings.Label())
	return domain.WorkerID(out.ID), nil
}

func (c *Client) GetWorker(ctx context.Context, id domain.WorkerID) (domain.Worker, error) {
	var out workerResponse
	if err := c.do(ctx, "get worker", http.MethodGet, "/worker/"+url.PathEscape(string(id)), nil, &out); err != nil {
		return domain.Worker{}, err
	}

	worker := toWorker(out)
	if worker.ID == "" {
		worker.ID = id
	}
	return worker, nil
}

func (c *Client) ListWorkers(ctx context.Context) ([]domain.Worker, error) {
	var out []workerResponse
	if err := c.do(ctx, "list workers", http.MethodGet, "/workers", nil, &out); err != nil {
		return nil, err
	}

	workers := make([]domain.Worker, 0, len(out))
	for _, entry := range out {
		workers = append(workers, toWorker(entry))
	}
	return workers, nil
}

func (c *Client) GetQuota(ctx context.Context) (domain.Quota, error) {
	var out statusResponse
	if err := c.do(ctx, "get quota", http.MethodGet, "/status", nil, &out); err != nil {
		return domain.Quota{}, err
	}
	return domain.Quota{MaxSessions: out.SessionsLimit}, nil
}

func (c *Client) TerminateWorker(ctx context.Context, id domain.WorkerID) (time.Duration, error) {
	var out terminateResponse
	if err := c.do(ctx, "terminate worker", http.MethodDelete, "/worker/"+url.PathEscape(string(id)), nil, &out); err != nil {
		return 0, err
	}

	elapsed := time.Duration(out.Time * float64(time.Second))
	c.logger.Debug("worker terminated", "worker_id", id, "elapsed", elapsed)
	return elapsed, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, in any, out any) error {
	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()

	var body io.Reader
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return &domain.RemoteAPIError{Op: op, Err: fmt.Errorf("encode request: %w", err)}
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(requestCtx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return &domain.RemoteAPIError{Op: op, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.Username != "" || c.cfg.AccessKey != "" {
		req.SetBasicAuth(c.cfg.Username, c.cfg.AccessKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		apiErr := &domain.RemoteAPIError{Op: op, Err: err}
		c.logger.Error("farm api request failed", "op", op, "error", err)
		return apiErr
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &domain.RemoteAPIError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := &domain.RemoteAPIError{Op: op, StatusCode: resp.StatusCode, Body: errorBody(data)}
		c.logger.Error("farm api returned failure status", "op", op, "status", resp.StatusCode)
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &domain.RemoteAPIError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}

	requestTimeout := c.cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}

	return context.WithTimeout(ctx, requestTimeout)
}

func toWorker(resp workerResponse) domain.Worker {
	return domain.Worker{
		ID:         domain.WorkerID(resp.ID),
		Status:     domain.WorkerStatus(resp.Status),
		SessionURL: resp.BrowserURL,
	}
}

func errorBody(data []byte) string {
	trimmed := strings.TrimSpace(string(data))
	if len(trimmed) > maxErrorBodyBytes {
		trimmed = trimmed[:maxErrorBodyBytes] + "..."
	}
	return trimmed
}

// workerIDField accepts both numeric and string worker ids.
type workerIDField string

func (f *workerIDField) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*f = ""
		return nil
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*f = workerIDField(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("decode worker id: %w", err)
	}
	if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
		return fmt.Errorf("decode worker id: %w", err)
	}
	*f = workerIDField(n.String())
	return nil
}
