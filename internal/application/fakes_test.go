package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bnema/browserfarm-cli/internal/domain"
	"github.com/bnema/browserfarm-cli/internal/ports"
	"github.com/stretchr/testify/mock"
)

// eventLog records cross-fake call order.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(event string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *eventLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

type fakeCorrelator struct {
	mu         sync.Mutex
	waiters    map[domain.CorrelationID]*fakePending
	registered []domain.CorrelationID
	onRegister func(id domain.CorrelationID)
	log        *eventLog

	started int
	closed  int
}

func newFakeCorrelator() *fakeCorrelator {
	return &fakeCorrelator{waiters: map[domain.CorrelationID]*fakePending{}}
}

func (c *fakeCorrelator) Register(id domain.CorrelationID) (ports.PendingOpen, error) {
	c.mu.Lock()
	if _, exists := c.waiters[id]; exists {
		c.mu.Unlock()
		return nil, fmt.Errorf("duplicate id %s", id)
	}
	p := &fakePending{id: id, owner: c, opened: make(chan struct{}), abandoned: make(chan struct{})}
	c.waiters[id] = p
	c.registered = append(c.registered, id)
	hook := c.onRegister
	c.mu.Unlock()

	c.log.add("register")
	if hook != nil {
		hook(id)
	}
	return p, nil
}

func (c *fakeCorrelator) OpenURL(id domain.CorrelationID, target string) string {
	return fmt.Sprintf("http://localhost:1000/%s?url=%s", id, target)
}

func (c *fakeCorrelator) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started++
	c.log.add("hub.start")
	return nil
}

func (c *fakeCorrelator) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
	c.log.add("hub.close")
	for id, p := range c.waiters {
		close(p.abandoned)
		delete(c.waiters, id)
	}
	return nil
}

func (c *fakeCorrelator) fire(id domain.CorrelationID) bool {
	c.mu.Lock()
	p, ok := c.waiters[id]
	delete(c.waiters, id)
	c.mu.Unlock()

	if ok {
		close(p.opened)
	}
	return ok
}

func (c *fakeCorrelator) waiting() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}

func (c *fakeCorrelator) registeredIDs() []domain.CorrelationID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.CorrelationID(nil), c.registered...)
}

type fakePending struct {
	id        domain.CorrelationID
	owner     *fakeCorrelator
	opened    chan struct{}
	abandoned chan struct{}
}

func (p *fakePending) ID() domain.CorrelationID {
	return p.id
}

func (p *fakePending) Opened() <-chan struct{} {
	return p.opened
}

func (p *fakePending) Abandoned() <-chan struct{} {
	return p.abandoned
}

func (p *fakePending) Cancel() {
	p.owner.mu.Lock()
	defer p.owner.mu.Unlock()
	if current, ok := p.owner.waiters[p.id]; ok && current == p {
		delete(p.owner.waiters, p.id)
	}
}

// inMemoryPool is a farm whose workers are running as soon as they exist.
type inMemoryPool struct {
	mu         sync.Mutex
	next       int
	workers    map[domain.WorkerID]domain.Worker
	specs      []domain.WorkerSpec
	terminated []domain.WorkerID
	createErr  error
	log        *eventLog
}

func newInMemoryPool() *inMemoryPool {
	return &inMemoryPool{workers: map[domain.WorkerID]domain.Worker{}}
}

func (p *inMemoryPool) CreateWorker(_ context.Context, spec domain.WorkerSpec) (domain.WorkerID, error) {
	p.log.add("create")

	p.mu.Lock()
	defer p.mu.Unlock()

	p.specs = append(p.specs, spec)
	if p.createErr != nil {
		return "", p.createErr
	}

	p.next++
	id := domain.WorkerID(fmt.Sprintf("w-%d", p.next))
	p.workers[id] = domain.Worker{
		ID:         id,
		Status:     domain.WorkerStatusRunning,
		SessionURL: fmt.Sprintf("https://live.example.com/%s", id),
	}
	return id, nil
}

func (p *inMemoryPool) GetWorker(_ context.Context, id domain.WorkerID) (domain.Worker, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	worker, ok := p.workers[id]
	if !ok {
		return domain.Worker{}, &domain.RemoteAPIError{Op: "get worker", StatusCode: 404}
	}
	return worker, nil
}

func (p *inMemoryPool) ListWorkers(context.Context) ([]domain.Worker, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	workers := make([]domain.Worker, 0, len(p.workers))
	for _, worker := range p.workers {
		workers = append(workers, worker)
	}
	sort.Slice(workers, func(i, j int) bool { return workers[i].ID < workers[j].ID })
	return workers, nil
}

func (p *inMemoryPool) GetQuota(context.Context) (domain.Quota, error) {
	return domain.Quota{MaxSessions: 5}, nil
}

func (p *inMemoryPool) TerminateWorker(_ context.Context, id domain.WorkerID) (time.Duration, error) {
	p.log.add("terminate")

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.workers[id]; !ok {
		return 0, &domain.RemoteAPIError{Op: "terminate worker", StatusCode: 404}
	}
	delete(p.workers, id)
	p.terminated = append(p.terminated, id)
	return 3 * time.Second, nil
}

func (p *inMemoryPool) counts() (creates int, terminates int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.specs), len(p.terminated)
}

type fakeTunnel struct {
	startErr error
	stopErr  error
	log      *eventLog
}

func (t *fakeTunnel) Start(context.Context) error {
	t.log.add("tunnel.start")
	return t.startErr
}

func (t *fakeTunnel) Stop(context.Context) error {
	t.log.add("tunnel.stop")
	return t.stopErr
}

type inMemorySessionRepo struct {
	mu      sync.Mutex
	records map[domain.WorkerID]domain.SessionRecord
}

func newInMemorySessionRepo() *inMemorySessionRepo {
	return &inMemorySessionRepo{records: map[domain.WorkerID]domain.SessionRecord{}}
}

func (r *inMemorySessionRepo) GetByID(_ context.Context, id domain.WorkerID) (domain.SessionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[id]
	if !ok {
		return domain.SessionRecord{}, domain.ErrSessionNotFound
	}
	return record, nil
}

func (r *inMemorySessionRepo) List(context.Context) ([]domain.SessionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	records := make([]domain.SessionRecord, 0, len(r.records))
	for _, record := range r.records {
		records = append(records, record)
	}
	return records, nil
}

func (r *inMemorySessionRepo) Save(_ context.Context, record domain.SessionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[record.WorkerID] = record
	return nil
}

func (r *inMemorySessionRepo) Delete(_ context.Context, id domain.WorkerID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[id]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(r.records, id)
	return nil
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

var errBoom = errors.New("boom")

func fastOptions(openingTimeout time.Duration) OpenOptions {
	return OpenOptions{
		OpeningTimeout: openingTimeout,
		WorkingTimeout: 10 * time.Minute,
		PollInterval:   5 * time.Millisecond,
		PollAttempts:   5,
	}
}

func chromeRequest() OpenRequest {
	return OpenRequest{
		Settings: domain.BrowserSettings{OS: "Windows", OSVersion: "11", Browser: "chrome", BrowserVersion: "120"},
		URL:      "http://localhost:3000/test",
		Job:      domain.JobMeta{Name: "smoke", Build: "b-1"},
	}
}

func mockAnyContext() interface{} {
	return mock.Anything
}
