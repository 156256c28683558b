package calllog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Supported request methods.
const (
	MethodGet   = "get"
	MethodQuery = "query"
)

// Capability names a permission the controller needs before reading.
type Capability string

const CapabilityReadCallLog Capability = "read_call_log"

// Request is one inbound method call. Args is ignored for MethodGet.
type Request struct {
	Method string
	Args   map[string]string
}

// Outcome is the single terminal result of a submitted request.
// RequestID is empty when the request was rejected before it was admitted.
type Outcome struct {
	RequestID string
	Entries   []EnrichedCallEntry
	Err       error
}

// Phase is the controller's position in the request lifecycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAwaitingPermission
	PhaseExecuting
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAwaitingPermission:
		return "awaiting_permission"
	case PhaseExecuting:
		return "executing"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// PermissionGate is the permission subsystem. RequestGrant starts a prompt whose
// answer comes back through Controller.OnPermissionResult with the same requestID,
// possibly never.
type PermissionGate interface {
	CheckGranted(ctx context.Context, c Capability) (bool, error)
	RequestGrant(ctx context.Context, c Capability, requestID string) error
}

// Store is the read side of the call log.
type Store interface {
	Query(ctx context.Context, p *Predicate, order Sort) ([]CallRecord, error)
}

// Enricher joins records with contacts. *Pipeline implements it.
type Enricher interface {
	Enrich(ctx context.Context, records []CallRecord, region string) ([]EnrichedCallEntry, error)
}

// Slot is an optional single-flight lease shared across processes.
type Slot interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// OutcomeEvent describes a terminal outcome for auditing.
type OutcomeEvent struct {
	RequestID string
	Method    string
	Kind      Kind
	Entries   int
	Message   string
	Started   time.Time
	Finished  time.Time
}

// Recorder receives every terminal outcome. Recording is best-effort.
type Recorder interface {
	RecordOutcome(ctx context.Context, e OutcomeEvent) error
}

// Options tunes a Controller. The zero value is usable.
type Options struct {
	// Region is the upper-case region code used for number normalization.
	Region string
	// ExecTimeout bounds the executing phase. Zero means no bound.
	ExecTimeout time.Duration

	Slot     Slot
	Recorder Recorder
	Logger   *slog.Logger
}

// Controller admits at most one request at a time and drives it through
// permission, query and enrichment to exactly one Outcome.
type Controller struct {
	gate     PermissionGate
	store    Store
	enricher Enricher
	opts     Options
	log      *slog.Logger
	clock    func() time.Time

	mu      sync.Mutex
	pending *requestState
}

// requestState is the one in-flight request. It is owned by Controller and
// only read or written under Controller.mu.
type requestState struct {
	id       string
	req      Request
	phase    Phase
	ctx      context.Context
	out      chan Outcome
	slotHeld bool
	started  time.Time
}

func NewController(gate PermissionGate, store Store, enricher Enricher, opts Options) *Controller {
	l := opts.Logger
	if l == nil {
		l = slog.Default()
	}
	return &Controller{
		gate:     gate,
		store:    store,
		enricher: enricher,
		opts:     opts,
		log:      l,
		clock:    time.Now,
	}
}

// State returns the current phase.
func (c *Controller) State() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return PhaseIdle
	}
	return c.pending.phase
}

// PendingID returns the id of the in-flight request, if any.
func (c *Controller) PendingID() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return "", false
	}
	return c.pending.id, true
}

// Submit admits req and returns a channel that receives exactly one Outcome.
// A request submitted while another is in flight fails with ALREADY_RUNNING and
// leaves the in-flight one untouched.
func (c *Controller) Submit(ctx context.Context, req Request) <-chan Outcome {
	out := make(chan Outcome, 1)

	c.mu.Lock()
	if c.pending != nil {
		c.mu.Unlock()
		c.reject(ctx, req, out, alreadyRunning())
		return out
	}
	if req.Method != MethodGet && req.Method != MethodQuery {
		c.mu.Unlock()
		c.reject(ctx, req, out, notImplemented(req.Method))
		return out
	}
	slotHeld := false
	if c.opts.Slot != nil {
		ok, err := c.opts.Slot.Acquire(ctx)
		if err != nil {
			c.mu.Unlock()
			c.reject(ctx, req, out, internalError(fmt.Errorf("acquire slot: %w", err)))
			return out
		}
		if !ok {
			c.mu.Unlock()
			c.reject(ctx, req, out, alreadyRunning())
			return out
		}
		slotHeld = true
	}
	st := &requestState{
		id:       uuid.NewString(),
		req:      req,
		phase:    PhaseAwaitingPermission,
		ctx:      context.WithoutCancel(ctx),
		out:      out,
		slotHeld: slotHeld,
		started:  c.clock(),
	}
	c.pending = st
	c.mu.Unlock()

	c.log.Debug("calllog request admitted", "request_id", st.id, "method", req.Method)

	granted, err := c.gate.CheckGranted(ctx, CapabilityReadCallLog)
	if err != nil {
		c.finish(st, Outcome{Err: internalError(fmt.Errorf("check permission: %w", err))})
		return out
	}
	if granted {
		if c.advance(st) {
			go c.execute(st)
		}
		return out
	}

	c.log.Debug("calllog awaiting permission", "request_id", st.id)
	if err := c.gate.RequestGrant(ctx, CapabilityReadCallLog, st.id); err != nil {
		c.finish(st, Outcome{Err: internalError(fmt.Errorf("request permission: %w", err))})
	}
	return out
}

// Do submits req and waits for its outcome. ctx bounds only the wait; the
// request itself keeps running and still reaches a terminal outcome.
func (c *Controller) Do(ctx context.Context, req Request) ([]EnrichedCallEntry, error) {
	select {
	case o := <-c.Submit(ctx, req):
		return o.Entries, o.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// OnPermissionResult delivers a permission answer for requestID. Answers for a
// request that is not awaiting permission are discarded.
func (c *Controller) OnPermissionResult(requestID string, granted bool) {
	c.mu.Lock()
	st := c.pending
	if st == nil || st.id != requestID || st.phase != PhaseAwaitingPermission {
		c.mu.Unlock()
		c.log.Debug("calllog stale permission result discarded", "request_id", requestID, "granted", granted)
		return
	}
	if !granted {
		c.pending = nil
		c.mu.Unlock()
		c.complete(st, Outcome{Err: &Error{Kind: KindPermissionNotGranted}})
		return
	}
	st.phase = PhaseExecuting
	c.mu.Unlock()

	go c.execute(st)
}

// advance moves st from awaiting permission to executing.
func (c *Controller) advance(st *requestState) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending != st || st.phase != PhaseAwaitingPermission {
		return false
	}
	st.phase = PhaseExecuting
	return true
}

func (c *Controller) execute(st *requestState) {
	ctx := st.ctx
	if c.opts.ExecTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.ExecTimeout)
		defer cancel()
	}

	entries, err := c.run(ctx, st.req)
	if err != nil {
		c.finish(st, Outcome{Err: internalError(err)})
		return
	}
	c.finish(st, Outcome{Entries: entries})
}

func (c *Controller) run(ctx context.Context, req Request) (entries []EnrichedCallEntry, err error) {
	defer func() {
		if r := recover(); r != nil {
			entries, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	if c.store == nil || c.enricher == nil {
		return nil, errors.New("calllog: controller not configured")
	}

	var filter QueryFilter
	if req.Method == MethodQuery {
		filter, err = ParseQueryFilter(req.Args)
		if err != nil {
			return nil, err
		}
	}
	records, err := c.store.Query(ctx, BuildPredicate(filter), SortByDateDesc)
	if err != nil {
		return nil, err
	}
	return c.enricher.Enrich(ctx, records, c.opts.Region)
}

// finish clears st if it is still pending and then delivers o.
func (c *Controller) finish(st *requestState, o Outcome) {
	c.mu.Lock()
	if c.pending != st {
		c.mu.Unlock()
		return
	}
	c.pending = nil
	c.mu.Unlock()
	c.complete(st, o)
}

// complete runs after st has been cleared.
func (c *Controller) complete(st *requestState, o Outcome) {
	o.RequestID = st.id
	if st.slotHeld {
		ctx, cancel := context.WithTimeout(st.ctx, 5*time.Second)
		if err := c.opts.Slot.Release(ctx); err != nil {
			c.log.Warn("calllog slot release failed", "request_id", st.id, "err", err)
		}
		cancel()
	}
	c.report(st.ctx, st.id, st.req.Method, st.started, o)
	st.out <- o
}

func (c *Controller) reject(ctx context.Context, req Request, out chan Outcome, err *Error) {
	o := Outcome{Err: err}
	c.report(ctx, "", req.Method, c.clock(), o)
	out <- o
}

func (c *Controller) report(ctx context.Context, id, method string, started time.Time, o Outcome) {
	kind := KindOf(o.Err)
	attrs := []any{"request_id", id, "method", method, "entries", len(o.Entries)}
	switch kind {
	case "":
		c.log.Info("calllog request completed", attrs...)
	case KindInternal:
		c.log.Error("calllog request failed", append(attrs, "kind", string(kind), "err", o.Err)...)
	default:
		c.log.Warn("calllog request rejected", append(attrs, "kind", string(kind))...)
	}

	if c.opts.Recorder == nil {
		return
	}
	e := OutcomeEvent{
		RequestID: id,
		Method:    method,
		Kind:      kind,
		Entries:   len(o.Entries),
		Started:   started,
		Finished:  c.clock(),
	}
	var ce *Error
	if errors.As(o.Err, &ce) {
		e.Message = ce.Message
	}
	if err := c.opts.Recorder.RecordOutcome(context.WithoutCancel(ctx), e); err != nil {
		c.log.Warn("calllog audit record failed", "request_id", id, "err", err)
	}
}
