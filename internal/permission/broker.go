// Package permission holds the permission subsystem the call log controller
// talks to: granted capabilities plus the prompts still waiting for an answer.
package permission

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"callhistory/internal/calllog"
)

var (
	ErrPromptNotFound  = errors.New("permission: prompt not found")
	ErrDuplicatePrompt = errors.New("permission: prompt already pending")
	ErrInvalidPrompt   = errors.New("permission: invalid prompt")
)

// Prompt is an unanswered request for a capability.
type Prompt struct {
	RequestID  string             `json:"request_id"`
	Capability calllog.Capability `json:"capability"`
	CreatedAt  time.Time          `json:"created_at"`
}

// ResultFunc receives each answer exactly once per prompt.
type ResultFunc func(requestID string, granted bool)

// Broker implements calllog.PermissionGate. Prompts are keyed by request id;
// a granted answer is remembered for later checks, a denial is not.
type Broker struct {
	mu       sync.Mutex
	granted  map[calllog.Capability]bool
	prompts  map[string]Prompt
	onResult ResultFunc
	clock    func() time.Time
}

func NewBroker() *Broker {
	return &Broker{
		granted: make(map[calllog.Capability]bool),
		prompts: make(map[string]Prompt),
		clock:   time.Now,
	}
}

// OnResult sets where answers are delivered. It is usually
// (*calllog.Controller).OnPermissionResult.
func (b *Broker) OnResult(fn ResultFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onResult = fn
}

func (b *Broker) CheckGranted(ctx context.Context, c calllog.Capability) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.granted[c], nil
}

func (b *Broker) RequestGrant(ctx context.Context, c calllog.Capability, requestID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if requestID == "" || c == "" {
		return ErrInvalidPrompt
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.prompts[requestID]; ok {
		return ErrDuplicatePrompt
	}
	b.prompts[requestID] = Prompt{RequestID: requestID, Capability: c, CreatedAt: b.clock().UTC()}
	return nil
}

// Pending lists unanswered prompts, oldest first.
func (b *Broker) Pending() []Prompt {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Prompt, 0, len(b.prompts))
	for _, p := range b.prompts {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].RequestID < out[j].RequestID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Resolve answers a pending prompt. Each prompt resolves once; later calls
// return ErrPromptNotFound.
func (b *Broker) Resolve(requestID string, granted bool) error {
	b.mu.Lock()
	p, ok := b.prompts[requestID]
	if !ok {
		b.mu.Unlock()
		return ErrPromptNotFound
	}
	delete(b.prompts, requestID)
	if granted {
		b.granted[p.Capability] = true
	}
	fn := b.onResult
	b.mu.Unlock()

	if fn != nil {
		fn(requestID, granted)
	}
	return nil
}

// Grant records c as granted without a prompt.
func (b *Broker) Grant(c calllog.Capability) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.granted[c] = true
}

// Revoke forgets a grant. Pending prompts are untouched.
func (b *Broker) Revoke(c calllog.Capability) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.granted, c)
}
