package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/tdesai7/secondbrain-backend/internal/types"
)

// Handler processes one delivery of a job. Returning an error requests
// redelivery with backoff (up to the job's MaxAttempts); returning nil
// finishes the job. Handlers must be idempotent: the same job can be
// delivered more than once.
type Handler interface {
	Queue() string
	Run(ctx context.Context, job *types.Job) error
}

type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

func (r *Registry) Register(h Handler) error {
	if h == nil {
		return fmt.Errorf("nil handler")
	}
	q := h.Queue()
	if q == "" {
		return fmt.Errorf("handler Queue() is empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[q]; exists {
		return fmt.Errorf("handler already registered for queue=%s", q)
	}
	r.handlers[q] = h
	return nil
}

func (r *Registry) Get(queue string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[queue]
	return h, ok
}

func (r *Registry) Queues() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.handlers))
	for q := range r.handlers {
		out = append(out, q)
	}
	return out
}
