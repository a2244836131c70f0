/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package collectionstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/suparena/collectionstore/datastore"
	"github.com/suparena/collectionstore/errors"
)

// Loader opens a database client. It runs at most once per initialization attempt.
type Loader func(ctx context.Context) (datastore.Client, error)

// HandleOption configures a ClientHandle.
type HandleOption func(*ClientHandle)

// WithStickyFailure keeps the first initialization failure forever; Reset clears it.
func WithStickyFailure() HandleOption {
	return func(h *ClientHandle) {
		h.sticky = true
	}
}

// WithRetryBackoff sets how long a failure is reported before a new attempt may start.
func WithRetryBackoff(d time.Duration) HandleOption {
	return func(h *ClientHandle) {
		h.backoff = d
	}
}

// WithHandleLogger sets the logger for initialization events.
func WithHandleLogger(logger zerolog.Logger) HandleOption {
	return func(h *ClientHandle) {
		h.logger = logger
	}
}

func withHandleClock(now func() time.Time) HandleOption {
	return func(h *ClientHandle) {
		h.now = now
	}
}

// attempt is one in-flight initialization shared by every concurrent caller.
type attempt struct {
	done   chan struct{}
	client datastore.Client
	err    error
}

// ClientHandle lazily opens a database client and memoizes it.
type ClientHandle struct {
	mu       sync.Mutex
	load     Loader
	client   datastore.Client
	inflight *attempt
	failure  error
	failedAt time.Time
	attempts int
	closed   bool

	sticky  bool
	backoff time.Duration
	now     func() time.Time
	logger  zerolog.Logger
}

// NewClientHandle returns a handle that calls load on first use.
func NewClientHandle(load Loader, opts ...HandleOption) *ClientHandle {
	h := &ClientHandle{
		load:   load,
		now:    time.Now,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewStaticHandle returns a handle that is already initialized with client.
func NewStaticHandle(client datastore.Client) *ClientHandle {
	h := NewClientHandle(func(context.Context) (datastore.Client, error) { return client, nil })
	h.client = client
	return h
}

// Get returns the client, starting or joining an initialization if needed.
//
// The loader is detached from ctx: a caller whose ctx ends gets ctx.Err() while
// the attempt keeps running for the other waiters and later callers.
func (h *ClientHandle) Get(ctx context.Context) (datastore.Client, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, errors.ErrHandleClosed
	}
	if h.client != nil {
		client := h.client
		h.mu.Unlock()
		return client, nil
	}
	if h.failure != nil && (h.sticky || h.now().Sub(h.failedAt) < h.backoff) {
		err := h.failure
		h.mu.Unlock()
		return nil, err
	}
	if h.load == nil {
		h.mu.Unlock()
		return nil, errors.NewInitError(0, fmt.Errorf("no loader configured"))
	}

	a := h.inflight
	if a == nil {
		h.attempts++
		a = &attempt{done: make(chan struct{})}
		h.inflight = a
		go h.run(context.WithoutCancel(ctx), a, h.attempts)
	}
	h.mu.Unlock()

	select {
	case <-a.done:
		return a.client, a.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *ClientHandle) run(ctx context.Context, a *attempt, n int) {
	h.logger.Debug().Int("attempt", n).Msg("initializing database client")
	client, err := h.callLoader(ctx)

	h.mu.Lock()
	h.inflight = nil
	switch {
	case err != nil:
		a.err = errors.NewInitError(n, err)
		h.failure = a.err
		h.failedAt = h.now()
		h.logger.Error().Err(err).Int("attempt", n).Msg("database client initialization failed")
	case h.closed:
		a.err = errors.ErrHandleClosed
		_ = client.Close()
	default:
		a.client = client
		h.client = client
		h.failure = nil
		h.logger.Info().Int("attempt", n).Msg("database client ready")
	}
	h.mu.Unlock()
	close(a.done)
}

func (h *ClientHandle) callLoader(ctx context.Context) (client datastore.Client, err error) {
	defer func() {
		if r := recover(); r != nil {
			client, err = nil, fmt.Errorf("loader panicked: %v", r)
		}
	}()
	client, err = h.load(ctx)
	if err == nil && client == nil {
		err = fmt.Errorf("loader returned no client")
	}
	return client, err
}

// Reset forgets a cached failure so the next Get starts a new attempt.
func (h *ClientHandle) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failure = nil
}

// Attempts reports how many initializations have been started.
func (h *ClientHandle) Attempts() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.attempts
}

// Close closes a loaded client. Later calls to Get return errors.ErrHandleClosed.
func (h *ClientHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	if h.client == nil {
		return nil
	}
	err := h.client.Close()
	h.client = nil
	return err
}

var (
	defaultMu     sync.Mutex
	defaultHandle *ClientHandle
)

// SetDefaultLoader replaces the process-wide handle returned by DefaultHandle.
// The previous handle is left open for callers still holding it.
func SetDefaultLoader(load Loader, opts ...HandleOption) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultHandle = NewClientHandle(load, opts...)
}

// DefaultHandle returns the process-wide handle. Without SetDefaultLoader its
// Get fails with errors.ErrClientInit.
func DefaultHandle() *ClientHandle {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultHandle == nil {
		defaultHandle = NewClientHandle(nil)
	}
	return defaultHandle
}
