package progress

import (
	"context"
	"sync"
	"time"

	"github.com/kat-co/vala"

	"github.com/nxtwiseedu/nxtwise-lms/core"
	"github.com/nxtwiseedu/nxtwise-lms/core/auth"
	"github.com/nxtwiseedu/nxtwise-lms/core/course"
)

type sessionKey struct {
	owner    string // "u:<user id>" or "g:<guest id>"
	courseID string
}

type session struct {
	tracker  *Tracker
	ready    chan struct{}
	state    State
	err      error
	lastUsed time.Time
}

// Sessions holds one hydrated Tracker per (viewer, course).
// Signed in users are keyed by user id, guests by an opaque guest id; guests run in local-only mode.
type Sessions struct {
	catalog  course.Catalog
	store    Store
	identity auth.Provider
	logger   core.Logger

	mu      sync.Mutex
	entries map[sessionKey]*session
	closed  bool
}

func NewSessions(catalog course.Catalog, store Store, identity auth.Provider, logger core.Logger) *Sessions {
	return &Sessions{
		catalog:  catalog,
		store:    store,
		identity: identity,
		logger:   logger,
		entries:  make(map[sessionKey]*session),
	}
}

// Get returns the tracker of the current viewer for courseID, hydrating it on first use.
// Unknown courses are never cached, so a course published later is picked up on the next call.
func (ss *Sessions) Get(ctx context.Context, courseID, guestID string) (*Tracker, State, error) {
	courseID = core.CleanString(courseID)
	if err := core.CheckArguments(vala.StringNotEmpty(courseID, "courseID")); err != nil {
		return nil, State{}, err
	}
	ss.mu.Lock()
	closed := ss.closed
	ss.mu.Unlock()
	if closed {
		return nil, State{}, core.NewShutdownError("progress sessions closed")
	}

	userID, _ := ss.identity.CurrentUserID(ctx)
	userID = core.CleanString(userID)
	guestID = core.CleanString(guestID)

	var key sessionKey
	switch {
	case userID != "":
		key = sessionKey{owner: "u:" + userID, courseID: courseID}
	case guestID != "":
		key = sessionKey{owner: "g:" + guestID, courseID: courseID}
	default:
		// anonymous without a guest id: a throwaway tracker
		t := NewTracker(ss.catalog, ss.store, ss.logger)
		st, err := t.Hydrate(ctx, courseID, "")
		return t, st, err
	}

	ss.mu.Lock()
	s, ok := ss.entries[key]
	if ss.closed {
		ss.mu.Unlock()
		return nil, State{}, core.NewShutdownError("progress sessions closed")
	}
	if ok {
		s.lastUsed = NowFunc()
		ss.mu.Unlock()
		select {
		case <-s.ready:
		case <-ctx.Done():
			return nil, State{}, ctx.Err()
		}
		if s.err != nil {
			return nil, State{}, s.err
		}
		if s.state.NotFound {
			return s.tracker, s.state, nil
		}
		return s.tracker, s.tracker.State(), nil
	}
	s = &session{
		tracker:  NewTracker(ss.catalog, ss.store, ss.logger),
		ready:    make(chan struct{}),
		lastUsed: NowFunc(),
	}
	ss.entries[key] = s
	ss.mu.Unlock()

	s.state, s.err = s.tracker.Hydrate(ctx, courseID, userID)
	if s.err != nil || s.state.NotFound {
		ss.mu.Lock()
		if ss.entries[key] == s {
			delete(ss.entries, key)
		}
		ss.mu.Unlock()
	}
	close(s.ready)
	if s.err != nil {
		return nil, State{}, s.err
	}
	return s.tracker, s.state, nil
}

// Len returns the number of live sessions.
func (ss *Sessions) Len() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return len(ss.entries)
}

// Sweep evicts the sessions unused for longer than idle, after draining their writes.
// It returns the number of evicted sessions.
func (ss *Sessions) Sweep(ctx context.Context, idle time.Duration) int {
	deadline := NowFunc().Add(-idle)

	ss.mu.Lock()
	var evicted []*session
	for key, s := range ss.entries {
		select {
		case <-s.ready:
		default:
			continue // still hydrating
		}
		if s.lastUsed.Before(deadline) {
			evicted = append(evicted, s)
			delete(ss.entries, key)
		}
	}
	ss.mu.Unlock()

	for _, s := range evicted {
		if err := s.tracker.Drain(ctx); err != nil {
			ss.logger.Warn("progress: draining evicted session: "+err.Error(), core.Person{ID: s.state.UserID})
		}
	}
	return len(evicted)
}

// Close drains the writes of every session and forgets them.
// Get fails with a shutdown error afterwards.
func (ss *Sessions) Close(ctx context.Context) error {
	ss.mu.Lock()
	ss.closed = true
	entries := ss.entries
	ss.entries = make(map[sessionKey]*session)
	ss.mu.Unlock()

	for _, s := range entries {
		if err := s.tracker.Drain(ctx); err != nil {
			return err
		}
	}
	return nil
}
