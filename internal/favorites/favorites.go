// Package favorites implements the optimistic favorite toggle.
//
// A [Toggle] starts Unknown and resolves once through an existence check. After that each call flips the
// local state first, then writes. A failed write reverts to the state before the flip. There is no retry and
// no locking between toggles of different clients, so the last response wins.
package favorites

import (
	"context"
	"fmt"
	"sync"
)

// Store persists existence-only (user, song) pairs.
type Store interface {
	Exists(ctx context.Context, userID, songID string) (bool, error)
	Add(ctx context.Context, userID, songID string) error
	Remove(ctx context.Context, userID, songID string) error
}

// State is the local view of a favorite.
type State int

const (
	Unknown State = iota
	Favorited
	NotFavorited
)

func (s State) String() string {
	switch s {
	case Favorited:
		return "favorited"
	case NotFavorited:
		return "not_favorited"
	default:
		return "unknown"
	}
}

func stateOf(exists bool) State {
	if exists {
		return Favorited
	}
	return NotFavorited
}

// Result reports one toggle. Previous is the state to roll back to. On error Current equals Previous.
type Result struct {
	Previous State
	Current  State
	Err      error
}

// Toggle tracks the favorite state of one song for one user.
type Toggle struct {
	mu     sync.Mutex
	store  Store
	userID string
	songID string
	state  State
}

// New creates an unresolved toggle.
func New(store Store, userID, songID string) *Toggle {
	return &Toggle{store: store, userID: userID, songID: songID}
}

// State returns the local state without touching the store.
func (t *Toggle) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Resolve runs the existence check once. Later calls return the cached state.
func (t *Toggle) Resolve(ctx context.Context) (State, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.resolve(ctx)
}

func (t *Toggle) resolve(ctx context.Context) (State, error) {
	if t.state != Unknown {
		return t.state, nil
	}
	exists, err := t.store.Exists(ctx, t.userID, t.songID)
	if err != nil {
		return Unknown, fmt.Errorf("failed to check favorite: %w", err)
	}
	t.state = stateOf(exists)
	return t.state, nil
}

// Toggle flips the state and writes it. An Unknown toggle resolves first.
func (t *Toggle) Toggle(ctx context.Context) Result {
	t.mu.Lock()
	previous, err := t.resolve(ctx)
	if err != nil {
		t.mu.Unlock()
		return Result{Previous: Unknown, Current: Unknown, Err: err}
	}

	tentative := NotFavorited
	if previous == NotFavorited {
		tentative = Favorited
	}
	t.state = tentative
	t.mu.Unlock()

	if tentative == Favorited {
		err = t.store.Add(ctx, t.userID, t.songID)
	} else {
		err = t.store.Remove(ctx, t.userID, t.songID)
	}

	if err != nil {
		t.mu.Lock()
		t.state = previous
		t.mu.Unlock()
		return Result{Previous: previous, Current: previous, Err: fmt.Errorf("failed to update favorite: %w", err)}
	}
	return Result{Previous: previous, Current: tentative}
}

// Set writes the wanted state directly. It is used by idempotent PUT and DELETE requests.
func Set(ctx context.Context, store Store, userID, songID string, favorite bool) error {
	if favorite {
		return store.Add(ctx, userID, songID)
	}
	return store.Remove(ctx, userID, songID)
}
