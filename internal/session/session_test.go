package session

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"budgetbook/internal/core"
)

// countingIdentity counts CurrentUser calls to observe memoization.
type countingIdentity struct {
	mu    sync.Mutex
	user  *core.User
	err   error
	prefs map[string]core.Preferences
	calls atomic.Int64
}

func (c *countingIdentity) CurrentUser(_ context.Context) (*core.User, error) {
	c.calls.Add(1)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	if c.user == nil {
		return nil, nil
	}
	u := *c.user
	return &u, nil
}

func (c *countingIdentity) GetPrefs(_ context.Context, userID string) (core.Preferences, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.prefs[userID]; ok {
		return p, nil
	}
	return core.DefaultPreferences(), nil
}

func (c *countingIdentity) UpdatePrefs(_ context.Context, userID string, prefs core.Preferences) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.prefs == nil {
		c.prefs = make(map[string]core.Preferences)
	}
	c.prefs[userID] = prefs
	return nil
}

func TestUserMemoized(t *testing.T) {
	ctx := context.Background()
	ident := &countingIdentity{user: &core.User{ID: "u1"}}
	s := New(ident)

	for i := 0; i < 3; i++ {
		u, err := s.User(ctx)
		if err != nil || u == nil || u.ID != "u1" {
			t.Fatalf("call %d: got (%v, %v)", i, u, err)
		}
	}
	if got := ident.calls.Load(); got != 1 {
		t.Fatalf("expected 1 backend lookup, got %d", got)
	}
}

func TestSignedOutIsNotCached(t *testing.T) {
	ctx := context.Background()
	ident := &countingIdentity{}
	s := New(ident)

	u, err := s.User(ctx)
	if err != nil || u != nil {
		t.Fatalf("expected (nil, nil), got (%v, %v)", u, err)
	}
	// Signing in afterwards must be picked up by the next call.
	ident.mu.Lock()
	ident.user = &core.User{ID: "u1"}
	ident.mu.Unlock()

	u, err = s.User(ctx)
	if err != nil || u == nil || u.ID != "u1" {
		t.Fatalf("expected fresh lookup after signed-out state, got (%v, %v)", u, err)
	}
}

func TestUserErrorSurfaces(t *testing.T) {
	ident := &countingIdentity{err: errors.New("backend down")}
	s := New(ident)
	if _, err := s.User(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestConcurrentResolutionCoalesces(t *testing.T) {
	ctx := context.Background()
	ident := &countingIdentity{user: &core.User{ID: "u1"}}
	s := New(ident)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.User(ctx); err != nil {
				t.Errorf("user: %v", err)
			}
		}()
	}
	wg.Wait()

	// Coalescing plus memoization keeps the lookup count far below the
	// caller count; with the cache checked first it is typically 1.
	if got := ident.calls.Load(); got > 2 {
		t.Fatalf("expected coalesced lookups, got %d", got)
	}
}

func TestInvalidateDropsIdentity(t *testing.T) {
	ctx := context.Background()
	ident := &countingIdentity{user: &core.User{ID: "u1"}}
	s := New(ident)

	if _, err := s.User(ctx); err != nil {
		t.Fatalf("user: %v", err)
	}
	s.Invalidate()
	if _, err := s.User(ctx); err != nil {
		t.Fatalf("user: %v", err)
	}
	if got := ident.calls.Load(); got != 2 {
		t.Fatalf("expected re-resolution after invalidate, got %d calls", got)
	}
}

func TestPreferences(t *testing.T) {
	ctx := context.Background()
	ident := &countingIdentity{user: &core.User{ID: "u1"}}
	s := New(ident)

	prefs, err := s.Preferences(ctx)
	if err != nil {
		t.Fatalf("preferences: %v", err)
	}
	if prefs != core.DefaultPreferences() {
		t.Fatalf("expected defaults, got %+v", prefs)
	}

	prefs.Currency = "USD"
	prefs.SavingsRate = math.NaN() // saved as the default rate
	if err := s.SavePreferences(ctx, prefs); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Preferences(ctx)
	if err != nil {
		t.Fatalf("preferences: %v", err)
	}
	if got.Currency != "USD" || got.SavingsRate != 20 {
		t.Fatalf("unexpected prefs: %+v", got)
	}
}
