package session

import (
	"context"
	"fmt"
	"math"
	"sync"

	"golang.org/x/sync/singleflight"

	"budgetbook/internal/core"
	"budgetbook/internal/store"
)

// Session resolves and memoizes the authenticated identity for one
// application lifetime. Concurrent callers during resolution share a
// single in-flight lookup; once resolved, the cached identity serves all
// future calls until Invalidate. A signed-out state (nil user) is not
// cached, so the next call retries the lookup.
type Session struct {
	ident store.IdentityStore
	group singleflight.Group

	mu    sync.Mutex
	user  *core.User
	prefs *core.Preferences
}

func New(ident store.IdentityStore) *Session {
	return &Session{ident: ident}
}

// User returns the current user, or nil when nobody is signed in.
func (s *Session) User(ctx context.Context) (*core.User, error) {
	s.mu.Lock()
	if s.user != nil {
		u := *s.user
		s.mu.Unlock()
		return &u, nil
	}
	s.mu.Unlock()

	v, err, _ := s.group.Do("current-user", func() (any, error) {
		user, err := s.ident.CurrentUser(ctx)
		if err != nil {
			return nil, err
		}
		if user != nil {
			s.mu.Lock()
			s.user = user
			s.mu.Unlock()
		}
		return user, nil
	})
	if err != nil {
		return nil, fmt.Errorf("resolve current user: %w", err)
	}
	user, _ := v.(*core.User)
	if user == nil {
		return nil, nil
	}
	u := *user
	return &u, nil
}

// UserID returns the current user's id, or "" when signed out.
func (s *Session) UserID(ctx context.Context) (string, error) {
	user, err := s.User(ctx)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", nil
	}
	return user.ID, nil
}

// Invalidate drops the cached identity and preferences, e.g. on logout.
func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.prefs = nil
}

// Preferences loads the user's preferences once and caches them until
// saved or invalidated. Load failures fall back to defaults silently.
func (s *Session) Preferences(ctx context.Context) (core.Preferences, error) {
	s.mu.Lock()
	if s.prefs != nil {
		p := *s.prefs
		s.mu.Unlock()
		return p, nil
	}
	s.mu.Unlock()

	userID, err := s.UserID(ctx)
	if err != nil || userID == "" {
		return core.DefaultPreferences(), nil
	}
	prefs, err := s.ident.GetPrefs(ctx, userID)
	if err != nil {
		return core.DefaultPreferences(), nil
	}

	s.mu.Lock()
	s.prefs = &prefs
	s.mu.Unlock()
	return prefs, nil
}

// SavePreferences persists preferences and refreshes the cache. A savings
// rate that is not a usable number is saved as the default 20.
func (s *Session) SavePreferences(ctx context.Context, prefs core.Preferences) error {
	userID, err := s.UserID(ctx)
	if err != nil {
		return err
	}
	if userID == "" {
		return nil
	}
	if math.IsNaN(prefs.SavingsRate) || math.IsInf(prefs.SavingsRate, 0) {
		prefs.SavingsRate = 20
	}
	if err := s.ident.UpdatePrefs(ctx, userID, prefs); err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	s.mu.Lock()
	s.prefs = &prefs
	s.mu.Unlock()
	return nil
}
