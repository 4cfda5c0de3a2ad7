// Package session owns the process-wide auth/role cache. The cache is
// single-writer: only Bootstrap and SetPreferredRole mutate it, every
// role-gated consumer reads through it.
package session

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/tgadmarket/miniapp/internal/api"
	"github.com/tgadmarket/miniapp/internal/models"
)

// Phase is the session lifecycle.
type Phase int

const (
	Uninitialized Phase = iota
	Bootstrapping
	Ready
)

// AuthService is the slice of the marketplace API the session needs.
type AuthService interface {
	Me(ctx context.Context) (*models.User, error)
	UpdateRolePreference(ctx context.Context, role models.Role) (*api.RolePreference, error)
}

type Store struct {
	auth AuthService

	mu    sync.Mutex
	phase Phase
	user  *models.User

	group singleflight.Group
}

func NewStore(auth AuthService) *Store {
	return &Store{auth: auth}
}

// Phase returns the current lifecycle phase.
func (s *Store) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// CurrentUser returns the cached profile, if the session is ready.
func (s *Store) CurrentUser() (*models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != Ready || s.user == nil {
		return nil, false
	}
	copied := *s.user
	return &copied, true
}

// Role returns the cached role preference; nil means no role chosen or
// session not yet bootstrapped.
func (s *Store) Role() *models.Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	return s.user.PreferredRole
}

// Bootstrap fetches the current user profile exactly once even when
// called from concurrent navigations: callers entering while a fetch is
// in flight share its result. A failed bootstrap resets the phase so a
// later navigation retries.
func (s *Store) Bootstrap(ctx context.Context) (*models.User, error) {
	s.mu.Lock()
	if s.phase == Ready && s.user != nil {
		copied := *s.user
		s.mu.Unlock()
		return &copied, nil
	}
	s.phase = Bootstrapping
	s.mu.Unlock()

	result, err, _ := s.group.Do("bootstrap", func() (any, error) {
		// The fetch outlives any one caller's navigation; don't let the
		// first cancelled request kill the shared flight.
		user, err := s.auth.Me(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.user = user
		s.phase = Ready
		s.mu.Unlock()
		return user, nil
	})
	if err != nil {
		s.mu.Lock()
		if s.phase == Bootstrapping {
			s.phase = Uninitialized
		}
		s.mu.Unlock()
		return nil, fmt.Errorf("session bootstrap: %w", err)
	}

	copied := *result.(*models.User)
	return &copied, nil
}

// SetPreferredRole persists the role choice and updates the cache from
// the server's response rather than the submitted value.
func (s *Store) SetPreferredRole(ctx context.Context, role models.Role) error {
	if !role.Valid() {
		return fmt.Errorf("invalid role %q", role)
	}
	resp, err := s.auth.UpdateRolePreference(ctx, role)
	if err != nil {
		return fmt.Errorf("updating role preference: %w", err)
	}

	s.mu.Lock()
	cached := s.user != nil
	if cached {
		s.user.PreferredRole = resp.PreferredRole
	}
	s.mu.Unlock()

	if !cached {
		if _, err := s.Bootstrap(ctx); err != nil {
			return err
		}
	}
	return nil
}
