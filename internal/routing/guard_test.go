package routing

import (
	"context"
	"errors"
	"testing"

	"github.com/tgadmarket/miniapp/internal/models"
)

type fakeBootstrapper struct {
	user  *models.User
	err   error
	calls int
}

func (f *fakeBootstrapper) Bootstrap(ctx context.Context) (*models.User, error) {
	f.calls++
	return f.user, f.err
}

func userWithRole(role models.Role) *models.User {
	u := &models.User{ID: 1, TelegramUserID: 1001}
	if role != "" {
		u.PreferredRole = &role
	}
	return u
}

func TestGuard_Decide_Proceeds(t *testing.T) {
	guard := NewGuard(&fakeBootstrapper{user: userWithRole(models.RoleOwner)}, DefaultTable())

	decision, err := guard.Decide(context.Background(), "/owner/deals")
	if err != nil {
		t.Fatalf("Decide() returned error: %v", err)
	}
	if !decision.Proceed {
		t.Errorf("Expected proceed, got redirect to %q", decision.Redirect)
	}
}

func TestGuard_Decide_CrossRoleRedirect(t *testing.T) {
	guard := NewGuard(&fakeBootstrapper{user: userWithRole(models.RoleAdvertiser)}, DefaultTable())

	decision, err := guard.Decide(context.Background(), "/owner/deals")
	if err != nil {
		t.Fatalf("Decide() returned error: %v", err)
	}
	if decision.Proceed {
		t.Fatal("Expected a redirect for a cross-role deep link")
	}
	if decision.Redirect != AdvertiserDefaultPath {
		t.Errorf("Expected redirect to %s, got %s", AdvertiserDefaultPath, decision.Redirect)
	}
}

func TestGuard_Decide_SelfRedirectProceeds(t *testing.T) {
	// A null-role user resolving "/" targets /profile; navigating to
	// /profile itself must not loop.
	guard := NewGuard(&fakeBootstrapper{user: userWithRole("")}, DefaultTable())

	decision, err := guard.Decide(context.Background(), "/profile")
	if err != nil {
		t.Fatalf("Decide() returned error: %v", err)
	}
	if !decision.Proceed {
		t.Errorf("Self-redirect must count as proceed, got redirect to %q", decision.Redirect)
	}
}

func TestGuard_Decide_ResolverEntry(t *testing.T) {
	tests := []struct {
		name string
		role models.Role
		want string
	}{
		{"owner", models.RoleOwner, OwnerDefaultPath},
		{"advertiser", models.RoleAdvertiser, AdvertiserDefaultPath},
		{"no role", "", ProfilePath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			guard := NewGuard(&fakeBootstrapper{user: userWithRole(tt.role)}, DefaultTable())
			decision, err := guard.Decide(context.Background(), "/")
			if err != nil {
				t.Fatalf("Decide() returned error: %v", err)
			}
			if decision.Proceed {
				t.Fatal("Entry route must always redirect")
			}
			if decision.Redirect != tt.want {
				t.Errorf("Expected redirect to %s, got %s", tt.want, decision.Redirect)
			}
		})
	}
}

func TestGuard_Decide_BootstrapFailureBlocksNavigation(t *testing.T) {
	bootErr := errors.New("backend unreachable")
	guard := NewGuard(&fakeBootstrapper{err: bootErr}, DefaultTable())

	_, err := guard.Decide(context.Background(), "/owner")
	if err == nil {
		t.Fatal("Expected error when bootstrap fails")
	}
	if !errors.Is(err, bootErr) {
		t.Errorf("Expected wrapped bootstrap error, got %v", err)
	}
}
