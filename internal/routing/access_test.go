package routing

import (
	"testing"

	"github.com/tgadmarket/miniapp/internal/models"
)

func TestResolveAccessRedirect_ResolverAlwaysRedirects(t *testing.T) {
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
			got := ResolveAccessRedirect(AccessResolver, tt.role, false)
			if got != tt.want {
				t.Errorf("ResolveAccessRedirect(resolver, %q) = %q, want %q", tt.role, got, tt.want)
			}
			if got == "" {
				t.Error("resolver access must never yield an empty redirect")
			}
		})
	}
}

func TestResolveAccessRedirect_SharedRoutes(t *testing.T) {
	if got := ResolveAccessRedirect(AccessShared, "", false); got != ProfilePath {
		t.Errorf("shared route without role should redirect to profile, got %q", got)
	}
	if got := ResolveAccessRedirect(AccessShared, "", true); got != "" {
		t.Errorf("shared route tolerating null role should not redirect, got %q", got)
	}
	if got := ResolveAccessRedirect(AccessShared, models.RoleOwner, false); got != "" {
		t.Errorf("shared route with a role should not redirect, got %q", got)
	}
}

func TestResolveAccessRedirect_ScopedRoutes(t *testing.T) {
	tests := []struct {
		name   string
		access Access
		role   models.Role
		want   string
	}{
		{"owner route, no role", AccessOwner, "", ProfilePath},
		{"advertiser route, no role", AccessAdvertiser, "", ProfilePath},
		{"owner route, advertiser deep link", AccessOwner, models.RoleAdvertiser, AdvertiserDefaultPath},
		{"advertiser route, owner deep link", AccessAdvertiser, models.RoleOwner, OwnerDefaultPath},
		{"owner route, owner", AccessOwner, models.RoleOwner, ""},
		{"advertiser route, advertiser", AccessAdvertiser, models.RoleAdvertiser, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveAccessRedirect(tt.access, tt.role, false)
			if got != tt.want {
				t.Errorf("ResolveAccessRedirect(%s, %q) = %q, want %q", tt.access, tt.role, got, tt.want)
			}
		})
	}
}

func TestRoleDefaultPath(t *testing.T) {
	if got := RoleDefaultPath(models.RoleOwner); got != "/owner" {
		t.Errorf("Expected /owner, got %s", got)
	}
	if got := RoleDefaultPath(models.RoleAdvertiser); got != "/advertiser/marketplace" {
		t.Errorf("Expected /advertiser/marketplace, got %s", got)
	}
	if got := RoleDefaultPath(""); got != "/profile" {
		t.Errorf("Expected /profile, got %s", got)
	}
}
