// Package routing implements role-scoped navigation for the mini-app:
// a pure access resolver, the route table with per-route access
// metadata, and the guard evaluated on every navigation.
package routing

import "github.com/tgadmarket/miniapp/internal/models"

// Access is a route's required access level.
type Access string

const (
	AccessResolver   Access = "resolver"
	AccessShared     Access = "shared"
	AccessOwner      Access = "owner"
	AccessAdvertiser Access = "advertiser"
)

// Default landing paths per role. The profile path doubles as the
// role-picker for users who have not chosen yet.
const (
	ProfilePath           = "/profile"
	OwnerDefaultPath      = "/owner"
	AdvertiserDefaultPath = "/advertiser/marketplace"
)

// RoleDefaultPath maps a role preference to its landing path. An empty
// role (no preference stored) lands on the role picker.
func RoleDefaultPath(role models.Role) string {
	switch role {
	case models.RoleOwner:
		return OwnerDefaultPath
	case models.RoleAdvertiser:
		return AdvertiserDefaultPath
	}
	return ProfilePath
}

// ResolveAccessRedirect computes the redirect a navigation requires, or
// "" when the navigation may proceed. role is empty when the user has
// no stored preference.
//
//   - resolver routes always redirect to the role's default path, even
//     when that means redirecting to themselves.
//   - shared routes admit any role; a missing role is sent to the
//     role picker unless the route tolerates it.
//   - owner/advertiser routes send missing roles to the picker and
//     correct cross-role deep links to the actual role's default path.
func ResolveAccessRedirect(access Access, role models.Role, allowNullRole bool) string {
	if access == AccessResolver {
		return RoleDefaultPath(role)
	}

	if access == AccessShared {
		if role == "" && !allowNullRole {
			return ProfilePath
		}
		return ""
	}

	if role == "" {
		return ProfilePath
	}

	if string(access) != string(role) {
		return RoleDefaultPath(role)
	}

	return ""
}
