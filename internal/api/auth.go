package api

import (
	"context"
	"net/http"

	"github.com/tgadmarket/miniapp/internal/models"
)

// RolePreference is the PUT /users/me/preferences response.
type RolePreference struct {
	PreferredRole *models.Role `json:"preferred_role"`
}

// Me fetches the authenticated user profile.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.getJSON(ctx, "/auth/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateRolePreference stores the user's role choice. The backend is
// idempotent on repeated calls with the same role.
func (c *Client) UpdateRolePreference(ctx context.Context, role models.Role) (*RolePreference, error) {
	var resp RolePreference
	body := map[string]string{"preferred_role": string(role)}
	if err := c.sendJSON(ctx, http.MethodPut, "/users/me/preferences", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
