package routing

import (
	"context"
	"fmt"

	"github.com/tgadmarket/miniapp/internal/models"
)

// Bootstrapper provides the current user, fetching the profile at most
// once across concurrent navigations.
type Bootstrapper interface {
	Bootstrap(ctx context.Context) (*models.User, error)
}

// Decision is the guard's verdict for one navigation attempt.
type Decision struct {
	Proceed  bool
	Redirect string
}

// Guard enforces role scoping on every route transition.
type Guard struct {
	session Bootstrapper
	table   *Table
}

func NewGuard(session Bootstrapper, table *Table) *Guard {
	return &Guard{session: session, table: table}
}

// Decide resolves a navigation to path. The session bootstrap must
// settle before any access decision; a redirect that targets the
// requested path itself counts as proceed, otherwise resolver routes
// would loop forever.
func (g *Guard) Decide(ctx context.Context, path string) (Decision, error) {
	user, err := g.session.Bootstrap(ctx)
	if err != nil {
		return Decision{}, fmt.Errorf("route guard for %s: %w", path, err)
	}

	var role models.Role
	if user.PreferredRole != nil {
		role = *user.PreferredRole
	}

	route := g.table.Match(path)
	redirect := ResolveAccessRedirect(route.Access, role, route.AllowNullRole)
	if redirect == "" || redirect == path {
		return Decision{Proceed: true}, nil
	}
	return Decision{Redirect: redirect}, nil
}
