package routing

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Route is one navigable path with its access metadata.
type Route struct {
	Path          string `yaml:"path"`
	Name          string `yaml:"name"`
	Access        Access `yaml:"access"`
	AllowNullRole bool   `yaml:"allow_null_role"`
}

// Table matches concrete navigation paths against the route list.
// Segments starting with ':' are parameters and match any value.
type Table struct {
	routes []Route
}

type routesFile struct {
	Routes []Route `yaml:"routes"`
}

// LoadTableFromBytes parses a YAML route table.
func LoadTableFromBytes(data []byte) (*Table, error) {
	var parsed routesFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parsing routes config: %w", err)
	}
	if len(parsed.Routes) == 0 {
		return nil, fmt.Errorf("routes config contains no routes")
	}
	for i := range parsed.Routes {
		route := &parsed.Routes[i]
		if route.Path == "" {
			return nil, fmt.Errorf("route %d is missing a path", i)
		}
		// Missing access metadata is a misconfiguration; fall back to
		// the most permissive authenticated level.
		if route.Access == "" {
			route.Access = AccessShared
		}
		switch route.Access {
		case AccessResolver, AccessShared, AccessOwner, AccessAdvertiser:
		default:
			return nil, fmt.Errorf("route %s has unknown access %q", route.Path, route.Access)
		}
	}
	return &Table{routes: parsed.Routes}, nil
}

// LoadTable reads a route table from a YAML file on disk.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading routes config %s: %w", path, err)
	}
	return LoadTableFromBytes(data)
}

// DefaultTable returns the compiled-in route table used when no config
// is provided or the provided one fails to parse.
func DefaultTable() *Table {
	return &Table{routes: []Route{
		{Path: "/", Name: "landing", Access: AccessResolver},
		{Path: "/profile", Name: "profile", Access: AccessShared, AllowNullRole: true},
		{Path: "/owner", Name: "owner-home", Access: AccessOwner},
		{Path: "/owner/channels/:id/verify", Name: "channel-verify", Access: AccessOwner},
		{Path: "/owner/channels/:id/listing", Name: "listing-editor", Access: AccessOwner},
		{Path: "/owner/deals", Name: "owner-deals", Access: AccessOwner},
		{Path: "/owner/deals/:id/creative", Name: "owner-creative-submit", Access: AccessOwner},
		{Path: "/advertiser", Name: "advertiser-home", Access: AccessAdvertiser},
		{Path: "/advertiser/marketplace", Name: "marketplace", Access: AccessAdvertiser},
		{Path: "/advertiser/campaigns/new", Name: "campaign-create", Access: AccessAdvertiser},
		{Path: "/advertiser/deals", Name: "advertiser-deals", Access: AccessAdvertiser},
		{Path: "/advertiser/deals/:id/review", Name: "advertiser-creative-review", Access: AccessAdvertiser},
		{Path: "/advertiser/deals/:id/fund", Name: "funding", Access: AccessAdvertiser},
		{Path: "/deals/:id", Name: "deal-detail", Access: AccessShared},
	}}
}

// Match finds the route for a concrete path. Unknown paths behave as
// shared routes so a misconfigured table never locks users out.
func (t *Table) Match(path string) Route {
	segments := splitPath(path)
	for _, route := range t.routes {
		if matchSegments(splitPath(route.Path), segments) {
			return route
		}
	}
	return Route{Path: path, Access: AccessShared}
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func matchSegments(pattern, actual []string) bool {
	if len(pattern) != len(actual) {
		return false
	}
	for i, seg := range pattern {
		if strings.HasPrefix(seg, ":") {
			continue
		}
		if seg != actual[i] {
			return false
		}
	}
	return true
}
