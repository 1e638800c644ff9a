package middlewares

import (
	"net/http"
	"strings"

	"github.com/geocoder89/userhub/internal/domain/user"
)

// Rule grants access to routes matching Pattern. Pattern is either an exact
// route ("/user/profile") or a prefix ending in "/*" ("/admin/*", which also
// matches "/admin" itself). Empty Methods means every method.
type Rule struct {
	Pattern string
	Methods []string
	Public  bool
	Require user.Role
}

// Policy is an ordered rule table; the first matching rule wins.
type Policy struct {
	Rules []Rule
}

// DefaultPolicy is the single source of truth for who may call what.
func DefaultPolicy() Policy {
	return Policy{Rules: []Rule{
		{Pattern: "/auth/login", Methods: []string{http.MethodPost}, Public: true},
		{Pattern: "/admin/*", Require: user.RoleAdmin},
		{Pattern: "/user/profile", Methods: []string{http.MethodGet, http.MethodPut}, Require: user.RoleUser},
		{Pattern: "/user/data", Methods: []string{http.MethodGet}, Require: user.RoleUser},
	}}
}

func (p Policy) Match(method, route string) (Rule, bool) {
	for _, r := range p.Rules {
		if r.matchesMethod(method) && r.matchesRoute(route) {
			return r, true
		}
	}

	return Rule{}, false
}

func (r Rule) matchesMethod(method string) bool {
	if len(r.Methods) == 0 {
		return true
	}

	for _, m := range r.Methods {
		if strings.EqualFold(m, method) {
			return true
		}
	}

	return false
}

func (r Rule) matchesRoute(route string) bool {
	prefix, wildcard := strings.CutSuffix(r.Pattern, "/*")
	if !wildcard {
		return route == r.Pattern
	}

	return route == prefix || strings.HasPrefix(route, prefix+"/")
}
