// Package policy decides, per request path, whether a caller may proceed.
//
// A Policy is an ordered table of rules built once at startup. The first rule
// whose pattern matches the cleaned request path decides; the table always
// ends with the AnyRequest catch-all, so every path is governed by some rule.
//
// Patterns are either exact paths ("/admin"), path.Match globs matching a
// single segment per wildcard ("/posts/*"), or a prefix followed by "/**"
// which matches the prefix itself and everything below it ("/my/**").
package policy

import (
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/haguru/myblog/config"
	"github.com/haguru/myblog/internal/auth"
)

// Access is what a rule requires of the caller.
type Access int

const (
	AccessPermitAll Access = iota
	AccessAuthenticated
	AccessHasAnyRole
)

func (a Access) String() string {
	switch a {
	case AccessPermitAll:
		return PermitAll
	case AccessAuthenticated:
		return Authenticated
	case AccessHasAnyRole:
		return HasAnyRole
	}
	return fmt.Sprintf("Access(%d)", int(a))
}

// ParseAccess converts a configured access kind.
func ParseAccess(s string) (Access, error) {
	switch s {
	case PermitAll:
		return AccessPermitAll, nil
	case Authenticated:
		return AccessAuthenticated, nil
	case HasAnyRole:
		return AccessHasAnyRole, nil
	}
	return 0, fmt.Errorf("unknown access kind %q", s)
}

// Decision is the outcome of evaluating a request against the policy.
type Decision int

const (
	Allow Decision = iota
	// Unauthenticated means the rule needs a principal and there is none.
	Unauthenticated
	// Forbidden means the principal lacks every role the rule accepts.
	Forbidden
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	}
	return fmt.Sprintf("Decision(%d)", int(d))
}

type Rule struct {
	Pattern string
	Access  Access
	Roles   []string
}

// Matches reports whether the cleaned requestPath falls under the rule's pattern.
func (r Rule) Matches(requestPath string) bool {
	if prefix, ok := strings.CutSuffix(r.Pattern, recursiveSuffix); ok {
		if prefix == "" {
			return true
		}
		return requestPath == prefix || strings.HasPrefix(requestPath, prefix+"/")
	}
	matched, err := path.Match(r.Pattern, requestPath)
	return err == nil && matched
}

// FormLogin describes the browser login flow of an application.
type FormLogin struct {
	LoginPage         string
	ProcessingURL     string
	DefaultSuccessURL string
	// FailureURL may carry a query string, e.g. "/login?error".
	FailureURL string
}

// Policy is immutable after New and safe for concurrent use.
type Policy struct {
	rules          []Rule
	csrfEnabled    bool
	allowedOrigins []string
	adminUsers     map[string]bool
	formLogin      *FormLogin
}

// New builds a Policy from cfg. It fails when a rule is malformed or the
// table does not end with the AnyRequest catch-all. With form login enabled
// the login page, processing URL and failure page are permitted to everyone
// ahead of the configured rules.
func New(cfg config.AccessPolicyConfig) (*Policy, error) {
	if len(cfg.Rules) == 0 {
		return nil, fmt.Errorf("access policy has no rules")
	}
	if last := cfg.Rules[len(cfg.Rules)-1]; last.Pattern != AnyRequest {
		return nil, fmt.Errorf("last rule must be %q, got %q", AnyRequest, last.Pattern)
	}

	p := &Policy{
		csrfEnabled:    cfg.CSRFEnabled,
		allowedOrigins: slices.Clone(cfg.AllowedOrigins),
		adminUsers:     config.ListToMap(cfg.AdminUsers),
	}

	if fl := cfg.FormLogin; fl != nil {
		p.formLogin = &FormLogin{
			LoginPage:         fl.LoginPage,
			ProcessingURL:     fl.ProcessingURL,
			DefaultSuccessURL: fl.DefaultSuccessURL,
			FailureURL:        fl.FailureURL,
		}
		if p.formLogin.FailureURL == "" {
			p.formLogin.FailureURL = fl.LoginPage + failureQuery
		}
		failurePath, _, _ := strings.Cut(p.formLogin.FailureURL, "?")
		for _, pattern := range []string{fl.LoginPage, fl.ProcessingURL, failurePath} {
			if !slices.ContainsFunc(p.rules, func(r Rule) bool { return r.Pattern == pattern }) {
				p.rules = append(p.rules, Rule{Pattern: pattern, Access: AccessPermitAll})
			}
		}
	}

	for i, rc := range cfg.Rules {
		rule, err := newRule(rc)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		p.rules = append(p.rules, rule)
	}

	return p, nil
}

func newRule(rc config.RuleConfig) (Rule, error) {
	if !strings.HasPrefix(rc.Pattern, "/") {
		return Rule{}, fmt.Errorf("pattern %q must start with '/'", rc.Pattern)
	}
	base := strings.TrimSuffix(rc.Pattern, recursiveSuffix)
	if strings.Contains(base, "**") {
		return Rule{}, fmt.Errorf("pattern %q: '**' is only allowed as the last segment", rc.Pattern)
	}
	if _, err := path.Match(base, base); err != nil {
		return Rule{}, fmt.Errorf("pattern %q: %w", rc.Pattern, err)
	}

	access, err := ParseAccess(rc.Access)
	if err != nil {
		return Rule{}, err
	}
	if access == AccessHasAnyRole && len(rc.Roles) == 0 {
		return Rule{}, fmt.Errorf("pattern %q: %s needs at least one role", rc.Pattern, HasAnyRole)
	}

	return Rule{Pattern: rc.Pattern, Access: access, Roles: slices.Clone(rc.Roles)}, nil
}

// Match returns the first rule governing requestPath.
func (p *Policy) Match(requestPath string) Rule {
	cleaned := cleanPath(requestPath)
	for _, rule := range p.rules {
		if rule.Matches(cleaned) {
			return rule
		}
	}
	// unreachable: New guarantees the catch-all
	return Rule{Pattern: AnyRequest, Access: AccessAuthenticated}
}

// Decide evaluates requestPath for principal, which is nil for anonymous callers.
func (p *Policy) Decide(requestPath string, principal *auth.Principal) Decision {
	rule := p.Match(requestPath)
	switch rule.Access {
	case AccessPermitAll:
		return Allow
	case AccessAuthenticated:
		if principal == nil {
			return Unauthenticated
		}
		return Allow
	default:
		if principal == nil {
			return Unauthenticated
		}
		if principal.HasAnyRole(rule.Roles...) {
			return Allow
		}
		return Forbidden
	}
}

// RolesFor returns the roles of an authenticated user: USER for everyone,
// plus ADMIN for the configured admin users.
func (p *Policy) RolesFor(username string) []string {
	if p.adminUsers[username] {
		return []string{auth.RoleUser, auth.RoleAdmin}
	}
	return []string{auth.RoleUser}
}

// Rules returns a copy of the effective rule table, in evaluation order.
func (p *Policy) Rules() []Rule {
	return slices.Clone(p.rules)
}

func (p *Policy) CSRFEnabled() bool {
	return p.csrfEnabled
}

func (p *Policy) AllowedOrigins() []string {
	return slices.Clone(p.allowedOrigins)
}

// FormLogin returns nil when the application has no browser login flow.
func (p *Policy) FormLogin() *FormLogin {
	if p.formLogin == nil {
		return nil
	}
	fl := *p.formLogin
	return &fl
}

func cleanPath(requestPath string) string {
	if requestPath == "" {
		return "/"
	}
	if !strings.HasPrefix(requestPath, "/") {
		requestPath = "/" + requestPath
	}
	return path.Clean(requestPath)
}
