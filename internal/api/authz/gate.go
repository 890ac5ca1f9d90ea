package authz

import "strings"

const (
	SignInPath          = "/auth/signin"
	PendingApprovalPath = "/pending-approval"
	UnauthorizedPath    = "/unauthorized"
	authPathPrefix      = "/auth"
)

// Decision is the gate outcome for a request. Redirect is set only when
// Allow is false.
type Decision struct {
	Allow    bool
	Redirect string
}

type prefixRule struct {
	prefix string
	roles  []Role
}

// SUPERADMIN is allowed before these rules are consulted, so an empty role
// list means SUPERADMIN only.
var prefixRules = []prefixRule{
	{prefix: "/admin"},
	{prefix: "/manager", roles: []Role{RoleManager}},
	{prefix: "/captain", roles: []Role{RoleCaptain, RoleManager}},
}

// Decide applies the page access rules, in order:
//  1. no session: sign-in, unless the path is an auth page
//  2. not approved: pending page, unless the path is an auth or pending page
//  3. SUPERADMIN: allowed
//  4. role-prefixed paths require a matching role, else unauthorized
func Decide(user *AuthUser, path string) Decision {
	if user == nil {
		if IsAuthPath(path) {
			return Decision{Allow: true}
		}
		return Decision{Redirect: SignInPath}
	}

	if user.Status != StatusApproved {
		if IsAuthPath(path) || hasPathPrefix(path, PendingApprovalPath) {
			return Decision{Allow: true}
		}
		return Decision{Redirect: PendingApprovalPath}
	}

	if user.Role == RoleSuperAdmin {
		return Decision{Allow: true}
	}

	for _, rule := range prefixRules {
		if !hasPathPrefix(path, rule.prefix) {
			continue
		}
		for _, role := range rule.roles {
			if user.Role == role {
				return Decision{Allow: true}
			}
		}
		return Decision{Redirect: UnauthorizedPath}
	}

	return Decision{Allow: true}
}

func IsAuthPath(path string) bool {
	return hasPathPrefix(path, authPathPrefix)
}

// hasPathPrefix matches whole segments: "/admin" matches "/admin" and
// "/admin/users" but not "/administrator".
func hasPathPrefix(path, prefix string) bool {
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+"/")
}
