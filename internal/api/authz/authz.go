package authz

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

type Role string

const (
	RolePlayer     Role = "PLAYER"
	RoleCaptain    Role = "CAPTAIN"
	RoleManager    Role = "MANAGER"
	RoleSuperAdmin Role = "SUPERADMIN"
)

// Roles lists every role in ascending privilege.
var Roles = []Role{RolePlayer, RoleCaptain, RoleManager, RoleSuperAdmin}

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
)

const (
	SessionTypeLocal = "local"
	SessionTypeClerk = "clerk"
)

type AuthUser struct {
	ID          int64
	Email       string
	Name        string
	Role        Role
	Status      Status
	SessionType string
}

type userContextKey struct{}

func ContextWithUser(ctx context.Context, user *AuthUser) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext retrieves the AuthUser stored in ctx.
// It returns nil if ctx is nil, if no user is stored, or if the stored value has a different type.
func UserFromContext(ctx context.Context) *AuthUser {
	if ctx == nil {
		return nil
	}

	user, ok := ctx.Value(userContextKey{}).(*AuthUser)
	if !ok {
		return nil
	}

	return user
}

// ParseRole accepts a role name in any case.
func ParseRole(raw string) (Role, bool) {
	role := Role(strings.ToUpper(strings.TrimSpace(raw)))
	for _, candidate := range Roles {
		if role == candidate {
			return role, true
		}
	}
	return "", false
}

// ParseStatus accepts a user status in any case.
func ParseStatus(raw string) (Status, bool) {
	status := Status(strings.ToUpper(strings.TrimSpace(raw)))
	switch status {
	case StatusPending, StatusApproved:
		return status, true
	default:
		return "", false
	}
}

func IsSuperAdmin(user *AuthUser) bool {
	return user != nil && user.Role == RoleSuperAdmin
}

// HasRole reports whether user holds one of roles. SUPERADMIN holds every role.
func HasRole(user *AuthUser, roles ...Role) bool {
	if user == nil {
		return false
	}
	if user.Role == RoleSuperAdmin {
		return true
	}
	for _, role := range roles {
		if user.Role == role {
			return true
		}
	}
	return false
}

// RequireApproved returns ErrUnauthenticated without a user in ctx and
// ErrForbidden while the user is still awaiting approval.
func RequireApproved(ctx context.Context) error {
	user := UserFromContext(ctx)
	if user == nil {
		return ErrUnauthenticated
	}
	if user.Status != StatusApproved {
		return ErrForbidden
	}
	return nil
}

// RequireRole is RequireApproved plus a role check. Passing no roles only
// requires an approved session.
func RequireRole(ctx context.Context, roles ...Role) error {
	if err := RequireApproved(ctx); err != nil {
		return err
	}
	if len(roles) == 0 {
		return nil
	}
	if !HasRole(UserFromContext(ctx), roles...) {
		return ErrForbidden
	}
	return nil
}

// CanAssignRole reports whether actor may move target to role.
// SUPERADMIN may assign anything to anyone but themselves. MANAGER may only
// move non-privileged users between PLAYER and CAPTAIN.
func CanAssignRole(actor *AuthUser, targetID int64, targetRole Role, role Role) bool {
	if actor == nil {
		return false
	}
	switch actor.Role {
	case RoleSuperAdmin:
		return actor.ID != targetID
	case RoleManager:
		if targetRole != RolePlayer && targetRole != RoleCaptain {
			return false
		}
		return role == RolePlayer || role == RoleCaptain
	default:
		return false
	}
}
