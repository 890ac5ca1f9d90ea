package authz

import "testing"

func TestDecideWithoutSession(t *testing.T) {
	tests := []struct {
		path string
		want Decision
	}{
		{"/auth/signin", Decision{Allow: true}},
		{"/auth/callback", Decision{Allow: true}},
		{"/auth", Decision{Allow: true}},
		{"/authors", Decision{Redirect: SignInPath}},
		{"/", Decision{Redirect: SignInPath}},
		{"/dashboard", Decision{Redirect: SignInPath}},
		{"/pending-approval", Decision{Redirect: SignInPath}},
		{"/admin", Decision{Redirect: SignInPath}},
		{"/captain/roster", Decision{Redirect: SignInPath}},
	}

	for _, tc := range tests {
		if got := Decide(nil, tc.path); got != tc.want {
			t.Errorf("Decide(nil, %q) = %+v, want %+v", tc.path, got, tc.want)
		}
	}
}

func TestDecidePendingUsers(t *testing.T) {
	for _, role := range Roles {
		user := &AuthUser{ID: 1, Role: role, Status: StatusPending}
		tests := []struct {
			path string
			want Decision
		}{
			{"/auth/signin", Decision{Allow: true}},
			{"/pending-approval", Decision{Allow: true}},
			{"/dashboard", Decision{Redirect: PendingApprovalPath}},
			{"/admin", Decision{Redirect: PendingApprovalPath}},
			{"/manager", Decision{Redirect: PendingApprovalPath}},
			{"/captain", Decision{Redirect: PendingApprovalPath}},
			{"/unauthorized", Decision{Redirect: PendingApprovalPath}},
		}
		for _, tc := range tests {
			if got := Decide(user, tc.path); got != tc.want {
				t.Errorf("Decide(%s pending, %q) = %+v, want %+v", role, tc.path, got, tc.want)
			}
		}
	}
}

// The full role x prefix table for approved users.
func TestDecideApprovedRoleTable(t *testing.T) {
	allow := Decision{Allow: true}
	deny := Decision{Redirect: UnauthorizedPath}

	paths := []string{"/admin", "/admin/users", "/manager", "/manager/leagues", "/captain", "/captain/roster", "/dashboard", "/administrator", "/captains"}
	want := map[Role][]Decision{
		//                 /admin /admin/users /manager /manager/leagues /captain /captain/roster /dashboard /administrator /captains
		RolePlayer:     {deny, deny, deny, deny, deny, deny, allow, allow, allow},
		RoleCaptain:    {deny, deny, deny, deny, allow, allow, allow, allow, allow},
		RoleManager:    {deny, deny, allow, allow, allow, allow, allow, allow, allow},
		RoleSuperAdmin: {allow, allow, allow, allow, allow, allow, allow, allow, allow},
	}

	for role, decisions := range want {
		user := &AuthUser{ID: 1, Role: role, Status: StatusApproved}
		for i, path := range paths {
			if got := Decide(user, path); got != decisions[i] {
				t.Errorf("Decide(%s, %q) = %+v, want %+v", role, path, got, decisions[i])
			}
		}
	}
}

func TestDecideSuperAdminAllowedEverywhere(t *testing.T) {
	user := &AuthUser{ID: 1, Role: RoleSuperAdmin, Status: StatusApproved}
	for _, path := range []string{"/", "/admin", "/manager/x", "/captain/y", "/pending-approval", "/unauthorized", "/auth/signin"} {
		if got := Decide(user, path); !got.Allow || got.Redirect != "" {
			t.Errorf("Decide(SUPERADMIN, %q) = %+v, want allow", path, got)
		}
	}
}
