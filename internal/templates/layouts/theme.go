package layouts

import (
	"fmt"

	"github.com/codr1/leaguedesk/internal/api/authz"
)

type palette struct {
	primary string
	accent  string
}

var defaultPalette = palette{primary: "#1F4E78", accent: "#2E86C1"}

// Each role gets its own accent so staff can tell at a glance which
// console they are in.
var rolePalettes = map[authz.Role]palette{
	authz.RolePlayer:     defaultPalette,
	authz.RoleCaptain:    {primary: "#1E6B52", accent: "#27AE60"},
	authz.RoleManager:    {primary: "#7D4E00", accent: "#E67E22"},
	authz.RoleSuperAdmin: {primary: "#6C1D45", accent: "#C0392B"},
}

func themeCSSVars(user *authz.AuthUser) string {
	p := defaultPalette
	if user != nil {
		if rp, ok := rolePalettes[user.Role]; ok {
			p = rp
		}
	}
	return fmt.Sprintf(":root{--theme-primary:%s;--theme-accent:%s;}", p.primary, p.accent)
}
