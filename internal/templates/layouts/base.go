// Package layouts holds the page shell shared by every HTML page.
package layouts

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/codr1/leaguedesk/internal/api/authz"
)

type Page struct {
	Title string
	Path  string
	User  *authz.AuthUser
}

type navLink struct {
	Label string
	Href  string
}

// NavLinks lists the consoles the user's role can open. Pending and
// anonymous users get none.
func NavLinks(user *authz.AuthUser) []navLink {
	if user == nil || user.Status != authz.StatusApproved {
		return nil
	}
	links := []navLink{{Label: "Dashboard", Href: "/dashboard"}}
	for _, l := range []navLink{
		{Label: "Captain", Href: "/captain"},
		{Label: "Manager", Href: "/manager"},
		{Label: "Admin", Href: "/admin"},
	} {
		if authz.Decide(user, l.Href).Allow {
			links = append(links, l)
		}
	}
	return links
}

// Base wraps content in the document shell.
func Base(page Page, content templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		title := "League Desk"
		if page.Title != "" {
			title = page.Title + " | League Desk"
		}

		if _, err := fmt.Fprintf(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>%s</title><style>%s</style></head><body>`,
			templ.EscapeString(title), themeCSSVars(page.User)); err != nil {
			return err
		}
		if err := header(page).Render(ctx, w); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `<main>`); err != nil {
			return err
		}
		if content != nil {
			if err := content.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</main></body></html>`)
		return err
	})
}

func header(page Page) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<header><nav>`); err != nil {
			return err
		}
		for _, link := range NavLinks(page.User) {
			class := ""
			if link.Href == page.Path {
				class = ` class="active"`
			}
			if _, err := fmt.Fprintf(w, `<a href="%s"%s>%s</a>`, templ.EscapeString(link.Href), class, templ.EscapeString(link.Label)); err != nil {
				return err
			}
		}
		if page.User != nil {
			if _, err := fmt.Fprintf(w, `<span class="user">%s</span><form method="post" action="/auth/logout"><button type="submit">Sign out</button></form>`,
				templ.EscapeString(displayName(page.User))); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</nav></header>`)
		return err
	})
}

func displayName(user *authz.AuthUser) string {
	if user.Name != "" {
		return user.Name
	}
	return user.Email
}
