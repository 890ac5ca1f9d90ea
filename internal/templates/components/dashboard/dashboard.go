package dashboard

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/codr1/leaguedesk/internal/models"
)

type Summary struct {
	Name          string
	Role          string
	Unread        int64
	Invitations   int64
	MatchRequests int64
	Total         int64
}

type Team struct {
	ID      int64
	Name    string
	Players int64
}

// SummaryCard shows the inbox counters on the dashboard.
func SummaryCard(s Summary) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w,
			`<section class="summary"><h1>Welcome, %s</h1><p class="role">%s</p><ul>`+
				`<li data-count="unread">Unread notifications: %d</li>`+
				`<li data-count="invitations">Pending invitations: %d</li>`+
				`<li data-count="match-requests">Match requests: %d</li>`+
				`</ul><p class="total" data-count="total">%d items need your attention</p></section>`,
			templ.EscapeString(s.Name), templ.EscapeString(s.Role),
			s.Unread, s.Invitations, s.MatchRequests, s.Total)
		return err
	})
}

// Message renders a titled notice, used by the status pages.
func Message(title, body string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<section class="message"><h1>%s</h1><p>%s</p></section>`,
			templ.EscapeString(title), templ.EscapeString(body))
		return err
	})
}

// SignInForm posts credentials to /auth/login as JSON.
func SignInForm(clerkEnabled bool) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<section class="signin"><h1>Sign in</h1>`+
			`<form id="login-form"><label>Email or phone <input name="email" autocomplete="username" required></label>`+
			`<label>Password <input name="password" type="password" autocomplete="current-password" required></label>`+
			`<button type="submit">Sign in</button><p class="error" hidden></p></form>`+
			`<script>document.getElementById("login-form").addEventListener("submit",async e=>{e.preventDefault();`+
			`const f=new FormData(e.target);const r=await fetch("/auth/login",{method:"POST",headers:{"Content-Type":"application/json"},`+
			`body:JSON.stringify({email:f.get("email"),password:f.get("password")})});const b=await r.json();`+
			`if(r.ok){location.href=b.redirect}else{const p=e.target.querySelector(".error");p.textContent=b.error;p.hidden=false}});</script>`); err != nil {
			return err
		}
		if clerkEnabled {
			if _, err := io.WriteString(w, `<p class="sso"><a href="/auth/callback">Continue with your league account</a></p>`); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</section>`)
		return err
	})
}

func TeamList(teams []Team) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if len(teams) == 0 {
			_, err := io.WriteString(w, `<p class="empty">You do not captain any teams yet.</p>`)
			return err
		}
		if _, err := io.WriteString(w, `<table class="teams"><thead><tr><th>Team</th><th>Players</th></tr></thead><tbody>`); err != nil {
			return err
		}
		for _, team := range teams {
			if _, err := fmt.Fprintf(w, `<tr data-team-id="%d"><td>%s</td><td>%d</td></tr>`,
				team.ID, templ.EscapeString(team.Name), team.Players); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</tbody></table>`)
		return err
	})
}

// UserTable lists users with their role, status and level.
func UserTable(users []models.User) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if len(users) == 0 {
			_, err := io.WriteString(w, `<p class="empty">No users awaiting approval.</p>`)
			return err
		}
		if _, err := io.WriteString(w, `<table class="users"><thead><tr><th>Name</th><th>Email</th><th>Role</th><th>Status</th><th>Level</th></tr></thead><tbody>`); err != nil {
			return err
		}
		for _, u := range users {
			level := "-"
			if u.Level != nil {
				level = fmt.Sprint(*u.Level)
			}
			if _, err := fmt.Fprintf(w, `<tr data-user-id="%d"><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>`,
				u.ID, templ.EscapeString(u.Name), templ.EscapeString(u.Email),
				templ.EscapeString(u.Role), templ.EscapeString(u.Status), level); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</tbody></table>`)
		return err
	})
}

func DownloadLink(href, label string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<p class="download"><a href="%s" download>%s</a></p>`,
			templ.EscapeString(href), templ.EscapeString(label))
		return err
	})
}

func Heading(text string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<h2>%s</h2>`, templ.EscapeString(text))
		return err
	})
}
