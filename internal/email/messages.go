package email

import (
	"fmt"
	"strings"
	"time"
)

type Message struct {
	Subject string
	Body    string
}

type InvitationDetails struct {
	PlayerName  string
	TeamName    string
	CaptainName string
	BaseURL     string
}

type MatchRequestDetails struct {
	OpponentName  string
	RequesterName string
	LeagueName    string
	ProposedAt    *time.Time
	Note          string
	BaseURL       string
}

func BuildInvitationEmail(details InvitationDetails) Message {
	team := fallback(details.TeamName, "a team")
	captain := fallback(details.CaptainName, "The team captain")

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", fallback(details.PlayerName, "there"))
	fmt.Fprintf(&b, "%s has invited you to join %s.\n\n", captain, team)
	b.WriteString("Sign in to accept or decline the invitation:\n")
	b.WriteString(dashboardURL(details.BaseURL))
	b.WriteString("\n")

	return Message{
		Subject: fmt.Sprintf("You're invited to join %s", team),
		Body:    b.String(),
	}
}

func BuildMatchRequestEmail(details MatchRequestDetails) Message {
	requester := fallback(details.RequesterName, "Another player")
	league := fallback(details.LeagueName, "league")

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", fallback(details.OpponentName, "there"))
	fmt.Fprintf(&b, "%s would like to play a %s match", requester, league)
	if details.ProposedAt != nil {
		fmt.Fprintf(&b, " on %s", FormatMatchTime(*details.ProposedAt))
	}
	b.WriteString(".\n")
	if note := strings.TrimSpace(details.Note); note != "" {
		fmt.Fprintf(&b, "\n\"%s\"\n", note)
	}
	b.WriteString("\nRespond from your dashboard:\n")
	b.WriteString(dashboardURL(details.BaseURL))
	b.WriteString("\n")

	return Message{
		Subject: fmt.Sprintf("Match request from %s", requester),
		Body:    b.String(),
	}
}

// BuildInvitationResolvedEmail tells a captain how a player answered.
func BuildInvitationResolvedEmail(playerName, teamName string, accepted bool, baseURL string) Message {
	verb := "declined"
	if accepted {
		verb = "accepted"
	}
	player := fallback(playerName, "A player")
	team := fallback(teamName, "your team")
	return Message{
		Subject: fmt.Sprintf("%s %s your invitation", player, verb),
		Body: fmt.Sprintf("Hi,\n\n%s %s your invitation to join %s.\n\nSee your teams:\n%s\n",
			player, verb, team, dashboardURL(baseURL)),
	}
}

func BuildAccountApprovedEmail(name, baseURL string) Message {
	return Message{
		Subject: "Your account has been approved",
		Body: fmt.Sprintf("Hi %s,\n\nA league manager approved your account. You can now sign in:\n%s\n",
			fallback(name, "there"), dashboardURL(baseURL)),
	}
}

func FormatMatchTime(t time.Time) string {
	return t.UTC().Format("Monday, Jan 2, 2006 at 3:04 PM MST")
}

func dashboardURL(baseURL string) string {
	return strings.TrimRight(strings.TrimSpace(baseURL), "/") + "/dashboard"
}

func fallback(value, def string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return def
}
