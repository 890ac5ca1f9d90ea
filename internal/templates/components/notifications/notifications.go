package notifications

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	dbgen "github.com/codr1/leaguedesk/internal/db/generated"
	"github.com/codr1/leaguedesk/internal/models"
)

type Notification struct {
	dbgen.Notification
}

// NewNotification creates a view wrapper for a notification row.
func NewNotification(row dbgen.Notification) Notification {
	return Notification{Notification: row}
}

func NewNotifications(rows []dbgen.Notification) []Notification {
	notifications := make([]Notification, len(rows))
	for i, row := range rows {
		notifications[i] = NewNotification(row)
	}
	return notifications
}

func (n Notification) KindLabel() string {
	switch n.Kind {
	case models.NotificationInvitationReceived:
		return "Team invitation"
	case models.NotificationInvitationAccepted:
		return "Invitation accepted"
	case models.NotificationInvitationRejected:
		return "Invitation declined"
	case models.NotificationMatchRequestReceived:
		return "Match request"
	case models.NotificationMatchRequestAccepted:
		return "Match scheduled"
	case models.NotificationMatchRequestRejected:
		return "Match request declined"
	case models.NotificationAccountApproved:
		return "Account approved"
	default:
		return n.Kind
	}
}

func (n Notification) BadgeClass() string {
	switch n.Kind {
	case models.NotificationInvitationAccepted, models.NotificationMatchRequestAccepted, models.NotificationAccountApproved:
		return "badge badge-success"
	case models.NotificationInvitationRejected, models.NotificationMatchRequestRejected:
		return "badge badge-danger"
	case models.NotificationInvitationReceived, models.NotificationMatchRequestReceived:
		return "badge badge-info"
	default:
		return "badge"
	}
}

func (n Notification) Timestamp() string {
	return n.CreatedAt.Format("2006-01-02 15:04")
}

// List renders the most recent notifications, unread ones marked.
func List(items []Notification) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if len(items) == 0 {
			_, err := io.WriteString(w, `<p class="empty">No notifications yet.</p>`)
			return err
		}
		if _, err := io.WriteString(w, `<ul class="notifications">`); err != nil {
			return err
		}
		for _, n := range items {
			class := "read"
			if !n.IsRead {
				class = "unread"
			}
			if _, err := fmt.Fprintf(w,
				`<li class="%s" data-notification-id="%d"><span class="%s">%s</span> %s <time>%s</time></li>`,
				class, n.ID, n.BadgeClass(), templ.EscapeString(n.KindLabel()),
				templ.EscapeString(n.Message), n.Timestamp()); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</ul>`)
		return err
	})
}
