package email

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	dbgen "github.com/codr1/leaguedesk/internal/db/generated"
)

const sendTimeout = 10 * time.Second

// SendAsync delivers msg in the background. The send outlives the request
// that triggered it but is bounded by sendTimeout.
func SendAsync(ctx context.Context, sender Sender, recipient string, msg Message, logger *zerolog.Logger) {
	recipient = strings.TrimSpace(recipient)
	if sender == nil || recipient == "" || msg.Subject == "" || msg.Body == "" {
		return
	}

	go func() {
		sendCtx, cancel := detachedContext(ctx, sendTimeout)
		defer cancel()
		if err := sender.Send(sendCtx, recipient, msg.Subject, msg.Body); err != nil && logger != nil {
			logger.Error().Err(err).Str("recipient", recipient).Str("subject", msg.Subject).Msg("Failed to send email")
		}
	}()
}

// SendToUser looks up the user's address and sends msg asynchronously.
func SendToUser(ctx context.Context, q *dbgen.Queries, sender Sender, userID int64, msg Message, logger *zerolog.Logger) {
	if sender == nil || q == nil {
		return
	}

	user, err := q.GetUserByID(ctx, userID)
	if err != nil {
		if logger != nil {
			logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to load user for email")
		}
		return
	}
	SendAsync(ctx, sender, user.Email, msg, logger)
}

// detachedContext keeps ctx's values (request id, logger) but not its
// cancellation, and bounds the result by timeout.
func detachedContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}
