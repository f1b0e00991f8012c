// Package notify tells invitees that an invite is waiting for them.
package notify

import (
	"context"
	"log/slog"
)

// Invite carries what an invitee needs to join.
type Invite struct {
	Email      string
	FamilyName string
	Token      string
}

type InviteNotifier interface {
	InviteCreated(ctx context.Context, invite Invite) error
}

// LogNotifier only records the invite. Invitees still see it in the app.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) InviteCreated(ctx context.Context, invite Invite) error {
	n.logger.InfoContext(ctx, "invite created", "email", invite.Email, "family", invite.FamilyName)
	return nil
}
