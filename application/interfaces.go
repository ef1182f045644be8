package application

import (
	"context"

	"luckydraw/application/dto"
)

// Notifier delivers messages to chat users and channels.
// This abstraction lets the application layer talk to users without depending on a
// particular chat platform.
type Notifier interface {
	// NotifyUser sends a direct message to one user
	NotifyUser(ctx context.Context, userID int64, text string) error

	// NotifyAdmins sends a message to every admin, with optional follow-up actions
	NotifyAdmins(ctx context.Context, text string, actions ...dto.Action) error

	// Announce posts to the public announcement channel; card may be nil
	Announce(ctx context.Context, text string, card []byte) error

	// PaymentLog posts to the payment log channel, if one is configured
	PaymentLog(ctx context.Context, text string) error
}

// DrawCardRenderer renders the PNG result card attached to a draw announcement
type DrawCardRenderer interface {
	RenderDrawCard(announcement dto.DrawAnnouncement) ([]byte, error)
}
