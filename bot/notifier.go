package bot

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"luckydraw/application/dto"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	notifyTimeout     = 10 * time.Second
	notifyConcurrency = 8
	// captionLimit is the longest photo caption every platform accepts
	captionLimit = 1024
)

// AdminDirectory lists the users admin alerts go to
type AdminDirectory interface {
	AdminIDs(ctx context.Context) ([]int64, error)
}

// Notifier delivers application notifications over the chat gateway
type Notifier struct {
	gateway             Gateway
	admins              AdminDirectory
	announcementChannel string
	paymentLogChannel   string
	timeout             time.Duration
}

// NewNotifier creates a notifier; empty channel names disable those destinations
func NewNotifier(gateway Gateway, admins AdminDirectory, announcementChannel, paymentLogChannel string) *Notifier {
	return &Notifier{
		gateway:             gateway,
		admins:              admins,
		announcementChannel: announcementChannel,
		paymentLogChannel:   paymentLogChannel,
		timeout:             notifyTimeout,
	}
}

// NotifyUser sends a private message
func (n *Notifier) NotifyUser(ctx context.Context, userID int64, text string) error {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()
	return n.gateway.Send(ctx, OutgoingMessage{UserID: userID, Text: text})
}

// NotifyAdmins sends text to every admin concurrently. Individual failures are logged;
// an error is returned only when no admin could be reached.
func (n *Notifier) NotifyAdmins(ctx context.Context, text string, actions ...dto.Action) error {
	ids, err := n.admins.AdminIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to load admins: %w", err)
	}
	if len(ids) == 0 {
		return fmt.Errorf("no admins configured")
	}

	buttons := actionButtons(actions)
	var failed atomic.Int32

	var g errgroup.Group
	g.SetLimit(notifyConcurrency)
	for _, id := range ids {
		g.Go(func() error {
			sendCtx, cancel := context.WithTimeout(ctx, n.timeout)
			defer cancel()
			if err := n.gateway.Send(sendCtx, OutgoingMessage{UserID: id, Text: text, Buttons: buttons}); err != nil {
				failed.Add(1)
				log.WithError(err).WithField("adminID", id).Warn("Failed to notify admin")
			}
			return nil
		})
	}
	_ = g.Wait()

	if int(failed.Load()) == len(ids) {
		return fmt.Errorf("failed to notify any of %d admins", len(ids))
	}
	return nil
}

// Announce posts to the public announcement channel, with the card image when given
func (n *Notifier) Announce(ctx context.Context, text string, card []byte) error {
	if n.announcementChannel == "" {
		log.Warn("No announcement channel configured, skipping announcement")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	if len(card) == 0 {
		return n.gateway.Send(ctx, OutgoingMessage{Channel: n.announcementChannel, Text: text})
	}
	if len(text) <= captionLimit {
		return n.gateway.SendPhoto(ctx, OutgoingMessage{Channel: n.announcementChannel, Text: text, Photo: card})
	}
	if err := n.gateway.SendPhoto(ctx, OutgoingMessage{Channel: n.announcementChannel, Photo: card}); err != nil {
		return err
	}
	return n.gateway.Send(ctx, OutgoingMessage{Channel: n.announcementChannel, Text: text})
}

// PaymentLog posts to the payment log channel when one is configured
func (n *Notifier) PaymentLog(ctx context.Context, text string) error {
	if n.paymentLogChannel == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()
	return n.gateway.Send(ctx, OutgoingMessage{Channel: n.paymentLogChannel, Text: text})
}
