package bot

import (
	"context"
)

// Update is one inbound user interaction, normalized across chat platforms
type Update struct {
	UserID      int64
	Username    string
	DisplayName string
	// Text is the message text, or the command carried by a pressed button
	Text string
	// PhotoRef identifies an attached image (a file id or URL), empty when none
	PhotoRef string
	// IsButton reports whether the update came from a pressed button
	IsButton bool
}

// HasPhoto reports whether the update carries an image
func (u Update) HasPhoto() bool {
	return u.PhotoRef != ""
}

// Button is an inline button; Data is the command sent back when it is pressed
type Button struct {
	Label string
	Data  string
}

// OutgoingMessage is addressed either to a user's private chat or to a named channel
type OutgoingMessage struct {
	UserID  int64
	Channel string
	Text    string
	Buttons [][]Button
	Photo   []byte
}

// Gateway is the chat platform connection
type Gateway interface {
	// Updates starts receiving; the channel closes when ctx is cancelled or Close is called
	Updates(ctx context.Context) (<-chan Update, error)
	Send(ctx context.Context, msg OutgoingMessage) error
	// SendPhoto sends msg.Photo with msg.Text as the caption
	SendPhoto(ctx context.Context, msg OutgoingMessage) error
	Close() error
}
