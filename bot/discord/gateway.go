package discord

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"luckydraw/bot"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Gateway is a bot.Gateway over Discord direct messages
type Gateway struct {
	session *discordgo.Session

	mu       sync.Mutex
	out      chan bot.Update
	ctx      context.Context
	closed   bool
	dmByUser map[int64]string
}

// New creates a Discord session; the websocket opens on Updates
func New(token string) (*Gateway, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsDirectMessages | discordgo.IntentsMessageContent

	g := &Gateway{
		session:  dg,
		dmByUser: make(map[int64]string),
	}
	dg.AddHandler(g.handleMessageCreate)
	dg.AddHandler(g.handleInteraction)
	return g, nil
}

// Updates opens the websocket and forwards direct messages and button presses
func (g *Gateway) Updates(ctx context.Context) (<-chan bot.Update, error) {
	g.mu.Lock()
	g.out = make(chan bot.Update)
	g.ctx = ctx
	out := g.out
	g.mu.Unlock()

	if err := g.session.Open(); err != nil {
		return nil, fmt.Errorf("error opening connection: %w", err)
	}
	log.WithField("username", g.session.State.User.Username).Info("Connected to Discord")

	go func() {
		<-ctx.Done()
		g.closeUpdates()
	}()
	return out, nil
}

func (g *Gateway) closeUpdates() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.out != nil && !g.closed {
		g.closed = true
		close(g.out)
	}
}

func (g *Gateway) emit(u bot.Update) {
	g.mu.Lock()
	out, ctx, closed := g.out, g.ctx, g.closed
	g.mu.Unlock()
	if out == nil || closed {
		return
	}

	defer func() {
		// The channel may close between the check and the send during shutdown
		_ = recover()
	}()
	select {
	case out <- u:
	case <-ctx.Done():
	}
}

func (g *Gateway) handleMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if s.State != nil && s.State.User != nil && m.Author != nil && m.Author.ID == s.State.User.ID {
		return
	}
	u, ok := convertMessage(m.Message)
	if !ok {
		return
	}
	g.rememberDM(u.UserID, m.ChannelID)
	g.emit(u)
}

func (g *Gateway) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}
	// Acknowledge so the client does not show the interaction as failed
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}); err != nil {
		log.WithError(err).Debug("Failed to acknowledge interaction")
	}

	u, ok := convertInteraction(i.Interaction)
	if !ok {
		return
	}
	g.rememberDM(u.UserID, i.ChannelID)
	g.emit(u)
}

func (g *Gateway) rememberDM(userID int64, channelID string) {
	if channelID == "" {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.dmByUser[userID] = channelID
}

// dmChannel returns the DM channel of a user, creating it on first contact
func (g *Gateway) dmChannel(ctx context.Context, userID int64) (string, error) {
	g.mu.Lock()
	channelID, ok := g.dmByUser[userID]
	g.mu.Unlock()
	if ok {
		return channelID, nil
	}

	channel, err := g.session.UserChannelCreate(strconv.FormatInt(userID, 10), discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to open DM channel: %w", err)
	}
	g.rememberDM(userID, channel.ID)
	return channel.ID, nil
}

func (g *Gateway) target(ctx context.Context, msg bot.OutgoingMessage) (string, error) {
	if msg.Channel != "" {
		return msg.Channel, nil
	}
	return g.dmChannel(ctx, msg.UserID)
}

// Send sends a message with buttons rendered as components
func (g *Gateway) Send(ctx context.Context, msg bot.OutgoingMessage) error {
	channelID, err := g.target(ctx, msg)
	if err != nil {
		return err
	}
	_, err = g.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content:    msg.Text,
		Components: components(msg.Buttons),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to send discord message: %w", err)
	}
	return nil
}

// SendPhoto attaches msg.Photo as a PNG file
func (g *Gateway) SendPhoto(ctx context.Context, msg bot.OutgoingMessage) error {
	channelID, err := g.target(ctx, msg)
	if err != nil {
		return err
	}
	_, err = g.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content:    msg.Text,
		Components: components(msg.Buttons),
		Files: []*discordgo.File{{
			Name:        "image.png",
			ContentType: "image/png",
			Reader:      bytes.NewReader(msg.Photo),
		}},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to send discord photo: %w", err)
	}
	return nil
}

// Close closes the websocket and the updates channel
func (g *Gateway) Close() error {
	g.closeUpdates()
	return g.session.Close()
}

// convertMessage maps a direct message; guild messages and bots are dropped
func convertMessage(m *discordgo.Message) (bot.Update, bool) {
	if m == nil || m.Author == nil || m.Author.Bot || m.GuildID != "" {
		return bot.Update{}, false
	}
	userID, err := strconv.ParseInt(m.Author.ID, 10, 64)
	if err != nil {
		return bot.Update{}, false
	}

	u := bot.Update{
		UserID:      userID,
		Username:    m.Author.Username,
		DisplayName: m.Author.GlobalName,
		Text:        m.Content,
	}
	for _, a := range m.Attachments {
		if strings.HasPrefix(a.ContentType, "image/") {
			u.PhotoRef = a.URL
			break
		}
	}
	if u.Text == "" && u.PhotoRef == "" {
		return bot.Update{}, false
	}
	return u, true
}

func convertInteraction(i *discordgo.Interaction) (bot.Update, bool) {
	user := i.User
	if user == nil && i.Member != nil {
		user = i.Member.User
	}
	if user == nil {
		return bot.Update{}, false
	}
	userID, err := strconv.ParseInt(user.ID, 10, 64)
	if err != nil {
		return bot.Update{}, false
	}
	return bot.Update{
		UserID:      userID,
		Username:    user.Username,
		DisplayName: user.GlobalName,
		Text:        i.MessageComponentData().CustomID,
		IsButton:    true,
	}, true
}

// components renders button rows; Discord allows five buttons per row
func components(rows [][]bot.Button) []discordgo.MessageComponent {
	if len(rows) == 0 {
		return nil
	}
	result := make([]discordgo.MessageComponent, 0, len(rows))
	for _, row := range rows {
		buttons := make([]discordgo.MessageComponent, 0, len(row))
		for _, b := range row {
			style := discordgo.PrimaryButton
			switch {
			case strings.HasPrefix(b.Data, "/reject") || b.Data == "/cancel":
				style = discordgo.DangerButton
			case strings.HasPrefix(b.Data, "/hold"):
				style = discordgo.SecondaryButton
			case strings.HasPrefix(b.Data, "/approve") || b.Data == "confirm":
				style = discordgo.SuccessButton
			}
			buttons = append(buttons, discordgo.Button{
				Label:    b.Label,
				Style:    style,
				CustomID: b.Data,
			})
			if len(buttons) == 5 {
				result = append(result, discordgo.ActionsRow{Components: buttons})
				buttons = make([]discordgo.MessageComponent, 0, len(row))
			}
		}
		if len(buttons) > 0 {
			result = append(result, discordgo.ActionsRow{Components: buttons})
		}
	}
	return result
}
