package bot

import (
	"context"
	"strings"

	"luckydraw/application/dto"
	"luckydraw/domain/entities"
	"luckydraw/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// Wallet is the user-facing application service the router drives
type Wallet interface {
	EnsureUser(ctx context.Context, userID int64, username, displayName string) (*entities.User, error)
	Register(ctx context.Context, userID int64, phone, displayName string) (*entities.User, error)
	Account(ctx context.Context, userID int64) (*entities.User, error)
	MinimumAmounts(ctx context.Context) (deposit, withdrawal int64, err error)
	SubmitDeposit(ctx context.Context, userID, amount int64, method entities.PaymentMethod, proofRef string) (*entities.PaymentRequest, error)
	SubmitWithdrawal(ctx context.Context, userID, amount int64, method entities.PaymentMethod, accountName, accountPhone string) (*entities.WithdrawalRequest, int64, error)
	SubmitAd(ctx context.Context, userID int64, draft entities.AdDraft) (*entities.Advertisement, error)
	QuoteTickets(ctx context.Context, userID int64, count int) (*entities.TicketQuote, error)
	ConfirmTickets(ctx context.Context, userID int64, count int) (*interfaces.TicketPurchaseResult, error)
	History(ctx context.Context, userID int64, limit int) ([]*entities.Transaction, error)
	MyTickets(ctx context.Context, userID int64) (*dto.TicketList, error)
	DrawPreview(ctx context.Context) (*entities.DrawPreview, error)
}

// Admin is the admin application service behind the admin commands
type Admin interface {
	IsAdmin(ctx context.Context, userID int64) (bool, error)
	ApproveRequest(ctx context.Context, ref entities.RequestRef, adminID int64) (*dto.DecisionResult, error)
	RejectRequest(ctx context.Context, ref entities.RequestRef, adminID int64, note string) (*dto.DecisionResult, error)
	HoldRequest(ctx context.Context, ref entities.RequestRef, adminID int64, note string) (*dto.DecisionResult, error)
	ListPending(ctx context.Context, adminID int64, limit int) ([]*entities.RequestSummary, error)
	Stats(ctx context.Context, adminID int64) (*dto.AdminStats, error)
	SetSetting(ctx context.Context, adminID int64, key, value string) error
	Reconcile(ctx context.Context, adminID int64) ([]entities.LedgerDiscrepancy, error)
}

type commandHandler func(ctx context.Context, u Update, args string) error

type inputKind int

const (
	inputText inputKind = iota
	inputPhoto
)

// stepHandler validates one wizard input and moves the session forward
type stepHandler struct {
	input inputKind
	// reprompt is sent when the input is of the wrong kind
	reprompt string
	handle   func(ctx context.Context, u Update, s *Session) error
}

// Router maps updates to command handlers and wizard steps
type Router struct {
	gateway  Gateway
	wallet   Wallet
	admin    Admin
	sessions *SessionStore
	accounts []dto.PaymentAccount

	commands      map[string]commandHandler
	adminCommands map[string]commandHandler
	steps         map[Step]stepHandler

	recordUpdate func(kind string)
}

// NewRouter creates a router with the full command and wizard tables
func NewRouter(gateway Gateway, wallet Wallet, admin Admin, accounts []dto.PaymentAccount) *Router {
	r := &Router{
		gateway:  gateway,
		wallet:   wallet,
		admin:    admin,
		sessions: NewSessionStore(),
		accounts: accounts,
	}

	r.commands = map[string]commandHandler{
		"start":       r.handleStart,
		"help":        r.handleHelp,
		"register":    r.handleRegister,
		"balance":     r.handleBalance,
		"deposit":     r.handleDeposit,
		"withdraw":    r.handleWithdraw,
		"buyticket":   r.handleBuyTicket,
		"mytickets":   r.handleMyTickets,
		"history":     r.handleHistory,
		"paymentinfo": r.handlePaymentInfo,
		"draw":        r.handleDraw,
		"addad":       r.handleAddAd,
		"cancel":      r.handleCancel,
	}
	r.adminCommands = map[string]commandHandler{
		"admin":       r.handleAdmin,
		"pending":     r.handlePending,
		"stats":       r.handleStats,
		"approve":     r.handleApprove,
		"reject":      r.handleReject,
		"hold":        r.handleHold,
		"approvead":   r.handleApproveAd,
		"rejectad":    r.handleRejectAd,
		"setprice":    r.handleSetPrice,
		"setdrawtime": r.handleSetDrawTime,
		"reconcile":   r.handleReconcile,
	}
	r.steps = r.wizardSteps()
	return r
}

// SetUpdateRecorder installs a callback counting handled updates by kind
func (r *Router) SetUpdateRecorder(record func(kind string)) {
	r.recordUpdate = record
}

// Sessions exposes the wizard store
func (r *Router) Sessions() *SessionStore {
	return r.sessions
}

// HandleUpdate processes one update to completion
func (r *Router) HandleUpdate(ctx context.Context, u Update) {
	if r.recordUpdate != nil {
		r.recordUpdate(updateKind(u))
	}

	if _, err := r.wallet.EnsureUser(ctx, u.UserID, u.Username, u.DisplayName); err != nil {
		r.handleError(ctx, u, err)
		return
	}

	text := strings.TrimSpace(u.Text)
	if strings.HasPrefix(text, "/") {
		name, args := parseCommand(text)
		r.dispatchCommand(ctx, u, name, args)
		return
	}

	if session := r.sessions.Get(u.UserID); session != nil {
		r.handleStep(ctx, u, session)
		return
	}

	r.reply(ctx, u, "Send /help to see what I can do.")
}

func (r *Router) dispatchCommand(ctx context.Context, u Update, name, args string) {
	log.WithFields(log.Fields{
		"userID":  u.UserID,
		"command": name,
	}).Debug("Handling command")

	if handler, ok := r.commands[name]; ok {
		// A new command abandons any wizard in progress; /cancel reports on it itself
		if name != "cancel" {
			r.sessions.Clear(u.UserID)
		}
		if err := handler(ctx, u, args); err != nil {
			r.handleError(ctx, u, err)
		}
		return
	}

	if handler, ok := r.adminCommands[name]; ok {
		isAdmin, err := r.admin.IsAdmin(ctx, u.UserID)
		if err != nil {
			r.handleError(ctx, u, err)
			return
		}
		if !isAdmin {
			r.handleError(ctx, u, entities.ErrNotAuthorized)
			return
		}
		r.sessions.Clear(u.UserID)
		if err := handler(ctx, u, args); err != nil {
			r.handleError(ctx, u, err)
		}
		return
	}

	r.reply(ctx, u, "Unknown command. Send /help to see what I can do.")
}

func (r *Router) handleStep(ctx context.Context, u Update, session *Session) {
	step, ok := r.steps[session.Step]
	if !ok {
		log.WithFields(log.Fields{
			"userID": u.UserID,
			"step":   session.Step,
		}).Warn("Session in unknown step, dropping it")
		r.sessions.Clear(u.UserID)
		return
	}

	switch step.input {
	case inputPhoto:
		if !u.HasPhoto() {
			r.reply(ctx, u, step.reprompt)
			return
		}
	default:
		if strings.TrimSpace(u.Text) == "" {
			r.reply(ctx, u, step.reprompt)
			return
		}
	}

	if err := step.handle(ctx, u, session); err != nil {
		r.handleError(ctx, u, err)
	}
}

// parseCommand splits "/approve_D12 some note" into ("approve", "D12 some note").
// A "@botname" suffix on the command is dropped.
func parseCommand(text string) (string, string) {
	text = strings.TrimPrefix(strings.TrimSpace(text), "/")
	name, args, _ := strings.Cut(text, " ")
	args = strings.TrimSpace(args)

	if at := strings.Index(name, "@"); at >= 0 {
		name = name[:at]
	}
	if before, after, found := strings.Cut(name, "_"); found && before != "" {
		name = before
		args = strings.TrimSpace(after + " " + args)
	}
	return strings.ToLower(name), args
}

func updateKind(u Update) string {
	switch {
	case u.IsButton:
		return "button"
	case u.HasPhoto():
		return "photo"
	case strings.HasPrefix(strings.TrimSpace(u.Text), "/"):
		return "command"
	default:
		return "text"
	}
}

func (r *Router) reply(ctx context.Context, u Update, text string) {
	r.send(ctx, OutgoingMessage{UserID: u.UserID, Text: text})
}

func (r *Router) replyWithButtons(ctx context.Context, u Update, text string, buttons ...Button) {
	r.send(ctx, OutgoingMessage{UserID: u.UserID, Text: text, Buttons: [][]Button{buttons}})
}

func (r *Router) send(ctx context.Context, msg OutgoingMessage) {
	if err := r.gateway.Send(ctx, msg); err != nil {
		log.WithError(err).WithField("userID", msg.UserID).Warn("Failed to send reply")
	}
}

// requireRegistered loads the user and refuses unregistered accounts
func (r *Router) requireRegistered(ctx context.Context, userID int64) (*entities.User, error) {
	user, err := r.wallet.Account(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsRegistered() {
		return nil, entities.ErrUserNotRegistered
	}
	return user, nil
}

func (r *Router) isAdmin(ctx context.Context, userID int64) bool {
	ok, err := r.admin.IsAdmin(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("userID", userID).Warn("Failed to check admin")
		return false
	}
	return ok
}

func (r *Router) accountFor(method entities.PaymentMethod) (dto.PaymentAccount, bool) {
	for _, a := range r.accounts {
		if a.Method == method {
			return a, true
		}
	}
	return dto.PaymentAccount{}, false
}

func methodButtons() []Button {
	return []Button{
		{Label: entities.PaymentMethodKPay.DisplayName(), Data: string(entities.PaymentMethodKPay)},
		{Label: entities.PaymentMethodWavePay.DisplayName(), Data: string(entities.PaymentMethodWavePay)},
	}
}
