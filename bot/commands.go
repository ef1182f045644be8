package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"luckydraw/bot/render"
	"luckydraw/domain/entities"
	"luckydraw/domain/utils"

	log "github.com/sirupsen/logrus"
)

const (
	historyLimit  = 10
	maxNameLength = 64
)

func (r *Router) handleStart(ctx context.Context, u Update, _ string) error {
	user, err := r.wallet.Account(ctx, u.UserID)
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🍀 Welcome to Lucky Draw Myanmar, %s!\n\n", user.Name())
	if !user.IsRegistered() {
		b.WriteString("Start with /register to add your phone number.\n\n")
	}
	b.WriteString(helpText(false))
	r.reply(ctx, u, b.String())
	return nil
}

func (r *Router) handleHelp(ctx context.Context, u Update, _ string) error {
	r.reply(ctx, u, helpText(r.isAdmin(ctx, u.UserID)))
	return nil
}

func (r *Router) handleCancel(ctx context.Context, u Update, _ string) error {
	if r.sessions.Clear(u.UserID) {
		r.reply(ctx, u, "Cancelled.")
	} else {
		r.reply(ctx, u, "Nothing to cancel.")
	}
	return nil
}

func (r *Router) handleRegister(ctx context.Context, u Update, _ string) error {
	user, err := r.wallet.Account(ctx, u.UserID)
	if err != nil {
		return err
	}
	if user.IsRegistered() {
		r.reply(ctx, u, fmt.Sprintf("You are already registered as %s (%s).", user.Name(), utils.MaskPhone(*user.Phone)))
		return nil
	}

	r.sessions.Start(u.UserID, StepRegisterPhone)
	r.reply(ctx, u, "📱 Send your phone number (09xxxxxxxxx).")
	return nil
}

func (r *Router) handleBalance(ctx context.Context, u Update, _ string) error {
	user, err := r.wallet.Account(ctx, u.UserID)
	if err != nil {
		return err
	}
	r.reply(ctx, u, formatAccount(user))
	return nil
}

func (r *Router) handleDeposit(ctx context.Context, u Update, _ string) error {
	if _, err := r.requireRegistered(ctx, u.UserID); err != nil {
		return err
	}
	r.sessions.Start(u.UserID, StepDepositMethod)
	r.replyWithButtons(ctx, u, "💳 Which method did you use to send the money?", methodButtons()...)
	return nil
}

func (r *Router) handleWithdraw(ctx context.Context, u Update, _ string) error {
	user, err := r.requireRegistered(ctx, u.UserID)
	if err != nil {
		return err
	}
	r.sessions.Start(u.UserID, StepWithdrawMethod)
	r.replyWithButtons(ctx, u,
		fmt.Sprintf("💸 Your balance is %s.\nWhich method should we pay you with?", utils.FormatKyat(user.Balance)),
		methodButtons()...)
	return nil
}

func (r *Router) handleBuyTicket(ctx context.Context, u Update, args string) error {
	if _, err := r.requireRegistered(ctx, u.UserID); err != nil {
		return err
	}

	if args != "" {
		count, err := parseTicketCount(args)
		if err != nil {
			return err
		}
		return r.quoteTickets(ctx, u, count)
	}

	preview, err := r.wallet.DrawPreview(ctx)
	if err != nil {
		return err
	}
	r.sessions.Start(u.UserID, StepTicketCount)
	r.reply(ctx, u, fmt.Sprintf("🎟 How many tickets for the %s draw? (1-%d)",
		utils.FormatDate(preview.DrawDate), entities.MaxTicketsPerPurchase))
	return nil
}

// quoteTickets shows the price and asks for confirmation, or explains the shortfall
func (r *Router) quoteTickets(ctx context.Context, u Update, count int) error {
	quote, err := r.wallet.QuoteTickets(ctx, u.UserID, count)
	if err != nil {
		return err
	}
	if !quote.Affordable {
		r.sessions.Clear(u.UserID)
		r.reply(ctx, u, fmt.Sprintf("❌ %d tickets cost %s but your balance is %s. You need %s more. Use /deposit to top up.",
			quote.Count, utils.FormatKyat(quote.Total), utils.FormatKyat(quote.Balance), utils.FormatKyat(quote.Shortfall())))
		return nil
	}

	r.sessions.Save(&Session{UserID: u.UserID, Step: StepTicketConfirm, Count: count})
	r.replyWithButtons(ctx, u, formatQuote(quote),
		Button{Label: "✅ Confirm", Data: "confirm"},
		Button{Label: "❌ Cancel", Data: "/cancel"},
	)
	return nil
}

func (r *Router) handleMyTickets(ctx context.Context, u Update, _ string) error {
	list, err := r.wallet.MyTickets(ctx, u.UserID)
	if err != nil {
		return err
	}
	r.reply(ctx, u, formatTickets(list))
	return nil
}

func (r *Router) handleHistory(ctx context.Context, u Update, _ string) error {
	txs, err := r.wallet.History(ctx, u.UserID, historyLimit)
	if err != nil {
		return err
	}
	r.reply(ctx, u, formatHistory(txs))
	return nil
}

func (r *Router) handlePaymentInfo(ctx context.Context, u Update, _ string) error {
	if len(r.accounts) == 0 {
		r.reply(ctx, u, "No payment accounts are configured. Please contact an admin.")
		return nil
	}

	for _, account := range r.accounts {
		text := formatPaymentAccount(account)
		qr, err := render.PaymentQR(account)
		if err != nil {
			log.WithError(err).WithField("method", account.Method).Warn("Failed to render payment QR")
			r.reply(ctx, u, text)
			continue
		}
		if err := r.gateway.SendPhoto(ctx, OutgoingMessage{UserID: u.UserID, Text: text, Photo: qr}); err != nil {
			log.WithError(err).WithField("userID", u.UserID).Warn("Failed to send payment QR")
			r.reply(ctx, u, text)
		}
	}
	r.reply(ctx, u, "After sending money, use /deposit and attach the screenshot.")
	return nil
}

func (r *Router) handleDraw(ctx context.Context, u Update, _ string) error {
	preview, err := r.wallet.DrawPreview(ctx)
	if err != nil {
		return err
	}
	r.reply(ctx, u, formatPreview(preview))
	return nil
}

// wizardSteps is the (step, input) → handler table for every multi-step flow
func (r *Router) wizardSteps() map[Step]stepHandler {
	return map[Step]stepHandler{
		StepRegisterPhone: {input: inputText, reprompt: "📱 Send your phone number (09xxxxxxxxx), or /cancel.", handle: r.stepRegisterPhone},
		StepRegisterName:  {input: inputText, reprompt: "✏️ Send the name to show on your account, or /cancel.", handle: r.stepRegisterName},

		StepDepositMethod: {input: inputText, reprompt: "Choose KPay or WavePay, or /cancel.", handle: r.stepDepositMethod},
		StepDepositAmount: {input: inputText, reprompt: "Send the amount you transferred, or /cancel.", handle: r.stepDepositAmount},
		StepDepositProof:  {input: inputPhoto, reprompt: "📸 Please send the screenshot of your transfer as a photo, or /cancel.", handle: r.stepDepositProof},

		StepWithdrawMethod: {input: inputText, reprompt: "Choose KPay or WavePay, or /cancel.", handle: r.stepWithdrawMethod},
		StepWithdrawName:   {input: inputText, reprompt: "Send the account holder name, or /cancel.", handle: r.stepWithdrawName},
		StepWithdrawPhone:  {input: inputText, reprompt: "Send the account phone number (09xxxxxxxxx), or /cancel.", handle: r.stepWithdrawPhone},
		StepWithdrawAmount: {input: inputText, reprompt: "Send the amount to withdraw, or /cancel.", handle: r.stepWithdrawAmount},

		StepTicketCount:   {input: inputText, reprompt: "Send the number of tickets, or /cancel.", handle: r.stepTicketCount},
		StepTicketConfirm: {input: inputText, reprompt: "Press Confirm or send /cancel.", handle: r.stepTicketConfirm},

		StepAdName:    {input: inputText, reprompt: "Send the advertiser or business name, or /cancel.", handle: r.stepAdName},
		StepAdTitle:   {input: inputText, reprompt: "Send the ad title, or /cancel.", handle: r.stepAdTitle},
		StepAdContent: {input: inputText, reprompt: "Send the ad text, or /cancel.", handle: r.stepAdContent},
		StepAdType:    {input: inputText, reprompt: "Choose Text, Banner or Sponsored, or /cancel.", handle: r.stepAdType},
		StepAdConfirm: {input: inputText, reprompt: "Press Confirm or send /cancel.", handle: r.stepAdConfirm},
	}
}

func (r *Router) stepRegisterPhone(ctx context.Context, u Update, s *Session) error {
	phone, err := utils.NormalizePhone(u.Text)
	if err != nil {
		return err
	}
	s.Phone = phone
	s.Step = StepRegisterName
	r.sessions.Save(s)

	suggestion := ""
	if u.DisplayName != "" {
		suggestion = fmt.Sprintf(" (for example %s)", u.DisplayName)
	}
	r.reply(ctx, u, "✏️ Send the name to show on your account"+suggestion+".")
	return nil
}

func (r *Router) stepRegisterName(ctx context.Context, u Update, s *Session) error {
	name, err := parseName(u.Text)
	if err != nil {
		return err
	}
	user, err := r.wallet.Register(ctx, u.UserID, s.Phone, name)
	if err != nil {
		return err
	}
	r.sessions.Clear(u.UserID)
	r.reply(ctx, u, fmt.Sprintf("✅ Registered as %s (%s).\nUse /paymentinfo and /deposit to add money, then /buyticket.",
		user.Name(), utils.MaskPhone(s.Phone)))
	return nil
}

func (r *Router) stepDepositMethod(ctx context.Context, u Update, s *Session) error {
	method, err := entities.ParsePaymentMethod(u.Text)
	if err != nil {
		return err
	}
	minDeposit, _, err := r.wallet.MinimumAmounts(ctx)
	if err != nil {
		return err
	}

	s.Method = method
	s.Step = StepDepositAmount
	r.sessions.Save(s)

	var b strings.Builder
	if account, ok := r.accountFor(method); ok {
		fmt.Fprintf(&b, "Send the money to:\n%s\n\n", formatPaymentAccount(account))
	}
	fmt.Fprintf(&b, "How much did you send? (minimum %s)", utils.FormatKyat(minDeposit))
	r.reply(ctx, u, b.String())
	return nil
}

func (r *Router) stepDepositAmount(ctx context.Context, u Update, s *Session) error {
	amount, ok := utils.ParseAmount(u.Text)
	if !ok {
		return entities.ErrInvalidAmount
	}
	minDeposit, _, err := r.wallet.MinimumAmounts(ctx)
	if err != nil {
		return err
	}
	if amount < minDeposit {
		return &entities.MinimumAmountError{Minimum: minDeposit}
	}

	s.Amount = amount
	s.Step = StepDepositProof
	r.sessions.Save(s)
	r.reply(ctx, u, "📸 Now send the screenshot of your transfer.")
	return nil
}

func (r *Router) stepDepositProof(ctx context.Context, u Update, s *Session) error {
	req, err := r.wallet.SubmitDeposit(ctx, u.UserID, s.Amount, s.Method, u.PhotoRef)
	if err != nil {
		return err
	}
	r.sessions.Clear(u.UserID)
	r.reply(ctx, u, fmt.Sprintf("📨 Deposit %s of %s via %s submitted.\nAn admin will review it shortly.",
		req.Ref(), utils.FormatKyat(req.Amount), req.Method.DisplayName()))
	return nil
}

func (r *Router) stepWithdrawMethod(ctx context.Context, u Update, s *Session) error {
	method, err := entities.ParsePaymentMethod(u.Text)
	if err != nil {
		return err
	}
	s.Method = method
	s.Step = StepWithdrawName
	r.sessions.Save(s)
	r.reply(ctx, u, fmt.Sprintf("👤 Send the %s account holder name.", method.DisplayName()))
	return nil
}

func (r *Router) stepWithdrawName(ctx context.Context, u Update, s *Session) error {
	name, err := parseName(u.Text)
	if err != nil {
		return err
	}
	s.Name = name
	s.Step = StepWithdrawPhone
	r.sessions.Save(s)
	r.reply(ctx, u, fmt.Sprintf("📱 Send the %s phone number (09xxxxxxxxx).", s.Method.DisplayName()))
	return nil
}

func (r *Router) stepWithdrawPhone(ctx context.Context, u Update, s *Session) error {
	phone, err := utils.NormalizePayoutPhone(u.Text)
	if err != nil {
		return err
	}
	_, minWithdrawal, err := r.wallet.MinimumAmounts(ctx)
	if err != nil {
		return err
	}
	s.Phone = phone
	s.Step = StepWithdrawAmount
	r.sessions.Save(s)
	r.reply(ctx, u, fmt.Sprintf("💰 How much do you want to withdraw? (minimum %s)", utils.FormatKyat(minWithdrawal)))
	return nil
}

func (r *Router) stepWithdrawAmount(ctx context.Context, u Update, s *Session) error {
	amount, ok := utils.ParseAmount(u.Text)
	if !ok {
		return entities.ErrInvalidAmount
	}
	req, balance, err := r.wallet.SubmitWithdrawal(ctx, u.UserID, amount, s.Method, s.Name, s.Phone)
	if err != nil {
		return err
	}
	r.sessions.Clear(u.UserID)
	r.reply(ctx, u, fmt.Sprintf("📨 Withdrawal %s of %s to %s %s submitted.\nThe amount is held until an admin pays it out. Balance: %s",
		req.Ref(), utils.FormatKyat(req.Amount), req.Method.DisplayName(), utils.MaskPhone(req.AccountPhone), utils.FormatKyat(balance)))
	return nil
}

func (r *Router) stepTicketCount(ctx context.Context, u Update, _ *Session) error {
	count, err := parseTicketCount(u.Text)
	if err != nil {
		return err
	}
	return r.quoteTickets(ctx, u, count)
}

func (r *Router) stepTicketConfirm(ctx context.Context, u Update, s *Session) error {
	switch strings.ToLower(strings.TrimSpace(u.Text)) {
	case "confirm", "yes", "y", "ok":
	case "cancel", "no", "n":
		r.sessions.Clear(u.UserID)
		r.reply(ctx, u, "Cancelled.")
		return nil
	default:
		r.reply(ctx, u, "Press Confirm or send /cancel.")
		return nil
	}

	result, err := r.wallet.ConfirmTickets(ctx, u.UserID, s.Count)
	if err != nil {
		// The quote is stale once the purchase fails; start over
		r.sessions.Clear(u.UserID)
		return err
	}
	r.sessions.Clear(u.UserID)
	r.reply(ctx, u, formatPurchase(result))
	return nil
}

func parseTicketCount(raw string) (int, error) {
	count, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || count < 1 || count > entities.MaxTicketsPerPurchase {
		return 0, NewUserError(
			fmt.Sprintf("❌ Enter a number of tickets between 1 and %d.", entities.MaxTicketsPerPurchase),
			"invalid ticket count")
	}
	return count, nil
}

func parseName(raw string) (string, error) {
	name := strings.Join(strings.Fields(raw), " ")
	if name == "" || strings.HasPrefix(name, "/") || utf8.RuneCountInString(name) > maxNameLength {
		return "", NewUserError(
			fmt.Sprintf("❌ Names must be 1 to %d characters.", maxNameLength),
			"invalid name")
	}
	return name, nil
}
