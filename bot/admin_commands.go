package bot

import (
	"context"
	"strconv"
	"strings"

	"luckydraw/application/dto"
	"luckydraw/domain/entities"
	"luckydraw/domain/utils"
)

const pendingListLimit = 20

func (r *Router) handleAdmin(ctx context.Context, u Update, _ string) error {
	r.reply(ctx, u, adminHelpText())
	return nil
}

func (r *Router) handlePending(ctx context.Context, u Update, _ string) error {
	pending, err := r.admin.ListPending(ctx, u.UserID, pendingListLimit)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		r.reply(ctx, u, "✅ No pending requests.")
		return nil
	}
	for _, summary := range pending {
		r.send(ctx, OutgoingMessage{
			UserID:  u.UserID,
			Text:    formatPendingRequest(summary),
			Buttons: actionButtons(decisionCommands(summary.Ref)),
		})
	}
	return nil
}

func (r *Router) handleStats(ctx context.Context, u Update, _ string) error {
	stats, err := r.admin.Stats(ctx, u.UserID)
	if err != nil {
		return err
	}
	r.reply(ctx, u, formatStats(stats))
	return nil
}

func (r *Router) handleApprove(ctx context.Context, u Update, args string) error {
	ref, _, err := parseDecisionArgs("approve", args)
	if err != nil {
		return err
	}
	result, err := r.admin.ApproveRequest(ctx, ref, u.UserID)
	if err != nil {
		return err
	}
	r.reply(ctx, u, formatDecisionConfirmation(result))
	return nil
}

func (r *Router) handleReject(ctx context.Context, u Update, args string) error {
	ref, note, err := parseDecisionArgs("reject", args)
	if err != nil {
		return err
	}
	result, err := r.admin.RejectRequest(ctx, ref, u.UserID, note)
	if err != nil {
		return err
	}
	r.reply(ctx, u, formatDecisionConfirmation(result))
	return nil
}

func (r *Router) handleHold(ctx context.Context, u Update, args string) error {
	ref, note, err := parseDecisionArgs("hold", args)
	if err != nil {
		return err
	}
	result, err := r.admin.HoldRequest(ctx, ref, u.UserID, note)
	if err != nil {
		return err
	}
	r.reply(ctx, u, formatDecisionConfirmation(result))
	return nil
}

// handleApproveAd accepts "/approvead_3" as a shorthand for "/approve_A3"
func (r *Router) handleApproveAd(ctx context.Context, u Update, args string) error {
	return r.handleApprove(ctx, u, adRefArgs(args))
}

// handleRejectAd accepts "/rejectad_3 note" as a shorthand for "/reject_A3 note"
func (r *Router) handleRejectAd(ctx context.Context, u Update, args string) error {
	return r.handleReject(ctx, u, adRefArgs(args))
}

func (r *Router) handleSetPrice(ctx context.Context, u Update, args string) error {
	price, ok := utils.ParseAmount(args)
	if !ok {
		return NewUserError("❌ Usage: /setprice 1000", "invalid ticket price")
	}
	if err := r.admin.SetSetting(ctx, u.UserID, entities.SettingTicketPrice, strconv.FormatInt(price, 10)); err != nil {
		return err
	}
	r.reply(ctx, u, "✅ Ticket price set to "+utils.FormatKyat(price)+".")
	return nil
}

func (r *Router) handleSetDrawTime(ctx context.Context, u Update, args string) error {
	value := strings.TrimSpace(args)
	hour, minute, err := utils.ParseDrawTime(value)
	if err != nil {
		return NewUserError("❌ Usage: /setdrawtime 18:00", "invalid draw time")
	}
	value = formatClock(hour, minute)
	if err := r.admin.SetSetting(ctx, u.UserID, entities.SettingDrawTime, value); err != nil {
		return err
	}
	r.reply(ctx, u, "✅ Daily draw time set to "+value+". It applies from the next scheduled draw.")
	return nil
}

func (r *Router) handleReconcile(ctx context.Context, u Update, _ string) error {
	discrepancies, err := r.admin.Reconcile(ctx, u.UserID)
	if err != nil {
		return err
	}
	r.reply(ctx, u, formatDiscrepancies(discrepancies))
	return nil
}

// parseDecisionArgs reads "D12 optional note"
func parseDecisionArgs(command, args string) (entities.RequestRef, string, error) {
	rawRef, note, _ := strings.Cut(strings.TrimSpace(args), " ")
	ref, err := entities.ParseRequestRef(rawRef)
	if err != nil {
		return entities.RequestRef{}, "", NewUserError(
			"❌ Usage: /"+command+"_D12, /"+command+"_W7 or /"+command+"_A3 followed by an optional note",
			"invalid request reference")
	}
	return ref, strings.TrimSpace(note), nil
}

// adRefArgs prefixes a bare advertisement id with its reference letter
func adRefArgs(args string) string {
	args = strings.TrimSpace(args)
	if args == "" || args[0] < '0' || args[0] > '9' {
		return args
	}
	return "A" + args
}

func decisionCommands(ref entities.RequestRef) []dto.Action {
	return []dto.Action{
		{Label: "Approve", Command: "/approve_" + ref.String()},
		{Label: "Reject", Command: "/reject_" + ref.String()},
		{Label: "Hold", Command: "/hold_" + ref.String()},
	}
}
