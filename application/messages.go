package application

import (
	"fmt"
	"strings"

	"luckydraw/application/dto"
	"luckydraw/domain/entities"
	"luckydraw/domain/utils"
)

func decisionUserMessage(r *dto.DecisionResult) string {
	var b strings.Builder
	kind := "Deposit"
	if r.Ref.Kind == entities.RequestKindWithdrawal {
		kind = "Withdrawal"
	}

	switch r.Status {
	case entities.RequestStatusApproved:
		fmt.Fprintf(&b, "✅ %s approved\n", kind)
	case entities.RequestStatusRejected:
		fmt.Fprintf(&b, "❌ %s rejected\n", kind)
	case entities.RequestStatusOnHold:
		fmt.Fprintf(&b, "⏸ %s on hold\n", kind)
	}

	fmt.Fprintf(&b, "Amount: %s\n", utils.FormatKyat(r.Amount))
	fmt.Fprintf(&b, "Method: %s\n", r.Method.DisplayName())
	if r.Ref.Kind == entities.RequestKindWithdrawal && r.Detail != "" {
		fmt.Fprintf(&b, "Account: %s\n", r.Detail)
	}
	fmt.Fprintf(&b, "Transaction: %s\n", r.TransactionID)
	if r.AdminNote != "" {
		fmt.Fprintf(&b, "Note: %s\n", r.AdminNote)
	}

	switch {
	case r.Ref.Kind == entities.RequestKindWithdrawal && r.Status == entities.RequestStatusRejected:
		fmt.Fprintf(&b, "The amount was returned to your balance. New balance: %s", utils.FormatKyat(r.NewBalance))
	case r.Ref.Kind == entities.RequestKindWithdrawal && r.Status == entities.RequestStatusApproved:
		b.WriteString("The money has been sent to your account.")
	case r.Status == entities.RequestStatusOnHold:
		b.WriteString("Please contact an admin about this request.")
	default:
		fmt.Fprintf(&b, "Balance: %s", utils.FormatKyat(r.NewBalance))
	}
	return b.String()
}

func decisionLogMessage(r *dto.DecisionResult) string {
	verb := "deposited"
	if r.Ref.Kind == entities.RequestKindWithdrawal {
		verb = "withdrew"
	}
	return fmt.Sprintf("💰 %s %s %s via %s (%s)",
		r.UserName, verb, utils.FormatKyat(r.Amount), r.Method.DisplayName(), r.Ref)
}

func depositAdminPrompt(user *entities.User, req *entities.PaymentRequest) string {
	return fmt.Sprintf("📥 New deposit %s\nUser: %s (%d)\nAmount: %s\nMethod: %s\nScreenshot: %s\n\n/approve_%s  /reject_%s <note>  /hold_%s <note>",
		req.Ref(), user.Name(), user.ID, utils.FormatKyat(req.Amount), req.Method.DisplayName(), req.ProofRef,
		req.Ref(), req.Ref(), req.Ref())
}

func withdrawalAdminPrompt(user *entities.User, req *entities.WithdrawalRequest) string {
	return fmt.Sprintf("📤 New withdrawal %s\nUser: %s (%d)\nAmount: %s\nMethod: %s\nAccount: %s %s\n\n/approve_%s  /reject_%s <note>  /hold_%s <note>",
		req.Ref(), user.Name(), user.ID, utils.FormatKyat(req.Amount), req.Method.DisplayName(), req.AccountName, req.AccountPhone,
		req.Ref(), req.Ref(), req.Ref())
}

func adAdminPrompt(user *entities.User, ad *entities.Advertisement) string {
	return fmt.Sprintf("📢 New advertisement %s\nUser: %s (%d)\nAdvertiser: %s\nType: %s\nCost: %s\n\n%s\n%s\n\n/approve_%s  /reject_%s <note>  /hold_%s <note>",
		ad.Ref(), user.Name(), user.ID, ad.AdvertiserName, ad.Type.DisplayName(), utils.FormatKyat(ad.Cost),
		ad.Title, ad.Content,
		ad.Ref(), ad.Ref(), ad.Ref())
}

func adDecisionUserMessage(r *dto.DecisionResult) string {
	var b strings.Builder
	switch r.Status {
	case entities.RequestStatusApproved:
		fmt.Fprintf(&b, "✅ Advertisement %s approved\n", r.Ref)
	case entities.RequestStatusRejected:
		fmt.Fprintf(&b, "❌ Advertisement %s rejected\n", r.Ref)
	case entities.RequestStatusOnHold:
		fmt.Fprintf(&b, "⏸ Advertisement %s on hold\n", r.Ref)
	}
	fmt.Fprintf(&b, "%s\n", r.Detail)
	if r.AdminNote != "" {
		fmt.Fprintf(&b, "Note: %s\n", r.AdminNote)
	}

	switch r.Status {
	case entities.RequestStatusApproved:
		fmt.Fprintf(&b, "It has been posted to the channel. An admin will contact you about the %s payment.", utils.FormatKyat(r.Amount))
	case entities.RequestStatusOnHold:
		b.WriteString("Please contact an admin about this advertisement.")
	default:
		b.WriteString("Nothing is charged for a rejected advertisement.")
	}
	return b.String()
}

// adAnnouncementText is the channel post for an approved advertisement
func adAnnouncementText(ad *entities.Advertisement) string {
	return fmt.Sprintf("📢 %s\n\n%s\n\n— %s", ad.Title, ad.Content, ad.AdvertiserName)
}

func decisionActions(ref entities.RequestRef) []dto.Action {
	return []dto.Action{
		{Label: "Approve", Command: "/approve_" + ref.String()},
		{Label: "Reject", Command: "/reject_" + ref.String()},
		{Label: "Hold", Command: "/hold_" + ref.String()},
	}
}

// DrawAnnouncementText is the public text posted with a settled draw
func DrawAnnouncementText(a dto.DrawAnnouncement) string {
	var b strings.Builder
	d := a.Draw
	fmt.Fprintf(&b, "🎉 Lucky Draw results for %s\n\n", utils.FormatDate(d.DrawDate))
	fmt.Fprintf(&b, "Total sales: %s\n", utils.FormatKyat(d.TotalSales))
	fmt.Fprintf(&b, "Players: %d\n", d.BuyerCount)
	fmt.Fprintf(&b, "Prize pool: %s\n", utils.FormatKyat(d.PrizePool))
	fmt.Fprintf(&b, "Donation: %s\n\n", utils.FormatKyat(d.Donation))
	fmt.Fprintf(&b, "🏆 Winners (%s each):\n", utils.FormatKyat(d.PrizePerWinner))
	for i, w := range a.Winners {
		fmt.Fprintf(&b, "%d. %s\n", i+1, w.Name)
	}
	b.WriteString("\nCongratulations! Tickets for the next draw are on sale now.")
	return b.String()
}

func winnerMessage(d *entities.Draw, w dto.WinnerView) string {
	return fmt.Sprintf("🏆 Congratulations! You won %s in the %s draw.\nThe prize has been added to your balance.",
		utils.FormatKyat(w.Amount), utils.FormatDate(d.DrawDate))
}
