package bot

import (
	"fmt"
	"strings"

	"luckydraw/application/dto"
	"luckydraw/domain/entities"
	"luckydraw/domain/interfaces"
	"luckydraw/domain/utils"
)

func helpText(isAdmin bool) string {
	var b strings.Builder
	b.WriteString("Commands:\n")
	b.WriteString("/register - add your phone number\n")
	b.WriteString("/balance - your balance and totals\n")
	b.WriteString("/paymentinfo - where to send money\n")
	b.WriteString("/deposit - report a deposit with a screenshot\n")
	b.WriteString("/withdraw - request a payout\n")
	b.WriteString("/buyticket [n] - buy tickets for the next draw\n")
	b.WriteString("/mytickets - your tickets for the next draw\n")
	b.WriteString("/history - your recent transactions\n")
	b.WriteString("/draw - today's prize pool\n")
	b.WriteString("/addad - submit an advertisement\n")
	b.WriteString("/cancel - stop the current step")
	if isAdmin {
		b.WriteString("\n\n")
		b.WriteString(adminHelpText())
	}
	return b.String()
}

func adminHelpText() string {
	return "Admin commands:\n" +
		"/pending - pending deposits, withdrawals and ads\n" +
		"/stats - users, balances and today's draw\n" +
		"/approve_<ref> - approve D12, W7 or A3\n" +
		"/reject_<ref> <note> - reject, refunding withdrawals\n" +
		"/hold_<ref> <note> - put on hold\n" +
		"/setprice <amount> - ticket price\n" +
		"/setdrawtime HH:MM - daily draw time\n" +
		"/reconcile - check balances against the ledger"
}

func formatAccount(user *entities.User) string {
	var b strings.Builder
	fmt.Fprintf(&b, "💰 Balance: %s\n", utils.FormatKyat(user.Balance))
	fmt.Fprintf(&b, "🎟 Tickets bought: %d\n", user.TicketsBought)
	fmt.Fprintf(&b, "Spent: %s\n", utils.FormatKyat(user.TotalSpent))
	fmt.Fprintf(&b, "Won: %s", utils.FormatKyat(user.TotalWon))
	if !user.IsRegistered() {
		b.WriteString("\n\nYou are not registered yet. Use /register to deposit and play.")
	}
	return b.String()
}

func formatQuote(q *entities.TicketQuote) string {
	return fmt.Sprintf("🎟 %d × %s = %s\nDraw: %s\nBalance after purchase: %s\n\nConfirm?",
		q.Count, utils.FormatKyat(q.UnitPrice), utils.FormatKyat(q.Total),
		utils.FormatDate(q.DrawDate), utils.FormatKyat(q.Balance-q.Total))
}

func formatAdSummary(ad entities.AdDraft) string {
	return fmt.Sprintf("📢 Advertisement summary\nAdvertiser: %s\nType: %s\nCost: %s\n\n%s\n%s\n\nSubmit for review?",
		ad.AdvertiserName, ad.Type.DisplayName(), utils.FormatKyat(ad.Type.Cost()), ad.Title, ad.Content)
}

func adTypeButtons() []Button {
	types := entities.AdTypes()
	buttons := make([]Button, 0, len(types))
	for _, t := range types {
		buttons = append(buttons, Button{
			Label: fmt.Sprintf("%s (%s)", t.DisplayName(), utils.FormatKyat(t.Cost())),
			Data:  string(t),
		})
	}
	return buttons
}

func formatPurchase(result *interfaces.TicketPurchaseResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ Bought %d ticket(s) for the %s draw.\n", len(result.Tickets), utils.FormatDate(result.DrawDate))
	for _, t := range result.Tickets {
		fmt.Fprintf(&b, "#%d %s\n", t.ID, t.TicketNumber)
	}
	fmt.Fprintf(&b, "Paid: %s\nBalance: %s\nGood luck! 🍀", utils.FormatKyat(result.Total), utils.FormatKyat(result.NewBalance))
	return b.String()
}

func formatTickets(list *dto.TicketList) string {
	if len(list.Tickets) == 0 {
		return fmt.Sprintf("You have no tickets for the %s draw. Use /buyticket to play.", utils.FormatDate(list.DrawDate))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🎟 Your tickets for the %s draw (%d):\n", utils.FormatDate(list.DrawDate), len(list.Tickets))
	for _, t := range list.Tickets {
		fmt.Fprintf(&b, "#%d %s\n", t.ID, t.TicketNumber)
	}
	return strings.TrimRight(b.String(), "\n")
}

func transactionLabel(t entities.TransactionType) string {
	switch t {
	case entities.TransactionTypeDeposit:
		return "Deposit"
	case entities.TransactionTypeWithdrawal:
		return "Withdrawal"
	case entities.TransactionTypeTicketPurchase:
		return "Tickets"
	case entities.TransactionTypeWithdrawalRefund:
		return "Refund"
	case entities.TransactionTypePrize:
		return "Prize"
	default:
		return string(t)
	}
}

func formatHistory(txs []*entities.Transaction) string {
	if len(txs) == 0 {
		return "No transactions yet."
	}
	var b strings.Builder
	b.WriteString("📜 Recent transactions:\n")
	for _, tx := range txs {
		sign := ""
		if tx.Amount > 0 {
			sign = "+"
		}
		fmt.Fprintf(&b, "%s %s %s%s → %s\n",
			tx.CreatedAt.Format("01-02 15:04"), transactionLabel(tx.Type),
			sign, utils.FormatThousands(tx.Amount), utils.FormatKyat(tx.BalanceAfter))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatPaymentAccount(a dto.PaymentAccount) string {
	return fmt.Sprintf("%s\nName: %s\nPhone: %s", a.Method.DisplayName(), a.AccountName, a.Phone)
}

func formatPreview(p *entities.DrawPreview) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎰 Draw %s at %s\n", utils.FormatDate(p.DrawDate), p.DrawTime)
	if p.AlreadyRun {
		b.WriteString("This draw has already run.\n")
	}
	fmt.Fprintf(&b, "Tickets sold: %d\n", p.TicketCount)
	fmt.Fprintf(&b, "Players: %d\n", p.BuyerCount)
	fmt.Fprintf(&b, "Prize pool: %s\n", utils.FormatKyat(p.Split.PrizePool))
	if p.Split.WinnerCount > 0 {
		fmt.Fprintf(&b, "Winners: %d × %s", p.Split.WinnerCount, utils.FormatKyat(p.Split.PrizePerWinner))
	} else {
		b.WriteString("Be the first to buy a ticket with /buyticket!")
	}
	return b.String()
}

func formatPendingRequest(s *entities.RequestSummary) string {
	kind := "📥 Deposit"
	switch s.Ref.Kind {
	case entities.RequestKindWithdrawal:
		kind = "📤 Withdrawal"
	case entities.RequestKindAdvertisement:
		return fmt.Sprintf("📢 Advertisement %s\nUser: %d\nCost: %s\n%s\nCreated: %s",
			s.Ref, s.UserID, utils.FormatKyat(s.Amount), s.Detail, s.CreatedAt.Format("2006-01-02 15:04"))
	}
	return fmt.Sprintf("%s %s\nUser: %d\nAmount: %s\nMethod: %s\nDetail: %s\nCreated: %s",
		kind, s.Ref, s.UserID, utils.FormatKyat(s.Amount), s.Method.DisplayName(), s.Detail,
		s.CreatedAt.Format("2006-01-02 15:04"))
}

func formatStats(stats *dto.AdminStats) string {
	u := stats.Users
	var b strings.Builder
	b.WriteString("📊 Stats\n")
	fmt.Fprintf(&b, "Users: %d (%d registered)\n", u.TotalUsers, u.RegisteredUsers)
	fmt.Fprintf(&b, "Balances held: %s\n", utils.FormatKyat(u.TotalBalance))
	fmt.Fprintf(&b, "Pending: %d deposits, %d withdrawals, %d ads\n", u.PendingDeposits, u.PendingWithdraws, u.PendingAds)
	fmt.Fprintf(&b, "Deposits approved: %s\n", utils.FormatKyat(u.TotalDepositsDone))
	fmt.Fprintf(&b, "Prizes paid: %s\n", utils.FormatKyat(u.TotalPrizesPaid))
	if p := stats.Preview; p != nil {
		fmt.Fprintf(&b, "\nToday (%s at %s): %d tickets, %s sales, %d players\n",
			utils.FormatDate(p.DrawDate), p.DrawTime, p.TicketCount, utils.FormatKyat(p.Split.TotalSales), p.BuyerCount)
		fmt.Fprintf(&b, "Commission %s, donation %s, pool %s",
			utils.FormatKyat(p.Split.Commission), utils.FormatKyat(p.Split.Donation), utils.FormatKyat(p.Split.PrizePool))
	}
	if d := stats.LastRun; d != nil {
		fmt.Fprintf(&b, "\nLast draw: %s, %s, %d winner(s)", utils.FormatDate(d.DrawDate), d.Status, d.WinnerCount)
	}
	return b.String()
}

func formatDecisionConfirmation(r *dto.DecisionResult) string {
	verb := map[entities.RequestStatus]string{
		entities.RequestStatusApproved: "✅ Approved",
		entities.RequestStatusRejected: "❌ Rejected",
		entities.RequestStatusOnHold:   "⏸ On hold",
	}[r.Status]
	text := fmt.Sprintf("%s %s: %s for %s (%d)", verb, r.Ref, utils.FormatKyat(r.Amount), r.UserName, r.UserID)
	if r.TransactionID != "" {
		text += "\nTransaction: " + r.TransactionID
	}
	switch {
	case r.Ref.Kind == entities.RequestKindAdvertisement:
		text += "\nAd: " + r.Detail
	case r.Detail != "":
		text += "\nPay to: " + r.Method.DisplayName() + " " + r.Detail
	}
	return text
}

func formatDiscrepancies(discrepancies []entities.LedgerDiscrepancy) string {
	if len(discrepancies) == 0 {
		return "✅ Every balance matches its ledger."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "⚠️ %d balance(s) disagree with the ledger:\n", len(discrepancies))
	for _, d := range discrepancies {
		fmt.Fprintf(&b, "User %d: balance %s, ledger %s (diff %s)\n",
			d.UserID, utils.FormatThousands(d.Balance), utils.FormatThousands(d.LedgerSum), utils.FormatThousands(d.Difference()))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatClock(hour, minute int) string {
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// actionButtons lays the actions out as a single row
func actionButtons(actions []dto.Action) [][]Button {
	if len(actions) == 0 {
		return nil
	}
	row := make([]Button, 0, len(actions))
	for _, a := range actions {
		row = append(row, Button{Label: a.Label, Data: a.Command})
	}
	return [][]Button{row}
}
