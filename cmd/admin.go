package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"luckydraw/api"
	"luckydraw/application"
	"luckydraw/config"
	"luckydraw/database"
	"luckydraw/domain/utils"
	"luckydraw/infrastructure"

	log "github.com/sirupsen/logrus"
)

// adminTokenTTL is how long a token minted by the token command stays valid
const adminTokenTTL = 30 * 24 * time.Hour

// ErrDiscrepancies is returned by Reconcile when any balance disagrees with its ledger
var ErrDiscrepancies = fmt.Errorf("ledger discrepancies found")

// IssueToken prints an admin API token for adminID
func IssueToken(out io.Writer, rawAdminID string) error {
	adminID, err := strconv.ParseInt(rawAdminID, 10, 64)
	if err != nil || adminID <= 0 {
		return fmt.Errorf("invalid admin id %q", rawAdminID)
	}

	cfg := config.Get()
	token, err := api.IssueAdminToken(cfg.AdminJWTSecret, adminID, adminTokenTTL, time.Now())
	if err != nil {
		return err
	}
	fmt.Fprintln(out, token)
	return nil
}

// Reconcile compares every balance with the sum of its ledger rows and prints mismatches
func Reconcile(ctx context.Context, out io.Writer) error {
	cfg := config.Get()
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Reconciling publishes nothing; events would only reach local handlers
	uowFactory := infrastructure.NewUnitOfWorkFactory(db, infrastructure.NewLocalEventPublisher())
	discrepancies, err := application.ReconcileLedger(ctx, uowFactory)
	if err != nil {
		return err
	}

	if len(discrepancies) == 0 {
		fmt.Fprintln(out, "All balances match the ledger.")
		return nil
	}
	fmt.Fprintf(out, "%d balance(s) disagree with the ledger:\n", len(discrepancies))
	for _, d := range discrepancies {
		fmt.Fprintf(out, "user %d: balance %s, ledger %s, difference %s\n",
			d.UserID, utils.FormatThousands(d.Balance), utils.FormatThousands(d.LedgerSum), utils.FormatThousands(d.Difference()))
	}
	log.WithField("count", len(discrepancies)).Warn("Ledger reconciliation found discrepancies")
	return ErrDiscrepancies
}
