package testutil

import (
	"context"
	"testing"

	"luckydraw/database"

	"github.com/stretchr/testify/require"
)

// TestPhone is a valid Myanmar mobile number used for registered test users
const TestPhone = "09123456789"

// CreateRegisteredUser inserts a registered user with the given balance. The balance is
// written together with a matching deposit row so the ledger stays reconciled.
func CreateRegisteredUser(t *testing.T, db *database.DB, id int64, name string, balance int64) {
	t.Helper()
	ctx := context.Background()

	_, err := db.Exec(ctx, `
		INSERT INTO users (id, username, display_name, phone, balance, registered_at)
		VALUES ($1, $2, $2, $3, $4, NOW())
	`, id, name, TestPhone, balance)
	require.NoError(t, err)

	if balance > 0 {
		_, err = db.Exec(ctx, `
			INSERT INTO transactions (transaction_id, user_id, type, amount, balance_before, balance_after, status, description)
			VALUES ($1, $2, 'deposit', $3, 0, $3, 'completed', 'test seed')
		`, "SEED"+name, id, balance)
		require.NoError(t, err)
	}
}

// SetSetting stores a setting directly
func SetSetting(t *testing.T, db *database.DB, key, value string) {
	t.Helper()
	_, err := db.Exec(context.Background(), `
		INSERT INTO settings (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
	`, key, value)
	require.NoError(t, err)
}
