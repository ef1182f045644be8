package application_test

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"

	"luckydraw/application"
	"luckydraw/application/dto"
	"luckydraw/config"
	"luckydraw/infrastructure"
	"luckydraw/repository/testutil"

	"github.com/stretchr/testify/require"
)

const testAdminID = int64(999999)

func TestMain(m *testing.M) {
	// Set up test config once for all tests
	config.SetTestConfig(config.NewTestConfig())
	_ = config.Get()

	os.Exit(m.Run())
}

// recordingNotifier implements application.Notifier for tests
type recordingNotifier struct {
	mu            sync.Mutex
	users         map[int64][]string
	admins        []string
	adminActions  [][]dto.Action
	announcements []string
	cards         [][]byte
	paymentLogs   []string
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{users: map[int64][]string{}}
}

func (n *recordingNotifier) NotifyUser(ctx context.Context, userID int64, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.users[userID] = append(n.users[userID], text)
	return nil
}

func (n *recordingNotifier) NotifyAdmins(ctx context.Context, text string, actions ...dto.Action) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.admins = append(n.admins, text)
	n.adminActions = append(n.adminActions, actions)
	return nil
}

func (n *recordingNotifier) Announce(ctx context.Context, text string, card []byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.announcements = append(n.announcements, text)
	n.cards = append(n.cards, card)
	return nil
}

func (n *recordingNotifier) PaymentLog(ctx context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paymentLogs = append(n.paymentLogs, text)
	return nil
}

func (n *recordingNotifier) userMessages(userID int64) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.users[userID]...)
}

func (n *recordingNotifier) adminMessages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.admins...)
}

func (n *recordingNotifier) adminMessageContaining(substr string) bool {
	for _, msg := range n.adminMessages() {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}

// testEnv wires the application services to a migrated test database
type testEnv struct {
	db         *testutil.TestDatabase
	uowFactory application.UnitOfWorkFactory
	notifier   *recordingNotifier
	opts       application.Options
	admin      *application.AdminService
	wallet     *application.WalletService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	testDB := testutil.SetupTestDatabase(t)

	opts, err := application.OptionsFromConfig(config.Get())
	require.NoError(t, err)

	uowFactory := infrastructure.NewUnitOfWorkFactory(testDB.DB, infrastructure.NewLocalEventPublisher())
	require.NoError(t, application.SeedSettings(context.Background(), uowFactory, opts))

	notifier := newRecordingNotifier()
	return &testEnv{
		db:         testDB,
		uowFactory: uowFactory,
		notifier:   notifier,
		opts:       opts,
		admin:      application.NewAdminService(uowFactory, notifier, opts),
		wallet:     application.NewWalletService(uowFactory, notifier, opts),
	}
}

func (e *testEnv) assertReconciled(t *testing.T) {
	t.Helper()
	discrepancies, err := application.ReconcileLedger(context.Background(), e.uowFactory)
	require.NoError(t, err)
	require.Empty(t, discrepancies)
}
