package observability

// Metric name prefixes
const (
	MetricPrefix = "luckydraw"
)

// Metric names
const (
	// Chat metrics
	ChatUpdatesTotal = MetricPrefix + ".chat.updates_total"

	// Ledger metrics
	LedgerTransactionsTotal = MetricPrefix + ".ledger.transactions_total"

	// Request workflow metrics
	RequestsDecidedTotal = MetricPrefix + ".requests.decided_total"

	// Ticket metrics
	TicketsSoldTotal = MetricPrefix + ".tickets.sold_total"

	// Draw metrics
	DrawsTotal       = MetricPrefix + ".draws.total"
	PrizePaidTotal   = MetricPrefix + ".draws.prize_paid_total"
	DrawDurationHist = MetricPrefix + ".draws.duration"
)

// Label keys
const (
	LabelType   = "type"
	LabelKind   = "kind"
	LabelStatus = "status"
)
