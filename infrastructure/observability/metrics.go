package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"luckydraw/config"
	"luckydraw/domain/events"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// MetricsProvider manages OpenTelemetry metrics for the service
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	mu            sync.RWMutex

	chatUpdatesCounter        metric.Int64Counter
	ledgerTransactionsCounter metric.Int64Counter
	requestsDecidedCounter    metric.Int64Counter
	ticketsSoldCounter        metric.Int64Counter
	drawsCounter              metric.Int64Counter
	prizePaidCounter          metric.Int64Counter
	drawDurationHist          metric.Float64Histogram
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
	}
}

// Initialize sets up the OpenTelemetry metrics provider
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		return nil
	}

	if !mp.config.OTelEnabled {
		log.Info("OpenTelemetry metrics disabled")
		mp.initialized = true
		return nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(mp.config.OTelServiceName),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	var exporter sdkmetric.Exporter
	switch mp.config.OTelExporterType {
	case "console":
		exporter, err = stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console exporter: %w", err)
		}
		log.Info("Using console metric exporter")

	case "otlp":
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exporter, err = otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTelOTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		log.WithField("endpoint", mp.config.OTelOTLPEndpoint).Info("Using OTLP metric exporter")

	case "none":
		log.Info("Metrics export disabled (exporter_type='none')")
		mp.initialized = true
		return nil

	default:
		return fmt.Errorf("unknown exporter type: %s", mp.config.OTelExporterType)
	}

	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(
				exporter,
				sdkmetric.WithInterval(time.Duration(mp.config.OTelExportIntervalMillis)*time.Millisecond),
			),
		),
	)
	otel.SetMeterProvider(mp.meterProvider)
	mp.meter = mp.meterProvider.Meter("luckydraw")

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.initialized = true
	log.Info("Metrics provider initialized successfully")
	return nil
}

func (mp *MetricsProvider) createInstruments() error {
	var err error

	counters := []struct {
		target      *metric.Int64Counter
		name        string
		description string
	}{
		{&mp.chatUpdatesCounter, ChatUpdatesTotal, "Total number of inbound chat updates"},
		{&mp.ledgerTransactionsCounter, LedgerTransactionsTotal, "Total number of ledger rows written"},
		{&mp.requestsDecidedCounter, RequestsDecidedTotal, "Total number of deposit and withdrawal decisions"},
		{&mp.ticketsSoldCounter, TicketsSoldTotal, "Total number of tickets sold"},
		{&mp.drawsCounter, DrawsTotal, "Total number of daily draws run"},
		{&mp.prizePaidCounter, PrizePaidTotal, "Total prize money paid out in kyats"},
	}
	for _, c := range counters {
		*c.target, err = mp.meter.Int64Counter(c.name,
			metric.WithDescription(c.description),
			metric.WithUnit("1"),
		)
		if err != nil {
			return fmt.Errorf("failed to create %s counter: %w", c.name, err)
		}
	}

	mp.drawDurationHist, err = mp.meter.Float64Histogram(
		DrawDurationHist,
		metric.WithDescription("Duration of draw settlement in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return fmt.Errorf("failed to create draw duration histogram: %w", err)
	}
	return nil
}

// Shutdown flushes and stops the exporter
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

// RecordChatUpdate records an inbound chat update
func (mp *MetricsProvider) RecordChatUpdate(kind string) {
	if !mp.isEnabled() {
		return
	}
	mp.chatUpdatesCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelKind, kind)),
	)
}

// RecordDrawDuration records how long a draw settlement took
func (mp *MetricsProvider) RecordDrawDuration(duration time.Duration) {
	if !mp.isEnabled() {
		return
	}
	mp.drawDurationHist.Record(context.Background(), duration.Seconds())
}

// HandleEvent updates counters from a committed domain event.
// It is registered as a local handler on the event publisher.
func (mp *MetricsProvider) HandleEvent(ctx context.Context, event events.Event) error {
	if !mp.isEnabled() {
		return nil
	}

	switch e := event.(type) {
	case events.BalanceChangeEvent:
		mp.ledgerTransactionsCounter.Add(ctx, 1,
			metric.WithAttributes(attribute.String(LabelType, string(e.TransactionType))),
		)
	case events.RequestDecidedEvent:
		mp.requestsDecidedCounter.Add(ctx, 1,
			metric.WithAttributes(
				attribute.String(LabelKind, string(e.Kind)),
				attribute.String(LabelStatus, string(e.Status)),
			),
		)
	case events.TicketsPurchasedEvent:
		mp.ticketsSoldCounter.Add(ctx, int64(e.Count))
	case events.DrawCompletedEvent:
		mp.drawsCounter.Add(ctx, 1,
			metric.WithAttributes(attribute.String(LabelStatus, string(e.Status))),
		)
		mp.prizePaidCounter.Add(ctx, e.PrizeAmount*int64(len(e.WinnerIDs)))
	}
	return nil
}

func (mp *MetricsProvider) isEnabled() bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.initialized && mp.config.OTelEnabled && mp.meter != nil
}
