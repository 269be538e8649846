package observability

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Apurer/go-order-bridge/internal/domains/orders/domain"
	"github.com/Apurer/go-order-bridge/internal/domains/orders/ports"
)

const tracerName = "github.com/Apurer/go-order-bridge/internal/domains/orders/adapters/observability/service"

// Service decorates the orders application port with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTracer injects a tracer implementation.
func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

// WithMeter injects the meter used to create service metrics instruments.
func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wires a decorator around the core service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  defaultLogger(),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if s.logger == nil {
		s.logger = defaultLogger()
	}
	return s
}

// ProcessOrder mirrors a Shopify order onto the marketplace with instrumentation.
func (s *Service) ProcessOrder(ctx context.Context, order domain.ExternalOrder) (*ports.ProcessOrderResult, error) {
	ctx, span := s.startSpan(ctx, "Service.ProcessOrder",
		attribute.Int64("order.id", order.ID),
		attribute.Int("order.line_items", len(order.Items)),
	)
	defer span.End()

	s.logInfo(ctx, "processing order", slog.Int64("order.id", order.ID))
	result, err := s.inner.ProcessOrder(ctx, order)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to process order", slog.Int64("order.id", order.ID))
	}
	if result != nil {
		span.SetAttributes(
			attribute.Bool("order.succeeded", result.Succeeded),
			attribute.Int("order.created_count", len(result.CreatedOrderIDs)),
		)
		s.metrics.recordProcessed(ctx, result.Succeeded, len(result.CreatedOrderIDs))
		s.logInfo(ctx, "order processed",
			slog.Int64("order.id", order.ID),
			slog.Bool("succeeded", result.Succeeded),
			slog.Int("created", len(result.CreatedOrderIDs)),
		)
	}
	return result, nil
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := s.tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type serviceMetrics struct {
	ordersProcessed metric.Int64Counter
	ordersCreated   metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	ordersProcessed, _ := m.Int64Counter("orders.service.processed", metric.WithDescription("Number of external orders processed"))
	ordersCreated, _ := m.Int64Counter("orders.service.marketplace_orders_created", metric.WithDescription("Number of marketplace orders created"))
	return serviceMetrics{
		ordersProcessed: ordersProcessed,
		ordersCreated:   ordersCreated,
	}
}

func (m serviceMetrics) recordProcessed(ctx context.Context, succeeded bool, created int) {
	addCounter(ctx, m.ordersProcessed, 1, attribute.Bool("order.succeeded", succeeded))
	if created > 0 {
		addCounter(ctx, m.ordersCreated, int64(created))
	}
}

func addCounter(ctx context.Context, counter metric.Int64Counter, value int64, attrs ...attribute.KeyValue) {
	if counter == nil {
		return
	}
	counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

var _ ports.Service = (*Service)(nil)
