package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/gkisanet/2026.gemini-file-search/internal/core/domain"
	"github.com/gkisanet/2026.gemini-file-search/internal/infrastructure/resilience"
)

// ActivityStream publishes and tails console admin activity on one subject.
type ActivityStream struct {
	conn     *nats.Conn
	subject  string
	executor *resilience.Executor
}

func New(url, subject string) (*ActivityStream, error) {
	return NewWithOptions(url, subject, Options{})
}

type Options struct {
	Name                 string
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
}

func NewWithOptions(url, subject string, options Options) (*ActivityStream, error) {
	name := options.Name
	if name == "" {
		name = "document-chat-console"
	}
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}

	conn, err := nats.Connect(
		url,
		nats.Name(name),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &ActivityStream{
		conn:     conn,
		subject:  subject,
		executor: options.ResilienceExecutor,
	}, nil
}

func (s *ActivityStream) Close() {
	if s.conn != nil {
		s.conn.Close()
	}
}

func (s *ActivityStream) PublishActivity(ctx context.Context, event domain.ActivityEvent) error {
	payload, err := encodeEvent(event)
	if err != nil {
		return err
	}
	call := func(_ context.Context) error {
		if err := s.conn.Publish(s.subject, payload); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}

	if s.executor != nil {
		err = s.executor.Execute(ctx, publishOperation, call, classifyPublishError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return publishError(err)
	}
	return nil
}

// Subscribe delivers events to handler until ctx is done, then drains.
// Malformed messages are logged and skipped.
func (s *ActivityStream) Subscribe(ctx context.Context, handler func(context.Context, domain.ActivityEvent) error) error {
	sub, err := s.conn.Subscribe(s.subject, func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}
		event, err := decodeEvent(msg.Data)
		if err != nil {
			slog.Warn("activity_decode_failed", "subject", msg.Subject, "error", err)
			return
		}

		handlerCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if err := handler(handlerCtx, event); err != nil {
			slog.Error("activity_handler_failed", "kind", event.Kind, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := s.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := s.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

func encodeEvent(event domain.ActivityEvent) ([]byte, error) {
	if event.Kind == "" {
		return nil, domain.NewInputError("kind", "activity kind is required")
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode activity: %w", err)
	}
	return payload, nil
}

func decodeEvent(data []byte) (domain.ActivityEvent, error) {
	var event domain.ActivityEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return domain.ActivityEvent{}, fmt.Errorf("decode activity: %w", err)
	}
	if event.Kind == "" {
		return domain.ActivityEvent{}, fmt.Errorf("decode activity: missing kind")
	}
	return event, nil
}
