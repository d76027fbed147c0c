package nats

import (
	"context"
	"errors"

	"github.com/nats-io/nats.go"

	"github.com/gkisanet/2026.gemini-file-search/internal/core/domain"
	"github.com/gkisanet/2026.gemini-file-search/internal/infrastructure/resilience"
)

const publishOperation = "nats.publish_activity"

// connectionErrors mean the server is unreachable for now.
var connectionErrors = []error{
	nats.ErrNoServers,
	nats.ErrTimeout,
	nats.ErrConnectionClosed,
	nats.ErrConnectionReconnecting,
	nats.ErrDisconnected,
}

// classifyPublishError counts only connection trouble against the breaker.
// Activity is best-effort, so nothing is retried.
func classifyPublishError(err error) resilience.ErrorClassification {
	switch {
	case err == nil, errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return resilience.ErrorClassification{}
	case isConnectionError(err), resilience.IsCircuitOpen(err):
		return resilience.ErrorClassification{RecordFailure: true}
	default:
		// Oversized payloads and bad subjects are ours to fix.
		return resilience.ErrorClassification{}
	}
}

func isConnectionError(err error) bool {
	for _, target := range connectionErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// publishError marks unreachable-server failures as temporary.
func publishError(err error) error {
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if isConnectionError(err) || resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, publishOperation, err)
	}
	return err
}
