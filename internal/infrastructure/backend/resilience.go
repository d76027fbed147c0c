package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/gkisanet/2026.gemini-file-search/internal/core/domain"
	"github.com/gkisanet/2026.gemini-file-search/internal/infrastructure/resilience"
)

const backendUnavailable = "백엔드 서버에 연결할 수 없습니다"

type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	// Detail is the server's own message: FastAPI "detail" or an "error" field.
	Detail string
	Body   string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "backend status error"
	}
	if e.Detail != "" {
		return fmt.Sprintf("backend %s status: %s: %s", e.Operation, e.Status, e.Detail)
	}
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("backend %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("backend %s status: %s: %s", e.Operation, e.Status, strings.TrimSpace(e.Body))
}

func readHTTPStatusError(operation string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &HTTPStatusError{
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Detail:     extractDetail(body),
		Body:       string(body),
	}
}

func extractDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
		Error  json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, raw := range []json.RawMessage{payload.Detail, payload.Error} {
		if msg := messageFrom(raw); msg != "" {
			return msg
		}
	}
	return ""
}

// messageFrom reads a plain string or FastAPI's validation list
// [{"msg": ...}, ...].
func messageFrom(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return strings.TrimSpace(text)
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, item := range items {
			if m := strings.TrimSpace(item.Msg); m != "" {
				msgs = append(msgs, m)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

func classifyBackendError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{
			Retryable:     false,
			RecordFailure: false,
		}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{
			Retryable:     true,
			RecordFailure: true,
		}
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		if isRetryableHTTPStatus(statusErr.StatusCode) {
			return resilience.ErrorClassification{
				Retryable:     true,
				RecordFailure: true,
			}
		}
		// 4xx answers mean the backend is up.
		return resilience.ErrorClassification{
			Retryable:     false,
			RecordFailure: false,
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{
			Retryable:     true,
			RecordFailure: true,
		}
	}

	return resilience.ErrorClassification{
		Retryable:     false,
		RecordFailure: true,
	}
}

func isRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// toDomainError maps transport failures onto domain error kinds. Server
// answers keep their message in a *domain.RequestError.
func toDomainError(op string, err error) error {
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		reqErr := &domain.RequestError{Status: statusErr.StatusCode, Message: statusErr.Detail}
		return domain.WrapError(kindForStatus(statusErr.StatusCode), op, reqErr)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}

	class := classifyBackendError(err)
	if class.Retryable || resilience.IsCircuitOpen(err) {
		slog.Warn("backend_unavailable", "operation", op, "error", err)
		return domain.WrapError(domain.ErrTemporary, op, &domain.RequestError{Message: backendUnavailable})
	}
	return fmt.Errorf("%s: %w", op, err)
}

func kindForStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized:
		return domain.ErrUnauthorized
	case status == http.StatusForbidden:
		return domain.ErrForbidden
	case status == http.StatusNotFound:
		return domain.ErrNotFound
	case isRetryableHTTPStatus(status):
		return domain.ErrTemporary
	default:
		return domain.ErrInvalidInput
	}
}

func outcomeOf(err error) string {
	if err == nil {
		return "ok"
	}
	var statusErr *HTTPStatusError
	switch {
	case errors.As(err, &statusErr):
		if statusErr.StatusCode == http.StatusUnauthorized {
			return "unauthorized"
		}
		if statusErr.StatusCode >= 500 {
			return "server_error"
		}
		return "client_error"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case resilience.IsCircuitOpen(err):
		return "circuit_open"
	default:
		return "unavailable"
	}
}
