package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gkisanet/2026.gemini-file-search/internal/core/domain"
	"github.com/gkisanet/2026.gemini-file-search/internal/infrastructure/resilience"
)

const maxErrorBody = 8 << 10

func (c *Client) doJSON(ctx context.Context, operation, method, path, token string, payload, out any) error {
	var body []byte
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", operation, err)
		}
		body = encoded
	}

	return c.execute(ctx, operation, classifyBackendError, func(ctx context.Context) error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return fmt.Errorf("create %s request: %w", operation, err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		return c.send(req, operation, token, out)
	})
}

// doMultipart streams files as repeated "files" parts. The body can only be
// read once, so the call is never retried.
func (c *Client) doMultipart(ctx context.Context, operation, path, token string, files []domain.UploadFile, fields map[string]string, out any) error {
	classifier := func(err error) resilience.ErrorClassification {
		class := classifyBackendError(err)
		class.Retryable = false
		return class
	}

	return c.execute(ctx, operation, classifier, func(ctx context.Context) error {
		pr, pw := io.Pipe()
		mw := multipart.NewWriter(pw)
		go func() {
			pw.CloseWithError(writeMultipart(mw, files, fields))
		}()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, pr)
		if err != nil {
			pr.CloseWithError(err)
			return fmt.Errorf("create %s request: %w", operation, err)
		}
		req.Header.Set("Content-Type", mw.FormDataContentType())

		err = c.send(req, operation, token, out)
		// unblocks the writer when the server answered before reading everything
		_ = pr.Close()
		return err
	})
}

func writeMultipart(mw *multipart.Writer, files []domain.UploadFile, fields map[string]string) error {
	for _, file := range files {
		part, err := mw.CreateFormFile("files", file.Name)
		if err != nil {
			return fmt.Errorf("create form file %s: %w", file.Name, err)
		}
		if _, err := io.Copy(part, file.Content); err != nil {
			return fmt.Errorf("write form file %s: %w", file.Name, err)
		}
	}
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return fmt.Errorf("write form field %s: %w", name, err)
		}
	}
	return mw.Close()
}

func (c *Client) send(req *http.Request, operation, token string, out any) error {
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return readHTTPStatusError(operation, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

func (c *Client) execute(ctx context.Context, operation string, classifier resilience.ErrorClassifier, call func(context.Context) error) error {
	op := "backend." + operation
	started := time.Now()

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, op, call, classifier)
	} else {
		err = call(ctx)
	}

	if c.observer != nil {
		c.observer.ObserveBackendCall(operation, outcomeOf(err), time.Since(started))
	}
	if err != nil {
		return toDomainError(op, err)
	}
	return nil
}
