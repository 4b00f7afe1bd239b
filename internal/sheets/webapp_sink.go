package sheets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"jewelcatalog/internal/models"

	jsoniter "github.com/json-iterator/go"
)

// WebAppSink posts new products to a spreadsheet web-app endpoint, which
// appends them as rows.
type WebAppSink struct {
	endpoint string
	client   *http.Client
}

// NewWebAppSink creates a sink for the given endpoint.
func NewWebAppSink(endpoint string, client *http.Client) (*WebAppSink, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errors.New("web app endpoint is empty")
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &WebAppSink{endpoint: endpoint, client: client}, nil
}

// Name identifies the sink in logs and the sync outbox.
func (s *WebAppSink) Name() string {
	return "webapp"
}

type webAppReply struct {
	Result  string `json:"result"`
	Success *bool  `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Forward posts the product as JSON. A non-2xx status or a reply that reports
// an error counts as a failure.
func (s *WebAppSink) Forward(ctx context.Context, product models.Product) error {
	payload, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(product)
	if err != nil {
		return fmt.Errorf("failed to encode product: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach web app: %w", err)
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(res.Body, 64<<10))
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("web app returned %s: %s", res.Status, snippet(body))
	}

	// Plain-text or empty replies are accepted as long as the status is 2xx.
	var reply webAppReply
	if jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(body, &reply) != nil {
		return nil
	}
	if strings.EqualFold(reply.Result, "error") || (reply.Success != nil && !*reply.Success) {
		reason := reply.Error
		if reason == "" {
			reason = reply.Message
		}
		if reason == "" {
			reason = "rejected"
		}
		return fmt.Errorf("web app rejected product: %s", reason)
	}
	return nil
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
