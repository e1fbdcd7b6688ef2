package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophstore/internal/common"
)

// HTTPGateway speaks the form-encoded payment_intents REST dialect used by
// Stripe-compatible processors.
type HTTPGateway struct {
	baseURL   string
	secretKey string
	client    *http.Client
}

// NewHTTPGateway builds a gateway client. timeout bounds every request.
func NewHTTPGateway(baseURL, secretKey string, timeout time.Duration) *HTTPGateway {
	return &HTTPGateway{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		client:    &http.Client{Timeout: timeout},
	}
}

type intentResponse struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (g *HTTPGateway) Create(ctx context.Context, amount int64, currency string, metadata map[string]string) (*Intent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amount, 10))
	form.Set("currency", strings.ToLower(currency))

	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		form.Set("metadata["+k+"]", metadata[k])
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var resp intentResponse
	if err := g.do(req, &resp); err != nil {
		return nil, err
	}
	if resp.ID == "" {
		return nil, fmt.Errorf("gateway returned an intent without id")
	}
	return &Intent{ID: resp.ID, ClientHandle: resp.ClientSecret}, nil
}

func (g *HTTPGateway) Retrieve(ctx context.Context, id string) (Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/v1/payment_intents/"+url.PathEscape(id), nil)
	if err != nil {
		return "", err
	}

	var resp intentResponse
	if err := g.do(req, &resp); err != nil {
		return "", err
	}
	return Status(resp.Status), nil
}

// do sends req and decodes a 2xx body into out. Transport failures and 5xx
// answers wrap common.ErrGatewayUnavailable.
func (g *HTTPGateway) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+g.secretKey)
	req.Header.Set("Accept", "application/json")

	res, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrGatewayUnavailable, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", common.ErrGatewayUnavailable, err)
	}

	switch {
	case res.StatusCode >= 500 || res.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d", common.ErrGatewayUnavailable, res.StatusCode)
	case res.StatusCode >= 400:
		var e errorResponse
		_ = json.Unmarshal(body, &e)
		return &RejectedError{StatusCode: res.StatusCode, Type: e.Error.Type, Message: e.Error.Message}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode gateway response: %w", err)
	}
	return nil
}

// RejectedError is a 4xx answer from the processor.
type RejectedError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gateway rejected request: status %d", e.StatusCode)
	}
	return fmt.Sprintf("gateway rejected request: status %d: %s", e.StatusCode, e.Message)
}
