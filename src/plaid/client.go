package plaid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	clientName     = "Payment Service Demo"
	requestTimeout = 30 * time.Second

	// Error bodies are small JSON documents; anything bigger is garbage.
	maxErrorBody = 64 << 10
)

// Client talks to the Plaid REST API with the service's own credentials. An
// upstream that never responds is cut off by the request timeout.
type Client struct {
	httpClient *http.Client
	baseURL    string
	clientID   string
	secret     string
}

func NewClient(baseURL, clientID, secret string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		clientID:   clientID,
		secret:     secret,
	}
}

func (c *Client) CreateLinkToken(ctx context.Context) (*LinkTokenCreateResponse, error) {
	req := linkTokenCreateRequest{
		ClientID:     c.clientID,
		Secret:       c.secret,
		ClientName:   clientName,
		Products:     []string{"transactions", "auth"},
		CountryCodes: []string{"US"},
		Language:     "en",
		User:         linkTokenUser{ClientUserID: uuid.NewString()},
	}
	var resp LinkTokenCreateResponse
	if err := c.post(ctx, "/link/token/create", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ExchangePublicToken(ctx context.Context, publicToken string) (*ExchangeTokenResponse, error) {
	req := exchangeTokenRequest{
		ClientID:    c.clientID,
		Secret:      c.secret,
		PublicToken: publicToken,
	}
	var resp ExchangeTokenResponse
	if err := c.post(ctx, "/item/public_token/exchange", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetAccounts(ctx context.Context, accessToken string) (*AccountsGetResponse, error) {
	req := accountsGetRequest{
		ClientID:    c.clientID,
		Secret:      c.secret,
		AccessToken: accessToken,
	}
	var resp AccountsGetResponse
	if err := c.post(ctx, "/accounts/get", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetTransactions(ctx context.Context, accessToken string, startDate, endDate time.Time) (*TransactionsGetResponse, error) {
	req := transactionsGetRequest{
		ClientID:    c.clientID,
		Secret:      c.secret,
		AccessToken: accessToken,
		StartDate:   startDate.Format("2006-01-02"),
		EndDate:     endDate.Format("2006-01-02"),
	}
	var resp TransactionsGetResponse
	if err := c.post(ctx, "/transactions/get", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) FireWebhook(ctx context.Context, accessToken, webhookCode string) (*WebhookFireResponse, error) {
	req := webhookFireRequest{
		ClientID:    c.clientID,
		Secret:      c.secret,
		AccessToken: accessToken,
		WebhookCode: webhookCode,
	}
	var resp WebhookFireResponse
	if err := c.post(ctx, "/sandbox/item/fire_webhook", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// post sends one JSON request and decodes the response into out. Non-2xx
// statuses become an *APIError carrying Plaid's structured error body when it
// parses, or the raw message with status 500 when it does not. Transport
// failures become *UnavailableError.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request for %s: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &UnavailableError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.translateError(path, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response from %s: %w", path, err)
	}
	return nil
}

func (c *Client) translateError(path string, resp *http.Response) error {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		raw = nil
	}

	var plaidErr PlaidError
	if json.Unmarshal(raw, &plaidErr) == nil && plaidErr.ErrorType != "" {
		log.Printf("ERROR: Plaid API error on %s - status: %d, type: %s, code: %s",
			path, resp.StatusCode, plaidErr.ErrorType, plaidErr.ErrorCode)
		return &APIError{
			Message:    "Plaid API Error: " + plaidErr.ErrorMessage,
			Status:     resp.StatusCode,
			PlaidError: &plaidErr,
		}
	}

	log.Printf("ERROR: Plaid API error on %s - status: %d, unparseable body", path, resp.StatusCode)
	return &APIError{
		Message: "Plaid API Error: " + strings.TrimSpace(string(raw)),
		Status:  http.StatusInternalServerError,
	}
}
