// Package cloudflare implements the provider interface for Cloudflare DNS.
package cloudflare

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"gitlab.bluewillows.net/root/ddnsweaver/pkg/httputil"
	"gitlab.bluewillows.net/root/ddnsweaver/pkg/provider"
)

const (
	// DefaultAPIEndpoint is the base URL for Cloudflare API v4.
	DefaultAPIEndpoint = "https://api.cloudflare.com/client/v4"

	// DefaultTimeout is the HTTP client timeout.
	DefaultTimeout = httputil.DefaultTimeout

	// zonesPerPage is the largest page size the zones endpoint accepts.
	zonesPerPage = 50

	// recordsPerPage is the page size requested from dns_records.
	recordsPerPage = 100

	// maxBodySize bounds how much of a response body is read.
	maxBodySize = 4 << 20

	// maxPages stops a listing whose result_info never converges.
	maxPages = 1000
)

// apiError represents an error from the Cloudflare API.
type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// resultInfo carries pagination details of list responses.
type resultInfo struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalPages int `json:"total_pages"`
	Count      int `json:"count"`
	TotalCount int `json:"total_count"`
}

// apiResponse is the standard Cloudflare API response wrapper.
type apiResponse struct {
	Success    bool            `json:"success"`
	Errors     []apiError      `json:"errors"`
	Result     json.RawMessage `json:"result"`
	ResultInfo *resultInfo     `json:"result_info,omitempty"`
}

// zoneResult represents a zone from the Cloudflare API.
type zoneResult struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// dnsRecord represents a DNS record from the Cloudflare API.
type dnsRecord struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Name     string `json:"name"`
	Content  string `json:"content"`
	TTL      int    `json:"ttl"`
	Proxied  bool   `json:"proxied"`
	ZoneID   string `json:"zone_id"`
	ZoneName string `json:"zone_name"`
}

func (r dnsRecord) toProvider() provider.Record {
	return provider.Record{
		ID:       r.ID,
		Name:     r.Name,
		Type:     provider.ParseRecordType(r.Type),
		Content:  r.Content,
		TTL:      r.TTL,
		Proxied:  r.Proxied,
		ZoneID:   r.ZoneID,
		ZoneName: r.ZoneName,
	}
}

// patchRecordRequest is the request body for a partial record update.
// Nil fields are omitted so Cloudflare leaves them untouched.
type patchRecordRequest struct {
	Content *string `json:"content,omitempty"`
	TTL     *int    `json:"ttl,omitempty"`
	Proxied *bool   `json:"proxied,omitempty"`
	Comment *string `json:"comment,omitempty"`
}

// TokenStatus is the result of a token verification.
type TokenStatus struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	ExpiresOn string `json:"expires_on,omitempty"`
}

// Client is a Cloudflare DNS API client.
type Client struct {
	apiEndpoint string
	token       string
	httpClient  *http.Client
	logger      *slog.Logger
}

// ClientOption is a functional option for configuring the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithAPIEndpoint sets a custom API endpoint (useful for testing).
func WithAPIEndpoint(endpoint string) ClientOption {
	return func(c *Client) {
		if endpoint != "" {
			c.apiEndpoint = strings.TrimRight(endpoint, "/")
		}
	}
}

// NewClient creates a new Cloudflare API client.
func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		apiEndpoint: DefaultAPIEndpoint,
		token:       token,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = httputil.NewClient(&httputil.ClientConfig{
			Timeout: DefaultTimeout,
			Logger:  c.logger,
		})
	}

	return c
}

// doRequest performs an HTTP request to the Cloudflare API and classifies
// the outcome. Failures are returned as *provider.APIError except for
// request construction errors, which indicate a malformed endpoint.
func (c *Client) doRequest(ctx context.Context, op, method, path string, body io.Reader) (*apiResponse, error) {
	reqURL := c.apiEndpoint + path

	c.logger.Debug("making API request",
		slog.String("method", method),
		slog.String("path", path),
	)

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("%s: creating request: %w", op, err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &provider.APIError{Kind: provider.KindTransport, Operation: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, &provider.APIError{Kind: provider.KindTransport, Operation: op, Err: fmt.Errorf("reading response body: %w", err)}
	}
	if len(respBody) > maxBodySize {
		return nil, &provider.APIError{Kind: provider.KindBodyInvalid, Operation: op, Err: fmt.Errorf("response body exceeds %d bytes", maxBodySize)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &provider.APIError{Kind: provider.KindHTTPStatus, Operation: op, StatusCode: resp.StatusCode}
		// Cloudflare usually explains a failed status in the envelope.
		var apiResp apiResponse
		if err := json.Unmarshal(respBody, &apiResp); err == nil {
			apiErr.Messages = errorMessages(apiResp.Errors)
		}
		return nil, apiErr
	}

	var apiResp apiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, &provider.APIError{Kind: provider.KindBodyInvalid, Operation: op, Err: err}
	}

	if !apiResp.Success {
		return nil, &provider.APIError{
			Kind:      provider.KindNoSuccess,
			Operation: op,
			Messages:  errorMessages(apiResp.Errors),
		}
	}

	return &apiResp, nil
}

// decodeResult unmarshals the envelope's result into v.
func decodeResult(op string, resp *apiResponse, v any) error {
	if err := json.Unmarshal(resp.Result, v); err != nil {
		return &provider.APIError{Kind: provider.KindBodyInvalid, Operation: op, Err: fmt.Errorf("decoding result: %w", err)}
	}
	return nil
}

func errorMessages(errs []apiError) []string {
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, fmt.Sprintf("%s (code: %d)", e.Message, e.Code))
	}
	return msgs
}

// listAll walks every page of a list endpoint, handing each page's result to decode.
func (c *Client) listAll(ctx context.Context, op, path string, pageSize int, decode func(*apiResponse) error) error {
	params := url.Values{}
	params.Set("per_page", strconv.Itoa(pageSize))

	for page := 1; page <= maxPages; page++ {
		params.Set("page", strconv.Itoa(page))

		resp, err := c.doRequest(ctx, op, http.MethodGet, path+"?"+params.Encode(), nil)
		if err != nil {
			return err
		}
		if err := decode(resp); err != nil {
			return err
		}

		if resp.ResultInfo == nil || page >= resp.ResultInfo.TotalPages {
			return nil
		}
	}
	return &provider.APIError{
		Kind:      provider.KindBodyInvalid,
		Operation: op,
		Err:       fmt.Errorf("listing did not end after %d pages", maxPages),
	}
}

// VerifyToken checks the API token and reports its status.
func (c *Client) VerifyToken(ctx context.Context) (*TokenStatus, error) {
	const op = "verify token"

	resp, err := c.doRequest(ctx, op, http.MethodGet, "/user/tokens/verify", nil)
	if err != nil {
		return nil, err
	}

	var status TokenStatus
	if err := decodeResult(op, resp, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Ping checks connectivity to the Cloudflare API.
// Uses the /user/tokens/verify endpoint which is lightweight.
func (c *Client) Ping(ctx context.Context) error {
	status, err := c.VerifyToken(ctx)
	if err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	if status.Status != "" && status.Status != "active" {
		return fmt.Errorf("ping failed: token status is %q", status.Status)
	}
	return nil
}

// ListZones returns every zone visible to the token.
func (c *Client) ListZones(ctx context.Context) ([]zoneResult, error) {
	const op = "list zones"

	var zones []zoneResult
	err := c.listAll(ctx, op, "/zones", zonesPerPage, func(resp *apiResponse) error {
		var page []zoneResult
		if err := decodeResult(op, resp, &page); err != nil {
			return err
		}
		zones = append(zones, page...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Debug("listed zones", slog.Int("count", len(zones)))

	return zones, nil
}

// ListRecords returns every DNS record in the given zone.
func (c *Client) ListRecords(ctx context.Context, zoneID string) ([]dnsRecord, error) {
	const op = "list records"

	path := fmt.Sprintf("/zones/%s/dns_records", url.PathEscape(zoneID))

	var records []dnsRecord
	err := c.listAll(ctx, op, path, recordsPerPage, func(resp *apiResponse) error {
		var page []dnsRecord
		if err := decodeResult(op, resp, &page); err != nil {
			return err
		}
		records = append(records, page...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Debug("listed records",
		slog.String("zone_id", zoneID),
		slog.Int("count", len(records)),
	)

	return records, nil
}

// PatchRecord applies a partial update to a DNS record and returns the updated record.
func (c *Client) PatchRecord(ctx context.Context, zoneID, recordID string, patch provider.RecordPatch) (*dnsRecord, error) {
	const op = "patch record"

	bodyBytes, err := json.Marshal(patchRecordRequest{
		Content: patch.Content,
		TTL:     patch.TTL,
		Proxied: patch.Proxied,
		Comment: patch.Comment,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	path := fmt.Sprintf("/zones/%s/dns_records/%s", url.PathEscape(zoneID), url.PathEscape(recordID))
	resp, err := c.doRequest(ctx, op, http.MethodPatch, path, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, err
	}

	var record dnsRecord
	if err := decodeResult(op, resp, &record); err != nil {
		return nil, err
	}

	c.logger.Debug("patched DNS record",
		slog.String("zone_id", zoneID),
		slog.String("record_id", recordID),
		slog.String("name", record.Name),
		slog.String("content", record.Content),
	)

	return &record, nil
}
