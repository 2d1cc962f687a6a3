// Package zoho implements a minimal Zoho Books API client covering the
// surface the automation suite consumes: organization settings, chart of
// accounts, taxes, vendors, bills, attachments and currency settings.
//
// All calls authenticate with a bearer token obtained from a refresh-token
// exchange. The token is cached process-wide and artificially expired after
// 55 minutes, comfortably inside the real one-hour lifetime, so a token is
// never served past its actual expiry and the refresh happens eagerly on the
// next call rather than mid-request.
//
// There are no automatic retries: every remote failure is surfaced once,
// with the remote error body attached when the API returned one.
package zoho

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Bitkraft-Technologies-LLP/bitkraft-zoho-automation-suite/internal/logger"
)

// tokenTTL is the artificial cache lifetime for access tokens. Zoho tokens
// live for one hour; expiring the cache at 55 minutes guarantees a refresh
// happens before the real expiry.
const tokenTTL = 55 * time.Minute

// Config holds credentials and endpoints for the Books API.
type Config struct {
	// ClientID, ClientSecret and RefreshToken are the OAuth credentials
	// used for the refresh-token exchange.
	ClientID     string
	ClientSecret string
	RefreshToken string

	// OrganizationID selects the Books organization.
	OrganizationID string

	// Region is the Zoho top-level domain ("com", "in", "eu"). Default "com".
	Region string

	// AccountsBaseURL and APIBaseURL override the derived endpoints.
	// Intended for tests.
	AccountsBaseURL string
	APIBaseURL      string
}

// Client is a Zoho Books API client. Safe for concurrent use.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        zerolog.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient creates a Books client. Returns ErrMissingCredentials when any of
// the four required credential fields is empty.
func NewClient(cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" || cfg.OrganizationID == "" {
		return nil, ErrMissingCredentials
	}
	if cfg.Region == "" {
		cfg.Region = "com"
	}
	if cfg.AccountsBaseURL == "" {
		cfg.AccountsBaseURL = fmt.Sprintf("https://accounts.zoho.%s", cfg.Region)
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = fmt.Sprintf("https://www.zohoapis.%s/books/v3", cfg.Region)
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{},
		log:        logger.WithComponent("zoho"),
	}, nil
}

// token returns a valid access token, refreshing it when the cached one has
// passed its artificial expiry.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	form := url.Values{
		"refresh_token": {c.cfg.RefreshToken},
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
		"grant_type":    {"refresh_token"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.AccountsBaseURL+"/oauth/v2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("token: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		c.log.Error().
			Int("status", resp.StatusCode).
			Str("body", string(body)).
			Msg("Token refresh rejected")
		return "", fmt.Errorf("%w: HTTP %d: %s", ErrAuthFailed, resp.StatusCode, string(body))
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		Error       string `json:"error"`
	}
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", fmt.Errorf("%w: invalid token response: %v", ErrAuthFailed, err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("%w: %s", ErrAuthFailed, tok.Error)
	}

	c.accessToken = tok.AccessToken
	c.tokenExpiry = time.Now().Add(tokenTTL)
	c.log.Debug().Time("expiry", c.tokenExpiry).Msg("Access token refreshed")

	return c.accessToken, nil
}

// call performs an authenticated JSON request against the Books API and
// decodes the response into out (when non-nil). Non-2xx responses become an
// *APIError carrying the remote error body.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, body, out any) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	if query == nil {
		query = url.Values{}
	}
	query.Set("organization_id", c.cfg.OrganizationID)

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("zoho: %s: encode body: %w", path, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.APIBaseURL+path+"?"+query.Encode(), reqBody)
	if err != nil {
		return fmt.Errorf("zoho: %s: %w", path, err)
	}
	req.Header.Set("Authorization", "Zoho-oauthtoken "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("zoho: %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("zoho: %s: read response: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(path, resp.StatusCode, respBody)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("zoho: %s: decode response: %w", path, err)
		}
	}
	return nil
}

func newAPIError(path string, status int, body []byte) *APIError {
	apiErr := &APIError{Endpoint: path, StatusCode: status, Message: string(body)}
	var remote struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &remote); err == nil && remote.Message != "" {
		apiErr.Code = remote.Code
		apiErr.Message = remote.Message
	}
	return apiErr
}

// GetOrganization fetches the organization record.
func (c *Client) GetOrganization(ctx context.Context) (*Organization, error) {
	var out struct {
		Organization Organization `json:"organization"`
	}
	err := c.call(ctx, http.MethodGet, "/organizations/"+c.cfg.OrganizationID, nil, nil, &out)
	if err != nil {
		return nil, err
	}
	return &out.Organization, nil
}

// GetAccounts enumerates the chart of accounts.
func (c *Client) GetAccounts(ctx context.Context) ([]Account, error) {
	var out struct {
		ChartOfAccounts []Account `json:"chartofaccounts"`
	}
	if err := c.call(ctx, http.MethodGet, "/chartofaccounts", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.ChartOfAccounts, nil
}

// GetTaxes enumerates the configured taxes.
func (c *Client) GetTaxes(ctx context.Context) ([]Tax, error) {
	var out struct {
		Taxes []Tax `json:"taxes"`
	}
	if err := c.call(ctx, http.MethodGet, "/settings/taxes", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Taxes, nil
}

// GetVendors lists vendor contacts (summary view, no bank or TDS fields).
func (c *Client) GetVendors(ctx context.Context) ([]Vendor, error) {
	var out struct {
		Contacts []Vendor `json:"contacts"`
	}
	if err := c.call(ctx, http.MethodGet, "/vendors", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Contacts, nil
}

// GetVendor fetches the full contact profile, including bank accounts and
// withholding configuration.
func (c *Client) GetVendor(ctx context.Context, vendorID string) (*VendorDetail, error) {
	var out struct {
		Contact VendorDetail `json:"contact"`
	}
	if err := c.call(ctx, http.MethodGet, "/contacts/"+vendorID, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.Contact, nil
}

// CreateVendor creates a vendor contact. ContactType is forced to "vendor".
func (c *Client) CreateVendor(ctx context.Context, payload CreateVendorPayload) (*VendorDetail, error) {
	payload.ContactType = "vendor"
	var out struct {
		Contact VendorDetail `json:"contact"`
	}
	if err := c.call(ctx, http.MethodPost, "/contacts", nil, payload, &out); err != nil {
		return nil, err
	}
	return &out.Contact, nil
}

// CreateBill creates a draft bill and returns the created record.
func (c *Client) CreateBill(ctx context.Context, payload BillPayload) (*Bill, error) {
	var out struct {
		Bill Bill `json:"bill"`
	}
	if err := c.call(ctx, http.MethodPost, "/bills", nil, payload, &out); err != nil {
		return nil, err
	}
	return &out.Bill, nil
}

// GetBills lists bills filtered by status ("unpaid", "partially_paid", ...).
// An empty status lists everything.
func (c *Client) GetBills(ctx context.Context, status string) ([]BillSummary, error) {
	query := url.Values{}
	if status != "" {
		query.Set("status", status)
	}
	var out struct {
		Bills []BillSummary `json:"bills"`
	}
	if err := c.call(ctx, http.MethodGet, "/bills", query, nil, &out); err != nil {
		return nil, err
	}
	return out.Bills, nil
}

// GetBill fetches the full bill record. The list view lacks the
// authoritative balance and tds_summary, so exporters must use this.
func (c *Client) GetBill(ctx context.Context, billID string) (*Bill, error) {
	var out struct {
		Bill Bill `json:"bill"`
	}
	if err := c.call(ctx, http.MethodGet, "/bills/"+billID, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.Bill, nil
}

// UploadAttachment attaches the original document file to a bill.
func (c *Client) UploadAttachment(ctx context.Context, billID, filePath string) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("zoho: attachment: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("attachment", filepath.Base(filePath))
	if err != nil {
		return fmt.Errorf("zoho: attachment: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("zoho: attachment: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("zoho: attachment: %w", err)
	}

	path := "/bills/" + billID + "/attachment"
	query := url.Values{"organization_id": {c.cfg.OrganizationID}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.APIBaseURL+path+"?"+query.Encode(), &buf)
	if err != nil {
		return fmt.Errorf("zoho: %s: %w", path, err)
	}
	req.Header.Set("Authorization", "Zoho-oauthtoken "+token)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("zoho: %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(path, resp.StatusCode, respBody)
	}
	return nil
}

// GetCurrencies enumerates the organization's configured currencies.
func (c *Client) GetCurrencies(ctx context.Context) ([]Currency, error) {
	var out struct {
		Currencies []Currency `json:"currencies"`
	}
	if err := c.call(ctx, http.MethodGet, "/settings/currencies", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Currencies, nil
}

// DisableRateFeed turns off the automatic exchange-rate feed for a currency
// so that manually pushed rates stick. The update endpoint requires the
// existing display settings to be echoed back, so the currency record is
// fetched first.
func (c *Client) DisableRateFeed(ctx context.Context, currencyID string) error {
	var current struct {
		Currency Currency `json:"currency"`
	}
	path := "/settings/currencies/" + currencyID
	if err := c.call(ctx, http.MethodGet, path, nil, nil, &current); err != nil {
		return err
	}

	cur := current.Currency
	payload := map[string]any{
		"currency_name":      cur.CurrencyName,
		"currency_code":      cur.CurrencyCode,
		"currency_symbol":    cur.CurrencySymbol,
		"price_precision":    cur.PricePrecision,
		"currency_format":    cur.CurrencyFormat,
		"decimal_separator":  defaultString(cur.DecimalSeparator, "."),
		"thousand_separator": defaultString(cur.ThousandSeparator, ","),
		"is_active":          true,

		"exchange_rate_feed_enabled": false,
		"auto_exchange_rate_enabled": false,
	}
	return c.call(ctx, http.MethodPut, path, nil, payload, nil)
}

// errCodeRateExists is the Books application code for "exchange rate already
// exists for this date".
const errCodeRateExists = 36005

// SetExchangeRate records a manual exchange rate effective on the given date
// (YYYY-MM-DD). An already-existing rate for that date is not an error.
func (c *Client) SetExchangeRate(ctx context.Context, currencyID string, rate decimal.Decimal, effectiveDate string) error {
	payload := map[string]any{
		"rate":           rate,
		"effective_date": effectiveDate,
	}
	err := c.call(ctx, http.MethodPost, "/settings/currencies/"+currencyID+"/exchangerates", nil, payload, nil)
	var apiErr *APIError
	if err != nil && errors.As(err, &apiErr) && apiErr.Code == errCodeRateExists {
		c.log.Info().
			Str("currency_id", currencyID).
			Str("date", effectiveDate).
			Msg("Exchange rate already exists, skipping")
		return nil
	}
	return err
}

func defaultString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
