package mpesa

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/chamahub/treasury/internal/apperrors"
	"github.com/chamahub/treasury/internal/core/domain"
	portsrepo "github.com/chamahub/treasury/internal/core/ports/repositories"
	portssvc "github.com/chamahub/treasury/internal/core/ports/services"
	"github.com/chamahub/treasury/internal/middleware"
	"github.com/shopspring/decimal"
)

// Config holds the Daraja API credentials and endpoints.
type Config struct {
	ConsumerKey        string
	ConsumerSecret     string
	Passkey            string
	InitiatorName      string
	SecurityCredential string
	B2CCommandID       string
	AuthURL            string
	StkPushURL         string
	B2CPaymentURL      string
	CallbackURL        string
	B2CResultURL       string
	Timeout            time.Duration
}

// Client talks to the Daraja STK push and B2C APIs. It satisfies the
// PaymentDispatcher port; all money movement it triggers is asynchronous and
// lands back through the callback endpoints.
type Client struct {
	cfg        Config
	httpClient *http.Client
	groups     portsrepo.GroupRepositoryFacade

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient creates a Daraja client. Group shortcodes are resolved per call
// since each group pays through its own paybill.
func NewClient(cfg Config, groups portsrepo.GroupRepositoryFacade) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		groups:     groups,
	}
}

var _ portssvc.PaymentDispatcher = (*Client)(nil)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

// accessTokenLocked returns a cached OAuth token, refreshing it when less
// than a minute of validity remains.
func (c *Client) accessTokenLocked(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Until(c.tokenExpiry) > time.Minute {
		return c.accessToken, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.AuthURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	req.SetBasicAuth(c.cfg.ConsumerKey, c.cfg.ConsumerSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: token request failed: %v", apperrors.ErrExternalGateway, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: token request returned status %d", apperrors.ErrExternalGateway, resp.StatusCode)
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("%w: failed to decode token response: %v", apperrors.ErrExternalGateway, err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", apperrors.ErrExternalGateway)
	}

	c.accessToken = token.AccessToken
	c.tokenExpiry = time.Now().Add(55 * time.Minute)
	return c.accessToken, nil
}

// stkPassword derives the STK push password for a shortcode at the given
// timestamp, per the Daraja spec.
func (c *Client) stkPassword(shortcode string, ts time.Time) (string, string) {
	timestamp := ts.Format("20060102150405")
	password := base64.StdEncoding.EncodeToString([]byte(shortcode + c.cfg.Passkey + timestamp))
	return password, timestamp
}

func (c *Client) postJSON(ctx context.Context, url string, token string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal gateway payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build gateway request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: gateway request failed: %v", apperrors.ErrExternalGateway, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: gateway returned status %d", apperrors.ErrExternalGateway, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode gateway response: %v", apperrors.ErrExternalGateway, err)
	}
	return nil
}

type b2cResponse struct {
	OriginatorConversationID string `json:"OriginatorConversationID"`
	ConversationID           string `json:"ConversationID"`
	ResponseCode             string `json:"ResponseCode"`
	ResponseDescription      string `json:"ResponseDescription"`
}

// DispatchOutbound sends a B2C payment from the group's shortcode to the
// destination phone. The returned originator conversation id is the reference
// the result callback will carry.
func (c *Client) DispatchOutbound(ctx context.Context, groupID string, destination string, amount decimal.Decimal, reason domain.EntryReason, correlationID string) (string, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	group, err := c.groups.FindGroupByID(ctx, groupID)
	if err != nil {
		return "", err
	}
	if group.MpesaShortcode == "" {
		return "", fmt.Errorf("%w: group has no shortcode configured", apperrors.ErrValidation)
	}

	token, err := c.accessTokenLocked(ctx)
	if err != nil {
		return "", err
	}

	payload := map[string]any{
		"InitiatorName":      c.cfg.InitiatorName,
		"SecurityCredential": c.cfg.SecurityCredential,
		"CommandID":          c.cfg.B2CCommandID,
		"Amount":             amount.InexactFloat64(),
		"PartyA":             group.MpesaShortcode,
		"PartyB":             destination,
		"Remarks":            string(reason),
		"QueueTimeOutURL":    c.cfg.B2CResultURL,
		"ResultURL":          c.cfg.B2CResultURL,
		"Occasion":           correlationID,
	}

	var resp b2cResponse
	if err := c.postJSON(ctx, c.cfg.B2CPaymentURL, token, payload, &resp); err != nil {
		return "", err
	}
	if resp.ResponseCode != "0" {
		return "", fmt.Errorf("%w: B2C rejected: %s", apperrors.ErrExternalGateway, resp.ResponseDescription)
	}
	if resp.OriginatorConversationID == "" {
		return "", fmt.Errorf("%w: B2C response missing originator conversation id", apperrors.ErrExternalGateway)
	}

	logger.Info("B2C payment dispatched",
		slog.String("group_id", groupID),
		slog.String("originator_id", resp.OriginatorConversationID),
	)
	return resp.OriginatorConversationID, nil
}

type stkResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
}

// InitiateCollection triggers an STK push asking the member to pay into the
// group's shortcode. Returns the gateway checkout request id.
func (c *Client) InitiateCollection(ctx context.Context, groupID string, phone string, amount decimal.Decimal, accountReference string) (string, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	group, err := c.groups.FindGroupByID(ctx, groupID)
	if err != nil {
		return "", err
	}
	if group.MpesaShortcode == "" {
		return "", fmt.Errorf("%w: group has no shortcode configured", apperrors.ErrValidation)
	}

	token, err := c.accessTokenLocked(ctx)
	if err != nil {
		return "", err
	}

	password, timestamp := c.stkPassword(group.MpesaShortcode, time.Now())
	payload := map[string]any{
		"BusinessShortCode": group.MpesaShortcode,
		"Password":          password,
		"Timestamp":         timestamp,
		"TransactionType":   "CustomerPayBillOnline",
		"Amount":            amount.InexactFloat64(),
		"PartyA":            phone,
		"PartyB":            group.MpesaShortcode,
		"PhoneNumber":       phone,
		"CallBackURL":       c.cfg.CallbackURL,
		"AccountReference":  accountReference,
		"TransactionDesc":   "Group treasury payment",
	}

	var resp stkResponse
	if err := c.postJSON(ctx, c.cfg.StkPushURL, token, payload, &resp); err != nil {
		return "", err
	}
	if resp.ResponseCode != "0" {
		return "", fmt.Errorf("%w: STK push rejected: %s", apperrors.ErrExternalGateway, resp.ResponseDescription)
	}

	logger.Info("STK push initiated",
		slog.String("group_id", groupID),
		slog.String("checkout_id", resp.CheckoutRequestID),
	)
	return resp.CheckoutRequestID, nil
}
