package paystack

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"shop-backend/internal/config"
	"shop-backend/internal/domain"
)

// Client talks to the Paystack REST API. All calls carry a bounded timeout;
// a timed-out call surfaces as a GatewayError with Timeout set, which the
// reconciliation layer treats as an unknown outcome.
type Client struct {
	baseURL       string
	secretKey     string
	webhookSecret string
	httpClient    *http.Client
}

func NewClient(cfg *config.PaystackConfig) *Client {
	return &Client{
		baseURL:       cfg.BaseURL,
		secretKey:     cfg.SecretKey,
		webhookSecret: cfg.WebhookSecret,
		httpClient:    &http.Client{Timeout: cfg.Timeout},
	}
}

type InitializeRequest struct {
	Email       string                 `json:"email"`
	Amount      int64                  `json:"amount"` // kobo
	Reference   string                 `json:"reference,omitempty"`
	Currency    string                 `json:"currency,omitempty"`
	CallbackURL string                 `json:"callback_url,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

type InitializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`

	Raw json.RawMessage `json:"-"`
}

type VerifyData struct {
	Status          string `json:"status"` // success, failed, abandoned
	Reference       string `json:"reference"`
	Amount          int64  `json:"amount"` // kobo
	Fees            int64  `json:"fees"`   // kobo
	Currency        string `json:"currency"`
	GatewayResponse string `json:"gateway_response"`
	PaidAt          string `json:"paid_at"`

	Raw json.RawMessage `json:"-"`
}

func (d *VerifyData) Succeeded() bool { return d.Status == "success" }

type apiEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) Initialize(ctx context.Context, req *InitializeRequest) (*InitializeData, error) {
	env, raw, err := c.do(ctx, http.MethodPost, "/transaction/initialize", req)
	if err != nil {
		return nil, err
	}
	if !env.Status {
		return nil, &domain.GatewayError{Op: "initialize", Message: env.Message}
	}
	var data InitializeData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, &domain.GatewayError{Op: "initialize", Message: "malformed response", Err: err}
	}
	data.Raw = raw
	return &data, nil
}

func (c *Client) Verify(ctx context.Context, reference string) (*VerifyData, error) {
	path := "/transaction/verify/" + url.PathEscape(reference)
	env, raw, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if !env.Status {
		return nil, &domain.GatewayError{Op: "verify", Message: env.Message}
	}
	var data VerifyData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, &domain.GatewayError{Op: "verify", Message: "malformed response", Err: err}
	}
	data.Raw = raw
	return &data, nil
}

// VerifySignature checks the HMAC-SHA512 hex signature Paystack sends in the
// x-paystack-signature header against the raw request body.
func (c *Client) VerifySignature(payload []byte, signature string) bool {
	mac := hmac.New(sha512.New, []byte(c.webhookSecret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}) (*apiEnvelope, []byte, error) {
	op := method + " " + path

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, nil, err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, classifyTransportError(op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, &domain.GatewayError{Op: op, Message: "reading response", Err: err}
	}

	var env apiEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, nil, &domain.GatewayError{
			Op:      op,
			Message: fmt.Sprintf("malformed response (status %d)", resp.StatusCode),
			Err:     err,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := env.Message
		if msg == "" {
			msg = fmt.Sprintf("paystack returned status %d", resp.StatusCode)
		}
		return nil, nil, &domain.GatewayError{Op: op, Message: msg}
	}

	return &env, raw, nil
}

// classifyTransportError separates "unknown outcome" network failures from
// everything else. Timeouts and cancellations must not mark a payment
// failed.
func classifyTransportError(op string, err error) error {
	gw := &domain.GatewayError{Op: op, Err: err}

	var ue *url.Error
	if errors.As(err, &ue) && ue.Timeout() {
		gw.Timeout = true
		return gw
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		gw.Timeout = true
		return gw
	}
	return gw
}

// ToKobo converts a major-unit amount to Paystack's integer subunits.
func ToKobo(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// FromKobo converts integer subunits back to a major-unit amount.
func FromKobo(kobo int64) decimal.Decimal {
	return decimal.NewFromInt(kobo).Shift(-2)
}
