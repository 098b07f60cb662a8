// Package paystack is a small client for the Paystack transaction API and its
// webhook signatures.
package paystack

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

// SignatureHeader carries the hex HMAC-SHA512 of the raw webhook body.
const SignatureHeader = "x-paystack-signature"

// EventChargeSuccess is the webhook event for a completed charge.
const EventChargeSuccess = "charge.success"

// StatusSuccess is the transaction status of a completed charge.
const StatusSuccess = "success"

// Config holds Paystack connection details.
type Config struct {
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
}

// Client calls the Paystack API over fiber's fasthttp agent.
type Client struct {
	baseURL   string
	secretKey string
	timeout   time.Duration
}

// NewClient creates a new Paystack client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		secretKey: cfg.SecretKey,
		timeout:   timeout,
	}
}

// Metadata is attached to a transaction and echoed back by verify and webhooks.
type Metadata struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
}

// InitializeRequest starts a payment session. Amount is in minor units.
type InitializeRequest struct {
	Email       string   `json:"email"`
	Amount      int64    `json:"amount"`
	Currency    string   `json:"currency,omitempty"`
	Reference   string   `json:"reference"`
	CallbackURL string   `json:"callback_url,omitempty"`
	Metadata    Metadata `json:"metadata"`
}

// InitializeResult is the session the customer is redirected to.
type InitializeResult struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// Transaction is the transaction object returned by verify and carried by webhook events.
type Transaction struct {
	ID          int64           `json:"id"`
	Status      string          `json:"status"`
	Reference   string          `json:"reference"`
	Amount      int64           `json:"amount"`
	Currency    string          `json:"currency"`
	PaidAt      *time.Time      `json:"paid_at"`
	RawMetadata json.RawMessage `json:"metadata"`
}

// Metadata decodes the transaction metadata. Paystack sends it either as an
// object, as a JSON-encoded string, or as an empty value.
func (t Transaction) Metadata() Metadata {
	var md Metadata
	raw := t.RawMetadata
	if len(raw) == 0 || string(raw) == "null" {
		return md
	}
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		raw = []byte(encoded)
	}
	if err := json.Unmarshal(raw, &md); err != nil {
		var loose map[string]interface{}
		if json.Unmarshal(raw, &loose) == nil && loose["order_id"] != nil {
			md.OrderID = fmt.Sprint(loose["order_id"])
		}
	}
	return md
}

// Event is a webhook payload.
type Event struct {
	Event string      `json:"event"`
	Data  Transaction `json:"data"`
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Error is returned for transport failures and non-success responses.
// Unavailable is set when Paystack could not be reached, timed out or answered 5xx.
type Error struct {
	StatusCode  int
	Message     string
	Unavailable bool
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return "paystack unreachable: " + e.Message
	}
	return fmt.Sprintf("paystack responded %d: %s", e.StatusCode, e.Message)
}

// InitializeTransaction requests a payment session.
func (c *Client) InitializeTransaction(ctx context.Context, req InitializeRequest) (*InitializeResult, error) {
	agent := fiber.Post(c.baseURL + "/transaction/initialize")
	agent.JSON(req)

	var result InitializeResult
	if err := c.do(ctx, agent, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// VerifyTransaction fetches the current state of a transaction.
func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*Transaction, error) {
	if !ValidReference(reference) {
		return nil, &Error{StatusCode: fiber.StatusBadRequest, Message: fmt.Sprintf("invalid transaction reference %q", reference)}
	}
	agent := fiber.Get(c.baseURL + "/transaction/verify/" + url.PathEscape(reference))

	var tx Transaction
	if err := c.do(ctx, agent, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// ValidReference reports whether reference is a single path segment made of
// the characters Paystack accepts: letters, digits, '-', '.', '=' and '_'.
func ValidReference(reference string) bool {
	if reference == "" || reference == "." || reference == ".." {
		return false
	}
	for _, r := range reference {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '.', r == '=', r == '_':
		default:
			return false
		}
	}
	return true
}

func (c *Client) do(ctx context.Context, agent *fiber.Agent, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return &Error{Message: err.Error(), Unavailable: true}
	}
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	agent.Set(fiber.HeaderAuthorization, "Bearer "+c.secretKey)
	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	agent.Timeout(timeout)
	if err := agent.Parse(); err != nil {
		return &Error{Message: err.Error(), Unavailable: true}
	}

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		err := errors.Join(errs...)
		if errors.Is(err, fasthttp.ErrTimeout) {
			log.Printf("Paystack request timed out after %s", timeout)
		}
		return &Error{Message: err.Error(), Unavailable: true}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return &Error{StatusCode: code, Message: fmt.Sprintf("invalid response body: %v", err), Unavailable: code >= fiber.StatusInternalServerError}
	}
	if code < fiber.StatusOK || code >= fiber.StatusMultipleChoices || !env.Status {
		return &Error{StatusCode: code, Message: env.Message, Unavailable: code >= fiber.StatusInternalServerError}
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &Error{StatusCode: code, Message: fmt.Sprintf("invalid response data: %v", err)}
	}
	return nil
}

// Sign returns the hex HMAC-SHA512 of payload keyed by secret.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// ValidSignature reports whether signature matches the payload, in constant time.
func ValidSignature(secret string, payload []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	expected := Sign(secret, payload)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(strings.TrimSpace(signature))))
}

// ParseEvent decodes a webhook payload.
func ParseEvent(payload []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("invalid webhook payload: %w", err)
	}
	return &event, nil
}
