package paystack_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"foodhub/pkg/paystack"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, timeout time.Duration) *paystack.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return paystack.NewClient(paystack.Config{BaseURL: server.URL, SecretKey: "sk_test_123", Timeout: timeout})
}

func TestInitializeTransaction(t *testing.T) {
	var received paystack.InitializeRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &received))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":true,"message":"Authorization URL created","data":{"authorization_url":"https://checkout.paystack.com/abc","access_code":"abc","reference":"ORD-1-1"}}`))
	}, time.Second)

	result, err := client.InitializeTransaction(context.Background(), paystack.InitializeRequest{
		Email:     "ada@example.com",
		Amount:    250050,
		Currency:  "NGN",
		Reference: "ORD-1-1",
		Metadata:  paystack.Metadata{OrderID: "order-1", OrderNumber: "ORD-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.paystack.com/abc", result.AuthorizationURL)
	assert.Equal(t, "abc", result.AccessCode)
	assert.Equal(t, int64(250050), received.Amount)
	assert.Equal(t, "order-1", received.Metadata.OrderID)
}

func TestVerifyTransaction(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/transaction/verify/ref-42", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":true,"message":"Verification successful","data":{"id":1,"status":"success","reference":"ref-42","amount":150000,"currency":"NGN","paid_at":"2025-03-01T10:00:00.000Z","metadata":{"order_id":"order-9","order_number":"ORD-9"}}}`))
	}, time.Second)

	tx, err := client.VerifyTransaction(context.Background(), "ref-42")
	require.NoError(t, err)
	assert.Equal(t, paystack.StatusSuccess, tx.Status)
	assert.Equal(t, int64(150000), tx.Amount)
	require.NotNil(t, tx.PaidAt)
	assert.Equal(t, 2025, tx.PaidAt.Year())
	assert.Equal(t, "order-9", tx.Metadata().OrderID)
}

func TestVerifyTransactionKeepsReferenceInOnePathSegment(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		_, _ = w.Write([]byte(`{"status":true,"message":"ok","data":{"id":1,"status":"success","reference":"x","amount":1,"currency":"NGN"}}`))
	}, time.Second)

	_, err := client.VerifyTransaction(context.Background(), "ORD-250301-AB12CD34-1740823200000000000")
	require.NoError(t, err)

	for _, reference := range []string{"../../customer?perPage=100", "a/b", "ref#x", "ref%2F..", "..", ""} {
		_, err := client.VerifyTransaction(context.Background(), reference)
		var gwErr *paystack.Error
		require.ErrorAs(t, err, &gwErr, reference)
		assert.False(t, gwErr.Unavailable)
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"/transaction/verify/ORD-250301-AB12CD34-1740823200000000000"}, paths)
}

func TestValidReference(t *testing.T) {
	assert.True(t, paystack.ValidReference("ORD-250301-AB12CD34-1740823200000000000"))
	assert.True(t, paystack.ValidReference("T_abc.def=1"))
	assert.False(t, paystack.ValidReference("../customer"))
	assert.False(t, paystack.ValidReference("ref?perPage=100"))
	assert.False(t, paystack.ValidReference("ref with space"))
	assert.False(t, paystack.ValidReference("."))
}

func TestGatewayFailureIsReported(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":false,"message":"try again"}`))
	}, time.Second)

	_, err := client.VerifyTransaction(context.Background(), "ref")
	var gwErr *paystack.Error
	require.ErrorAs(t, err, &gwErr)
	assert.True(t, gwErr.Unavailable)
	assert.Equal(t, http.StatusServiceUnavailable, gwErr.StatusCode)
}

func TestRejectedRequestIsNotUnavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":false,"message":"Invalid email"}`))
	}, time.Second)

	_, err := client.InitializeTransaction(context.Background(), paystack.InitializeRequest{Reference: "r"})
	var gwErr *paystack.Error
	require.ErrorAs(t, err, &gwErr)
	assert.False(t, gwErr.Unavailable)
	assert.Contains(t, gwErr.Error(), "Invalid email")
}

func TestSlowGatewayTimesOut(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-time.After(2 * time.Second):
		}
		_, _ = w.Write([]byte(`{"status":true,"data":{}}`))
	}, 100*time.Millisecond)
	defer close(release)

	start := time.Now()
	_, err := client.VerifyTransaction(context.Background(), "slow")
	var gwErr *paystack.Error
	require.ErrorAs(t, err, &gwErr)
	assert.True(t, gwErr.Unavailable)
	assert.Less(t, time.Since(start), time.Second)
}

func TestCancelledContextSkipsCall(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { called = true }, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.VerifyTransaction(ctx, "ref")
	assert.Error(t, err)
	assert.False(t, called)
}

func TestValidSignature(t *testing.T) {
	payload := []byte(`{"event":"charge.success","data":{"reference":"r1"}}`)
	signature := paystack.Sign("whsec", payload)

	assert.Len(t, signature, 128)
	assert.True(t, paystack.ValidSignature("whsec", payload, signature))
	assert.False(t, paystack.ValidSignature("other", payload, signature))
	assert.False(t, paystack.ValidSignature("whsec", append(payload, ' '), signature))
	assert.False(t, paystack.ValidSignature("whsec", payload, ""))
	assert.False(t, paystack.ValidSignature("", payload, paystack.Sign("", payload)))
}

func TestTransactionMetadataShapes(t *testing.T) {
	cases := map[string]string{
		"object":        `{"order_id":"o-1"}`,
		"string":        `"{\"order_id\":\"o-1\"}"`,
		"numeric order": `{"order_id":17}`,
	}
	expected := map[string]string{"object": "o-1", "string": "o-1", "numeric order": "17"}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			tx := paystack.Transaction{RawMetadata: json.RawMessage(raw)}
			assert.Equal(t, expected[name], tx.Metadata().OrderID)
		})
	}

	assert.Empty(t, paystack.Transaction{RawMetadata: json.RawMessage(`""`)}.Metadata().OrderID)
	assert.Empty(t, paystack.Transaction{}.Metadata().OrderID)
}

func TestParseEvent(t *testing.T) {
	event, err := paystack.ParseEvent([]byte(`{"event":"charge.success","data":{"reference":"r1","status":"success","metadata":{"order_id":"o-1"}}}`))
	require.NoError(t, err)
	assert.Equal(t, paystack.EventChargeSuccess, event.Event)
	assert.Equal(t, "o-1", event.Data.Metadata().OrderID)

	_, err = paystack.ParseEvent([]byte(`not json`))
	assert.Error(t, err)
}
