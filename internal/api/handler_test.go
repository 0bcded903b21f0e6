package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kindnessforautism/donations-api/internal/paypal"
	"github.com/kindnessforautism/donations-api/internal/store"
)

type fakeGateway struct {
	createCalls  int
	captureCalls int
	createFn     func(ctx context.Context, amountCents int64, description string) (string, error)
	captureFn    func(ctx context.Context, orderID string) (paypal.CaptureResult, error)
}

func (f *fakeGateway) CreateOrder(ctx context.Context, amountCents int64, description string) (string, error) {
	f.createCalls++
	if f.createFn != nil {
		return f.createFn(ctx, amountCents, description)
	}
	return "ORDER-1", nil
}

func (f *fakeGateway) CaptureOrder(ctx context.Context, orderID string) (paypal.CaptureResult, error) {
	f.captureCalls++
	if f.captureFn != nil {
		return f.captureFn(ctx, orderID)
	}
	return paypal.CaptureResult{AmountCents: 2500, Currency: "USD"}, nil
}

func newTestServer(t *testing.T, adminSecret string) (*httptest.Server, *store.MemoryLedger, *fakeGateway) {
	t.Helper()
	ledger := store.NewMemoryLedger(25000000)
	gw := &fakeGateway{}
	srv := httptest.NewServer(NewRouter(NewHandler(ledger, gw, adminSecret, "Kindness for Autism")))
	t.Cleanup(srv.Close)
	return srv, ledger, gw
}

func postJSON(t *testing.T, url, body string, headers map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var m map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&m))
	return m
}

func TestGetTotals_EmptyLedger(t *testing.T) {
	srv, _, _ := newTestServer(t, "")

	resp, err := http.Get(srv.URL + "/api/v1/donations")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	body := decodeBody(t, resp)
	assert.Equal(t, float64(0), body["totalRaised"])
	assert.Equal(t, float64(0), body["donationCount"])
	assert.Equal(t, float64(250000), body["goal"])
	assert.Nil(t, body["gofundmeLastUpdated"])
}

func TestCreateOrder_Validation(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCalls  int
	}{
		{"below minimum", `{"amount": 0.99}`, http.StatusBadRequest, 0},
		{"fifty cents", `{"amount": 0.5}`, http.StatusBadRequest, 0},
		{"negative", `{"amount": -5}`, http.StatusBadRequest, 0},
		{"missing amount", `{}`, http.StatusBadRequest, 0},
		{"amount is a string", `{"amount": "ten"}`, http.StatusBadRequest, 0},
		{"malformed json", `{"amount":`, http.StatusBadRequest, 0},
		{"exactly one dollar", `{"amount": 1.00}`, http.StatusOK, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _, gw := newTestServer(t, "")

			resp := postJSON(t, srv.URL+"/api/v1/paypal/orders", tt.body, nil)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			// Rejections must happen before any gateway call.
			assert.Equal(t, tt.wantCalls, gw.createCalls)
		})
	}
}

func TestCreateOrder_ReturnsOrderID(t *testing.T) {
	srv, _, gw := newTestServer(t, "")
	gw.createFn = func(_ context.Context, amountCents int64, description string) (string, error) {
		assert.Equal(t, int64(2500), amountCents)
		assert.Equal(t, "Donation to Kindness for Autism", description)
		return "ORDER-XYZ", nil
	}

	resp := postJSON(t, srv.URL+"/api/v1/paypal/orders", `{"amount": 25}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "ORDER-XYZ", body["id"])
}

func TestCreateOrder_NotConfigured(t *testing.T) {
	srv, _, gw := newTestServer(t, "")
	gw.createFn = func(context.Context, int64, string) (string, error) {
		return "", paypal.ErrNotConfigured
	}

	resp := postJSON(t, srv.URL+"/api/v1/paypal/orders", `{"amount": 25}`, nil)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "PayPal is not configured", body["error"])
}

func TestCaptureOrder_AppendsDonation(t *testing.T) {
	srv, ledger, gw := newTestServer(t, "")
	gw.captureFn = func(_ context.Context, orderID string) (paypal.CaptureResult, error) {
		assert.Equal(t, "ORDER-42", orderID)
		return paypal.CaptureResult{
			AmountCents: 10000,
			Currency:    "USD",
			PayerName:   "Jane Donor",
			PayerEmail:  "jane@example.com",
		}, nil
	}

	resp := postJSON(t, srv.URL+"/api/v1/paypal/orders/capture", `{"orderID": "ORDER-42"}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, true, body["success"])
	donation := body["donation"].(map[string]interface{})
	assert.NotEmpty(t, donation["id"])
	assert.Equal(t, float64(100), donation["amount"])
	assert.NotEmpty(t, donation["timestamp"])

	totals, err := ledger.Totals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(10000), totals.PayPalTotalCents)
	assert.Equal(t, 1, totals.PayPalDonorCount)
}

func TestCaptureOrder_MissingOrderID(t *testing.T) {
	srv, _, gw := newTestServer(t, "")

	resp := postJSON(t, srv.URL+"/api/v1/paypal/orders/capture", `{}`, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 0, gw.captureCalls)
}

// A failed capture must leave the ledger exactly as it was.
func TestCaptureOrder_FailureLeavesLedgerUnchanged(t *testing.T) {
	srv, ledger, gw := newTestServer(t, "")
	gw.captureFn = func(context.Context, string) (paypal.CaptureResult, error) {
		return paypal.CaptureResult{}, paypal.ErrCapture
	}

	before, err := ledger.Totals(context.Background())
	require.NoError(t, err)

	resp := postJSON(t, srv.URL+"/api/v1/paypal/orders/capture", `{"orderID": "ORDER-9"}`, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	after, err := ledger.Totals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, before.DonationCount, after.DonationCount)
	assert.Equal(t, before.TotalRaisedCents, after.TotalRaisedCents)
}

// A retried capture for the same order must not double-count.
func TestCaptureOrder_RetryDoesNotDoubleCount(t *testing.T) {
	srv, ledger, _ := newTestServer(t, "")

	for i := 0; i < 2; i++ {
		resp := postJSON(t, srv.URL+"/api/v1/paypal/orders/capture", `{"orderID": "ORDER-DUP"}`, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	totals, err := ledger.Totals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, totals.PayPalDonorCount)
	assert.Equal(t, int64(2500), totals.PayPalTotalCents)
}

func TestUpdateGoFundMe_FailClosedWithoutSecret(t *testing.T) {
	srv, _, _ := newTestServer(t, "")

	// Any header at all still gets 503 when no secret is configured.
	for _, key := range []string{"", "guess", "secret"} {
		resp := postJSON(t, srv.URL+"/api/v1/donations/gofundme", `{"amount": 100}`,
			map[string]string{"x-admin-key": key})
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		resp.Body.Close()
	}
}

func TestUpdateGoFundMe_Auth(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		wantStatus int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"wrong key", "wrong", http.StatusUnauthorized},
		{"key with trailing space", "hunter2 ", http.StatusUnauthorized},
		{"exact match", "hunter2", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _, _ := newTestServer(t, "hunter2")

			resp := postJSON(t, srv.URL+"/api/v1/donations/gofundme",
				`{"amount": 150, "donorCount": 3}`,
				map[string]string{"x-admin-key": tt.key})
			defer resp.Body.Close()
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestUpdateGoFundMe_OverwritesAndReports(t *testing.T) {
	srv, ledger, _ := newTestServer(t, "hunter2")
	headers := map[string]string{"x-admin-key": "hunter2"}

	resp := postJSON(t, srv.URL+"/api/v1/donations/gofundme", `{"amount": 50, "donorCount": 3}`, headers)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/api/v1/donations/gofundme", `{"amount": 80, "donorCount": 5}`, headers)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(80), body["gofundmeOffset"])
	assert.Equal(t, float64(5), body["gofundmeDonorCount"])
	assert.NotEmpty(t, body["updatedAt"])

	totals, err := ledger.Totals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(8000), totals.GoFundMeTotalCents)
	assert.Equal(t, 5, totals.GoFundMeDonorCount)
}

func TestUpdateGoFundMe_Validation(t *testing.T) {
	headers := map[string]string{"x-admin-key": "hunter2"}
	tests := []struct {
		name string
		body string
	}{
		{"negative amount", `{"amount": -10}`},
		{"missing amount", `{"donorCount": 3}`},
		{"amount is a string", `{"amount": "100"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _, _ := newTestServer(t, "hunter2")
			resp := postJSON(t, srv.URL+"/api/v1/donations/gofundme", tt.body, headers)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestTotals_ReflectCaptureAndOffset(t *testing.T) {
	srv, _, gw := newTestServer(t, "hunter2")
	gw.captureFn = func(context.Context, string) (paypal.CaptureResult, error) {
		return paypal.CaptureResult{AmountCents: 10500, Currency: "USD"}, nil
	}

	resp := postJSON(t, srv.URL+"/api/v1/paypal/orders/capture", `{"orderID": "O1"}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/api/v1/donations/gofundme", `{"amount": 200, "donorCount": 4}`,
		map[string]string{"x-admin-key": "hunter2"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err := http.Get(srv.URL + "/api/v1/donations")
	require.NoError(t, err)
	body := decodeBody(t, resp)
	assert.Equal(t, float64(305), body["totalRaised"])
	assert.Equal(t, float64(105), body["paypalTotal"])
	assert.Equal(t, float64(200), body["gofundmeTotal"])
	assert.Equal(t, float64(5), body["donationCount"])
	assert.NotEmpty(t, body["gofundmeLastUpdated"])
}

func TestHealthCheck(t *testing.T) {
	srv, _, _ := newTestServer(t, "")
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
