package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/kindnessforautism/donations-api/internal/domain"
	"github.com/kindnessforautism/donations-api/internal/paypal"
	"github.com/kindnessforautism/donations-api/internal/store"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "donations_http_requests_total",
		Help: "Total HTTP requests processed, labeled by status code",
	}, []string{"method", "endpoint", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "donations_http_request_duration_seconds",
		Help:    "Latency distribution of HTTP requests",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "endpoint"})
)

// Gateway is the slice of the PayPal client the handlers need. Tests swap in
// a fake; production wiring passes *paypal.Client.
type Gateway interface {
	CreateOrder(ctx context.Context, amountCents int64, description string) (string, error)
	CaptureOrder(ctx context.Context, orderID string) (paypal.CaptureResult, error)
}

type Handler struct {
	ledger      store.Ledger
	gateway     Gateway
	adminSecret string
	description string
}

func NewHandler(ledger store.Ledger, gateway Gateway, adminSecret, brandName string) *Handler {
	return &Handler{
		ledger:      ledger,
		gateway:     gateway,
		adminSecret: adminSecret,
		description: "Donation to " + brandName,
	}
}

// GetTotalsHandler serves the aggregate fundraising totals the progress bar
// polls. The response must always reflect current ledger state, so caching
// is disabled explicitly.
func (h *Handler) GetTotalsHandler(w http.ResponseWriter, r *http.Request) {
	totals, err := h.ledger.Totals(r.Context())
	if err != nil {
		log.Printf("totals read failed: %v", err)
		httpRequestsTotal.WithLabelValues("GET", "/donations", "500").Inc()
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch donation totals")
		return
	}

	var lastUpdated *string
	if totals.GoFundMeLastUpdated != nil {
		s := totals.GoFundMeLastUpdated.UTC().Format(time.RFC3339)
		lastUpdated = &s
	}

	w.Header().Set("Cache-Control", "no-store")
	httpRequestsTotal.WithLabelValues("GET", "/donations", "200").Inc()
	respondWithJSON(w, http.StatusOK, totalsResponse{
		TotalRaised:         domain.CentsToDollars(totals.TotalRaisedCents),
		PaypalTotal:         domain.CentsToDollars(totals.PayPalTotalCents),
		GofundmeTotal:       domain.CentsToDollars(totals.GoFundMeTotalCents),
		DonationCount:       totals.DonationCount,
		PaypalDonorCount:    totals.PayPalDonorCount,
		GofundmeDonorCount:  totals.GoFundMeDonorCount,
		Goal:                domain.CentsToDollars(totals.GoalCents),
		GofundmeLastUpdated: lastUpdated,
	})
}

// CreateOrderHandler validates the requested amount and asks PayPal for a new
// order. The order ID goes back to the frontend, which hands the donor to
// PayPal's approval flow.
func (h *Handler) CreateOrderHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", "/paypal/orders"))
	defer timer.ObserveDuration()

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpRequestsTotal.WithLabelValues("POST", "/paypal/orders", "400").Inc()
		respondWithError(w, http.StatusBadRequest, "Malformed JSON body")
		return
	}
	if req.Amount == nil || *req.Amount < 1 {
		httpRequestsTotal.WithLabelValues("POST", "/paypal/orders", "400").Inc()
		respondWithError(w, http.StatusBadRequest, "Invalid donation amount. Minimum is $1.")
		return
	}

	orderID, err := h.gateway.CreateOrder(r.Context(), domain.DollarsToCents(*req.Amount), h.description)
	if err != nil {
		switch {
		case errors.Is(err, paypal.ErrInvalidAmount):
			httpRequestsTotal.WithLabelValues("POST", "/paypal/orders", "400").Inc()
			respondWithError(w, http.StatusBadRequest, "Invalid donation amount. Minimum is $1.")
		case errors.Is(err, paypal.ErrNotConfigured):
			httpRequestsTotal.WithLabelValues("POST", "/paypal/orders", "500").Inc()
			respondWithError(w, http.StatusInternalServerError, "PayPal is not configured")
		default:
			log.Printf("order creation failed: %v", err)
			httpRequestsTotal.WithLabelValues("POST", "/paypal/orders", "500").Inc()
			respondWithError(w, http.StatusInternalServerError, "Failed to create PayPal order")
		}
		return
	}

	httpRequestsTotal.WithLabelValues("POST", "/paypal/orders", "200").Inc()
	respondWithJSON(w, http.StatusOK, map[string]string{"id": orderID})
}

// CaptureOrderHandler finalizes an approved order and appends the donation.
// A gateway failure leaves the ledger untouched and tells the donor no charge
// was made. The append is idempotent on the order ID, so a client that times
// out and resubmits cannot double-count.
func (h *Handler) CaptureOrderHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", "/paypal/orders/capture"))
	defer timer.ObserveDuration()

	var req captureOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpRequestsTotal.WithLabelValues("POST", "/paypal/orders/capture", "400").Inc()
		respondWithError(w, http.StatusBadRequest, "Malformed JSON body")
		return
	}
	if req.OrderID == "" {
		httpRequestsTotal.WithLabelValues("POST", "/paypal/orders/capture", "400").Inc()
		respondWithError(w, http.StatusBadRequest, "Missing orderID")
		return
	}

	result, err := h.gateway.CaptureOrder(r.Context(), req.OrderID)
	if err != nil {
		switch {
		case errors.Is(err, paypal.ErrNotConfigured):
			httpRequestsTotal.WithLabelValues("POST", "/paypal/orders/capture", "500").Inc()
			respondWithError(w, http.StatusInternalServerError, "PayPal is not configured")
		default:
			log.Printf("capture of order %s failed: %v", req.OrderID, err)
			httpRequestsTotal.WithLabelValues("POST", "/paypal/orders/capture", "500").Inc()
			respondWithError(w, http.StatusInternalServerError, "Failed to capture payment")
		}
		return
	}

	rec, err := h.ledger.AppendDonation(r.Context(), store.AppendParams{
		AmountCents:   result.AmountCents,
		Currency:      result.Currency,
		PayPalOrderID: req.OrderID,
		PayerName:     result.PayerName,
		PayerEmail:    result.PayerEmail,
	})
	if err != nil {
		// Funds moved but the record is missing. Surface a server error so
		// the client retries the capture; the idempotent append makes that
		// retry safe.
		log.Printf("ledger append for order %s failed after capture: %v", req.OrderID, err)
		httpRequestsTotal.WithLabelValues("POST", "/paypal/orders/capture", "500").Inc()
		respondWithError(w, http.StatusInternalServerError, "Failed to record donation")
		return
	}

	httpRequestsTotal.WithLabelValues("POST", "/paypal/orders/capture", "200").Inc()
	respondWithJSON(w, http.StatusOK, captureOrderResponse{
		Success: true,
		Donation: capturedDonation{
			ID:        rec.ID,
			Amount:    domain.CentsToDollars(rec.AmountCents),
			Timestamp: rec.CreatedAt.UTC().Format(time.RFC3339),
		},
	})
}

// UpdateGoFundMeHandler overwrites the manual GoFundMe offset. Fail-closed:
// with no ADMIN_SECRET configured the endpoint is unavailable no matter what
// the caller sends.
func (h *Handler) UpdateGoFundMeHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", "/donations/gofundme"))
	defer timer.ObserveDuration()

	if h.adminSecret == "" {
		httpRequestsTotal.WithLabelValues("POST", "/donations/gofundme", "503").Inc()
		respondWithError(w, http.StatusServiceUnavailable, "Admin endpoint not configured")
		return
	}
	key := r.Header.Get("x-admin-key")
	if subtle.ConstantTimeCompare([]byte(key), []byte(h.adminSecret)) != 1 {
		httpRequestsTotal.WithLabelValues("POST", "/donations/gofundme", "401").Inc()
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req updateGoFundMeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpRequestsTotal.WithLabelValues("POST", "/donations/gofundme", "400").Inc()
		respondWithError(w, http.StatusBadRequest, "Malformed JSON body")
		return
	}
	if req.Amount == nil || *req.Amount < 0 {
		httpRequestsTotal.WithLabelValues("POST", "/donations/gofundme", "400").Inc()
		respondWithError(w, http.StatusBadRequest, "Invalid amount. Must be a non-negative number.")
		return
	}
	donors := 0
	if req.DonorCount != nil && *req.DonorCount > 0 {
		donors = *req.DonorCount
	}

	offset, err := h.ledger.SetGoFundMeOffset(r.Context(), domain.DollarsToCents(*req.Amount), donors)
	if err != nil {
		if errors.Is(err, store.ErrInvalidOffset) {
			httpRequestsTotal.WithLabelValues("POST", "/donations/gofundme", "400").Inc()
			respondWithError(w, http.StatusBadRequest, "Invalid amount. Must be a non-negative number.")
			return
		}
		log.Printf("gofundme offset update failed: %v", err)
		httpRequestsTotal.WithLabelValues("POST", "/donations/gofundme", "500").Inc()
		respondWithError(w, http.StatusInternalServerError, "Failed to update GoFundMe offset")
		return
	}

	updatedAt := ""
	if offset.UpdatedAt != nil {
		updatedAt = offset.UpdatedAt.UTC().Format(time.RFC3339)
	}
	httpRequestsTotal.WithLabelValues("POST", "/donations/gofundme", "200").Inc()
	respondWithJSON(w, http.StatusOK, updateGoFundMeResponse{
		Success:            true,
		GofundmeOffset:     domain.CentsToDollars(offset.AmountCents),
		GofundmeDonorCount: offset.DonorCount,
		UpdatedAt:          updatedAt,
	})
}

func (h *Handler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}
