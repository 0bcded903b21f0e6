package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the donation endpoints under /api/v1, plus /metrics and
// /health.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/health", h.HealthCheckHandler).Methods(http.MethodGet)

	apiV1 := r.PathPrefix("/api/v1").Subrouter()
	apiV1.HandleFunc("/donations", h.GetTotalsHandler).Methods(http.MethodGet)
	apiV1.HandleFunc("/donations/gofundme", h.UpdateGoFundMeHandler).Methods(http.MethodPost)
	apiV1.HandleFunc("/paypal/orders", h.CreateOrderHandler).Methods(http.MethodPost)
	apiV1.HandleFunc("/paypal/orders/capture", h.CaptureOrderHandler).Methods(http.MethodPost)

	return r
}
