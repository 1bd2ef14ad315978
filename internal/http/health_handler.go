package http

import (
	"context"
	"net/http"
	"time"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	orders        Pinger
	ordersEnabled bool
	timeout       time.Duration
	now           func() time.Time
}

// NewHealthHandler reports the order store as disabled when orders is nil.
func NewHealthHandler(orders Pinger, timeout time.Duration) *HealthHandler {
	return &HealthHandler{
		orders:        orders,
		ordersEnabled: orders != nil,
		timeout:       timeout,
		now:           time.Now,
	}
}

type HealthResponseDTO struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Orders    string    `json:"orders"`
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponseDTO{
		Status:    "healthy",
		Timestamp: h.now().UTC(),
		Orders:    "disabled",
	}
	if !h.ordersEnabled {
		respondJSON(w, http.StatusOK, resp)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.orders.Ping(ctx); err != nil {
		resp.Status = "unhealthy"
		resp.Orders = "disconnected"
		respondJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	resp.Orders = "connected"
	respondJSON(w, http.StatusOK, resp)
}
