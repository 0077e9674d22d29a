// Package product serves the catalog API the till front end talks to. The
// store is an in-memory slice guarded by a mutex; this server exists for
// local development and tests, standing in for whatever backend runs in
// production.
package product

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type record struct {
	ID            string
	Index         string
	Name          string
	Description   string
	Category      string
	IsActive      bool
	InventoryRate float64
	BillingRate   float64
	Quantity      int
}

type Handler struct {
	mu       sync.Mutex
	products []record
}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/search", h.search)
	r.Post("/", h.create)
	r.Put("/{key}", h.update)
	r.Delete("/{key}", h.delete)
}

// Seed pre-loads demo records, used by catalogd's demo mode.
func (h *Handler) Seed(demo []SeedProduct) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, d := range demo {
		h.products = append(h.products, record{
			ID:            uuid.NewString(),
			Index:         d.Index,
			Name:          d.Name,
			Category:      "General",
			IsActive:      true,
			InventoryRate: d.InventoryRate,
			BillingRate:   d.BillingRate,
			Quantity:      d.Quantity,
		})
	}
}

type SeedProduct struct {
	Index         string
	Name          string
	InventoryRate float64
	BillingRate   float64
	Quantity      int
}

type productRequest struct {
	Index         string   `json:"index"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Category      string   `json:"category"`
	IsActive      *bool    `json:"isActive"`
	InventoryRate *float64 `json:"inventoryRate"`
	BillingRate   *float64 `json:"billingRate"`
	Price         *float64 `json:"price"`
	Stock         *int     `json:"stock"`
}

type productResponse struct {
	ID            string  `json:"id"`
	Index         string  `json:"index"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Category      string  `json:"category"`
	IsActive      bool    `json:"isActive"`
	InventoryRate float64 `json:"inventoryRate"`
	BillingRate   float64 `json:"billingRate"`
	Price         float64 `json:"price"`
	Stock         int     `json:"stock"`
}

func toResponse(rec record) productResponse {
	return productResponse{
		ID:            rec.ID,
		Index:         rec.Index,
		Name:          rec.Name,
		Description:   rec.Description,
		Category:      rec.Category,
		IsActive:      rec.IsActive,
		InventoryRate: rec.InventoryRate,
		BillingRate:   rec.BillingRate,
		Price:         rec.BillingRate,
		Stock:         rec.Quantity,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	resp := make([]productResponse, len(h.products))
	for i, rec := range h.products {
		resp[i] = toResponse(rec)
	}
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))

	h.mu.Lock()
	resp := make([]productResponse, 0)

	for _, rec := range h.products {
		if q == "" ||
			strings.Contains(strings.ToLower(rec.Name), q) ||
			strings.Contains(strings.ToLower(rec.Index), q) {
			resp = append(resp, toResponse(rec))
		}
	}
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if req.Index != "" && h.findLocked(req.Index) >= 0 {
		http.Error(w, "index already exists", http.StatusConflict)
		return
	}

	rec := record{ID: uuid.NewString()}
	applyRequest(&rec, req)

	h.products = append(h.products, rec)

	writeJSON(w, http.StatusCreated, toResponse(rec))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	i := h.findLocked(key)
	if i < 0 {
		http.Error(w, "product not found", http.StatusNotFound)
		return
	}

	if req.Index != "" {
		if j := h.findLocked(req.Index); j >= 0 && j != i {
			http.Error(w, "index already exists", http.StatusConflict)
			return
		}
	}

	applyRequest(&h.products[i], req)

	writeJSON(w, http.StatusOK, toResponse(h.products[i]))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	h.mu.Lock()
	defer h.mu.Unlock()

	i := h.findLocked(key)
	if i < 0 {
		http.Error(w, "product not found", http.StatusNotFound)
		return
	}

	h.products = slices.Delete(h.products, i, i+1)

	w.WriteHeader(http.StatusNoContent)
}

// findLocked resolves key as either the opaque id or the human index.
// Requires h.mu held.
func (h *Handler) findLocked(key string) int {
	return slices.IndexFunc(h.products, func(rec record) bool {
		return rec.ID == key || strings.EqualFold(rec.Index, key)
	})
}

func applyRequest(rec *record, req productRequest) {
	if req.Index != "" {
		rec.Index = req.Index
	}

	if req.Name != "" {
		rec.Name = req.Name
	}

	if req.Description != "" {
		rec.Description = req.Description
	}

	rec.Category = req.Category
	if rec.Category == "" {
		rec.Category = "General"
	}

	rec.IsActive = true
	if req.IsActive != nil {
		rec.IsActive = *req.IsActive
	}

	if req.InventoryRate != nil {
		rec.InventoryRate = *req.InventoryRate
	}

	switch {
	case req.BillingRate != nil:
		rec.BillingRate = *req.BillingRate
	case req.Price != nil:
		rec.BillingRate = *req.Price
	}

	if req.Stock != nil {
		rec.Quantity = *req.Stock
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
