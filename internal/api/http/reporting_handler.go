package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"warehouse-lending-backend/internal/domain"
	"warehouse-lending-backend/internal/logger"
	"warehouse-lending-backend/internal/security"
	"warehouse-lending-backend/internal/service"
)

// Pinger reports backing store health. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// ReportingHandler serves read-only inventory and loan reports to staff tooling.
type ReportingHandler struct {
	reporting service.ReportingService
	tokens    security.TokenManager
	db        Pinger
}

func NewReportingHandler(reporting service.ReportingService, tokens security.TokenManager, db Pinger) *ReportingHandler {
	return &ReportingHandler{reporting: reporting, tokens: tokens, db: db}
}

// Register mounts the routes on router.
func (h *ReportingHandler) Register(router *mux.Router) {
	router.HandleFunc("/healthz", h.HandleHealth).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(h.requireStaff)
	api.HandleFunc("/inventory", h.HandleListInventory).Methods(http.MethodGet)
	api.HandleFunc("/inventory/{material_id:[0-9]+}/{location_id:[0-9]+}", h.HandleGetInventory).Methods(http.MethodGet)
	api.HandleFunc("/requests/overdue", h.HandleListOverdue).Methods(http.MethodGet)
	api.HandleFunc("/requests/{id:[0-9]+}/outstanding", h.HandleOutstanding).Methods(http.MethodGet)
}

func (h *ReportingHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *ReportingHandler) HandleListInventory(w http.ResponseWriter, r *http.Request) {
	materialID, err := optionalInt32(r, "material_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	locationID, err := optionalInt32(r, "location_id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	records, err := h.reporting.ListInventory(r.Context(), materialID, locationID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if records == nil {
		records = []domain.InventoryRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": records})
}

func (h *ReportingHandler) HandleGetInventory(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	materialID, _ := strconv.ParseInt(vars["material_id"], 10, 32)
	locationID, _ := strconv.ParseInt(vars["location_id"], 10, 32)

	rec, err := h.reporting.GetInventory(r.Context(), domain.InventoryKey{MaterialID: int32(materialID), LocationID: int32(locationID)})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"record": rec, "available": rec.Available()})
}

func (h *ReportingHandler) HandleOutstanding(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 32)

	lines, err := h.reporting.Outstanding(r.Context(), int32(id))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"request_id": id, "lines": lines})
}

func (h *ReportingHandler) HandleListOverdue(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.reporting.ListOverdue(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if reqs == nil {
		reqs = []domain.BorrowingRequest{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": reqs, "count": len(reqs)})
}

func (h *ReportingHandler) requireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authorization token is not provided"})
			return
		}
		claims, err := h.tokens.ValidateToken(token)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
			return
		}
		if !claims.Identity().IsStaff() {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "staff role required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func optionalInt32(r *http.Request, name string) (*int32, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return nil, domain.NewValidationError(name, "must be an integer")
	}
	return domain.Int32Ptr(int32(v)), nil
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidation):
		code = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		code = http.StatusNotFound
	default:
		logger.ErrorContext(r.Context(), "Reporting request failed", "path", r.URL.Path, "error", err)
		writeJSON(w, code, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("Failed to write response", "error", err)
	}
}
