package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"reversionbot/src/repository"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"
)

// Handler serves the read-only status API. All trading decisions stay in
// the driver; these endpoints only report persisted state.
type Handler struct {
	positions *repository.PositionRepository
	trades    *repository.TradeRepository
	equity    *repository.EquityRepository
	log       *logger.Entry
}

func NewHandler(
	positions *repository.PositionRepository,
	trades *repository.TradeRepository,
	equity *repository.EquityRepository,
	log *logger.Entry,
) *Handler {
	if log == nil {
		log = logger.NewEntry(logger.StandardLogger())
	}
	return &Handler{
		positions: positions,
		trades:    trades,
		equity:    equity,
		log:       log,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/api/v1/portfolio", h.getPortfolio)
	r.Get("/api/v1/positions", h.getPositions)
	r.Get("/api/v1/trades", h.getTrades)
	r.Get("/api/v1/equity", h.getEquity)
}

func (h *Handler) getPortfolio(w http.ResponseWriter, r *http.Request) {
	point, err := h.equity.Latest(r.Context())
	if err != nil {
		h.serverError(w, err, "failed to load latest equity point")
		return
	}
	if point == nil {
		h.writeJSON(w, http.StatusOK, map[string]any{})
		return
	}
	h.writeJSON(w, http.StatusOK, point)
}

func (h *Handler) getPositions(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("status") == "open" {
		if symbol := r.URL.Query().Get("symbol"); symbol != "" {
			row, err := h.positions.GetOpenBySymbol(r.Context(), symbol)
			if err != nil {
				h.serverError(w, err, "failed to load open position")
				return
			}
			if row == nil {
				h.writeJSON(w, http.StatusOK, map[string]any{})
				return
			}
			h.writeJSON(w, http.StatusOK, row)
			return
		}

		rows, err := h.positions.ListOpen(r.Context())
		if err != nil {
			h.serverError(w, err, "failed to list open positions")
			return
		}
		h.writeJSON(w, http.StatusOK, rows)
		return
	}

	rows, err := h.positions.ListRecent(r.Context(), queryLimit(r))
	if err != nil {
		h.serverError(w, err, "failed to list positions")
		return
	}
	h.writeJSON(w, http.StatusOK, rows)
}

func (h *Handler) getTrades(w http.ResponseWriter, r *http.Request) {
	rows, err := h.trades.ListRecent(r.Context(), queryLimit(r))
	if err != nil {
		h.serverError(w, err, "failed to list trades")
		return
	}
	h.writeJSON(w, http.StatusOK, rows)
}

func (h *Handler) getEquity(w http.ResponseWriter, r *http.Request) {
	to := time.Now().UTC()
	from := to.Add(-24 * time.Hour)

	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			http.Error(w, "invalid from parameter, want RFC3339", http.StatusBadRequest)
			return
		}
		from = parsed
	}
	if v := r.URL.Query().Get("to"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			http.Error(w, "invalid to parameter, want RFC3339", http.StatusBadRequest)
			return
		}
		to = parsed
	}

	rows, err := h.equity.FetchRange(r.Context(), from, to)
	if err != nil {
		h.serverError(w, err, "failed to load equity range")
		return
	}
	h.writeJSON(w, http.StatusOK, rows)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.WithError(err).Error("failed to encode response")
	}
}

func (h *Handler) serverError(w http.ResponseWriter, err error, msg string) {
	h.log.WithError(err).Error(msg)
	http.Error(w, msg, http.StatusInternalServerError)
}

func queryLimit(r *http.Request) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return 100
	}
	limit, err := strconv.Atoi(v)
	if err != nil || limit <= 0 {
		return 100
	}
	return limit
}
