package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/jusunglee/departures-go/internal/models"
	"github.com/jusunglee/departures-go/pkg/departures"
)

// Handler handles HTTP requests
type Handler struct {
	client departures.Client
}

// NewHandler creates a new HTTP handler
func NewHandler(client departures.Client) *Handler {
	return &Handler{client: client}
}

// RegisterRoutes registers all routes
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/", h.handleIndex).Methods("GET")
	r.HandleFunc("/health", h.handleHealth).Methods("GET")
	r.HandleFunc("/departures", h.handleDepartures).Methods("GET")
	r.HandleFunc("/departures/{device}/refresh", h.handleRefresh).Methods("POST")
}

// Response wraps a successful cycle
type Response struct {
	Cycle    string             `json:"cycle"`
	Source   models.Source      `json:"source"`
	FellBack bool               `json:"fell_back"`
	Data     models.WatchRecord `json:"data"`
}

// ErrorResponse represents an error response.
// Code is the value the watch receives in place of a route count.
type ErrorResponse struct {
	Error string           `json:"error"`
	Code  models.ErrorCode `json:"code,omitempty"`
	Cycle string           `json:"cycle,omitempty"`
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"title":  "departures-go",
		"readme": "GET /departures?lat=..&lon=.. for the nearest departures",
	}
	h.writeJSON(w, response)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]string{"status": "ok"})
}

func (h *Handler) handleDepartures(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	latStr := q.Get("lat")
	lonStr := q.Get("lon")

	if latStr == "" || lonStr == "" {
		h.writeError(w, "Missing lat/lon parameter", http.StatusBadRequest)
		return
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil || lat < -90 || lat > 90 {
		h.writeError(w, "Invalid lat parameter", http.StatusBadRequest)
		return
	}

	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil || lon < -180 || lon > 180 {
		h.writeError(w, "Invalid lon parameter", http.StatusBadRequest)
		return
	}

	radius := 0
	if s := q.Get("radius"); s != "" {
		radius, err = strconv.Atoi(s)
		if err != nil || radius <= 0 {
			h.writeError(w, "Invalid radius parameter", http.StatusBadRequest)
			return
		}
	}

	out := h.client.RunCycle(r.Context(), q.Get("device"), lat, lon, radius)
	h.writeOutcome(w, out)
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	device := mux.Vars(r)["device"]
	out := h.client.RefreshCycle(r.Context(), device)
	h.writeOutcome(w, out)
}

func (h *Handler) writeOutcome(w http.ResponseWriter, out departures.Outcome) {
	if !out.OK() {
		msg := out.Code.String()
		if out.Err != nil {
			msg = out.Err.Error()
		}
		h.writeJSONStatus(w, ErrorResponse{Error: msg, Code: out.Code, Cycle: out.CycleID}, statusFor(out.Code))
		return
	}

	h.writeJSON(w, Response{
		Cycle:    out.CycleID,
		Source:   out.Source,
		FellBack: out.FellBack,
		Data:     *out.Record,
	})
}

// statusFor maps a watch error code to the closest HTTP status
func statusFor(code models.ErrorCode) int {
	switch code {
	case models.NoResults:
		return http.StatusNotFound
	case models.NoConnection:
		return http.StatusGatewayTimeout
	case models.LocationAccessDenied, models.UnknownLocationError:
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}

func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	h.writeJSONStatus(w, data, http.StatusOK)
}

func (h *Handler) writeJSONStatus(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) writeError(w http.ResponseWriter, message string, status int) {
	h.writeJSONStatus(w, ErrorResponse{Error: message}, status)
}
