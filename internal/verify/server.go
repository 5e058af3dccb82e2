package verify

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/massmirchi/tickets/internal/ticket"
)

// Store is the subset of the ticket store the API needs.
type Store interface {
	MarkScanned(ctx context.Context, event, id string) (ticket.ScanResult, error)
	Summary(ctx context.Context, event string) (ticket.Summary, error)
}

// maxBodyBytes bounds the verify request body.
const maxBodyBytes = 4 << 10

// Handler serves the API for one event.
type Handler struct {
	store  Store
	event  string
	logger *slog.Logger
}

// NewHandler creates a Handler that verifies tickets for event.
func NewHandler(store Store, event string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{store: store, event: event, logger: logger}
}

// RouterOptions configures NewRouter.
type RouterOptions struct {
	// Origins allowed by CORS. Empty allows any origin.
	Origins []string

	// APIToken guards the analytics route as a bearer token. When empty the
	// analytics route is not mounted.
	APIToken string
}

// NewRouter wires the routes and middleware.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	origins := opts.Origins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/api", func(r chi.Router) {
		r.Post("/verify-ticket", h.VerifyTicket)
		if opts.APIToken == "" {
			h.logger.Warn("no api token configured, analytics route disabled")
			return
		}
		r.With(requireToken(opts.APIToken)).Get("/analytics/{event}", h.Analytics)
	})
	return r
}

// requireToken rejects requests without "Authorization: Bearer <token>".
func requireToken(token string) func(http.Handler) http.Handler {
	want := []byte(token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				w.Header().Set("WWW-Authenticate", "Bearer")
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// VerifyRequest is the verify-ticket request body.
type VerifyRequest struct {
	TicketID string `json:"ticketId"`
}

// Details describes the ticket holder.
type Details struct {
	EmailAddress string `json:"emailAddress,omitempty"`
	EventName    string `json:"eventName,omitempty"`
	BuyerName    string `json:"buyerName,omitempty"`
}

// VerifyResponse is the verify-ticket response body.
type VerifyResponse struct {
	Valid          bool     `json:"valid"`
	AlreadyScanned bool     `json:"alreadyScanned"`
	Details        *Details `json:"details,omitempty"`
	Error          string   `json:"error,omitempty"`
	Warning        string   `json:"warning,omitempty"`
}

// VerifyTicket handles POST /api/verify-ticket.
func (h *Handler) VerifyTicket(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, VerifyResponse{Error: "Invalid request format"})
		return
	}
	id := strings.TrimSpace(req.TicketID)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, VerifyResponse{Error: "Ticket ID is required"})
		return
	}
	if !ticket.ValidID(id) {
		writeJSON(w, http.StatusBadRequest, VerifyResponse{Error: "Ticket ID is malformed"})
		return
	}

	log := h.logger.With("ticket_id", id, "request_id", middleware.GetReqID(r.Context()))
	res, err := h.store.MarkScanned(r.Context(), h.event, id)
	if err != nil {
		log.Error("scan transaction failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, VerifyResponse{Error: "Database transaction error"})
		return
	}

	writeJSON(w, http.StatusOK, Response(res))
	log.Info("ticket scanned", "outcome", string(res.Outcome))
}

// Response maps a scan result to the API body.
func Response(res ticket.ScanResult) VerifyResponse {
	switch res.Outcome {
	case ticket.ScanValid:
		return VerifyResponse{Valid: true, Details: details(res.Ticket)}
	case ticket.ScanDuplicate:
		return VerifyResponse{
			AlreadyScanned: true,
			Details:        details(res.Ticket),
			Warning:        "This ticket was already scanned previously",
		}
	default:
		return VerifyResponse{Error: "Ticket not found in database"}
	}
}

func details(t *ticket.Ticket) *Details {
	d := &Details{
		EmailAddress: "No email provided",
		EventName:    "No event name provided",
		BuyerName:    "Unknown buyer",
	}
	if t == nil {
		return d
	}
	if t.Email != "" {
		d.EmailAddress = t.Email
	}
	if t.EventName != "" {
		d.EventName = t.EventName
	}
	if t.BuyerName != "" {
		d.BuyerName = t.BuyerName
	}
	return d
}

// Analytics handles GET /api/analytics/{event}.
func (h *Handler) Analytics(w http.ResponseWriter, r *http.Request) {
	event := chi.URLParam(r, "event")
	sum, err := h.store.Summary(r.Context(), event)
	if err != nil {
		h.logger.Error("summary failed", "event", event, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to load analytics"})
		return
	}
	writeJSON(w, http.StatusOK, Compute(sum, time.UTC))
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()))
		})
	}
}
