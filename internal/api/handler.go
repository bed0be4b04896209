package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/eugenenazirov/bootprops/internal/sysprops"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// Configuration is the read-only view of the loaded bootstrap properties.
type Configuration interface {
	Property(name string) (string, bool)
	Keys() []string
	Source() string
}

// Handler exposes the loaded configuration and the process-wide property
// store over HTTP.
type Handler struct {
	config Configuration
	store  sysprops.Store

	clock    func() time.Time
	loadedAt time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(config Configuration, store sysprops.Store, opts ...HandlerOption) *Handler {
	h := &Handler{
		config: config,
		store:  store,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.loadedAt = h.clock()
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:     "ok",
		Timestamp:  h.clock(),
		Source:     h.config.Source(),
		Properties: len(h.config.Keys()),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleListProperties(w http.ResponseWriter, r *http.Request) {
	_ = r
	keys := h.config.Keys()
	entries := make([]propertyEntry, 0, len(keys))
	for _, name := range keys {
		value, _ := h.config.Property(name)
		entries = append(entries, propertyEntry{Name: name, Value: value})
	}

	resp := propertiesResponse{
		Source:     h.config.Source(),
		LoadedAt:   h.loadedAt,
		Properties: entries,
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetProperty(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "Invalid request", "property name is required")
		return
	}

	if value, ok := h.config.Property(name); ok {
		writeJSON(w, http.StatusOK, propertyEntry{Name: name, Value: value})
		return
	}

	if defaults, ok := r.URL.Query()["default"]; ok {
		resp := propertyEntry{Name: name, Defaulted: true}
		if len(defaults) > 0 {
			resp.Value = defaults[0]
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	writeError(w, http.StatusNotFound, "Property not found", name+" is not defined in the bootstrap configuration",
		"pass ?default=<value> to receive a fallback")
}

func (h *Handler) handleSystemProperties(w http.ResponseWriter, r *http.Request) {
	_ = r
	names := h.store.Names()
	props := make(map[string]string, len(names))
	for _, name := range names {
		if value, ok := h.store.Get(name); ok {
			props[name] = value
		}
	}
	writeJSON(w, http.StatusOK, systemPropertiesResponse{Properties: props})
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type propertyEntry struct {
	Name      string `json:"name"`
	Value     string `json:"value"`
	Defaulted bool   `json:"defaulted,omitempty"`
}

type propertiesResponse struct {
	Source     string          `json:"source"`
	LoadedAt   time.Time       `json:"loadedAt"`
	Properties []propertyEntry `json:"properties"`
}

type systemPropertiesResponse struct {
	Properties map[string]string `json:"properties"`
}

type healthResponse struct {
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
	Source     string    `json:"source"`
	Properties int       `json:"properties"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}
