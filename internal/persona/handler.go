package persona

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	id "spamstopper/pkg/domain"
	dErrors "spamstopper/pkg/domain-errors"
	"spamstopper/pkg/platform/httputil"
)

type personaResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Personality string `json:"personality"`
}

// Handler serves the persona catalog.
type Handler struct {
	store  Store
	logger *slog.Logger
}

func NewHandler(store Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Register registers persona routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/personas", h.handleList)
	r.Get("/personas/{personaID}", h.handleGet)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	personas, err := h.store.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := make([]personaResponse, 0, len(personas))
	for _, p := range personas {
		out = append(out, formatPersona(p))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"personas": out})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	personaID, err := id.ParsePersonaID(chi.URLParam(r, "personaID"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeValidation, "invalid persona ID"))
		return
	}

	p, err := h.store.FindByID(r.Context(), personaID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, formatPersona(*p))
}

func formatPersona(p Persona) personaResponse {
	// The voice-AI assistant binding stays server-side.
	return personaResponse{
		ID:          p.ID.String(),
		Name:        p.Name,
		Description: p.Description,
		Personality: p.Personality,
	}
}
