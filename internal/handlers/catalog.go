package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bazaar-market/apiserver/internal/services"
)

// CatalogHandler provides HTTP handlers for the category and contact-type
// lookup tables.
type CatalogHandler struct {
	catalogService *services.CatalogService
}

func NewCatalogHandler(catalogService *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// CategoryRouter registers category routes on the given router.
func CategoryRouter(r chi.Router, catalogService *services.CatalogService) {
	handler := NewCatalogHandler(catalogService)
	r.Get("/", handler.ListCategories)
	r.With(RequireIdentity).Post("/", handler.CreateCategory)
}

// ContactTypeRouter registers contact-type routes on the given router.
func ContactTypeRouter(r chi.Router, catalogService *services.CatalogService) {
	handler := NewCatalogHandler(catalogService)
	r.Get("/", handler.ListContactTypes)
	r.With(RequireIdentity).Post("/", handler.CreateContactType)
}

type CreateNameRequest struct {
	Name string `json:"name"`
}

func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalogService.ListCategories(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CreateNameRequest
	if err := decodeStrict(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	category, err := h.catalogService.CreateCategory(r.Context(), strings.TrimSpace(req.Name), claimsFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

func (h *CatalogHandler) ListContactTypes(w http.ResponseWriter, r *http.Request) {
	contactTypes, err := h.catalogService.ListContactTypes(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list contact types")
		return
	}
	writeJSON(w, http.StatusOK, contactTypes)
}

func (h *CatalogHandler) CreateContactType(w http.ResponseWriter, r *http.Request) {
	var req CreateNameRequest
	if err := decodeStrict(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	contactType, err := h.catalogService.CreateContactType(r.Context(), strings.TrimSpace(req.Name), claimsFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, contactType)
}
