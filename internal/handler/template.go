package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/PayAidPayments/payaid-whatsapp/internal/middleware"
	"github.com/PayAidPayments/payaid-whatsapp/internal/model"
	"github.com/PayAidPayments/payaid-whatsapp/internal/service"
)

type TemplateHandler struct {
	templates *service.TemplateService
}

func NewTemplateHandler(templates *service.TemplateService) *TemplateHandler {
	return &TemplateHandler{templates: templates}
}

func (h *TemplateHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{templateID}", h.Get)
	r.Put("/{templateID}", h.Update)
	r.Delete("/{templateID}", h.Delete)
	return r
}

type createTemplateRequest struct {
	Name      string   `json:"name"`
	Body      string   `json:"body"`
	Variables []string `json:"variables"`
	Category  *string  `json:"category"`
}

func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	var req createTemplateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	tpl, err := h.templates.Create(r.Context(), ident, model.CreateTemplateParams{
		Name:      req.Name,
		Body:      req.Body,
		Variables: req.Variables,
		Category:  req.Category,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, tpl)
}

func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())
	p := parsePage(r)

	result, err := h.templates.List(r.Context(), ident, p.Limit, p.Offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeList(w, result.Templates, result.Total, p)
}

func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	tpl, err := h.templates.Get(r.Context(), ident, chi.URLParam(r, "templateID"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tpl)
}

type updateTemplateRequest struct {
	Name      *string  `json:"name"`
	Body      *string  `json:"body"`
	Variables []string `json:"variables"`
	Category  *string  `json:"category"`
	IsActive  *bool    `json:"isActive"`
}

func (h *TemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	var req updateTemplateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	tpl, err := h.templates.Update(r.Context(), ident, chi.URLParam(r, "templateID"), model.UpdateTemplateParams{
		Name:      req.Name,
		Body:      req.Body,
		Variables: req.Variables,
		Category:  req.Category,
		IsActive:  req.IsActive,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tpl)
}

func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	if err := h.templates.Delete(r.Context(), ident, chi.URLParam(r, "templateID")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
