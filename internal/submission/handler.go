// AngelaMos | 2026
// handler.go

package submission

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/BeCreativeRuben/StudioThielmanV2/internal/core"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: core.NewValidator(),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
	limiter func(http.Handler) http.Handler,
) {
	r.Route("/submissions", func(r chi.Router) {
		r.With(limiter).Post("/", h.Create)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Get("/", h.List)
			r.Get("/{id}", h.Get)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	start, err := ParseDate(q.Get("startDate"), false)
	if err != nil {
		core.BadRequest(w, err.Error())
		return
	}
	end, err := ParseDate(q.Get("endDate"), true)
	if err != nil {
		core.BadRequest(w, err.Error())
		return
	}

	subs, err := h.service.List(r.Context(), ListParams{
		Status:    q.Get("status"),
		Package:   q.Get("package"),
		StartDate: start,
		EndDate:   end,
		Search:    q.Get("search"),
	})
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, subs)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	sub, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, sub)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	resp, err := h.service.Create(r.Context(), req)
	if err != nil {
		core.JSONError(w, core.BadRequestError(err.Error()))
		return
	}

	core.Created(w, resp)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var patch Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil || patch == nil {
		core.BadRequest(w, "request body must be a JSON object")
		return
	}

	sub, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, sub)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "submission")
	case errors.Is(err, core.ErrInvalidInput):
		core.BadRequest(w, err.Error())
	default:
		core.InternalServerError(w, err)
	}
}
