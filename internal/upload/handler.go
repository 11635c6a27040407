// AngelaMos | 2026
// handler.go

package upload

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/BeCreativeRuben/StudioThielmanV2/internal/core"
)

const (
	fieldFile         = "file"
	fieldSubmissionID = "submissionId"
	fieldFileType     = "fileType"

	maxFieldBytes = 1024
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
	limiter func(http.Handler) http.Handler,
) {
	r.Route("/files", func(r chi.Router) {
		r.With(limiter).Post("/", h.Upload)
		r.With(authenticator).Get("/submission/{submissionId}", h.ListBySubmission)
		r.Delete("/{id}", h.Delete)
	})
}

// Upload reads the multipart stream part by part so the file goes straight
// to disk. Form fields may arrive before or after the file.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	limit := h.service.storage.MaxBytes() + 1<<20
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	mr, err := r.MultipartReader()
	if err != nil {
		core.BadRequest(w, "no file uploaded")
		return
	}

	var (
		saved        *File
		submissionID string
		fileType     string
	)

	discard := func() {
		if saved != nil {
			h.service.Discard(r.Context(), saved)
		}
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			discard()
			h.writeError(w, err)
			return
		}

		switch {
		case part.FormName() == fieldFile && part.FileName() != "":
			if saved != nil {
				_ = part.Close()
				discard()
				core.BadRequest(w, "only one file may be uploaded")
				return
			}
			saved, err = h.service.SaveAsset(
				part.FileName(),
				part.Header.Get("Content-Type"),
				part,
			)
			if err != nil {
				_ = part.Close()
				h.writeError(w, err)
				return
			}
		case part.FormName() == fieldSubmissionID:
			submissionID, err = readField(part)
		case part.FormName() == fieldFileType:
			fileType, err = readField(part)
		}
		_ = part.Close()

		if err != nil {
			discard()
			h.writeError(w, err)
			return
		}
	}

	if saved == nil {
		core.BadRequest(w, "no file uploaded")
		return
	}

	if err := h.service.Register(r.Context(), saved, submissionID, fileType); err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Created(w, saved)
}

func readField(part io.Reader) (string, error) {
	b, err := io.ReadAll(io.LimitReader(part, maxFieldBytes+1))
	if err != nil {
		return "", fmt.Errorf("read form field: %w", err)
	}
	if len(b) > maxFieldBytes {
		return "", fmt.Errorf("form field too long: %w", core.ErrInvalidInput)
	}
	return strings.TrimSpace(string(b)), nil
}

func (h *Handler) ListBySubmission(w http.ResponseWriter, r *http.Request) {
	files, err := h.service.ListBySubmission(
		r.Context(),
		chi.URLParam(r, "submissionId"),
	)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, files)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "file")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, ErrTooLarge), errors.As(err, &maxErr):
		core.BadRequest(w, fmt.Sprintf(
			"file too large (max %d MB)",
			h.service.storage.MaxBytes()>>20,
		))
	case errors.Is(err, ErrUnsupportedType):
		core.BadRequest(w, err.Error())
	case errors.Is(err, core.ErrInvalidInput):
		core.BadRequest(w, err.Error())
	default:
		core.BadRequest(w, "invalid upload: "+err.Error())
	}
}
