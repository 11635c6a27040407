// AngelaMos | 2026
// service.go

package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var ErrUnsupportedType = errors.New(
	"only images (jpeg, png, gif), PDF and Word documents are allowed",
)

var allowedExtensions = map[string]struct{}{
	".jpeg": {},
	".jpg":  {},
	".png":  {},
	".gif":  {},
	".pdf":  {},
	".doc":  {},
	".docx": {},
}

var allowedTypes = map[string]struct{}{
	"image/jpeg":         {},
	"image/png":          {},
	"image/gif":          {},
	"application/pdf":    {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
}

const sniffLen = 3072

type Service struct {
	repo    Repository
	storage *Storage
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(repo Repository, storage *Storage, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		storage: storage,
		logger:  logger,
		now:     time.Now,
	}
}

// SaveAsset checks the file against the allow lists and writes it to disk.
// The returned record is not persisted until Register is called.
func (s *Service) SaveAsset(
	originalName, declaredType string,
	src io.Reader,
) (*File, error) {
	base := sanitizeName(originalName)
	if base == "" {
		return nil, ErrUnsupportedType
	}

	if _, ok := allowedExtensions[strings.ToLower(filepath.Ext(base))]; !ok {
		return nil, ErrUnsupportedType
	}

	mediaType := normalizeType(declaredType)
	if mediaType == "" || mediaType == "application/octet-stream" {
		head := make([]byte, sniffLen)
		n, err := io.ReadFull(src, head)
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read upload: %w", err)
		}
		head = head[:n]
		mediaType = normalizeType(mimetype.Detect(head).String())
		src = io.MultiReader(bytes.NewReader(head), src)
	}

	if _, ok := allowedTypes[mediaType]; !ok {
		return nil, ErrUnsupportedType
	}

	filename := uuid.New().String() + "-" + base
	size, err := s.storage.Save(filename, src)
	if err != nil {
		return nil, err
	}

	return &File{
		ID:           uuid.New().String(),
		Filename:     filename,
		OriginalName: originalName,
		MimeType:     mediaType,
		Size:         size,
		URL:          "/uploads/" + url.PathEscape(filename),
	}, nil
}

// Register persists metadata for a saved asset. On failure the asset is
// removed again.
func (s *Service) Register(
	ctx context.Context,
	f *File,
	submissionID, fileType string,
) error {
	if submissionID != "" {
		f.SubmissionID = &submissionID
	}
	if fileType == "" {
		fileType = DefaultFileType
	}
	f.FileType = fileType
	f.UploadedAt = s.now().UTC()

	if err := s.repo.Create(ctx, f); err != nil {
		s.Discard(ctx, f)
		return err
	}
	return nil
}

func (s *Service) Discard(ctx context.Context, f *File) {
	if err := s.storage.Remove(f.Filename); err != nil {
		s.logger.WarnContext(ctx, "remove asset failed",
			"filename", f.Filename,
			"error", err,
		)
	}
}

func (s *Service) ListBySubmission(
	ctx context.Context,
	submissionID string,
) ([]File, error) {
	return s.repo.ListBySubmission(ctx, submissionID)
}

// Delete drops the metadata record, then removes the asset best-effort.
func (s *Service) Delete(ctx context.Context, id string) error {
	f, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	s.Discard(ctx, f)
	return nil
}

func normalizeType(v string) string {
	if v == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(v)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(v))
	}
	return mediaType
}

func sanitizeName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	if base == "." || base == "/" || strings.HasPrefix(base, ".") {
		return ""
	}
	return base
}
