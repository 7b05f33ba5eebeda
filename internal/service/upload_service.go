package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"tastebook/internal/models"
	"tastebook/internal/observability"

	"github.com/google/uuid"
)

// Image types accepted by the tagged upload endpoint.
const (
	ImageTypeTitle = "title"
	ImageTypeStep  = "step"
)

// UploadResult is the subset of the storage provider's response we pass back.
type UploadResult struct {
	PublicID  string `json:"public_id"`
	URL       string `json:"url"`
	SecureURL string `json:"secure_url"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Format    string `json:"format"`
	Bytes     int    `json:"bytes"`
}

// Uploader sends a base64-encoded image payload to object storage.
type Uploader interface {
	Upload(ctx context.Context, data string) (*UploadResult, error)
}

type UploadService struct {
	uploader  Uploader
	uploadDir string
}

func NewUploadService(uploader Uploader, uploadDir string) *UploadService {
	return &UploadService{uploader: uploader, uploadDir: uploadDir}
}

// TaggedUploadInput is a base64 payload tagged with the originating form field
// so the caller can correlate the stored URL back to it.
type TaggedUploadInput struct {
	Data      string
	ImageType string
	StepIndex *int
}

// TaggedUploadResult is the provider response enriched with the echoed tag.
type TaggedUploadResult struct {
	UploadResult
	ImageType string `json:"imageType"`
	StepIndex *int   `json:"stepIndex,omitempty"`
}

// UploadTagged validates the tag before any upload attempt, then routes the
// payload to object storage.
func (s *UploadService) UploadTagged(ctx context.Context, in TaggedUploadInput) (*TaggedUploadResult, error) {
	if in.Data == "" {
		return nil, models.NewValidationError("Image data is required")
	}
	if in.ImageType != ImageTypeTitle && in.ImageType != ImageTypeStep {
		return nil, models.NewValidationError("imageType must be 'title' or 'step'")
	}
	// Object storage is optional outside production; fail as a handled error,
	// not a nil-interface panic.
	if s.uploader == nil {
		return nil, models.NewInternalError(errors.New("object storage is not configured"))
	}

	res, err := s.uploader.Upload(ctx, in.Data)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	observability.ImageUploads.WithLabelValues("cloudinary").Inc()

	return &TaggedUploadResult{
		UploadResult: *res,
		ImageType:    in.ImageType,
		StepIndex:    in.StepIndex,
	}, nil
}

// SaveLocal deposits an uploaded file into the public upload directory under a
// randomized filename, preserving the extension, and returns the public URL path.
func (s *UploadService) SaveLocal(filename string, content []byte) (string, error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", models.NewInternalError(err)
	}

	name := uuid.New().String() + strings.ToLower(filepath.Ext(filename))
	if err := os.WriteFile(filepath.Join(s.uploadDir, name), content, 0o644); err != nil {
		return "", models.NewInternalError(err)
	}

	observability.ImageUploads.WithLabelValues("local").Inc()
	return "/uploads/" + name, nil
}
