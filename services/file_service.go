package services

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/Dosada05/tournament-finder/storage"
	"github.com/google/uuid"
)

// MaxUploadSize bounds a single image upload.
const MaxUploadSize = 10 << 20

const uploadKeyPrefix = "tournaments/"

// UploadedFile is the handle returned to the client; PublicID is what later
// goes into a tournament's images list.
type UploadedFile struct {
	PublicID  string `json:"publicId"`
	URL       string `json:"url"`
	SecureURL string `json:"secureUrl"`
}

type FileService interface {
	Upload(ctx context.Context, uploaderID, contentType string, size int64, body io.Reader) (*UploadedFile, error)
}

type fileService struct {
	uploader storage.FileUploader
	logger   *slog.Logger
	newKey   func(ext string) string
}

func NewFileService(uploader storage.FileUploader, logger *slog.Logger) FileService {
	return &fileService{
		uploader: uploader,
		logger:   logger,
		newKey: func(ext string) string {
			return uploadKeyPrefix + uuid.NewString() + ext
		},
	}
}

func (s *fileService) Upload(ctx context.Context, uploaderID, contentType string, size int64, body io.Reader) (*UploadedFile, error) {
	v := validationErrors{}
	ext, err := extensionFromContentType(contentType)
	if err != nil {
		v.add("file", "must be a jpeg, png, gif or webp image")
	}
	switch {
	case size <= 0:
		v.add("file", "is empty")
	case size > MaxUploadSize:
		v.add("file", "exceeds the 10MB limit")
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	key := s.newKey(ext)
	res, err := s.uploader.Upload(ctx, key, contentType, io.LimitReader(body, MaxUploadSize))
	if err != nil {
		return nil, upstreamError("object storage", err)
	}

	s.logger.InfoContext(ctx, "file uploaded",
		slog.String("key", key),
		slog.String("user_id", uploaderID),
		slog.Int64("size", size),
	)

	secure := s.uploader.GetPublicURL(res.Key)
	return &UploadedFile{
		PublicID:  res.Key,
		URL:       insecureURL(secure),
		SecureURL: secure,
	}, nil
}

func insecureURL(u string) string {
	if rest, ok := strings.CutPrefix(u, "https://"); ok {
		return "http://" + rest
	}
	return u
}
