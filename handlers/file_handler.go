package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Dosada05/tournament-finder/middleware"
	"github.com/Dosada05/tournament-finder/services"
)

// multipart overhead allowed on top of the file itself
const multipartSlack = 1 << 20

type FileHandler struct {
	fileService services.FileService
}

func NewFileHandler(fs services.FileService) *FileHandler {
	return &FileHandler{fileService: fs}
}

// Upload godoc
// @Summary Upload a tournament image
// @Tags files
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "jpeg, png, gif or webp, up to 10MB"
// @Success 201 {object} services.UploadedFile
// @Failure 400 {object} errorBody
// @Failure 401 {object} errorBody
// @Failure 502 {object} errorBody
// @Security BearerAuth
// @Router /files [post]
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, services.ErrNoTokenProvided)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, services.MaxUploadSize+multipartSlack)
	if err := r.ParseMultipartForm(services.MaxUploadSize); err != nil {
		var maxBytesError *http.MaxBytesError
		if errors.As(err, &maxBytesError) {
			failedValidationResponse(w, r, map[string]string{"file": "exceeds the 10MB limit"})
			return
		}
		badRequestResponse(w, r, fmt.Errorf("invalid multipart form: %w", err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		failedValidationResponse(w, r, map[string]string{"file": "is required"})
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		sniff := make([]byte, 512)
		n, _ := io.ReadFull(file, sniff)
		contentType = http.DetectContentType(sniff[:n])
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			mapServiceErrorToHTTP(w, r, err)
			return
		}
	}

	uploaded, err := h.fileService.Upload(r.Context(), currentUserID, contentType, header.Size, file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, uploaded)
}
