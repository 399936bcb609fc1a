package handler

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/org-tasks-api/internal/domain"
	"github.com/org-tasks-api/internal/service"
)

// multipartOverhead - запас на заголовки и текстовые поля формы сверх размера файла
const multipartOverhead = 1 << 20

type AttachmentHandler struct {
	responder
	attachments service.AttachmentService
	maxBytes    int64
}

func NewAttachmentHandler(attachments service.AttachmentService, maxBytes int64, v *validator.Validate, logger *slog.Logger) *AttachmentHandler {
	return &AttachmentHandler{
		responder:   newResponder(v, logger),
		attachments: attachments,
		maxBytes:    maxBytes,
	}
}

// List - вложения в области видимости; related_to и related_id сужают выборку до одной цели
func (h *AttachmentHandler) List(w http.ResponseWriter, r *http.Request) {
	relatedID, ok := h.queryID(w, r, "related_id")
	if !ok {
		return
	}
	rel, err := domain.ParseRelation(r.URL.Query().Get("related_to"), relatedID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	attachments, err := h.attachments.List(r.Context(), SubjectFrom(r.Context()), rel)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, toAttachmentResponses(attachments))
}

func (h *AttachmentHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	attachment, err := h.attachments.Get(r.Context(), SubjectFrom(r.Context()), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, toAttachmentResponse(attachment))
}

// Upload принимает multipart-форму с полями file, related_to, related_id, is_encrypted
func (h *AttachmentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
	}
	if err := r.ParseMultipartForm(multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondError(w, http.StatusBadRequest, "validation error", "file is too large", "file")
			return
		}
		h.respondError(w, http.StatusBadRequest, "invalid multipart form", err.Error(), "")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "validation error", "file is required", "file")
		return
	}
	defer file.Close()

	relatedID, ok := h.formID(w, r, "related_id")
	if !ok {
		return
	}
	encrypted, _ := strconv.ParseBool(r.FormValue("is_encrypted"))

	attachment, err := h.attachments.Upload(r.Context(), SubjectFrom(r.Context()), service.Upload{
		Name:        header.Filename,
		Body:        file,
		RelatedTo:   r.FormValue("related_to"),
		RelatedID:   relatedID,
		IsEncrypted: encrypted,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, toAttachmentResponse(attachment))
}

// Download отдаёт содержимое вложения с исходным именем файла
func (h *AttachmentHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	attachment, body, err := h.attachments.Open(r.Context(), SubjectFrom(r.Context()), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	defer body.Close()

	contentType := attachment.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(attachment.Size, 10))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": attachment.Name}))
	w.Header().Set("X-Checksum-Sha256", attachment.Checksum)
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, body); err != nil {
		h.logger.WarnContext(r.Context(), "attachment download interrupted",
			slog.String("attachment_id", id.String()),
			slog.Any("error", err),
		)
	}
}

func (h *AttachmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.attachments.Delete(r.Context(), SubjectFrom(r.Context()), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
