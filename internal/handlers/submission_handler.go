package handlers

import (
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/ezparkk/site-api/internal/dtos"
	"github.com/ezparkk/site-api/internal/middleware"
	"github.com/ezparkk/site-api/internal/models"
	"github.com/ezparkk/site-api/internal/services"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxFormSize leaves room for the text fields around a maximum-size resume.
const maxFormSize = services.MaxResumeSize + 1<<20

type SubmissionHandler struct {
	SubmissionService *services.SubmissionService
	RoleService       *services.RoleService
	Logger            *zap.Logger
}

func NewSubmissionHandler(s *services.SubmissionService, roles *services.RoleService, logger *zap.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		SubmissionService: s,
		RoleService:       roles,
		Logger:            logger,
	}
}

// JoinWaitlist is the POST /waitlist endpoint
func (h *SubmissionHandler) JoinWaitlist(c *gin.Context) {
	var req dtos.WaitlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dtos.ErrorResponse{
			Error: "Please fill in all fields with a valid email: " + err.Error(),
			Code:  "InvalidRequest",
		})
		return
	}

	id, err := h.SubmissionService.AddToWaitlist(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dtos.IDResponse{ID: id})
}

// UploadResume is the POST /resumes endpoint (multipart: file, email)
func (h *SubmissionHandler) UploadResume(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxFormSize)
	if err := c.Request.ParseMultipartForm(maxFormSize); err != nil {
		h.respondError(c, formError(err))
		return
	}

	email := strings.TrimSpace(c.PostForm("email"))
	if email == "" {
		c.JSON(http.StatusBadRequest, dtos.ErrorResponse{Error: "Applicant email is required.", Code: string(services.KindMissingFields)})
		return
	}

	file, err := readResume(c, "file")
	if err != nil {
		h.respondError(c, err)
		return
	}

	url, err := h.SubmissionService.UploadResume(c.Request.Context(), file, email)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dtos.URLResponse{URL: url})
}

// SubmitApplication is the POST /applications endpoint. The resume, if any,
// must already have been uploaded through /resumes.
func (h *SubmissionHandler) SubmitApplication(c *gin.Context) {
	var req dtos.JobApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dtos.ErrorResponse{Error: "Invalid JSON format: " + err.Error(), Code: "InvalidRequest"})
		return
	}

	id, err := h.SubmissionService.SubmitJobApplication(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dtos.IDResponse{ID: id})
}

// ApplyForRole is the POST /careers/:roleId/apply endpoint: the application
// form and its resume in one multipart request.
func (h *SubmissionHandler) ApplyForRole(c *gin.Context) {
	role, ok := h.RoleService.RoleByID(c.Param("roleId"))
	if !ok {
		c.JSON(http.StatusNotFound, dtos.ErrorResponse{Error: "Role not found", Code: "RoleNotFound"})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxFormSize)

	var req dtos.JobApplicationRequest
	if err := c.ShouldBind(&req); err != nil {
		h.respondError(c, formError(err))
		return
	}
	req.Role = role.ID

	file, err := readResume(c, "resume")
	if err != nil && !errors.Is(err, http.ErrMissingFile) {
		h.respondError(c, err)
		return
	}

	id, err := h.SubmissionService.SubmitJobApplicationWithResume(c.Request.Context(), &req, file)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dtos.IDResponse{ID: id})
}

// readResume loads one multipart file into memory. It reads one byte past
// the limit so the service can still tell an oversized file apart.
func readResume(c *gin.Context, field string) (*models.ResumeFile, error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, err
		}
		return nil, formError(err)
	}

	f, err := header.Open()
	if err != nil {
		return nil, formError(err)
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, services.MaxResumeSize+1))
	if err != nil {
		return nil, formError(err)
	}

	return &models.ResumeFile{
		Name:        header.Filename,
		ContentType: contentType(header, content),
		Content:     content,
	}, nil
}

// contentType prefers the type the browser declared, falling back to sniffing
// the bytes when it sent none or a generic one.
func contentType(header *multipart.FileHeader, content []byte) string {
	declared := header.Header.Get("Content-Type")
	if mediaType, _, err := mime.ParseMediaType(declared); err == nil {
		declared = mediaType
	}
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if len(content) == 0 {
		return declared
	}
	detected, _, _ := strings.Cut(mimetype.Detect(content).String(), ";")
	return detected
}

// formError turns a multipart parsing failure into a submission error.
func formError(err error) error {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) || errors.Is(err, multipart.ErrMessageTooLarge) {
		return &services.SubmissionError{
			Kind:    services.KindFileTooLarge,
			Message: "File size exceeds 5MB limit. Please compress your resume.",
			Err:     err,
		}
	}
	return &services.SubmissionError{
		Kind:    services.KindInvalidFile,
		Message: "Could not read the uploaded form. Please try again.",
		Err:     err,
	}
}

func (h *SubmissionHandler) respondError(c *gin.Context, err error) {
	var se *services.SubmissionError
	if !errors.As(err, &se) {
		se = &services.SubmissionError{
			Kind:    services.KindSubmissionFailed,
			Message: "An unexpected error occurred. Please try again.",
			Err:     err,
		}
	}

	status := StatusForKind(se.Kind)
	log := middleware.Logger(c, h.Logger)
	if status >= http.StatusInternalServerError {
		log.Error("submission failed", zap.String("kind", string(se.Kind)), zap.Error(se.Err))
	} else {
		log.Info("submission rejected", zap.String("kind", string(se.Kind)))
	}

	_ = c.Error(err)
	c.JSON(status, dtos.ErrorResponse{
		Error:   se.Error(),
		Code:    string(se.Kind),
		BlobKey: se.BlobKey,
	})
}

// StatusForKind maps a submission error kind onto an HTTP status.
func StatusForKind(kind services.ErrorKind) int {
	switch kind {
	case services.KindMissingFields, services.KindInvalidEmail, services.KindEmptyAfterNormalization,
		services.KindInvalidFile, services.KindInvalidArgument:
		return http.StatusBadRequest
	case services.KindDuplicateEntry:
		return http.StatusConflict
	case services.KindFileTooLarge:
		return http.StatusRequestEntityTooLarge
	case services.KindUnsupportedFileType:
		return http.StatusUnsupportedMediaType
	case services.KindAccessDenied, services.KindPermissionDenied:
		return http.StatusForbidden
	case services.KindAuthRequired:
		return http.StatusUnauthorized
	case services.KindQuotaExceeded:
		return http.StatusTooManyRequests
	case services.KindCanceled:
		return http.StatusRequestTimeout
	case services.KindServiceUnavailable, services.KindTransportError:
		return http.StatusServiceUnavailable
	case services.KindSubmissionTimeout:
		return http.StatusGatewayTimeout
	case services.KindConfigurationError, services.KindStoreNotFound, services.KindPreconditionFailed:
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}
