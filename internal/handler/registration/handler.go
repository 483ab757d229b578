package registration

import (
	stderrors "errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	registrationService "github.com/jwalitptl/doctor-directory-api/internal/service/registration"
	"github.com/jwalitptl/doctor-directory-api/internal/storage"
	"github.com/jwalitptl/doctor-directory-api/pkg/errors"
	"github.com/jwalitptl/doctor-directory-api/pkg/httputil"
)

// ImageSaver stores an uploaded image and returns its public relative path.
type ImageSaver interface {
	Save(filename string, r io.Reader) (string, error)
	MaxBytes() int64
}

type Handler struct {
	service      registrationService.Servicer
	images       ImageSaver
	statsEnabled bool
}

func NewHandler(service registrationService.Servicer, images ImageSaver, statsEnabled bool) *Handler {
	return &Handler{
		service:      service,
		images:       images,
		statsEnabled: statsEnabled,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	register := r.Group("/register")
	{
		register.POST("/step1", h.Step1)
		register.POST("/upload-image", h.UploadImage)
		register.POST("/step2", h.Step2)
		register.GET("/temp/:tempId", h.GetTemp)
		register.DELETE("/temp/:tempId", h.CancelTemp)
		if h.statsEnabled {
			register.GET("/stats", h.Stats)
		}
	}
}

func (h *Handler) Step1(c *gin.Context) {
	var form registrationService.Step1Form
	if err := c.ShouldBind(&form); err != nil {
		httputil.RespondWithError(c, errors.NewBadRequest("Invalid request body", err))
		return
	}

	sess, err := h.service.Start(c.Request.Context(), form)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{
		"message": "Step 1 completed successfully",
		"tempId":  sess.TempID,
		"data":    sess.Step1,
	})
}

func (h *Handler) UploadImage(c *gin.Context) {
	header, err := c.FormFile("image")
	if err != nil {
		httputil.RespondWithError(c, errors.NewBadRequest("No image file provided", err))
		return
	}
	if header.Size > h.images.MaxBytes() {
		httputil.RespondWithError(c, errors.NewBadRequest(tooLargeMessage(h.images.MaxBytes()), storage.ErrTooLarge))
		return
	}

	file, err := header.Open()
	if err != nil {
		httputil.RespondWithError(c, errors.NewInternalWithMessage("Image upload failed", err))
		return
	}
	defer file.Close()

	path, err := h.images.Save(header.Filename, file)
	switch {
	case stderrors.Is(err, storage.ErrUnsupportedType):
		httputil.RespondWithError(c, errors.NewBadRequest("Only image files are allowed (jpeg, jpg, png, gif, webp)", err))
		return
	case stderrors.Is(err, storage.ErrTooLarge):
		httputil.RespondWithError(c, errors.NewBadRequest(tooLargeMessage(h.images.MaxBytes()), err))
		return
	case err != nil:
		httputil.RespondWithError(c, errors.NewInternalWithMessage("Image upload failed", err))
		return
	}

	attached, err := h.service.AttachImage(c.Request.Context(), c.PostForm("tempId"), path)
	if err != nil {
		// the file is stored; the client can still send it as image_url
		log.Error().Err(err).Str("image_path", path).Msg("failed to attach image to registration session")
	}

	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{
		"message":   "Image uploaded successfully",
		"imagePath": path,
		"attached":  attached,
	})
}

func tooLargeMessage(max int64) string {
	return fmt.Sprintf("File too large. Maximum size is %dMB", max>>20)
}

func (h *Handler) Step2(c *gin.Context) {
	var form registrationService.Step2Form
	if err := c.ShouldBind(&form); err != nil {
		httputil.RespondWithError(c, errors.NewBadRequest("Invalid request body", err))
		return
	}

	doctor, err := h.service.Complete(c.Request.Context(), form)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, gin.H{
		"message": "Registration completed successfully",
		"data":    doctor,
	})
}

func (h *Handler) GetTemp(c *gin.Context) {
	sess, err := h.service.Get(c.Request.Context(), c.Param("tempId"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{
		"data":      sess.Step1,
		"expiresIn": h.service.ExpiresIn(sess),
	})
}

func (h *Handler) CancelTemp(c *gin.Context) {
	if err := h.service.Cancel(c.Request.Context(), c.Param("tempId")); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{"message": "Registration cancelled successfully"})
}

func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{
		"activeRegistrations": stats.ActiveRegistrations,
		"registrations":       stats.Registrations,
	})
}
