package doctor

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/doctor-directory-api/internal/model"
	doctorService "github.com/jwalitptl/doctor-directory-api/internal/service/doctor"
	"github.com/jwalitptl/doctor-directory-api/pkg/errors"
	"github.com/jwalitptl/doctor-directory-api/pkg/httputil"
)

type Handler struct {
	service doctorService.Servicer
}

func NewHandler(service doctorService.Servicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	doctors := r.Group("/doctors")
	{
		doctors.GET("", h.ListDoctors)
		doctors.GET("/top", h.TopDoctors)
		doctors.GET("/cities", h.Cities)
		doctors.GET("/specializations", h.Specializations)
		doctors.GET("/search", h.Search)
		doctors.GET("/:id", h.GetDoctor)
	}
}

func (h *Handler) ListDoctors(c *gin.Context) {
	doctors, err := h.service.ListDoctors(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithList(c, doctors)
}

func (h *Handler) TopDoctors(c *gin.Context) {
	doctors, err := h.service.TopDoctors(c.Request.Context(), c.Query("limit"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithList(c, doctors)
}

func (h *Handler) Cities(c *gin.Context) {
	cities, err := h.service.Cities(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithList(c, cities)
}

func (h *Handler) Specializations(c *gin.Context) {
	specs, err := h.service.Specializations(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithList(c, specs)
}

func (h *Handler) Search(c *gin.Context) {
	var params doctorService.SearchParams
	if err := c.ShouldBindQuery(&params); err != nil {
		httputil.RespondWithError(c, errors.NewBadRequest("Invalid query parameters", err))
		return
	}

	result, err := h.service.Search(c.Request.Context(), params)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	doctors := result.Doctors
	if doctors == nil {
		doctors = []*model.Doctor{}
	}
	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{
		"count":      len(doctors),
		"pagination": result.PageInfo,
		"filters":    result.Query.Filters,
		"sorting": gin.H{
			"sortBy": result.Query.Sort.Field.Column(),
			"order":  result.Query.Sort.Order.SQL(),
		},
		"data": doctors,
	})
}

func (h *Handler) GetDoctor(c *gin.Context) {
	doctor, err := h.service.GetDoctor(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{"data": doctor})
}
