package reports

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"annotation-stats/internal/export"
	"annotation-stats/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc      *Service
	Exporter *export.Exporter
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, exporter *export.Exporter) *Handler {
	return &Handler{Svc: svc, Exporter: exporter}
}

// RegisterRoutes attaches report routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/projects/:projectId/reports/:kind", h.get)
	rg.GET("/projects/:projectId/reports/:kind/export", h.download)
	rg.POST("/projects/:projectId/reports/:kind/deliveries", h.deliver)
	rg.GET("/projects/:projectId/members/:memberId/disagreement-rate", h.memberRate)
}

func (h *Handler) get(c *gin.Context) {
	built, ok := h.build(c)
	if !ok {
		return
	}
	respond.OK(c, built)
}

func (h *Handler) download(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}
	built, ok := h.build(c)
	if !ok {
		return
	}
	file, err := built.Render(format)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to render report", nil)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.MIMEType, file.Content)
}

func (h *Handler) deliver(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}
	built, ok := h.build(c)
	if !ok {
		return
	}
	file, err := built.Render(format)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to render report", nil)
		return
	}
	delivery, err := h.Exporter.Export(c.Request.Context(), format, file)
	if err != nil {
		switch {
		case errors.Is(err, export.ErrSinkNotConfigured):
			respond.Error(c, http.StatusServiceUnavailable, "sink_unavailable", "export delivery is not configured", nil)
		default:
			respond.Error(c, http.StatusBadGateway, "delivery_failed", "failed to deliver export", nil)
		}
		return
	}
	respond.JSON(c, http.StatusCreated, delivery)
}

func (h *Handler) memberRate(c *gin.Context) {
	projectID, err := parseProjectID(c.Param("projectId"))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}
	filters, err := filtersFromQuery(c)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}
	c.Set("projectId", projectID)

	result, err := h.Svc.AnnotatorDisagreementRate(c.Request.Context(), projectID, ParseMemberToken(c.Param("memberId")), filters)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.OK(c, result)
}

func (h *Handler) build(c *gin.Context) (Built, bool) {
	projectID, err := parseProjectID(c.Param("projectId"))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return nil, false
	}
	kind, err := ParseKind(c.Param("kind"))
	if err != nil {
		respond.Error(c, http.StatusNotFound, "not_found", err.Error(), nil)
		return nil, false
	}
	filters, err := filtersFromQuery(c)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return nil, false
	}
	c.Set("projectId", projectID)
	c.Set("reportKind", string(kind))

	built, err := h.Svc.Build(c.Request.Context(), kind, projectID, filters)
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return built, true
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrUnknownReport):
		respond.Error(c, http.StatusNotFound, "not_found", err.Error(), nil)
	default:
		respond.Error(c, http.StatusBadGateway, "upstream_error", "failed to fetch annotation data", nil)
	}
}
