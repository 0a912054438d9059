package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-sync/internal/models"
	"github.com/noah-isme/sma-timetable-sync/internal/service"
	appErrors "github.com/noah-isme/sma-timetable-sync/pkg/errors"
	"github.com/noah-isme/sma-timetable-sync/pkg/response"
)

type personnelService interface {
	FindByCode(ctx context.Context, code string) (*models.PersonnelIdentity, error)
	SearchByNameOrCode(ctx context.Context, query string) ([]models.PersonnelIdentity, error)
}

// personnelRegistrar writes directory records together with the schedule copies they label.
type personnelRegistrar interface {
	RegisterPersonnel(ctx context.Context, req service.RegisterPersonnelRequest) (*models.PersonnelIdentity, error)
}

// PersonnelHandler exposes the personnel directory.
type PersonnelHandler struct {
	service   personnelService
	registrar personnelRegistrar
}

// NewPersonnelHandler constructs handler.
func NewPersonnelHandler(svc personnelService, registrar personnelRegistrar) *PersonnelHandler {
	return &PersonnelHandler{service: svc, registrar: registrar}
}

// Search godoc
// @Summary Search personnel by name or code
// @Tags Personnel
// @Produce json
// @Param q query string false "Name or code fragment"
// @Success 200 {object} response.Envelope
// @Router /personnel [get]
func (h *PersonnelHandler) Search(c *gin.Context) {
	items, err := h.service.SearchByNameOrCode(c.Request.Context(), c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"total": len(items)})
}

// Get godoc
// @Summary Get personnel by code
// @Tags Personnel
// @Produce json
// @Param code path string true "Personnel code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /personnel/{code} [get]
func (h *PersonnelHandler) Get(c *gin.Context) {
	identity, err := h.service.FindByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if identity == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "personnel not found"))
		return
	}
	response.JSON(c, http.StatusOK, identity)
}

// Register godoc
// @Summary Register or update personnel
// @Tags Personnel
// @Accept json
// @Produce json
// @Param payload body service.RegisterPersonnelRequest true "Personnel payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /personnel [post]
func (h *PersonnelHandler) Register(c *gin.Context) {
	var req service.RegisterPersonnelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	identity, err := h.registrar.RegisterPersonnel(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, identity)
}
