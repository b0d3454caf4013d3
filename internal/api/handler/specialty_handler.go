package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/proyectoveris/clinic-api/internal/core/ports"
)

type SpecialtyHandler struct {
	service ports.SpecialtyService
}

func NewSpecialtyHandler(service ports.SpecialtyService) *SpecialtyHandler {
	return &SpecialtyHandler{service: service}
}

// List returns the specialty catalogue.
//
// @Summary      List specialties
// @Tags         specialties
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  listSpecialtiesResponse
// @Router       /api/specialties [get]
func (h *SpecialtyHandler) List(c echo.Context) error {
	specialties, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	resp := listSpecialtiesResponse{Specialties: make([]specialtyResponse, 0, len(specialties))}
	for _, s := range specialties {
		resp.Specialties = append(resp.Specialties, toSpecialtyResponse(s))
	}
	return c.JSON(http.StatusOK, resp)
}

// Create adds a specialty.
//
// @Summary      Create specialty
// @Tags         specialties
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createSpecialtyRequest  true  "Specialty"
// @Success      201   {object}  specialtyResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /api/specialties [post]
func (h *SpecialtyHandler) Create(c echo.Context) error {
	var req createSpecialtyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	s, err := h.service.Create(c.Request().Context(), req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toSpecialtyResponse(*s))
}
