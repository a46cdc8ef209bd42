package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/miniticker/internal/api/dto"
	"github.com/spec-kit/miniticker/internal/domain"
	"github.com/spec-kit/miniticker/internal/store"
	apperrors "github.com/spec-kit/miniticker/pkg/util/errorutil"
)

// CatalogHandler administers areas and request types.
type CatalogHandler struct {
	departments *store.DepartmentStore
}

// NewCatalogHandler constructs handler.
func NewCatalogHandler(departments *store.DepartmentStore) *CatalogHandler {
	return &CatalogHandler{departments: departments}
}

// ListAreas GET /catalog/areas.
func (h *CatalogHandler) ListAreas(c *fiber.Ctx) error {
	ctx := c.UserContext()
	areas, err := h.departments.Areas(ctx)
	kpis, _ := h.departments.KPIs(ctx)
	return view(c, fiber.Map{"areas": areas, "kpis": kpis}, err)
}

// ListTypes GET /catalog/areas/:id/tipos.
func (h *CatalogHandler) ListTypes(c *fiber.Ctx) error {
	h.departments.SelectArea(c.Params("id"))
	tipos, err := h.departments.Types(c.UserContext())
	return view(c, tipos, err)
}

// Managers GET /catalog/managers.
func (h *CatalogHandler) Managers(c *fiber.Ctx) error {
	opts, err := h.departments.ManagerOptions(c.UserContext())
	return view(c, opts, err)
}

// CreateArea POST /catalog/areas.
func (h *CatalogHandler) CreateArea(c *fiber.Ctx) error {
	in, err := parseArea(c)
	if err != nil {
		return err
	}
	area, err := h.departments.CreateArea(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": area})
}

// UpdateArea PUT /catalog/areas/:id.
func (h *CatalogHandler) UpdateArea(c *fiber.Ctx) error {
	in, err := parseArea(c)
	if err != nil {
		return err
	}
	area, err := h.departments.UpdateArea(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": area})
}

// DeleteArea DELETE /catalog/areas/:id.
func (h *CatalogHandler) DeleteArea(c *fiber.Ctx) error {
	if err := h.departments.DeleteArea(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RemoveResponsible DELETE /catalog/areas/:id/responsable/:userId.
func (h *CatalogHandler) RemoveResponsible(c *fiber.Ctx) error {
	if err := h.departments.RemoveResponsible(c.UserContext(), c.Params("id"), c.Params("userId")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CreateTipo POST /catalog/tipos.
func (h *CatalogHandler) CreateTipo(c *fiber.Ctx) error {
	var req dto.TipoRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.AreaID == "" || strings.TrimSpace(req.Nombre) == "" {
		return apperrors.NewValidationError("areaId and nombre required", nil)
	}
	tipo, err := h.departments.CreateTipo(c.UserContext(), domain.TipoSolicitudInput{AreaID: req.AreaID, Nombre: req.Nombre})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": tipo})
}

// DeleteTipo DELETE /catalog/tipos/:id.
func (h *CatalogHandler) DeleteTipo(c *fiber.Ctx) error {
	if err := h.departments.DeleteTipo(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ToggleTipo PATCH /catalog/tipos/:id/active.
func (h *CatalogHandler) ToggleTipo(c *fiber.Ctx) error {
	var req dto.ToggleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.departments.ToggleTipo(c.UserContext(), c.Params("id"), req.Activo); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func parseArea(c *fiber.Ctx) (domain.AreaInput, error) {
	var req dto.AreaRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.AreaInput{}, apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Nombre) == "" || strings.TrimSpace(req.Prefijo) == "" {
		return domain.AreaInput{}, apperrors.NewValidationError("nombre and prefijo required", nil)
	}
	in := domain.AreaInput{Nombre: req.Nombre, Prefijo: req.Prefijo, Activo: req.Activo}
	if req.ResponsableID != "" {
		in.ResponsableID = &req.ResponsableID
	}
	return in, nil
}
