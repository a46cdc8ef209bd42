package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/miniticker/internal/api/dto"
	"github.com/spec-kit/miniticker/internal/domain"
	"github.com/spec-kit/miniticker/internal/service"
	"github.com/spec-kit/miniticker/internal/store"
	apperrors "github.com/spec-kit/miniticker/pkg/util/errorutil"
)

// UsersHandler administers user accounts.
type UsersHandler struct {
	users *store.UserStore
}

// NewUsersHandler constructs handler.
func NewUsersHandler(users *store.UserStore) *UsersHandler {
	return &UsersHandler{users: users}
}

// List GET /users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	var q dto.UserListQuery
	if err := c.QueryParser(&q); err != nil {
		return apperrors.NewValidationError("invalid query", nil)
	}
	h.users.SetFilters(store.UserFilters{Search: q.Search, Role: q.Role, Status: store.StatusFilter(q.Status)})
	v := h.users.Load(c.UserContext())
	return view(c, v, v.Err)
}

// Create POST /users.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	in, err := parseUser(c)
	if err != nil {
		return err
	}
	user, err := h.users.AddUser(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": user})
}

// Update PUT /users/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	in, err := parseUser(c)
	if err != nil {
		return err
	}
	user, err := h.users.UpdateUser(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": user})
}

// ToggleStatus PATCH /users/:id/active.
func (h *UsersHandler) ToggleStatus(c *fiber.Ctx) error {
	var req dto.ToggleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.users.ToggleStatus(c.UserContext(), c.Params("id"), req.Activo); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func parseUser(c *fiber.Ctx) (service.UserInput, error) {
	var req dto.UserRequest
	if err := c.BodyParser(&req); err != nil {
		return service.UserInput{}, apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Nombre) == "" {
		return service.UserInput{}, apperrors.NewValidationError("nombre required", nil)
	}
	rol := domain.Role(req.Rol)
	if rol == "" {
		rol = domain.RoleSolicitante
	}
	return service.UserInput{
		Nombre:   req.Nombre,
		Email:    req.Email,
		Rol:      rol,
		AreaID:   req.AreaID,
		Password: req.Password,
	}, nil
}
