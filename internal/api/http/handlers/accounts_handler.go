package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-issue-service/internal/api/dto"
	"github.com/spec-kit/civic-issue-service/internal/service"
)

// AccountsHandler exposes auth endpoints for citizens and operators.
type AccountsHandler struct {
	auth *service.AuthService
}

// NewAccountsHandler constructs handler.
func NewAccountsHandler(authService *service.AuthService) *AccountsHandler {
	return &AccountsHandler{auth: authService}
}

// RegisterCitizen handles POST /auth/citizens/register.
func (h *AccountsHandler) RegisterCitizen(c *fiber.Ctx) error {
	var req dto.CitizenRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return fiber.NewError(http.StatusBadRequest, "name, email, password required")
	}

	citizen, token, exp, err := h.auth.RegisterCitizen(c.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"citizen": fiber.Map{
				"id":    citizen.ID,
				"name":  citizen.Name,
				"email": citizen.Email,
			},
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// LoginCitizen handles POST /auth/citizens/login.
func (h *AccountsHandler) LoginCitizen(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "email and password required")
	}

	citizen, token, exp, err := h.auth.LoginCitizen(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"citizen": fiber.Map{
				"id":    citizen.ID,
				"name":  citizen.Name,
				"email": citizen.Email,
			},
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// LoginOperator handles POST /auth/operators/login.
func (h *AccountsHandler) LoginOperator(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "email and password required")
	}

	operator, token, exp, err := h.auth.LoginOperator(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"operator": fiber.Map{
				"id":           operator.ID,
				"name":         operator.Name,
				"email":        operator.Email,
				"role":         operator.Role,
				"authority_id": operator.AuthorityID,
			},
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}
