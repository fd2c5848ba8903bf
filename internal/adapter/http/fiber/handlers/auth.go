package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/upark/internal/domain"
	"github.com/seu-repo/upark/internal/ports"
)

type AuthHandler struct {
	service ports.AuthService
	log     *zap.Logger
}

func NewAuthHandler(service ports.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		log:     log,
	}
}

// RegisterRoutes registers auth routes
func (h *AuthHandler) RegisterRoutes(app *fiber.App, authMiddleware fiber.Handler) {
	auth := app.Group("/api/v1/auth")

	auth.Post("/otp/request", h.RequestOTP)
	auth.Post("/otp/verify", h.VerifyOTP)
	auth.Get("/check", h.CheckPhone)
	auth.Get("/me", authMiddleware, h.Me)
	auth.Put("/vehicles", authMiddleware, h.UpdateVehicles)
}

type OTPRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// RequestOTP handles POST /api/v1/auth/otp/request
func (h *AuthHandler) RequestOTP(c *fiber.Ctx) error {
	var req OTPRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrValidation("invalid request body")
	}

	challenge, err := h.service.RequestOTP(c.Context(), req.Name, req.Phone, req.Email)
	if err != nil {
		return err
	}

	return c.JSON(challenge)
}

type OTPVerifyRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// VerifyOTP handles POST /api/v1/auth/otp/verify
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req OTPVerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrValidation("invalid request body")
	}

	session, err := h.service.VerifyOTP(c.Context(), req.Phone, req.Code)
	if err != nil {
		h.log.Warn("OTP verification failed", zap.String("phone", req.Phone), zap.Error(err))
		return err
	}

	return c.JSON(session)
}

// CheckPhone handles GET /api/v1/auth/check
func (h *AuthHandler) CheckPhone(c *fiber.Ctx) error {
	phone := c.Query("phone")

	user, err := h.service.CheckPhone(c.Context(), phone)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"registered": user != nil,
	})
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user := c.Locals("user")
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not authenticated"})
	}
	return c.JSON(user)
}

type UpdateVehiclesRequest struct {
	Vehicles []domain.Vehicle `json:"vehicles"`
}

// UpdateVehicles handles PUT /api/v1/auth/vehicles
func (h *AuthHandler) UpdateVehicles(c *fiber.Ctx) error {
	phone := c.Locals("phone").(string)

	var req UpdateVehiclesRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrValidation("invalid request body")
	}

	user, err := h.service.UpdateVehicles(c.Context(), phone, req.Vehicles)
	if err != nil {
		return err
	}

	return c.JSON(user)
}
