package admin

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/seu-repo/upark/internal/domain"
	"github.com/seu-repo/upark/internal/ports"
)

// Handler handles admin HTTP requests
type Handler struct {
	service    ports.AdminService
	reconciler ports.Reconciler
}

// NewHandler creates a new admin handler
func NewHandler(service ports.AdminService, reconciler ports.Reconciler) *Handler {
	return &Handler{service: service, reconciler: reconciler}
}

// RegisterRoutes registers admin routes
func (h *Handler) RegisterRoutes(app *fiber.App, authMiddleware, adminMiddleware fiber.Handler) {
	admin := app.Group("/api/v1/admin", authMiddleware, adminMiddleware)

	admin.Get("/dashboard", h.GetDashboard)
	admin.Get("/slots", h.GetSlots)
	admin.Post("/slots/:number/override", h.OverrideSlot)
	admin.Post("/gates/:gate", h.ControlGate)
	admin.Post("/vehicle", h.SimulateVehicle)
}

// GetDashboard handles GET /api/v1/admin/dashboard
func (h *Handler) GetDashboard(c *fiber.Ctx) error {
	stats, err := h.service.Dashboard(c.Context())
	if err != nil {
		return err
	}

	return c.JSON(stats)
}

// GetSlots handles GET /api/v1/admin/slots
func (h *Handler) GetSlots(c *fiber.Ctx) error {
	slots, err := h.reconciler.Snapshot(c.Context())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"slots": slots,
	})
}

// OverrideSlot handles POST /api/v1/admin/slots/:number/override
func (h *Handler) OverrideSlot(c *fiber.Ctx) error {
	number, err := c.ParamsInt("number")
	if err != nil || number <= 0 {
		return domain.ErrValidation("invalid slot number")
	}

	var body struct {
		State string `json:"state"`
	}
	if err := c.BodyParser(&body); err != nil {
		return domain.ErrValidation("invalid request body")
	}

	change, err := h.service.OverrideSlot(c.Context(), number, domain.SlotState(body.State))
	if err != nil {
		return err
	}

	if change == nil {
		return c.JSON(fiber.Map{
			"message": "Slot already in requested state",
		})
	}
	return c.JSON(change)
}

// ControlGate handles POST /api/v1/admin/gates/:gate
func (h *Handler) ControlGate(c *fiber.Ctx) error {
	gate := domain.Gate(strings.ToUpper(c.Params("gate")))

	var body struct {
		Action string `json:"action"`
	}
	if err := c.BodyParser(&body); err != nil {
		return domain.ErrValidation("invalid request body")
	}
	action := domain.GateAction(strings.ToUpper(strings.TrimSpace(body.Action)))

	if err := h.service.ControlGate(c.Context(), gate, action); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"gate":   gate,
		"action": action,
	})
}

// SimulateVehicle handles POST /api/v1/admin/vehicle
func (h *Handler) SimulateVehicle(c *fiber.Ctx) error {
	var body struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&body); err != nil {
		return domain.ErrValidation("invalid request body")
	}

	if err := h.service.SimulateVehicle(c.Context(), body.Status); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"status": strings.ToUpper(strings.TrimSpace(body.Status)),
	})
}

// AdminMiddleware checks if the caller holds the admin role
func AdminMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Locals("role") != "admin" {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Admin access required",
			})
		}
		return c.Next()
	}
}
