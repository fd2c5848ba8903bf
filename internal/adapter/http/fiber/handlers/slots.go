package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/seu-repo/upark/internal/domain"
	"github.com/seu-repo/upark/internal/ports"
)

type SlotHandler struct {
	reconciler ports.Reconciler
}

func NewSlotHandler(reconciler ports.Reconciler) *SlotHandler {
	return &SlotHandler{reconciler: reconciler}
}

// RegisterRoutes registers the public slot routes
func (h *SlotHandler) RegisterRoutes(app *fiber.App) {
	app.Get("/api/v1/slots", h.GetSlots)
	app.Get("/api/v1/slots/:number", h.GetSlot)
}

// GetSlots handles GET /api/v1/slots
func (h *SlotHandler) GetSlots(c *fiber.Ctx) error {
	slots, err := h.reconciler.Snapshot(c.Context())
	if err != nil {
		return err
	}

	slotType := c.Query("type")
	onlyFree := c.QueryBool("available", false)

	filtered := make([]domain.Slot, 0, len(slots))
	for _, slot := range slots {
		if onlyFree && (slot.IsOccupied || slot.IsReserved) {
			continue
		}
		if slotType != "" && slot.SlotType != domain.SlotTypeBoth && string(slot.SlotType) != slotType {
			continue
		}
		filtered = append(filtered, slot)
	}

	return c.JSON(fiber.Map{
		"slots": filtered,
		"total": len(slots),
	})
}

// GetSlot handles GET /api/v1/slots/:number
func (h *SlotHandler) GetSlot(c *fiber.Ctx) error {
	number, err := c.ParamsInt("number")
	if err != nil || number <= 0 {
		return domain.ErrValidation("invalid slot number")
	}

	slots, err := h.reconciler.Snapshot(c.Context())
	if err != nil {
		return err
	}

	for _, slot := range slots {
		if slot.SlotNumber == number {
			return c.JSON(slot)
		}
	}

	return domain.ErrNotFound("slot %d not found", number)
}
