package reservation

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/seu-repo/upark/internal/domain"
	"github.com/seu-repo/upark/internal/ports"
)

// Handler handles reservation HTTP requests
type Handler struct {
	service ports.ReservationService
}

// NewHandler creates a new reservation handler
func NewHandler(service ports.ReservationService) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers reservation routes
func (h *Handler) RegisterRoutes(app *fiber.App, authMiddleware fiber.Handler) {
	reservations := app.Group("/api/v1/reservations", authMiddleware)

	reservations.Post("/", h.CreateReservation)
	reservations.Get("/", h.GetUserReservations)
	reservations.Post("/:id/payment", h.ProcessPayment)
	reservations.Delete("/:id", h.CancelReservation)

	app.Get("/api/v1/fees/quote", h.QuoteFee)
	app.Get("/api/v1/profile", authMiddleware, h.GetProfile)
}

// CreateReservationRequest represents the request body
type CreateReservationRequest struct {
	SlotNumber   int    `json:"slotNumber"`
	VehiclePlate string `json:"vehicleNumberPlate"`
	VehicleType  string `json:"vehicleType"`
	Duration     int    `json:"duration"`
	DurationUnit string `json:"durationUnit"`
	BookingStart string `json:"bookingStart"`
}

// CreateReservation handles POST /api/v1/reservations
func (h *Handler) CreateReservation(c *fiber.Ctx) error {
	phone := c.Locals("phone").(string)

	var req CreateReservationRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrValidation("invalid request body")
	}

	var start time.Time
	if req.BookingStart != "" {
		parsed, err := time.Parse(time.RFC3339, req.BookingStart)
		if err != nil {
			return domain.ErrValidation("invalid bookingStart: use RFC3339")
		}
		start = parsed
	}

	res, err := h.service.Create(c.Context(), &ports.CreateReservationRequest{
		Phone:        phone,
		SlotNumber:   req.SlotNumber,
		VehiclePlate: req.VehiclePlate,
		VehicleType:  domain.VehicleType(req.VehicleType),
		Duration:     req.Duration,
		DurationUnit: domain.DurationUnit(req.DurationUnit),
		BookingStart: start,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(res)
}

// GetUserReservations handles GET /api/v1/reservations
func (h *Handler) GetUserReservations(c *fiber.Ctx) error {
	phone := c.Locals("phone").(string)

	reservations, err := h.service.ListByUser(c.Context(), phone)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"reservations": reservations,
	})
}

// ProcessPayment handles POST /api/v1/reservations/:id/payment
func (h *Handler) ProcessPayment(c *fiber.Ctx) error {
	phone := c.Locals("phone").(string)

	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return domain.ErrValidation("invalid reservation id")
	}

	res, err := h.service.ProcessPayment(c.Context(), id, phone)
	if err != nil {
		return err
	}

	return c.JSON(res)
}

// CancelReservation handles DELETE /api/v1/reservations/:id
func (h *Handler) CancelReservation(c *fiber.Ctx) error {
	phone := c.Locals("phone").(string)

	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return domain.ErrValidation("invalid reservation id")
	}

	if err := h.service.Cancel(c.Context(), id, phone); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "Reservation cancelled successfully",
	})
}

// QuoteFee handles GET /api/v1/fees/quote
func (h *Handler) QuoteFee(c *fiber.Ctx) error {
	vehicleType := domain.VehicleType(c.Query("vehicleType"))
	duration := c.QueryInt("duration", 1)
	unit := domain.DurationUnit(c.Query("durationUnit", string(domain.DurationHourly)))

	fee, err := h.service.CalculateFee(vehicleType, duration, unit)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"vehicleType":  vehicleType,
		"duration":     duration,
		"durationUnit": unit,
		"amount":       fee,
	})
}

// GetProfile handles GET /api/v1/profile
func (h *Handler) GetProfile(c *fiber.Ctx) error {
	phone := c.Locals("phone").(string)

	profile, err := h.service.GetProfile(c.Context(), phone)
	if err != nil {
		return err
	}

	return c.JSON(profile)
}
