package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/upark/internal/adapter/http/fiber/handlers"
	"github.com/seu-repo/upark/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/upark/internal/domain"
	"github.com/seu-repo/upark/internal/mocks"
	"github.com/seu-repo/upark/internal/service/admin"
	"github.com/seu-repo/upark/internal/service/auth"
	"github.com/seu-repo/upark/internal/service/notification"
	"github.com/seu-repo/upark/internal/service/reconcile"
	"github.com/seu-repo/upark/internal/service/reservation"
)

const adminPhone = "+919999999999"

// testBackend wires the real HTTP surface over in-memory state, so request
// handling, auth, error mapping and the reconciler run exactly as in
// production with only the stores replaced.
type testBackend struct {
	app *fiber.App
	mq  *mocks.MockMessageQueue
}

func setupTestApp(t *testing.T) *testBackend {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	// In-memory slot store with the production compare-and-set semantics.
	var slotMu sync.Mutex
	slotState := map[int]*domain.Slot{}
	for n := 1; n <= 4; n++ {
		slotType := domain.SlotTypeTwoWheeler
		if n%2 == 0 {
			slotType = domain.SlotTypeFourWheeler
		}
		slotState[n] = &domain.Slot{SlotNumber: n, SlotType: slotType}
	}
	slots := &mocks.MockSlotRepository{
		FindByNumberFunc: func(ctx context.Context, slotNumber int) (*domain.Slot, error) {
			slotMu.Lock()
			defer slotMu.Unlock()
			slot, ok := slotState[slotNumber]
			if !ok {
				return nil, nil
			}
			copied := *slot
			return &copied, nil
		},
		FindAllFunc: func(ctx context.Context) ([]domain.Slot, error) {
			slotMu.Lock()
			defer slotMu.Unlock()
			out := make([]domain.Slot, 0, len(slotState))
			for n := 1; n <= len(slotState); n++ {
				out = append(out, *slotState[n])
			}
			return out, nil
		},
		SaveFunc: func(ctx context.Context, slot *domain.Slot) error {
			slotMu.Lock()
			defer slotMu.Unlock()
			copied := *slot
			slotState[slot.SlotNumber] = &copied
			return nil
		},
		ReserveIfFreeFunc: func(ctx context.Context, slotNumber int, phone, plate string) (bool, error) {
			slotMu.Lock()
			defer slotMu.Unlock()
			slot, ok := slotState[slotNumber]
			if !ok || slot.IsReserved || slot.IsOccupied {
				return false, nil
			}
			slot.IsReserved = true
			slot.Pinned = false
			slot.ReservedBy = phone
			slot.VehiclePlate = plate
			return true, nil
		},
		ReservedNumbersFunc: func(ctx context.Context) ([]int, error) {
			slotMu.Lock()
			defer slotMu.Unlock()
			var out []int
			for n, slot := range slotState {
				if slot.IsReserved {
					out = append(out, n)
				}
			}
			return out, nil
		},
	}

	// In-memory users and vehicles.
	var userMu sync.Mutex
	userState := map[string]*domain.User{}
	vehicleState := map[string]*domain.Vehicle{}
	users := &mocks.MockUserRepository{
		SaveFunc: func(ctx context.Context, user *domain.User) error {
			userMu.Lock()
			defer userMu.Unlock()
			copied := *user
			userState[user.Phone] = &copied
			return nil
		},
		FindByPhoneFunc: func(ctx context.Context, phone string) (*domain.User, error) {
			userMu.Lock()
			defer userMu.Unlock()
			user, ok := userState[phone]
			if !ok {
				return nil, nil
			}
			copied := *user
			return &copied, nil
		},
		FindVehicleFunc: func(ctx context.Context, plate string) (*domain.Vehicle, error) {
			userMu.Lock()
			defer userMu.Unlock()
			vehicle, ok := vehicleState[plate]
			if !ok {
				return nil, nil
			}
			copied := *vehicle
			return &copied, nil
		},
		ReplaceVehiclesFunc: func(ctx context.Context, phone string, vehicles []domain.Vehicle) error {
			userMu.Lock()
			defer userMu.Unlock()
			for plate, vehicle := range vehicleState {
				if vehicle.OwnerPhone == phone {
					delete(vehicleState, plate)
				}
			}
			for i := range vehicles {
				copied := vehicles[i]
				vehicleState[copied.NumberPlate] = &copied
			}
			return nil
		},
	}

	// In-memory reservations.
	var resMu sync.Mutex
	var nextID int64
	resState := map[int64]*domain.Reservation{}
	reservations := &mocks.MockReservationRepository{
		CreateFunc: func(ctx context.Context, r *domain.Reservation) error {
			resMu.Lock()
			defer resMu.Unlock()
			nextID++
			r.ID = nextID
			copied := *r
			resState[r.ID] = &copied
			return nil
		},
		FindByIDFunc: func(ctx context.Context, id int64) (*domain.Reservation, error) {
			resMu.Lock()
			defer resMu.Unlock()
			r, ok := resState[id]
			if !ok {
				return nil, nil
			}
			copied := *r
			return &copied, nil
		},
		FindHoldingFunc: func(ctx context.Context, phone string) (*domain.Reservation, error) {
			resMu.Lock()
			defer resMu.Unlock()
			for _, r := range resState {
				if r.UserPhone == phone && r.HoldsSlot() {
					copied := *r
					return &copied, nil
				}
			}
			return nil, nil
		},
		FindByUserFunc: func(ctx context.Context, phone string) ([]domain.Reservation, error) {
			resMu.Lock()
			defer resMu.Unlock()
			var out []domain.Reservation
			for _, r := range resState {
				if r.UserPhone == phone {
					out = append(out, *r)
				}
			}
			return out, nil
		},
		UpdateFunc: func(ctx context.Context, r *domain.Reservation) error {
			resMu.Lock()
			defer resMu.Unlock()
			copied := *r
			resState[r.ID] = &copied
			return nil
		},
	}

	mq := mocks.NewMockMessageQueue()
	fanout := notification.NewFanout(&mocks.MockLivePublisher{}, mq, slots, notification.Topics{
		ReservationStatus: "upark.reservation.status",
		AdminOverride:     "upark.admin.override",
		GateControl:       "upark.gate.control",
		EntryGateControl:  "upark.gate.entry.control",
		ExitGateControl:   "upark.gate.exit.control",
		VehicleStatus:     "upark.vehicle.status",
	}, logger)
	reconciler := reconcile.NewService(slots, fanout, logger)

	authService := auth.NewService(users, mocks.NewMockCache(), nil, "integration-secret", []string{adminPhone}, logger)
	reservationService := reservation.NewService(reservations, slots, users, &mocks.MockProfileRepository{}, reconciler, &mocks.MockPaymentGateway{}, &mocks.MockReceiptSender{}, logger)
	adminService := admin.NewService(reconciler, fanout, logger)

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(logger)})
	authRequired := middleware.AuthRequired(authService)

	handlers.NewAuthHandler(authService, logger).RegisterRoutes(app, authRequired)
	handlers.NewSlotHandler(reconciler).RegisterRoutes(app)
	reservation.NewHandler(reservationService).RegisterRoutes(app, authRequired)
	admin.NewHandler(adminService, reconciler).RegisterRoutes(app, authRequired, admin.AdminMiddleware())

	return &testBackend{app: app, mq: mq}
}

func (b *testBackend) request(t *testing.T, method, path, token string, payload interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("Failed to encode payload: %v", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := b.app.Test(req, -1)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}

	var decoded map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&decoded)
	resp.Body.Close()
	return resp, decoded
}

// login runs the OTP flow for a phone and returns a session token.
func (b *testBackend) login(t *testing.T, name, phone string) string {
	t.Helper()

	resp, challenge := b.request(t, http.MethodPost, "/api/v1/auth/otp/request", "", map[string]string{
		"name":  name,
		"phone": phone,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("OTP request failed with status %d", resp.StatusCode)
	}
	code, _ := challenge["devCode"].(string)
	if code == "" {
		t.Fatal("Expected dev code without an SMS provider")
	}

	resp, session := b.request(t, http.MethodPost, "/api/v1/auth/otp/verify", "", map[string]string{
		"phone": phone,
		"code":  code,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("OTP verify failed with status %d", resp.StatusCode)
	}
	token, _ := session["token"].(string)
	if token == "" {
		t.Fatal("Expected session token")
	}
	return token
}

func (b *testBackend) registerVehicle(t *testing.T, token, plate, vehicleType string) {
	t.Helper()
	resp, _ := b.request(t, http.MethodPut, "/api/v1/auth/vehicles", token, map[string]interface{}{
		"vehicles": []map[string]string{{"numberPlate": plate, "type": vehicleType}},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Vehicle registration failed with status %d", resp.StatusCode)
	}
}

// TestAPI_AuthFlow tests the OTP authentication flow
func TestAPI_AuthFlow(t *testing.T) {
	backend := setupTestApp(t)

	t.Run("CheckUnregisteredPhone", func(t *testing.T) {
		resp, result := backend.request(t, http.MethodGet, "/api/v1/auth/check?phone=%2B911234567890", "", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", resp.StatusCode)
		}
		if registered, _ := result["registered"].(bool); registered {
			t.Error("Phone should not be registered yet")
		}
	})

	token := backend.login(t, "Asha", "+911234567890")

	t.Run("Me", func(t *testing.T) {
		resp, me := backend.request(t, http.MethodGet, "/api/v1/auth/me", token, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", resp.StatusCode)
		}
		if me["phone"] != "+911234567890" {
			t.Errorf("Expected own phone, got %v", me["phone"])
		}
	})

	t.Run("RejectsMissingToken", func(t *testing.T) {
		resp, _ := backend.request(t, http.MethodGet, "/api/v1/reservations", "", nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("Expected status 401, got %d", resp.StatusCode)
		}
	})
}

// TestAPI_ReservationFlow walks a booking from creation through payment to
// cancellation, including the duplicate and contention rejections.
func TestAPI_ReservationFlow(t *testing.T) {
	backend := setupTestApp(t)
	token := backend.login(t, "Asha", "+911234567890")
	backend.registerVehicle(t, token, "KA01AB1234", "4W")

	createBody := map[string]interface{}{
		"slotNumber":         2,
		"vehicleNumberPlate": "KA01AB1234",
		"vehicleType":        "4W",
		"duration":           2,
		"durationUnit":       "HOURLY",
	}

	var reservationID float64

	t.Run("Create", func(t *testing.T) {
		resp, res := backend.request(t, http.MethodPost, "/api/v1/reservations", token, createBody)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("Expected status 201, got %d", resp.StatusCode)
		}
		reservationID, _ = res["id"].(float64)
		if reservationID == 0 {
			t.Fatal("Expected reservation id")
		}
		if res["totalAmount"].(float64) != 40 {
			t.Errorf("Expected fee 40, got %v", res["totalAmount"])
		}
	})

	t.Run("ReservedSetRepublished", func(t *testing.T) {
		if got := string(backend.mq.LastPublished("upark.reservation.status")); got != "2" {
			t.Errorf("Expected reserved set \"2\", got %q", got)
		}
	})

	t.Run("DuplicateRejected", func(t *testing.T) {
		resp, _ := backend.request(t, http.MethodPost, "/api/v1/reservations", token, createBody)
		if resp.StatusCode != http.StatusConflict {
			t.Errorf("Expected status 409, got %d", resp.StatusCode)
		}
	})

	t.Run("ContestedSlotRejected", func(t *testing.T) {
		other := backend.login(t, "Ravi", "+918888888888")
		backend.registerVehicle(t, other, "KA02CD5678", "4W")

		body := map[string]interface{}{
			"slotNumber":         2,
			"vehicleNumberPlate": "KA02CD5678",
			"vehicleType":        "4W",
			"duration":           1,
			"durationUnit":       "HOURLY",
		}
		resp, _ := backend.request(t, http.MethodPost, "/api/v1/reservations", other, body)
		if resp.StatusCode != http.StatusConflict {
			t.Errorf("Expected status 409, got %d", resp.StatusCode)
		}
	})

	t.Run("Payment", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/reservations/%d/payment", int64(reservationID))
		resp, res := backend.request(t, http.MethodPost, path, token, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", resp.StatusCode)
		}
		if res["paymentStatus"] != "COMPLETED" {
			t.Errorf("Expected COMPLETED payment, got %v", res["paymentStatus"])
		}
	})

	t.Run("Cancel", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/reservations/%d", int64(reservationID))
		resp, _ := backend.request(t, http.MethodDelete, path, token, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", resp.StatusCode)
		}

		if got := string(backend.mq.LastPublished("upark.reservation.status")); got != "NONE" {
			t.Errorf("Expected empty reserved set after cancel, got %q", got)
		}
	})
}

// TestAPI_FeeQuote tests the public fee quote endpoint
func TestAPI_FeeQuote(t *testing.T) {
	backend := setupTestApp(t)

	resp, quote := backend.request(t, http.MethodGet, "/api/v1/fees/quote?vehicleType=2W&duration=3&durationUnit=HOURLY", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if quote["amount"].(float64) != 30 {
		t.Errorf("Expected amount 30, got %v", quote["amount"])
	}

	resp, _ = backend.request(t, http.MethodGet, "/api/v1/fees/quote?vehicleType=TRUCK&duration=3", "", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status 400 for unknown vehicle type, got %d", resp.StatusCode)
	}
}

// TestAPI_AdminOverride tests operator access control and the override path
func TestAPI_AdminOverride(t *testing.T) {
	backend := setupTestApp(t)
	userToken := backend.login(t, "Asha", "+911234567890")
	adminToken := backend.login(t, "Operator", adminPhone)

	t.Run("ForbiddenForRegularUser", func(t *testing.T) {
		resp, _ := backend.request(t, http.MethodPost, "/api/v1/admin/slots/1/override", userToken, map[string]string{"state": "OCCUPIED"})
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("Expected status 403, got %d", resp.StatusCode)
		}
	})

	t.Run("OverrideAppliesAndCommands", func(t *testing.T) {
		resp, _ := backend.request(t, http.MethodPost, "/api/v1/admin/slots/1/override", adminToken, map[string]string{"state": "OCCUPIED"})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", resp.StatusCode)
		}
		if got := string(backend.mq.LastPublished("upark.admin.override")); got != "1:OCCUPIED" {
			t.Errorf("Expected override command \"1:OCCUPIED\", got %q", got)
		}
	})

	t.Run("Dashboard", func(t *testing.T) {
		resp, stats := backend.request(t, http.MethodGet, "/api/v1/admin/dashboard", adminToken, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", resp.StatusCode)
		}
		if stats["totalSlots"].(float64) != 4 {
			t.Errorf("Expected 4 slots, got %v", stats["totalSlots"])
		}
		if stats["occupied"].(float64) != 1 {
			t.Errorf("Expected 1 occupied after override, got %v", stats["occupied"])
		}
	})

	t.Run("InvalidStateRejected", func(t *testing.T) {
		resp, _ := backend.request(t, http.MethodPost, "/api/v1/admin/slots/1/override", adminToken, map[string]string{"state": "HAUNTED"})
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", resp.StatusCode)
		}
	})

	t.Run("EntryGateCommand", func(t *testing.T) {
		resp, _ := backend.request(t, http.MethodPost, "/api/v1/admin/gates/entry", adminToken, map[string]string{"action": "open"})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", resp.StatusCode)
		}
		if got := string(backend.mq.LastPublished("upark.gate.entry.control")); got != "OPEN" {
			t.Errorf("Expected OPEN on entry gate subject, got %q", got)
		}
		if got := string(backend.mq.LastPublished("upark.gate.control")); got != "OPEN" {
			t.Errorf("Expected OPEN on legacy gate subject, got %q", got)
		}
	})

	t.Run("UnknownGateRejected", func(t *testing.T) {
		resp, _ := backend.request(t, http.MethodPost, "/api/v1/admin/gates/roof", adminToken, map[string]string{"action": "open"})
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", resp.StatusCode)
		}
	})

	t.Run("VehicleSimulation", func(t *testing.T) {
		resp, _ := backend.request(t, http.MethodPost, "/api/v1/admin/vehicle", adminToken, map[string]string{"status": "detected"})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", resp.StatusCode)
		}
		if got := string(backend.mq.LastPublished("upark.vehicle.status")); got != "DETECTED" {
			t.Errorf("Expected DETECTED on vehicle subject, got %q", got)
		}
	})
}

// TestAPI_SlotListing tests the public slot views
func TestAPI_SlotListing(t *testing.T) {
	backend := setupTestApp(t)

	resp, result := backend.request(t, http.MethodGet, "/api/v1/slots", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if result["total"].(float64) != 4 {
		t.Errorf("Expected 4 slots, got %v", result["total"])
	}

	resp, _ = backend.request(t, http.MethodGet, "/api/v1/slots/99", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404 for unknown slot, got %d", resp.StatusCode)
	}
}
