package auth

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/seu-repo/upark/internal/domain"
	"github.com/seu-repo/upark/internal/ports"
)

const (
	otpLength   = 6
	otpTTL      = 5 * time.Minute
	sessionTTL  = 7 * 24 * time.Hour
	otpKeyPrefx = "otp:"
)

// otpRecord is what gets cached between RequestOTP and VerifyOTP. Only the
// bcrypt hash of the code is stored.
type otpRecord struct {
	CodeHash string `json:"codeHash"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
}

type Service struct {
	users       ports.UserRepository
	cache       ports.Cache
	sms         ports.SMSSender
	jwtSecret   []byte
	adminPhones map[string]bool
	log         *zap.Logger
}

func NewService(users ports.UserRepository, cache ports.Cache, sms ports.SMSSender, jwtSecret string, adminPhones []string, log *zap.Logger) ports.AuthService {
	admins := make(map[string]bool, len(adminPhones))
	for _, p := range adminPhones {
		admins[p] = true
	}
	return &Service{
		users:       users,
		cache:       cache,
		sms:         sms,
		jwtSecret:   []byte(jwtSecret),
		adminPhones: admins,
		log:         log,
	}
}

// RequestOTP issues a one-time code for the phone. The code itself is never
// stored or returned, except as DevCode when no SMS provider is configured.
func (s *Service) RequestOTP(ctx context.Context, name, phone, email string) (*ports.OTPChallenge, error) {
	if phone == "" {
		return nil, domain.ErrValidation("phone is required")
	}

	code, err := generateCode(otpLength)
	if err != nil {
		return nil, fmt.Errorf("generate otp: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash otp: %w", err)
	}

	record, err := json.Marshal(otpRecord{CodeHash: string(hash), Name: name, Email: email})
	if err != nil {
		return nil, fmt.Errorf("encode otp record: %w", err)
	}

	if err := s.cache.Set(ctx, otpKeyPrefx+phone, string(record), otpTTL); err != nil {
		return nil, domain.ErrTransientStore("store otp", err)
	}

	challenge := &ports.OTPChallenge{ExpiresAt: time.Now().Add(otpTTL)}

	if s.sms != nil {
		message := fmt.Sprintf("Your uPark verification code is %s. It expires in %d minutes.", code, int(otpTTL.Minutes()))
		if err := s.sms.SendSMS(ctx, phone, message); err != nil {
			s.log.Error("Failed to send OTP", zap.String("phone", phone), zap.Error(err))
			return nil, domain.ErrTransientStore("send otp", err)
		}
	} else {
		challenge.DevCode = code
	}

	s.log.Info("OTP issued", zap.String("phone", phone))
	return challenge, nil
}

// VerifyOTP checks the code and, on first verification, creates the user.
func (s *Service) VerifyOTP(ctx context.Context, phone, code string) (*ports.Session, error) {
	raw, err := s.cache.Get(ctx, otpKeyPrefx+phone)
	if err != nil || raw == "" {
		return nil, domain.ErrValidation("invalid or expired code")
	}

	var record otpRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, domain.ErrValidation("invalid or expired code")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(record.CodeHash), []byte(code)); err != nil {
		return nil, domain.ErrValidation("invalid or expired code")
	}

	if err := s.cache.Delete(ctx, otpKeyPrefx+phone); err != nil {
		s.log.Warn("Failed to consume OTP", zap.String("phone", phone), zap.Error(err))
	}

	user, err := s.users.FindByPhone(ctx, phone)
	if err != nil {
		return nil, domain.ErrTransientStore("load user", err)
	}
	if user == nil {
		user = &domain.User{Phone: phone, Name: record.Name, Email: record.Email}
		if err := s.users.Save(ctx, user); err != nil {
			return nil, domain.ErrTransientStore("create user", err)
		}
		s.log.Info("User registered", zap.String("phone", phone))
	}

	user.Role = s.role(phone)
	token, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}

	return &ports.Session{User: user, Token: token}, nil
}

// CheckPhone reports whether a phone number is already registered.
func (s *Service) CheckPhone(ctx context.Context, phone string) (*domain.User, error) {
	if phone == "" {
		return nil, domain.ErrValidation("phone is required")
	}
	user, err := s.users.FindByPhone(ctx, phone)
	if err != nil {
		return nil, domain.ErrTransientStore("load user", err)
	}
	return user, nil
}

// ValidateToken parses a session token and loads its user.
func (s *Service) ValidateToken(ctx context.Context, tokenStr string) (*domain.User, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, domain.ErrValidation("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, domain.ErrValidation("invalid token claims")
	}

	phone, ok := claims["sub"].(string)
	if !ok || phone == "" {
		return nil, domain.ErrValidation("invalid token subject")
	}

	user, err := s.users.FindByPhone(ctx, phone)
	if err != nil {
		return nil, domain.ErrTransientStore("load user", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound("user not found")
	}
	user.Role = s.role(user.Phone)
	return user, nil
}

// UpdateVehicles replaces the user's registered vehicles.
func (s *Service) UpdateVehicles(ctx context.Context, phone string, vehicles []domain.Vehicle) (*domain.User, error) {
	for i := range vehicles {
		if vehicles[i].NumberPlate == "" {
			return nil, domain.ErrValidation("vehicle number plate is required")
		}
		if !vehicles[i].Type.Valid() {
			return nil, domain.ErrValidation("invalid vehicle type: %q", vehicles[i].Type)
		}
		vehicles[i].OwnerPhone = phone
	}

	user, err := s.users.FindByPhone(ctx, phone)
	if err != nil {
		return nil, domain.ErrTransientStore("load user", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound("user not found")
	}

	if err := s.users.ReplaceVehicles(ctx, phone, vehicles); err != nil {
		return nil, domain.ErrTransientStore("update vehicles", err)
	}

	user.Vehicles = vehicles
	return user, nil
}

// Role reports the role claim used for the phone.
func (s *Service) role(phone string) string {
	if s.adminPhones[phone] {
		return "admin"
	}
	return "user"
}

func (s *Service) generateToken(user *domain.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.Phone,
		"role": s.role(user.Phone),
		"exp":  time.Now().Add(sessionTTL).Unix(),
	})
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func generateCode(digits int) (string, error) {
	max := big.NewInt(1)
	for i := 0; i < digits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", digits, n), nil
}
