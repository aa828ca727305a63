package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"ludo-stakes-backend/internal/config"
	"ludo-stakes-backend/internal/models"
)

// AuthService handles OTP login with device binding: an account stays tied
// to the device that first verified it until an admin resets the binding.
type AuthService struct {
	store *RedisService
	jwt   *JWTService
	fraud *FraudService
	cfg   *config.Config
}

func NewAuthService(store *RedisService, jwt *JWTService, fraud *FraudService, cfg *config.Config) *AuthService {
	return &AuthService{
		store: store,
		jwt:   jwt,
		fraud: fraud,
		cfg:   cfg,
	}
}

// SendOTP generates and stores a one-time code for the phone number.
// Delivery goes through the SMS provider in production; here the code is
// logged so local clients can complete the flow.
func (a *AuthService) SendOTP(phoneNumber string) error {
	if phoneNumber == "" {
		return models.ErrInvalidInput
	}

	code, err := generateOTP()
	if err != nil {
		return fmt.Errorf("failed to generate otp: %v", err)
	}

	otp := &models.OTPVerification{
		PhoneNumber: phoneNumber,
		OTP:         code,
		ExpiresAt:   time.Now().Add(a.cfg.OTPExpiry),
		CreatedAt:   time.Now(),
	}

	if err := a.store.StoreOTP(otp, a.cfg.OTPExpiry); err != nil {
		return fmt.Errorf("failed to store otp: %v", err)
	}

	// TODO: plug in the SMS gateway once the provider account is set up.
	log.Printf("OTP for %s: %s", phoneNumber, code)

	return nil
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// VerifyOTPAndLogin checks the code, enforces device binding, creates the
// user on first login, and issues a JWT.
func (a *AuthService) VerifyOTPAndLogin(phoneNumber, code, deviceID string) (string, *models.User, error) {
	if phoneNumber == "" || code == "" || deviceID == "" {
		return "", nil, models.ErrInvalidInput
	}

	otp, err := a.store.GetOTP(phoneNumber)
	if errors.Is(err, models.ErrNotFound) {
		return "", nil, models.ErrInvalidOTP
	}
	if err != nil {
		return "", nil, err
	}

	if otp.OTP != code || time.Now().After(otp.ExpiresAt) {
		return "", nil, models.ErrInvalidOTP
	}

	// One code, one login.
	if err := a.store.DeleteOTP(phoneNumber); err != nil {
		return "", nil, fmt.Errorf("failed to consume otp: %v", err)
	}

	user, err := a.store.GetUserByPhone(phoneNumber)
	if errors.Is(err, models.ErrNotFound) {
		user, err = a.createUser(phoneNumber, deviceID)
		if err != nil {
			return "", nil, err
		}
	} else if err != nil {
		return "", nil, err
	}

	if !user.IsActive {
		return "", nil, models.ErrAccountDeactivated
	}

	// The configured bootstrap phone carries the admin role; everything
	// else about the login works like any other account.
	if a.cfg.AdminPhone != "" && user.PhoneNumber == a.cfg.AdminPhone && user.Role != models.RoleAdmin {
		user.Role = models.RoleAdmin
		user.UpdatedAt = time.Now()
		if err := a.store.SaveUser(user); err != nil {
			return "", nil, fmt.Errorf("failed to promote admin: %v", err)
		}
	}

	if user.DeviceID != "" && user.DeviceID != deviceID {
		return "", nil, models.ErrDeviceConflict
	}

	if user.DeviceID == "" {
		user.DeviceID = deviceID
		user.UpdatedAt = time.Now()
		if err := a.store.SaveUser(user); err != nil {
			return "", nil, fmt.Errorf("failed to bind device: %v", err)
		}
	}

	if err := a.store.IndexDeviceUser(deviceID, user.ID); err != nil {
		log.Printf("Failed to index device %s for %s: %v", deviceID, user.ID, err)
	} else if err := a.fraud.CheckDeviceSharing(deviceID); err != nil {
		// Heuristics never block a login.
		log.Printf("Fraud check (device sharing) for %s: %v", user.ID, err)
	}

	token, err := a.jwt.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return "", nil, err
	}

	return token, user, nil
}

func (a *AuthService) createUser(phoneNumber, deviceID string) (*models.User, error) {
	now := time.Now()
	user := &models.User{
		ID:          models.NewID(),
		PhoneNumber: phoneNumber,
		DeviceID:    deviceID,
		Role:        models.RoleUser,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := a.store.SaveUser(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %v", err)
	}

	log.Printf("New user registered: %s (%s)", user.ID, phoneNumber)

	return user, nil
}
