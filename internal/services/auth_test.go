package services_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ludo-stakes-backend/internal/models"
	"ludo-stakes-backend/internal/services"
)

func newAuth(t *testing.T, store *services.RedisService) *services.AuthService {
	t.Helper()

	cfg := testConfig()
	return services.NewAuthService(store, services.NewJWTService(cfg), services.NewFraudService(store), cfg)
}

func testPhone(t *testing.T, store *services.RedisService) string {
	t.Helper()

	phone := "+1555" + models.NewID()[:8]
	t.Cleanup(func() {
		store.DeleteOTP(phone)
		if user, err := store.GetUserByPhone(phone); err == nil {
			store.DeleteLedger(user.ID)
			store.DeleteUser(user.ID)
		}
	})

	return phone
}

func testDevice(t *testing.T, store *services.RedisService) string {
	t.Helper()

	device := "dev-" + models.NewID()[:8]
	t.Cleanup(func() { store.ClearDeviceUsers(device) })

	return device
}

func TestAuthOTPLoginCreatesUser(t *testing.T) {
	store := newTestStore(t)
	auth := newAuth(t, store)
	phone := testPhone(t, store)
	device := testDevice(t, store)

	require.NoError(t, auth.SendOTP(phone))

	otp, err := store.GetOTP(phone)
	require.NoError(t, err)
	require.Len(t, otp.OTP, 6)

	token, user, err := auth.VerifyOTPAndLogin(phone, otp.OTP, device)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Equal(t, phone, user.PhoneNumber)
	require.Equal(t, device, user.DeviceID)
	require.Equal(t, models.RoleUser, user.Role)
	require.True(t, user.IsActive)

	// One account on one device is nothing to flag.
	saved, err := store.GetUser(user.ID)
	require.NoError(t, err)
	require.False(t, saved.IsWalletLocked)
}

func TestAuthOTPIsSingleUse(t *testing.T) {
	store := newTestStore(t)
	auth := newAuth(t, store)
	phone := testPhone(t, store)
	device := testDevice(t, store)

	require.NoError(t, auth.SendOTP(phone))
	otp, err := store.GetOTP(phone)
	require.NoError(t, err)

	_, _, err = auth.VerifyOTPAndLogin(phone, otp.OTP, device)
	require.NoError(t, err)

	// The consumed code no longer works.
	_, _, err = auth.VerifyOTPAndLogin(phone, otp.OTP, device)
	require.ErrorIs(t, err, models.ErrInvalidOTP)
}

func TestAuthRejectsWrongOTP(t *testing.T) {
	store := newTestStore(t)
	auth := newAuth(t, store)
	phone := testPhone(t, store)

	require.NoError(t, auth.SendOTP(phone))

	_, _, err := auth.VerifyOTPAndLogin(phone, "000000x", "device-1")
	require.ErrorIs(t, err, models.ErrInvalidOTP)
}

func TestAuthDeviceBinding(t *testing.T) {
	store := newTestStore(t)
	auth := newAuth(t, store)
	phone := testPhone(t, store)
	bound := testDevice(t, store)
	other := testDevice(t, store)

	require.NoError(t, auth.SendOTP(phone))
	otp, err := store.GetOTP(phone)
	require.NoError(t, err)
	_, _, err = auth.VerifyOTPAndLogin(phone, otp.OTP, bound)
	require.NoError(t, err)

	// A second login from another device is refused.
	require.NoError(t, auth.SendOTP(phone))
	otp, err = store.GetOTP(phone)
	require.NoError(t, err)
	_, _, err = auth.VerifyOTPAndLogin(phone, otp.OTP, other)
	require.ErrorIs(t, err, models.ErrDeviceConflict)

	// The bound device still gets in.
	require.NoError(t, auth.SendOTP(phone))
	otp, err = store.GetOTP(phone)
	require.NoError(t, err)
	_, _, err = auth.VerifyOTPAndLogin(phone, otp.OTP, bound)
	require.NoError(t, err)
}

func TestAuthDeactivatedAccountCannotLogin(t *testing.T) {
	store := newTestStore(t)
	auth := newAuth(t, store)
	phone := testPhone(t, store)
	device := testDevice(t, store)

	require.NoError(t, auth.SendOTP(phone))
	otp, err := store.GetOTP(phone)
	require.NoError(t, err)
	_, user, err := auth.VerifyOTPAndLogin(phone, otp.OTP, device)
	require.NoError(t, err)

	user.IsActive = false
	require.NoError(t, store.SaveUser(user))

	require.NoError(t, auth.SendOTP(phone))
	otp, err = store.GetOTP(phone)
	require.NoError(t, err)
	_, _, err = auth.VerifyOTPAndLogin(phone, otp.OTP, device)
	require.ErrorIs(t, err, models.ErrAccountDeactivated)
}

func TestAuthAdminPhonePromotion(t *testing.T) {
	store := newTestStore(t)
	phone := testPhone(t, store)
	device := testDevice(t, store)

	cfg := testConfig()
	cfg.AdminPhone = phone
	jwtService := services.NewJWTService(cfg)
	auth := services.NewAuthService(store, jwtService, services.NewFraudService(store), cfg)

	require.NoError(t, auth.SendOTP(phone))
	otp, err := store.GetOTP(phone)
	require.NoError(t, err)

	token, user, err := auth.VerifyOTPAndLogin(phone, otp.OTP, device)
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, user.Role)

	// The token carries the promoted role.
	claims, err := jwtService.ValidateToken(token)
	require.NoError(t, err)
	require.Equal(t, string(models.RoleAdmin), claims.Role)

	saved, err := store.GetUser(user.ID)
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, saved.Role)
}

func TestAuthFlagsDeviceSharedByTwoAccounts(t *testing.T) {
	store := newTestStore(t)
	auth := newAuth(t, store)
	device := testDevice(t, store)
	fraud := services.NewFraudService(store)

	var userIDs []string
	for i := 0; i < 2; i++ {
		phone := testPhone(t, store)
		require.NoError(t, auth.SendOTP(phone))
		otp, err := store.GetOTP(phone)
		require.NoError(t, err)

		// Each account binds its own device field, so the second login
		// succeeds; the shared device is caught by the heuristic instead.
		_, user, err := auth.VerifyOTPAndLogin(phone, otp.OTP, device)
		require.NoError(t, err)
		userIDs = append(userIDs, user.ID)
	}

	for _, id := range userIDs {
		require.NotNil(t, findAlert(t, fraud, id, models.FraudAlertMultipleAccounts))

		user, err := store.GetUser(id)
		require.NoError(t, err)
		require.True(t, user.IsWalletLocked)
	}
}

func TestJWTRoundTrip(t *testing.T) {
	jwt := services.NewJWTService(testConfig())

	token, err := jwt.GenerateToken("user-1", string(models.RoleAdmin))
	require.NoError(t, err)

	claims, err := jwt.ValidateToken(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, string(models.RoleAdmin), claims.Role)
	require.NotEmpty(t, claims.SessionID)
}

func TestJWTRejectsForgery(t *testing.T) {
	jwt := services.NewJWTService(testConfig())

	other := testConfig()
	other.JWTSecret = "another-secret"
	forged, err := services.NewJWTService(other).GenerateToken("user-1", string(models.RoleUser))
	require.NoError(t, err)

	_, err = jwt.ValidateToken(forged)
	require.Error(t, err)

	_, err = jwt.ValidateToken("not-a-token")
	require.Error(t, err)

	expired := testConfig()
	expired.TokenExpiry = -time.Hour
	stale, err := services.NewJWTService(expired).GenerateToken("user-1", string(models.RoleUser))
	require.NoError(t, err)

	_, err = jwt.ValidateToken(stale)
	require.Error(t, err)
}
