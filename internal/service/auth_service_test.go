package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sathvikparasa/warnabrotha/internal/config"
	"github.com/sathvikparasa/warnabrotha/internal/domain"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:           "test-secret",
		JWTExpiration:       time.Hour,
		AllowedEmailDomain:  "ucdavis.edu",
		VerificationCodeTTL: 15 * time.Minute,
	}
}

type authFixture struct {
	devices *fakeDeviceRepo
	emails  *fakeEmailSender
	svc     *AuthService
}

func newAuthFixture(devices ...*domain.Device) *authFixture {
	f := &authFixture{
		devices: newFakeDeviceRepo(devices...),
		emails:  &fakeEmailSender{},
	}
	f.svc = NewAuthService(f.devices, f.emails, testConfig(), zap.NewNop())
	return f
}

func TestRegisterAndValidateToken(t *testing.T) {
	ctx := context.Background()
	setupClock(t)
	f := newAuthFixture()

	resp, err := f.svc.Register(ctx, domain.RegisterDeviceDTO{DeviceID: "phone-abc"})
	require.NoError(t, err)
	require.NotNil(t, resp.Device)
	assert.Equal(t, "phone-abc", resp.Device.DeviceUID)
	assert.NotEmpty(t, resp.Token)

	uid, err := f.svc.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "phone-abc", uid)

	// Re-registering is an upsert, not a new device.
	again, err := f.svc.Register(ctx, domain.RegisterDeviceDTO{DeviceID: "phone-abc", PushToken: "expo-token-1"})
	require.NoError(t, err)
	assert.Equal(t, resp.Device.ID, again.Device.ID)
	assert.True(t, again.Device.PushToken.Valid)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	setupClock(t)
	f := newAuthFixture()

	_, err := f.svc.ValidateToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	// A token signed with a different secret does not validate.
	other := NewAuthService(f.devices, f.emails, &config.Config{
		JWTSecret:     "other-secret",
		JWTExpiration: time.Hour,
	}, zap.NewNop())
	resp, err := other.Register(context.Background(), domain.RegisterDeviceDTO{DeviceID: "phone-abc"})
	require.NoError(t, err)
	_, err = f.svc.ValidateToken(resp.Token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestEmailVerificationFlow(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path verifies the device", func(t *testing.T) {
		setupClock(t)
		device := &domain.Device{ID: 1, DeviceUID: "phone-abc"}
		f := newAuthFixture(device)

		require.NoError(t, f.svc.RequestEmailVerification(ctx, device, "aggie@ucdavis.edu"))
		assert.Equal(t, "aggie@ucdavis.edu", f.emails.email)
		require.Len(t, f.emails.code, 6)

		// Reload to pick up the stored challenge hash.
		pending, err := f.devices.FindByID(ctx, device.ID)
		require.NoError(t, err)
		require.True(t, pending.VerificationCodeHash.Valid)

		require.NoError(t, f.svc.ConfirmEmailVerification(ctx, pending, f.emails.code))
		verified, err := f.devices.FindByID(ctx, device.ID)
		require.NoError(t, err)
		assert.True(t, verified.EmailVerified)
		assert.False(t, verified.VerificationCodeHash.Valid)
	})

	t.Run("rejects addresses outside the campus domain", func(t *testing.T) {
		setupClock(t)
		device := &domain.Device{ID: 1, DeviceUID: "phone-abc"}
		f := newAuthFixture(device)

		for _, email := range []string{
			"someone@gmail.com",
			"someone@ucdavis.edu.evil.com",
			"not-an-email",
			"",
		} {
			err := f.svc.RequestEmailVerification(ctx, device, email)
			assert.ErrorIs(t, err, ErrInvalidEmail, "email %q", email)
		}
	})

	t.Run("address case and whitespace are normalized", func(t *testing.T) {
		setupClock(t)
		device := &domain.Device{ID: 1, DeviceUID: "phone-abc"}
		f := newAuthFixture(device)

		require.NoError(t, f.svc.RequestEmailVerification(ctx, device, "  Aggie@UCDavis.EDU "))
		assert.Equal(t, "aggie@ucdavis.edu", f.emails.email)
	})

	t.Run("wrong code is rejected", func(t *testing.T) {
		setupClock(t)
		device := &domain.Device{ID: 1, DeviceUID: "phone-abc"}
		f := newAuthFixture(device)

		require.NoError(t, f.svc.RequestEmailVerification(ctx, device, "aggie@ucdavis.edu"))
		pending, err := f.devices.FindByID(ctx, device.ID)
		require.NoError(t, err)

		err = f.svc.ConfirmEmailVerification(ctx, pending, "000000")
		if f.emails.code == "000000" {
			t.Skip("generated code collided with the guess")
		}
		assert.ErrorIs(t, err, ErrCodeMismatch)
	})

	t.Run("expired code is rejected", func(t *testing.T) {
		clock := setupClock(t)
		device := &domain.Device{ID: 1, DeviceUID: "phone-abc"}
		f := newAuthFixture(device)

		require.NoError(t, f.svc.RequestEmailVerification(ctx, device, "aggie@ucdavis.edu"))
		pending, err := f.devices.FindByID(ctx, device.ID)
		require.NoError(t, err)

		clock.Advance(16 * time.Minute)
		err = f.svc.ConfirmEmailVerification(ctx, pending, f.emails.code)
		assert.ErrorIs(t, err, ErrCodeExpired)
	})

	t.Run("confirm without a pending challenge fails", func(t *testing.T) {
		setupClock(t)
		device := &domain.Device{ID: 1, DeviceUID: "phone-abc"}
		f := newAuthFixture(device)

		err := f.svc.ConfirmEmailVerification(ctx, device, "123456")
		assert.ErrorIs(t, err, ErrNoPendingChallenge)
	})
}
