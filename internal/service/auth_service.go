package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/guregu/null.v4"

	"github.com/sathvikparasa/warnabrotha/internal/config"
	"github.com/sathvikparasa/warnabrotha/internal/domain"
	"github.com/sathvikparasa/warnabrotha/internal/repository"
)

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+$`)

// EmailSender delivers a verification code to an address. The address is used
// for the send only and never persisted.
type EmailSender interface {
	SendVerificationCode(ctx context.Context, email, code string) error
}

// LogEmailSender writes the code to the log instead of sending mail. Used in
// development and as the default until an SMTP sender is configured.
type LogEmailSender struct {
	Logger *zap.Logger
}

func (s *LogEmailSender) SendVerificationCode(_ context.Context, email, code string) error {
	s.Logger.Info("verification code issued",
		zap.String("email", email),
		zap.String("code", code))
	return nil
}

type AuthService struct {
	deviceRepo repository.DeviceRepository
	emails     EmailSender
	cfg        *config.Config
	logger     *zap.Logger
}

func NewAuthService(deviceRepo repository.DeviceRepository, emails EmailSender, cfg *config.Config, logger *zap.Logger) *AuthService {
	return &AuthService{
		deviceRepo: deviceRepo,
		emails:     emails,
		cfg:        cfg,
		logger:     logger,
	}
}

// Register upserts the device row for the client UID and issues a JWT for it.
// Registration is idempotent: re-registering refreshes the push token and
// returns a fresh token without touching verification state.
func (s *AuthService) Register(ctx context.Context, dto domain.RegisterDeviceDTO) (*domain.AuthResponseDTO, error) {
	var pushToken null.String
	if dto.PushToken != "" {
		pushToken = null.StringFrom(dto.PushToken)
	}

	device, err := s.deviceRepo.GetOrCreate(ctx, dto.DeviceID, pushToken)
	if err != nil {
		return nil, fmt.Errorf("registering device: %w", err)
	}

	now := domain.Now()
	claims := jwt.MapClaims{
		"sub": device.DeviceUID,
		"exp": now.Add(s.cfg.JWTExpiration).Unix(),
		"iat": now.Unix(),
		"jti": uuid.NewString(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("signing token: %w", err)
	}

	return &domain.AuthResponseDTO{Token: tokenString, Device: device}, nil
}

// ValidateToken parses the JWT and returns the device UID it was issued for.
func (s *AuthService) ValidateToken(tokenString string) (string, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithTimeFunc(domain.Now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("%w: token expired", ErrTokenInvalid)
		}
		return "", fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return "", ErrTokenInvalid
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}
	return sub, nil
}

// RequestEmailVerification issues a 6-digit code to a campus address. Only the
// bcrypt hash of the code is stored; the address itself is discarded after the
// send.
func (s *AuthService) RequestEmailVerification(ctx context.Context, device *domain.Device, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailPattern.MatchString(email) || !strings.HasSuffix(email, "@"+s.cfg.AllowedEmailDomain) {
		return ErrInvalidEmail
	}

	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("generating verification code: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing verification code: %w", err)
	}

	expires := domain.Now().Add(s.cfg.VerificationCodeTTL)
	if err := s.deviceRepo.SetVerificationChallenge(ctx, device.ID, string(hash), expires); err != nil {
		return fmt.Errorf("storing verification challenge: %w", err)
	}

	if err := s.emails.SendVerificationCode(ctx, email, code); err != nil {
		return fmt.Errorf("sending verification code: %w", err)
	}
	return nil
}

// ConfirmEmailVerification checks the submitted code against the pending
// challenge and marks the device verified on a match.
func (s *AuthService) ConfirmEmailVerification(ctx context.Context, device *domain.Device, code string) error {
	if !device.VerificationCodeHash.Valid || !device.VerificationExpires.Valid {
		return ErrNoPendingChallenge
	}
	if domain.Now().After(device.VerificationExpires.Time) {
		return ErrCodeExpired
	}
	if err := bcrypt.CompareHashAndPassword([]byte(device.VerificationCodeHash.String), []byte(code)); err != nil {
		return ErrCodeMismatch
	}

	if err := s.deviceRepo.MarkEmailVerified(ctx, device.ID); err != nil {
		return fmt.Errorf("marking device verified: %w", err)
	}
	s.logger.Info("device email verified", zap.String("device_uid", device.DeviceUID))
	return nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
