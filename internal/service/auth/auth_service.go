package auth

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"yt-notify/internal/domain"
	"yt-notify/internal/service"
	"yt-notify/pkg/errors"
	"yt-notify/pkg/logger"
)

// Issuer is set on every token this service mints
const Issuer = "yt-notify"

type publisherClaims struct {
	jwt.RegisteredClaims
}

// Service issues and validates HMAC signed publisher tokens
type Service struct {
	secret []byte
	logger *logger.Logger
	now    func() time.Time
}

// NewService creates a new auth service. An empty secret disables validation.
func NewService(secret string, logger *logger.Logger) *Service {
	return &Service{
		secret: []byte(secret),
		logger: logger,
		now:    time.Now,
	}
}

var _ service.AuthService = (*Service)(nil)

// IssueToken mints a token for subject valid for ttl
func (s *Service) IssueToken(subject string, ttl time.Duration) (string, error) {
	if len(s.secret) == 0 {
		return "", errors.NewInternalError("JWT secret is not configured", nil)
	}
	if strings.TrimSpace(subject) == "" {
		return "", errors.NewValidationError("Subject is required", nil)
	}

	now := s.now()
	claims := publisherClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", errors.NewInternalError("Failed to sign token", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"subject": subject,
		"ttl":     ttl.String(),
	}).Info("Publisher token issued")

	return token, nil
}

// ValidateToken verifies signature, issuer and expiry of a publisher token
func (s *Service) ValidateToken(ctx context.Context, tokenString string) (*domain.PublisherClaims, error) {
	if len(s.secret) == 0 {
		s.logger.Error("JWT_SECRET not configured")
		return nil, errors.NewAuthenticationError("JWT validation not configured")
	}

	if !isJWTToken(tokenString) {
		return nil, errors.NewAuthenticationError("Malformed token")
	}

	claims := &publisherClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		s.logger.WithError(err).Debug("Failed to parse/validate JWT token")
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.NewAuthenticationError("Token has expired")
		}
		return nil, errors.NewAuthenticationError("Invalid JWT token")
	}

	if !token.Valid || claims.Subject == "" {
		return nil, errors.NewAuthenticationError("Invalid JWT token")
	}

	result := &domain.PublisherClaims{
		Subject: claims.Subject,
		Issuer:  claims.Issuer,
	}
	if claims.IssuedAt != nil {
		result.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		result.ExpiresAt = claims.ExpiresAt.Time
	}

	s.logger.WithField("subject", result.Subject).Debug("JWT token validated successfully")
	return result, nil
}

// isJWTToken checks for exactly three dot separated segments
func isJWTToken(token string) bool {
	if token == "" {
		return false
	}
	return strings.Count(token, ".") == 2
}
