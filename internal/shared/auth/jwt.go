package auth

import (
	"errors"
	"fmt"
	"time"

	"ridecover/internal/shared/config"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleDriver  = "DRIVER"
	RoleService = "SERVICE"
)

const issuer = "ridecover"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrForbidden    = errors.New("role not allowed")
)

// Claims — водитель или внутренний сервис, вызывающий API покрытия
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"` // DRIVER | SERVICE
	jwt.RegisteredClaims
}

// JWTService подписывает и проверяет HS256 токены
type JWTService struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		secret: []byte(cfg.Secret),
		expiry: time.Duration(cfg.ExpiryMinutes) * time.Minute,
		now:    time.Now,
	}
}

func (s *JWTService) GenerateToken(userID, role string) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ExtractUserID используется WebSocket хабом для аутентификации первого сообщения
func (s *JWTService) ExtractUserID(tokenString string) (userID, role string, err error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return "", "", err
	}
	return claims.UserID, claims.Role, nil
}

// CanActFor — водитель может управлять только своим покрытием, сервис любым
func (c *Claims) CanActFor(driverID string) error {
	switch c.Role {
	case RoleService:
		return nil
	case RoleDriver:
		if c.UserID == driverID {
			return nil
		}
	}
	return ErrForbidden
}
