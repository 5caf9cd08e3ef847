package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/evn/absen_backend/internal/models"
)

// Token scopes.
const (
	ScopeDevice = "device"
	ScopeAdmin  = "admin"
)

type JWTService struct {
	secretKey []byte
	ttl       time.Duration
	now       func() time.Time
}

func NewJWTService(secretKey string, ttl time.Duration) *JWTService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWTService{secretKey: []byte(secretKey), ttl: ttl, now: time.Now}
}

func (s *JWTService) sign(claims jwt.MapClaims) (string, error) {
	now := s.now()
	claims["iat"] = now.Unix()
	claims["exp"] = now.Add(s.ttl).Unix()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %v", err)
	}
	return signed, nil
}

// GenerateDeviceToken issues a token carrying the device id and the device scope.
func (s *JWTService) GenerateDeviceToken(device *models.Device) (string, error) {
	return s.sign(jwt.MapClaims{
		"device_id": strconv.FormatInt(device.ID, 10),
		"name":      device.Name,
		"scope":     ScopeDevice,
	})
}

// GenerateUserToken issues a token for a dashboard user; admins get the admin scope.
func (s *JWTService) GenerateUserToken(user *models.User) (string, error) {
	return s.sign(jwt.MapClaims{
		"user_id": strconv.FormatInt(user.ID, 10),
		"name":    user.Name,
		"role":    user.Role,
		"scope":   ScopeForRole(user.Role),
	})
}

func ScopeForRole(role string) string {
	switch role {
	case "superadmin", "admin":
		return ScopeAdmin
	default:
		return role
	}
}
