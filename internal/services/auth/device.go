// Package auth authenticates kiosks and dashboard users.
package auth

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/evn/absen_backend/internal/models"
	"github.com/evn/absen_backend/internal/repositories"
)

var (
	ErrInvalidDeviceKey   = errors.New("invalid device key")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactiveAccount    = errors.New("account is inactive")
)

type DeviceStore interface {
	GetByID(ctx context.Context, id int64) (*models.Device, error)
	ListActive(ctx context.Context) ([]models.Device, error)
	TouchLastSeen(ctx context.Context, id int64, ip string, at time.Time) error
}

type UserStore interface {
	GetByEmailWithHash(ctx context.Context, email string) (*models.User, string, error)
}

type Service struct {
	devices DeviceStore
	users   UserStore
	jwt     *JWTService
	now     func() time.Time
}

func NewService(devices DeviceStore, users UserStore, jwt *JWTService) *Service {
	return &Service{devices: devices, users: users, jwt: jwt, now: time.Now}
}

func HashSecret(secret string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	return string(b), err
}

func checkSecret(secret, hash string) bool {
	return hash != "" && bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

// AuthenticateKey finds the active device owning key and issues a device token.
func (s *Service) AuthenticateKey(ctx context.Context, key, ip string) (*models.Device, string, error) {
	devices, err := s.devices.ListActive(ctx)
	if err != nil {
		return nil, "", err
	}
	for i := range devices {
		d := &devices[i]
		if !checkSecret(key, d.DeviceKeyHash) {
			continue
		}
		s.touch(ctx, d, ip)
		token, err := s.jwt.GenerateDeviceToken(d)
		if err != nil {
			return nil, "", err
		}
		return d, token, nil
	}
	return nil, "", ErrInvalidDeviceKey
}

// VerifyDeviceKey checks a device id and key pair sent as request headers.
func (s *Service) VerifyDeviceKey(ctx context.Context, deviceID int64, key string) (*models.Device, error) {
	d, err := s.devices.GetByID(ctx, deviceID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrInvalidDeviceKey
	}
	if err != nil {
		return nil, err
	}
	if !d.IsActive() || !checkSecret(key, d.DeviceKeyHash) {
		return nil, ErrInvalidDeviceKey
	}
	return d, nil
}

// ActiveDevice loads a device named by a verified token.
func (s *Service) ActiveDevice(ctx context.Context, deviceID int64) (*models.Device, error) {
	d, err := s.devices.GetByID(ctx, deviceID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrInvalidDeviceKey
	}
	if err != nil {
		return nil, err
	}
	if !d.IsActive() {
		return nil, ErrInvalidDeviceKey
	}
	return d, nil
}

// Touch records that the device was just seen from ip.
func (s *Service) Touch(ctx context.Context, d *models.Device, ip string) {
	s.touch(ctx, d, ip)
}

func (s *Service) touch(ctx context.Context, d *models.Device, ip string) {
	now := s.now()
	if err := s.devices.TouchLastSeen(ctx, d.ID, ip, now); err == nil {
		d.LastIP = ip
		d.LastSeenAt = &now
	}
}

// Login verifies a dashboard user's email and password.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, hash, err := s.users.GetByEmailWithHash(ctx, email)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}
	if !checkSecret(password, hash) {
		return nil, "", ErrInvalidCredentials
	}
	if !user.IsActive() {
		return nil, "", ErrInactiveAccount
	}
	token, err := s.jwt.GenerateUserToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}
