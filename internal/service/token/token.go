package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/adityaverma/campus-connect/internal/models"
)

const (
	AccessTTL  = 15 * time.Minute
	RefreshTTL = 7 * 24 * time.Hour
)

// ErrTokenInvalid covers every refresh verification failure: missing,
// malformed, expired, superseded. Callers must not distinguish them.
var ErrTokenInvalid = errors.New("token invalid or expired")

type Service struct {
	DB            *gorm.DB
	JWTSecret     []byte
	RefreshSecret []byte
}

type Pair struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
}

func (s *Service) signAccess(user *models.User, exp time.Time) (string, error) {
	claims := AccessClaims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.JWTSecret)
}

func (s *Service) signRefresh(user *models.User, exp time.Time) (string, error) {
	claims := RefreshClaims{
		Typ: "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			// JWT timestamps have second precision; the ID keeps two
			// tokens minted in the same second distinct.
			ID: strconv.FormatInt(time.Now().UnixNano(), 10),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.RefreshSecret)
}

// IssuePair mints an access/refresh token pair for user and persists the
// refresh token on the user row, replacing any prior value. The write
// happens before the pair is returned: a client never receives a token
// the server did not store.
func (s *Service) IssuePair(user *models.User) (*Pair, error) {
	accessExp := time.Now().Add(AccessTTL)
	accessToken, err := s.signAccess(user, accessExp)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refreshExp := time.Now().Add(RefreshTTL)
	refreshToken, err := s.signRefresh(user, refreshExp)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	if err := s.DB.Model(&models.User{}).
		Where("id = ?", user.ID).
		Update("refresh_token", refreshToken).Error; err != nil {
		return nil, fmt.Errorf("persist refresh token: %w", err)
	}

	return &Pair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
	}, nil
}

// ParseAccess verifies an access token and returns its claims.
func (s *Service) ParseAccess(raw string) (*AccessClaims, error) {
	return AccessClaimsFromToken(raw, s.JWTSecret)
}

// Rotate validates a presented refresh token and, when it matches the value
// currently stored on the user row, issues a fresh pair. The presented
// token is invalidated by the overwrite: each refresh token is usable once.
func (s *Service) Rotate(raw string) (*models.User, *Pair, error) {
	claims, err := RefreshClaimsFromToken(raw, s.RefreshSecret)
	if err != nil {
		return nil, nil, ErrTokenInvalid
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return nil, nil, ErrTokenInvalid
	}

	var user models.User
	if err := s.DB.First(&user, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrTokenInvalid
		}
		return nil, nil, fmt.Errorf("load user: %w", err)
	}

	if user.RefreshToken == nil || *user.RefreshToken != raw {
		return nil, nil, ErrTokenInvalid
	}

	pair, err := s.IssuePair(&user)
	if err != nil {
		return nil, nil, err
	}
	return &user, pair, nil
}

// Revoke unsets the stored refresh token. Safe to call when no token is set.
func (s *Service) Revoke(userID uint) error {
	if err := s.DB.Model(&models.User{}).
		Where("id = ?", userID).
		Update("refresh_token", nil).Error; err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}
