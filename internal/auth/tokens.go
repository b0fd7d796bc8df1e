// Package auth signs and parses the access/refresh token pair issued
// on login and registration.
package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"separapp/internal/config"
)

// Claims carried by both token kinds. Subject is the user id.
type Claims struct {
	Correo string `json:"correo"`
	Rol    int    `json:"rol"`
	jwt.RegisteredClaims
}

var ErrInvalidToken = errors.New("invalid token")

// SignAccessToken issues a short-lived access token for the user.
func SignAccessToken(cfg *config.Config, idUsuario uint, correo string, rol int) (string, error) {
	return sign(cfg.JWTAccessSecret, cfg.AccessExpires, idUsuario, correo, rol)
}

// SignRefreshToken issues a long-lived refresh token for the user.
func SignRefreshToken(cfg *config.Config, idUsuario uint, correo string, rol int) (string, error) {
	return sign(cfg.JWTRefreshSecret, cfg.RefreshExpires, idUsuario, correo, rol)
}

func sign(secret string, expires time.Duration, idUsuario uint, correo string, rol int) (string, error) {
	now := time.Now()
	claims := Claims{
		Correo: correo,
		Rol:    rol,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(idUsuario), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expires)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseAccessToken validates an access token and returns its claims.
func ParseAccessToken(cfg *config.Config, tokenString string) (*Claims, error) {
	return parse(cfg.JWTAccessSecret, tokenString)
}

// ParseRefreshToken validates a refresh token and returns its claims.
func ParseRefreshToken(cfg *config.Config, tokenString string) (*Claims, error) {
	return parse(cfg.JWTRefreshSecret, tokenString)
}

func parse(secret, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// UserID returns the numeric user id from the subject claim.
func (c *Claims) UserID() (uint, bool) {
	id, err := strconv.ParseUint(c.Subject, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}
