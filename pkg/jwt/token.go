package jwtPkg

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

const SubjectLocalKey = "api_subject"

var (
	ErrEmptyHeader    = errors.New("empty Authorization header")
	ErrInvalidFormat  = errors.New("invalid Authorization format")
	ErrSecretNotSet   = errors.New("JWT secret not configured")
	ErrMissingSubject = errors.New("token has no subject")
)

// Sign issues an HS256 token for subject, valid for ttl, using the secret
// stored in secretEnvKey.
func Sign(subject string, ttl time.Duration, secretEnvKey string) (string, int64, error) {
	secret := os.Getenv(secretEnvKey)
	if secret == "" {
		return "", 0, fmt.Errorf("%s not set", secretEnvKey)
	}
	if subject == "" {
		return "", 0, ErrMissingSubject
	}

	expiredAt := time.Now().Add(ttl)
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(expiredAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		logrus.WithError(err).Error("Failed to sign token")
		return "", 0, err
	}

	return signed, expiredAt.Unix(), nil
}

// VerifyTokenHeader parses the bearer token of the request and returns its
// subject.
func VerifyTokenHeader(c *fiber.Ctx, secretEnvKey string) (string, error) {
	header := c.Get("Authorization")
	if header == "" {
		return "", ErrEmptyHeader
	}

	accessToken, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(accessToken) == "" {
		return "", ErrInvalidFormat
	}

	secret := os.Getenv(secretEnvKey)
	if secret == "" {
		return "", ErrSecretNotSet
	}

	return Verify(strings.TrimSpace(accessToken), secret)
}

func Verify(accessToken string, secret string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(accessToken, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", ErrMissingSubject
	}

	return claims.Subject, nil
}

func GetSubject(c *fiber.Ctx) (string, error) {
	subject, ok := c.Locals(SubjectLocalKey).(string)
	if !ok || subject == "" {
		return "", fiber.ErrUnauthorized
	}
	return subject, nil
}
