package utils

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	ErrMalformedDataURL = errors.New("malformed base64 data url")

	dataURLPattern = regexp.MustCompile(`^data:(.+);base64,(.+)$`)
)

type IUtils interface {
	NewULIDFromTimestamp(t time.Time) (string, error)
	ParseDataURL(raw string) (mimeType string, payload string, err error)
	EncodeBase64(data []byte) string
}

type utils struct{}

func New() IUtils {
	return &utils{}
}

func (u *utils) NewULIDFromTimestamp(t time.Time) (string, error) {
	ms := ulid.Timestamp(t)
	entropy := ulid.Monotonic(rand.Reader, 0)

	id, err := ulid.New(ms, entropy)
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

// ParseDataURL splits a "data:<mime>;base64,<payload>" string and checks the
// payload decodes.
func (u *utils) ParseDataURL(raw string) (string, string, error) {
	matches := dataURLPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if len(matches) != 3 {
		return "", "", ErrMalformedDataURL
	}

	if _, err := base64.StdEncoding.DecodeString(matches[2]); err != nil {
		return "", "", ErrMalformedDataURL
	}

	return matches[1], matches[2], nil
}

func (u *utils) EncodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}
