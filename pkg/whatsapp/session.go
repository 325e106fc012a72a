package whatsapp

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

var ErrSessionUnrecoverable = errors.New("whatsapp session folder could not be repaired")

// CheckSessionFolder makes sure the session directory exists and is
// writable. A broken folder is deleted so the next connect starts a fresh
// pairing; ErrSessionUnrecoverable is returned only when deletion fails.
func CheckSessionFolder(dir string, logger *logrus.Logger) error {
	err := probeSessionFolder(dir)
	if err == nil {
		return nil
	}

	logger.WithFields(logrus.Fields{
		"dir":   dir,
		"error": err.Error(),
	}).Warn("Session folder is not usable, deleting it")

	if rmErr := os.RemoveAll(dir); rmErr != nil {
		return fmt.Errorf("%w: %v", ErrSessionUnrecoverable, rmErr)
	}
	if mkErr := os.MkdirAll(dir, 0o700); mkErr != nil {
		return fmt.Errorf("%w: %v", ErrSessionUnrecoverable, mkErr)
	}

	logger.WithField("dir", dir).Info("Session deleted, a new QR code will be issued")
	return nil
}

func probeSessionFolder(dir string) error {
	info, err := os.Stat(dir)
	if errors.Is(err, os.ErrNotExist) {
		return os.MkdirAll(dir, 0o700)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	probe, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return fmt.Errorf("session folder not writable: %w", err)
	}
	name := probe.Name()
	_ = probe.Close()
	return os.Remove(name)
}
