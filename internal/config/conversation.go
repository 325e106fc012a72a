package config

import (
	"bytes"
	"fmt"
	"os"

	"WhatsappReminder/internal/api/outreach"
	"gopkg.in/yaml.v3"
)

// LoadContent reads the conversation phrases, replies and media from a YAML
// file. Missing fields fall back to outreach.DefaultContent. An empty path
// returns the defaults.
func LoadContent(path string) (outreach.Content, error) {
	defaults := outreach.DefaultContent()
	if path == "" {
		return defaults, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return outreach.Content{}, fmt.Errorf("read conversation config: %w", err)
	}

	var content outreach.Content
	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)
	if err := decoder.Decode(&content); err != nil {
		return outreach.Content{}, fmt.Errorf("parse conversation config %s: %w", path, err)
	}

	return content.Merge(defaults), nil
}
