package config

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"
)

// Provider is a key-value configuration source.
type Provider interface {
	Lookup(key string) (string, bool)
}

// EnvProvider reads from the process environment.
type EnvProvider struct{}

func (EnvProvider) Lookup(key string) (string, bool) {
	return os.LookupEnv(key)
}

// MapProvider serves keys from memory. Useful in tests.
type MapProvider map[string]string

func (m MapProvider) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// Chain consults each provider in order; the first non-empty value wins.
type Chain []Provider

func (c Chain) Lookup(key string) (string, bool) {
	for _, p := range c {
		if v, ok := p.Lookup(key); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

// readDocument loads a flat JSON object such as secrets.json or db_config.json.
func readDocument(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config document %s: %w", path, err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse config document %s: %w", path, err)
	}
	return doc, nil
}
