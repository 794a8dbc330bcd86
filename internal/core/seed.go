package core

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeedYAML []byte

// Seed is the initial data set loaded into an empty store.
type Seed struct {
	Users    []User    `yaml:"users"`
	Products []Product `yaml:"products"`
}

// DefaultSeed returns the built-in seed data.
func DefaultSeed() (*Seed, error) {
	return ParseSeed(defaultSeedYAML)
}

// LoadSeed reads seed data from a YAML file. An empty path yields the built-in seed.
func LoadSeed(path string) (*Seed, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return DefaultSeed()
	}

	// #nosec G304 -- seed path comes from operator configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes YAML seed data.
func ParseSeed(data []byte) (*Seed, error) {
	seed := &Seed{}
	if err := yaml.Unmarshal(data, seed); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}

	seen := make(map[string]struct{}, len(seed.Users))
	for _, u := range seed.Users {
		email := strings.TrimSpace(u.Email)
		if strings.TrimSpace(u.Name) == "" || email == "" {
			return nil, fmt.Errorf("parse seed: user %d is missing name or email", u.ID)
		}
		if _, dup := seen[email]; dup {
			return nil, fmt.Errorf("parse seed: duplicate email %q", email)
		}
		seen[email] = struct{}{}
	}
	return seed, nil
}
