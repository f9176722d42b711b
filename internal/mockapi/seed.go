package mockapi

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

type SeedItem struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Price       int64    `yaml:"price"`
	Image       string   `yaml:"image"`
	IsVeg       bool     `yaml:"isVeg"`
	Rating      float64  `yaml:"rating"`
	Tags        []string `yaml:"tags"`
}

type SeedSection struct {
	ID    string     `yaml:"id"`
	Name  string     `yaml:"name"`
	Items []SeedItem `yaml:"items"`
}

type SeedCatalog struct {
	Menu           []SeedSection `yaml:"menu"`
	ServingMethods []SeedSection `yaml:"servingMethods"`
}

type SeedDevotee struct {
	ID       string `yaml:"id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type SeedLocation struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Image string `yaml:"image"`
}

// Seed is the fixture data the stub serves.
type Seed struct {
	Devotees []SeedDevotee          `yaml:"devotees"`
	Premvati []SeedLocation         `yaml:"premvati"`
	Catalog  map[string]SeedCatalog `yaml:"catalog"`
}

// ParseSeed decodes a YAML seed document.
func ParseSeed(b []byte) (Seed, error) {
	var s Seed
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Seed{}, fmt.Errorf("parse seed: %w", err)
	}
	return s, nil
}

// DefaultSeed returns the embedded fixture.
func DefaultSeed() Seed {
	s, err := ParseSeed(defaultSeed)
	if err != nil {
		panic(err)
	}
	return s
}
