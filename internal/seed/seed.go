// Package seed loads the mock fixture the store starts from.
package seed

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/vanshika/circuitcycle/backend/internal/domain"
)

//go:embed seed.yaml
var defaultFixture []byte

//go:embed seed.schema.json
var schemaJSON string

const schemaURL = "seed.schema.json"

// Fixture is the initial content of the store plus the scanner catalog.
type Fixture struct {
	User        domain.User               `yaml:"user" json:"user"`
	Bins        []domain.Bin              `yaml:"bins" json:"bins"`
	Leaderboard []domain.LeaderboardEntry `yaml:"leaderboard" json:"leaderboard"`
	Catalog     []domain.ScannedItem      `yaml:"catalog" json:"catalog"`
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.CompileString(schemaURL, schemaJSON)
	})
	return schema, schemaErr
}

// Default returns the embedded demo fixture.
func Default() (Fixture, error) {
	return Parse(defaultFixture)
}

// Load reads a fixture from path, falling back to the embedded one when
// path is empty.
func Load(path string) (Fixture, error) {
	if path == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("read seed %s: %w", path, err)
	}
	fx, err := Parse(raw)
	if err != nil {
		return Fixture{}, fmt.Errorf("seed %s: %w", path, err)
	}
	return fx, nil
}

// Parse validates raw YAML against the fixture schema and decodes it.
func Parse(raw []byte) (Fixture, error) {
	if err := Validate(raw); err != nil {
		return Fixture{}, err
	}
	var fx Fixture
	if err := yaml.Unmarshal(raw, &fx); err != nil {
		return Fixture{}, fmt.Errorf("decode fixture: %w", err)
	}
	return fx, nil
}

// Validate checks raw YAML against the embedded JSON schema.
func Validate(raw []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile seed schema: %w", err)
	}

	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse fixture yaml: %w", err)
	}
	// The validator wants JSON-shaped values, so round-trip through encoding/json.
	buf, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("convert fixture: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(buf))
	dec.UseNumber()
	var jsonDoc any
	if err := dec.Decode(&jsonDoc); err != nil {
		return fmt.Errorf("convert fixture: %w", err)
	}

	if err := s.Validate(jsonDoc); err != nil {
		return fmt.Errorf("invalid fixture: %w", err)
	}
	return nil
}

// Marshal encodes a fixture as YAML.
func Marshal(fx Fixture) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(fx); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
