package generator

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vanshika/circuitcycle/backend/internal/seed"
)

// WriteFixture validates the fixture against the seed schema and writes it
// as YAML to path, creating parent directories.
func WriteFixture(fx seed.Fixture, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	if err := EncodeFixture(fx, file); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// EncodeFixture validates and writes the fixture YAML to w.
func EncodeFixture(fx seed.Fixture, w io.Writer) error {
	raw, err := seed.Marshal(fx)
	if err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	if err := seed.Validate(raw); err != nil {
		return err
	}
	if _, err := w.Write(raw); err != nil {
		return err
	}
	return nil
}
