package emit

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Rdwburns/dbt-metrics-first/pkg/core"
)

// Marshal renders unit as YAML with two-space indentation. Multi-line
// strings are emitted as literal blocks.
func Marshal(unit core.CompilationUnit) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(unit); err != nil {
		return nil, fmt.Errorf("encode compilation unit: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode compilation unit: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile marshals unit and writes it to path.
func WriteFile(path string, unit core.CompilationUnit) error {
	data, err := Marshal(unit)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil { //nolint:gosec // generated dbt project files are world-readable
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
