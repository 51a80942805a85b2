// Package harness runs benchmark binaries and decodes the metrics they
// print to stdout.
package harness

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// parseResult decodes a single JSON object of metrics. Numbers are kept as
// json.Number so integer metrics survive without float rounding.
func parseResult(r io.Reader) (map[string]any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode JSON: %w", err)
	}

	if raw == nil {
		return nil, errors.New("decode JSON: output is null")
	}

	return raw, nil
}
