package catalog

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the catalog YAML and returns the validated Catalog with the
// raw bytes. KnownFields(true) makes typos and unused fields fail at
// load time instead of deep in the pipeline.
func Load(path string) (*Catalog, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	cat, err := Parse(data)
	if err != nil {
		return nil, data, err
	}

	return cat, data, nil
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var cat Catalog
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cat); err != nil {
		return nil, err
	}

	cat.applyDefaults()

	if err := Validate(&cat); err != nil {
		return nil, err
	}

	return &cat, nil
}

func (c *Catalog) applyDefaults() {
	if c.Window.Months == 0 {
		c.Window.Months = 24
	}
	if c.Window.MaxGapMonths == 0 {
		c.Window.MaxGapMonths = 2
	}
}

// Hash generates a SHA256 hash of the catalog (canonical JSON).
// Stored with every archived run so partial-data runs are traceable to
// the exact configuration that produced them.
func Hash(cat *Catalog) (string, error) {
	jsonBytes, err := json.Marshal(cat)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}
