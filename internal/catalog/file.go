package catalog

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// catalogFile is the on-disk YAML shape of an instrument universe.
type catalogFile struct {
	Instruments []RawInstrument `yaml:"instruments"`
}

// LoadFile reads an instrument universe from a YAML catalog file. Records
// failing IsValid are rejected so a malformed catalog cannot silently
// shrink the universe.
func LoadFile(path string) ([]RawInstrument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}

	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse catalog file %s: %w", path, err)
	}

	if len(cf.Instruments) == 0 {
		return nil, fmt.Errorf("catalog file %s contains no instruments", path)
	}

	seen := make(map[string]bool, len(cf.Instruments))
	for i, inst := range cf.Instruments {
		if !inst.IsValid() {
			return nil, fmt.Errorf("catalog entry %d (%q): missing key or unknown category %q", i, inst.Key, inst.Category)
		}
		if seen[inst.Key] {
			return nil, fmt.Errorf("catalog entry %d: duplicate key %q", i, inst.Key)
		}
		seen[inst.Key] = true
	}

	return cf.Instruments, nil
}

// FileSource loads the universe from a YAML file on every call, so catalog
// edits are picked up on the next refresh cycle without a restart.
type FileSource struct {
	Path string
}

// Instruments implements Source.
func (f *FileSource) Instruments(_ context.Context) ([]RawInstrument, error) {
	return LoadFile(f.Path)
}
