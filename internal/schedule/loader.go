package schedule

import (
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// ErrNoID rejects schedule files without an id.
var ErrNoID = errors.New("schedule has no id")

// LoadFile reads a YAML schedule from fs and normalizes its day keys.
func LoadFile(fs afero.Fs, path string) (*Schedule, error) {
	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read schedule file: %w", err)
	}

	var s Schedule
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse schedule yaml: %w", err)
	}
	if s.ID == "" {
		return nil, ErrNoID
	}
	return Normalize(&s), nil
}

// EncodeDay serializes a day document.
func EncodeDay(day Day) ([]byte, error) {
	out, err := yaml.Marshal(day)
	if err != nil {
		return nil, fmt.Errorf("marshal day yaml: %w", err)
	}
	return out, nil
}

// DecodeDay parses a day document.
func DecodeDay(raw []byte) (Day, error) {
	var day Day
	if err := yaml.Unmarshal(raw, &day); err != nil {
		return Day{}, fmt.Errorf("parse day yaml: %w", err)
	}
	return day, nil
}
