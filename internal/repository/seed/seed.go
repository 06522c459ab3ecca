// Package seed holds the bundled doctor directory.
package seed

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/jwalitptl/booking-api/internal/model"
)

//go:embed doctors.json
var doctorsJSON []byte

// Doctors decodes and validates the bundled directory. Each call returns
// fresh records.
func Doctors() ([]*model.Doctor, error) {
	return Decode(doctorsJSON)
}

// Decode parses a directory document in the bundled format.
func Decode(data []byte) ([]*model.Doctor, error) {
	var doctors []*model.Doctor
	if err := json.Unmarshal(data, &doctors); err != nil {
		return nil, fmt.Errorf("failed to decode doctor directory: %w", err)
	}

	seen := make(map[string]struct{}, len(doctors))
	for _, d := range doctors {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[d.ID]; dup {
			return nil, fmt.Errorf("duplicate doctor id %q", d.ID)
		}
		seen[d.ID] = struct{}{}
	}
	return doctors, nil
}
