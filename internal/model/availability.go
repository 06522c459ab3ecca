package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// DaySlots is one day label and its ordered time labels.
type DaySlots struct {
	Day   string   `json:"day"`
	Times []string `json:"times"`
}

// Availability maps day labels to time labels in the order the doctor
// defined them. Day labels carry no calendar meaning.
type Availability []DaySlots

// Days returns the day labels in order.
func (a Availability) Days() []string {
	days := make([]string, 0, len(a))
	for _, d := range a {
		days = append(days, d.Day)
	}
	return days
}

// Times returns a copy of the slots for day and whether the day is present.
func (a Availability) Times(day string) ([]string, bool) {
	for _, d := range a {
		if d.Day == day {
			out := make([]string, len(d.Times))
			copy(out, d.Times)
			return out, true
		}
	}
	return []string{}, false
}

// Validate rejects blank labels and duplicate days or times within a day.
func (a Availability) Validate() error {
	seenDays := make(map[string]struct{}, len(a))
	for _, d := range a {
		if strings.TrimSpace(d.Day) == "" {
			return fmt.Errorf("availability: blank day label")
		}
		if _, dup := seenDays[d.Day]; dup {
			return fmt.Errorf("availability: duplicate day %q", d.Day)
		}
		seenDays[d.Day] = struct{}{}

		seenTimes := make(map[string]struct{}, len(d.Times))
		for _, t := range d.Times {
			if strings.TrimSpace(t) == "" {
				return fmt.Errorf("availability: blank time label on %q", d.Day)
			}
			if _, dup := seenTimes[t]; dup {
				return fmt.Errorf("availability: duplicate time %q on %q", t, d.Day)
			}
			seenTimes[t] = struct{}{}
		}
	}
	return nil
}

// MarshalJSON writes an object whose key order follows the day order.
func (a Availability) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, d := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(d.Day)
		if err != nil {
			return nil, err
		}
		times := d.Times
		if times == nil {
			times = []string{}
		}
		val, err := json.Marshal(times)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object keeping its key order.
func (a *Availability) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*a = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("availability: expected object, got %v", tok)
	}

	out := Availability{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		day, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("availability: expected day label, got %v", keyTok)
		}
		var times []string
		if err := dec.Decode(&times); err != nil {
			return fmt.Errorf("availability: slots for %q: %w", day, err)
		}
		if times == nil {
			times = []string{}
		}
		out = append(out, DaySlots{Day: day, Times: times})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	if err := out.Validate(); err != nil {
		return err
	}
	*a = out
	return nil
}
