package catalog

import (
	"encoding/json"
	"fmt"
	"strings"
)

// slotObject is the structured slot shape some backend deployments return.
type slotObject struct {
	Time      string `json:"time"`
	Available *bool  `json:"available"`
}

// normalizeSlots decodes an availability payload whose elements may be bare
// time strings ("14:00") or {time, available} objects, possibly mixed within
// one response. Bare strings are treated as available; objects without an
// "available" field default to available.
func normalizeSlots(raw []json.RawMessage) ([]Slot, error) {
	slots := make([]Slot, 0, len(raw))
	for i, elem := range raw {
		trimmed := strings.TrimSpace(string(elem))
		if trimmed == "" || trimmed == "null" {
			continue
		}
		switch trimmed[0] {
		case '"':
			var t string
			if err := json.Unmarshal(elem, &t); err != nil {
				return nil, fmt.Errorf("catalog: slot %d: %w", i, err)
			}
			if t = strings.TrimSpace(t); t != "" {
				slots = append(slots, Slot{Time: t, Available: true})
			}
		case '{':
			var obj slotObject
			if err := json.Unmarshal(elem, &obj); err != nil {
				return nil, fmt.Errorf("catalog: slot %d: %w", i, err)
			}
			if obj.Time == "" {
				continue
			}
			available := true
			if obj.Available != nil {
				available = *obj.Available
			}
			slots = append(slots, Slot{Time: obj.Time, Available: available})
		default:
			return nil, fmt.Errorf("catalog: slot %d: unsupported shape %q", i, trimmed)
		}
	}
	return slots, nil
}

// AvailableTimes filters a slot set down to the open times.
func AvailableTimes(slots []Slot) []string {
	times := make([]string, 0, len(slots))
	for _, s := range slots {
		if s.Available {
			times = append(times, s.Time)
		}
	}
	return times
}
