// Package rubric defines the fixed scoring rubric shared by the analysis
// pipeline and the weekly reporting engine.
package rubric

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// The six scored dimensions, in canonical order.
const (
	Opening   = "opening"
	Discovery = "discovery"
	ValueProp = "value_prop"
	Objection = "objection"
	Closing   = "closing"
	Tone      = "tone"
)

// Overall is the synthetic seventh key: computed from the six dimension
// averages, never stored as a dimension of its own.
const Overall = "overall"

// Dimensions lists the scored dimensions in canonical order.
var Dimensions = []string{Opening, Discovery, ValueProp, Objection, Closing, Tone}

// MinScore and MaxScore bound a single dimension score.
const (
	MinScore = 1
	MaxScore = 10
)

// IsDimension reports whether key is one of the six canonical dimensions.
func IsDimension(key string) bool {
	for _, d := range Dimensions {
		if d == key {
			return true
		}
	}
	return false
}

// Round1 rounds to one decimal place, halves away from zero.
func Round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// ScoreMap maps dimension keys (plus Overall) to one-decimal scores. Its
// JSON form always lists keys in canonical dimension order with Overall
// last, so serializing the same values twice yields identical bytes.
type ScoreMap map[string]float64

// MarshalJSON emits keys in canonical order.
func (m ScoreMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, key := range orderedKeys(len(m), func(k string) bool { _, ok := m[k]; return ok }, m.keys) {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		fmt.Fprintf(&buf, "%q:%s", key, formatScore(m[key]))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts a plain JSON object.
func (m *ScoreMap) UnmarshalJSON(data []byte) error {
	raw := map[string]float64{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = raw
	return nil
}

func (m ScoreMap) keys() []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// Impact describes the effect of coaching on one dimension.
type Impact struct {
	Coached  bool    `json:"coached"`
	Delta    float64 `json:"delta"`
	Improved bool    `json:"improved"`
}

// ImpactMap maps coached dimensions to their observed impact. Marshals in
// canonical dimension order, same as ScoreMap.
type ImpactMap map[string]Impact

// MarshalJSON emits keys in canonical order.
func (m ImpactMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, key := range orderedKeys(len(m), func(k string) bool { _, ok := m[k]; return ok }, m.keys) {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		impact, err := json.Marshal(m[key])
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&buf, "%q:%s", key, impact)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts a plain JSON object.
func (m *ImpactMap) UnmarshalJSON(data []byte) error {
	raw := map[string]Impact{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = raw
	return nil
}

func (m ImpactMap) keys() []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// orderedKeys returns the canonical dimensions plus Overall, filtered by
// presence. Non-canonical keys never appear in engine-produced maps, but
// round-tripping stored JSON must not drop them, so they sort last.
func orderedKeys(n int, has func(string) bool, all func() []string) []string {
	keys := make([]string, 0, n)
	for _, d := range Dimensions {
		if has(d) {
			keys = append(keys, d)
		}
	}
	if has(Overall) {
		keys = append(keys, Overall)
	}
	if len(keys) < n {
		var extra []string
		for _, k := range all() {
			if !IsDimension(k) && k != Overall {
				extra = append(extra, k)
			}
		}
		sort.Strings(extra)
		keys = append(keys, extra...)
	}
	return keys
}

// formatScore renders a one-decimal score without float noise.
func formatScore(v float64) string {
	s := fmt.Sprintf("%.1f", v)
	// Normalize negative zero from rounding tiny negative deltas.
	if s == "-0.0" {
		return "0.0"
	}
	return s
}

