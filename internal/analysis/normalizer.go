package analysis

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"candle-lens/internal/domain"

	"github.com/tidwall/gjson"
)

// Normalize maps a raw image-analysis bag onto its canonical form.
// A zero bag yields nil. Anything that is not a JSON object is read as an empty object.
func Normalize(raw domain.ImageAnalysis) *domain.NormalizedImageAnalysis {
	if raw.IsZero() {
		return nil
	}

	obj := gjson.Result{}
	if gjson.ValidBytes(raw) {
		if parsed := gjson.ParseBytes(raw); parsed.IsObject() {
			obj = parsed
		}
	}

	out := &domain.NormalizedImageAnalysis{
		Action:           domain.ActionHold,
		SupportLevels:    []float64{},
		ResistanceLevels: []float64{},
		VisualPatterns:   []string{},
	}

	if r, ok := lookup(obj, "action", "Action"); ok {
		out.Action = normalizeAction(scalarString(r))
	}
	if r, ok := lookup(obj, "confidence", "Confidence"); ok {
		if v, ok := toNumber(r); ok {
			out.Confidence = v
		}
	}
	if r, ok := lookup(obj, "reasoning", "Reasoning"); ok {
		out.Reasoning = scalarString(r)
	}
	if r, ok := lookup(obj, "support_levels", "supportLevels"); ok {
		out.SupportLevels = numbers(r)
	}
	if r, ok := lookup(obj, "resistance_levels", "resistanceLevels"); ok {
		out.ResistanceLevels = numbers(r)
	}
	if r, ok := lookup(obj, "trend_direction", "trendDirection"); ok {
		out.TrendDirection = strings.ToUpper(strings.TrimSpace(scalarString(r)))
	}
	if r, ok := lookup(obj, "visual_patterns", "visualPatterns"); ok && r.IsArray() {
		for _, el := range r.Array() {
			out.VisualPatterns = append(out.VisualPatterns, scalarString(el))
		}
	}

	return out
}

// Denormalize re-emits n under the snake_case field names. nil yields a zero bag.
func Denormalize(n *domain.NormalizedImageAnalysis) domain.ImageAnalysis {
	if n == nil {
		return nil
	}
	b, err := json.Marshal(n)
	if err != nil {
		return nil
	}
	return domain.ImageAnalysis(b)
}

// lookup returns the first key of keys that is present and not null.
func lookup(obj gjson.Result, keys ...string) (gjson.Result, bool) {
	if !obj.IsObject() {
		return gjson.Result{}, false
	}
	for _, k := range keys {
		r := obj.Get(k)
		if r.Exists() && r.Type != gjson.Null {
			return r, true
		}
	}
	return gjson.Result{}, false
}

func normalizeAction(s string) string {
	switch a := strings.ToUpper(strings.TrimSpace(s)); a {
	case domain.ActionBuy, domain.ActionSell, domain.ActionHold:
		return a
	}
	return domain.ActionHold
}

// scalarString renders strings, numbers and booleans as text. Objects, arrays and null read as "".
func scalarString(r gjson.Result) string {
	switch r.Type {
	case gjson.String:
		return r.Str
	case gjson.Number, gjson.True, gjson.False:
		return r.Raw
	}
	return ""
}

func numbers(r gjson.Result) []float64 {
	out := []float64{}
	if !r.IsArray() {
		return out
	}
	for _, el := range r.Array() {
		if v, ok := toNumber(el); ok {
			out = append(out, v)
		}
	}
	return out
}

// toNumber accepts JSON numbers and decimal numeric strings. Non-finite values are rejected.
func toNumber(r gjson.Result) (float64, bool) {
	var v float64
	switch r.Type {
	case gjson.Number:
		parsed, err := strconv.ParseFloat(r.Raw, 64)
		if err != nil {
			return 0, false
		}
		v = parsed
	case gjson.String:
		s := strings.TrimSpace(r.Str)
		if s == "" || strings.Trim(s, "0123456789.eE+-") != "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		v = parsed
	default:
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
