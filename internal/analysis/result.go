package analysis

import (
	"errors"
	"fmt"

	"candle-lens/internal/domain"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var ErrMalformedResponse = errors.New("malformed analysis response")

// legacyFields maps the snake_case spellings older services use to the canonical keys.
var legacyFields = [][2]string{
	{"discrepancy_warning", "discrepancyWarning"},
	{"image_analysis", "imageAnalysis"},
	{"image_analysis_discrepancy", "imageAnalysisDiscrepancy"},
}

// RenameLegacyFields rewrites snake_case optional keys to their camelCase names.
// A snake_case key is only moved when the camelCase key is absent or null.
func RenameLegacyFields(body []byte) ([]byte, error) {
	for _, pair := range legacyFields {
		legacy, canonical := pair[0], pair[1]
		old := gjson.GetBytes(body, legacy)
		if !old.Exists() {
			continue
		}
		cur := gjson.GetBytes(body, canonical)
		var err error
		if !cur.Exists() || cur.Type == gjson.Null {
			body, err = sjson.SetRawBytes(body, canonical, []byte(old.Raw))
			if err != nil {
				return nil, fmt.Errorf("rename %s: %w", legacy, err)
			}
		}
		body, err = sjson.DeleteBytes(body, legacy)
		if err != nil {
			return nil, fmt.Errorf("drop %s: %w", legacy, err)
		}
	}
	return body, nil
}

// DecodeResult maps a service response body onto an AnalysisResult.
// "recommendation" wins over "action"; numeric fields accept numeric strings;
// takeProfits is padded or cut to three entries.
func DecodeResult(body []byte) (*domain.AnalysisResult, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrMalformedResponse
	}
	if !gjson.ParseBytes(body).IsObject() {
		return nil, ErrMalformedResponse
	}

	body, err := RenameLegacyFields(append([]byte(nil), body...))
	if err != nil {
		return nil, err
	}
	obj := gjson.ParseBytes(body)

	res := &domain.AnalysisResult{Recommendation: domain.RecommendationHold}
	if r, ok := lookup(obj, "recommendation", "action"); ok {
		res.Recommendation = domain.ParseRecommendation(scalarString(r))
	}
	res.Confidence = number(obj, "confidence")
	res.EntryPrice = number(obj, "entryPrice")
	res.StopLoss = number(obj, "stopLoss")
	if r, ok := lookup(obj, "takeProfits"); ok && r.IsArray() {
		for i, el := range r.Array() {
			if i >= len(res.TakeProfits) {
				break
			}
			if v, ok := toNumber(el); ok {
				res.TakeProfits[i] = v
			}
		}
	}
	if r, ok := lookup(obj, "reasoning"); ok {
		res.Reasoning = scalarString(r)
	}
	if r, ok := lookup(obj, "discrepancyWarning"); ok {
		res.DiscrepancyWarning = scalarString(r)
	}
	if r, ok := lookup(obj, "imageAnalysis"); ok {
		res.ImageAnalysis = domain.ImageAnalysis(r.Raw)
	}
	if r, ok := lookup(obj, "imageAnalysisDiscrepancy"); ok {
		res.ImageAnalysisDiscrepancy = domain.ImageAnalysis(r.Raw)
	}
	return res, nil
}

func number(obj gjson.Result, key string) float64 {
	r, ok := lookup(obj, key)
	if !ok {
		return 0
	}
	v, _ := toNumber(r)
	return v
}
