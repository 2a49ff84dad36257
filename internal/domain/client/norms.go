package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrNoNormFields = errors.New("At least one norm field must be provided")

type normField struct {
	key    string
	column string
}

var normFields = []normField{
	{"kcalMin", "kcal_min"},
	{"kcalMax", "kcal_max"},
	{"proteinGrams", "protein_grams"},
	{"fatGramsMin", "fat_grams_min"},
	{"fatGramsMax", "fat_grams_max"},
	{"carbsGramsMin", "carbs_grams_min"},
	{"carbsGramsMax", "carbs_grams_max"},
	{"fiberGrams", "fiber_grams"},
}

// NormValue is one provided field of a norms update. A nil Value clears it.
type NormValue struct {
	Column string
	Value  *float64
}

// NormsPatch lists the fields present in an update, in column order.
type NormsPatch []NormValue

// NormFieldError reports a field that is present but not a number.
type NormFieldError struct {
	Field string
}

func (e *NormFieldError) Error() string {
	return fmt.Sprintf("Field %s must be a number if provided", e.Field)
}

// ParseNormsPatch reads a JSON object of norm fields. Absent fields are left
// untouched, null clears a field and any other non-number is rejected.
func ParseNormsPatch(body []byte) (NormsPatch, error) {
	var raw map[string]json.RawMessage
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, ErrNoNormFields
		}
	}

	var patch NormsPatch
	for _, f := range normFields {
		msg, ok := raw[f.key]
		if !ok {
			continue
		}
		if string(bytes.TrimSpace(msg)) == "null" {
			patch = append(patch, NormValue{Column: f.column})
			continue
		}
		var v float64
		if err := json.Unmarshal(msg, &v); err != nil {
			return nil, &NormFieldError{Field: f.key}
		}
		patch = append(patch, NormValue{Column: f.column, Value: &v})
	}
	if len(patch) == 0 {
		return nil, ErrNoNormFields
	}
	return patch, nil
}

// Apply writes the patch onto n.
func (p NormsPatch) Apply(n *NutrientNorms) {
	for _, v := range p {
		switch v.Column {
		case "kcal_min":
			n.KcalMin = v.Value
		case "kcal_max":
			n.KcalMax = v.Value
		case "protein_grams":
			n.ProteinGrams = v.Value
		case "fat_grams_min":
			n.FatGramsMin = v.Value
		case "fat_grams_max":
			n.FatGramsMax = v.Value
		case "carbs_grams_min":
			n.CarbsGramsMin = v.Value
		case "carbs_grams_max":
			n.CarbsGramsMax = v.Value
		case "fiber_grams":
			n.FiberGrams = v.Value
		}
	}
}

// FullPatch sets every field from n, used when seeding norms.
func FullPatch(n NutrientNorms) NormsPatch {
	return NormsPatch{
		{"kcal_min", n.KcalMin},
		{"kcal_max", n.KcalMax},
		{"protein_grams", n.ProteinGrams},
		{"fat_grams_min", n.FatGramsMin},
		{"fat_grams_max", n.FatGramsMax},
		{"carbs_grams_min", n.CarbsGramsMin},
		{"carbs_grams_max", n.CarbsGramsMax},
		{"fiber_grams", n.FiberGrams},
	}
}
