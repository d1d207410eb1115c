package persona

import (
	"bytes"
	"encoding/json"
)

type envelope struct {
	Personas json.RawMessage `json:"personas"`
	Result   *struct {
		Personas json.RawMessage `json:"personas"`
	} `json:"result"`
}

// Decode parses a persona set. It accepts a bare JSON array of objects or an
// object carrying the array under "personas" or "result.personas".
func Decode(data []byte) ([]Record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, &DecodeError{Message: "empty persona document"}
	}

	raw := trimmed
	if trimmed[0] == '{' {
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, &DecodeError{Message: "invalid persona document", Cause: err}
		}
		switch {
		case len(env.Personas) > 0:
			raw = env.Personas
		case env.Result != nil && len(env.Result.Personas) > 0:
			raw = env.Result.Personas
		default:
			return nil, &DecodeError{Message: "persona document has no personas array"}
		}
	}

	var items []map[string]any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &DecodeError{Message: "personas must be an array of objects", Cause: err}
	}

	records := make([]Record, len(items))
	for i, item := range items {
		if item == nil {
			item = map[string]any{}
		}
		records[i] = Map(item)
	}
	return records, nil
}

// DecodeTyped parses a persona set into typed personas, accepting the same shapes as Decode.
func DecodeTyped(data []byte) ([]Persona, error) {
	records, err := Decode(data)
	if err != nil {
		return nil, err
	}
	out := make([]Persona, len(records))
	for i, r := range records {
		out[i] = FromRecord(r)
	}
	return out, nil
}

// FromRecord copies any record into a typed Persona.
func FromRecord(r Record) Persona {
	return Persona{
		Name:              String(r, FieldName),
		Tier:              String(r, FieldTier),
		JobTitles:         Strings(r, FieldJobTitles),
		ExcludedJobTitles: Strings(r, FieldExcludedJobTitles),
		Industry:          String(r, FieldIndustry),
		CompanySizeRange:  String(r, FieldCompanySizeRange),
		CompanyType:       String(r, FieldCompanyType),
		Location:          String(r, FieldLocation),
		Description:       String(r, FieldDescription),
	}
}

// Records converts typed personas to the Record interface.
func Records(ps []Persona) []Record {
	out := make([]Record, len(ps))
	for i := range ps {
		out[i] = &ps[i]
	}
	return out
}
