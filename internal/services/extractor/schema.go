package extractor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"google.golang.org/genai"
)

// ErrSchemaViolation is returned when model output does not match the extraction schema.
var ErrSchemaViolation = errors.New("extraction output does not match schema")

// responseSchema constrains the model's JSON output.
var responseSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"propertyType":   {Type: genai.TypeString, Enum: []string{"HDB", "Private"}},
		"loanSize":       {Type: genai.TypeNumber, Description: "Loan amount in SGD"},
		"loanPurpose":    {Type: genai.TypeString, Enum: []string{"New Purchase", "Refinance"}},
		"ratePreference": {Type: genai.TypeString, Enum: []string{"Fixed", "Floating"}},
		"lockInStatus":   {Type: genai.TypeString},
		"intent":         {Type: genai.TypeString, Enum: []string{"exploratory", "direct", "mixed"}},
		"reasoning":      {Type: genai.TypeString},
	},
	Required: []string{"intent", "reasoning"},
}

// validationSchema checks shape only; enum values are normalised after decoding.
var validationSchema = gojsonschema.NewGoLoader(map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"propertyType":   map[string]interface{}{"type": []string{"string", "null"}},
		"loanSize":       map[string]interface{}{"type": []string{"number", "null"}, "minimum": 0},
		"loanPurpose":    map[string]interface{}{"type": []string{"string", "null"}},
		"ratePreference": map[string]interface{}{"type": []string{"string", "null"}},
		"lockInStatus":   map[string]interface{}{"type": []string{"string", "null"}},
		"intent": map[string]interface{}{
			"type": "string",
			"enum": []string{"exploratory", "direct", "mixed", "Exploratory", "Direct", "Mixed"},
		},
		"reasoning": map[string]interface{}{"type": "string"},
	},
	"required": []string{"intent"},
})

// validateOutput checks raw model output against the extraction schema.
func validateOutput(raw string) error {
	result, err := gojsonschema.Validate(validationSchema, gojsonschema.NewStringLoader(raw))
	if err != nil {
		return fmt.Errorf("failed to validate extraction output: %w", err)
	}

	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			problems = append(problems, e.String())
		}
		return fmt.Errorf("%w: %s", ErrSchemaViolation, strings.Join(problems, "; "))
	}

	return nil
}
