package decompose

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// PipelineSchema constrains what the language model may hand back before
// any of it is treated as a plan.
const PipelineSchema = `{
	"type": "array",
	"minItems": 1,
	"items": {
		"type": "object",
		"required": ["task", "prompt"],
		"properties": {
			"step": {"type": "integer", "minimum": 1},
			"task": {
				"type": "string",
				"enum": ["general", "grounding", "affordance", "trajectory", "pointing"]
			},
			"prompt": {"type": "string", "minLength": 1},
			"description": {"type": "string"},
			"use_previous": {"type": "boolean"}
		}
	}
}`

var pipelineSchemaLoader = gojsonschema.NewStringLoader(PipelineSchema)

// validatePipelineJSON checks a raw JSON array against PipelineSchema.
func validatePipelineJSON(raw string) error {
	result, err := gojsonschema.Validate(pipelineSchemaLoader, gojsonschema.NewStringLoader(raw))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("invalid pipeline: %s", strings.Join(msgs, "; "))
	}
	return nil
}
