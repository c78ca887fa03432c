package ingest

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const entrySchemaURL = "https://carbonledger.dev/schema/entry.json"

// entrySchemaJSON describes one JSON import entry.
const entrySchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "kind": {"enum": ["activity", "action"]},
    "category": {"type": "string", "minLength": 1},
    "type": {"type": "string", "minLength": 1},
    "action": {"type": "string", "minLength": 1},
    "value": {"type": "number"},
    "timestamp": {"type": "string", "format": "date-time"}
  },
  "required": ["value"],
  "additionalProperties": false
}`

//nolint:gochecknoglobals // compiled once on first use.
var entrySchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(entrySchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("parsing entry schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	c.AssertFormat()
	if err := c.AddResource(entrySchemaURL, doc); err != nil {
		return nil, fmt.Errorf("adding entry schema: %w", err)
	}
	return c.Compile(entrySchemaURL)
})

// validateJSONEntry checks one raw JSON entry against the entry schema.
func validateJSONEntry(raw []byte) error {
	sch, err := entrySchema()
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, err)
	}
	if err := sch.Validate(inst); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, err)
	}
	return nil
}
