package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// compiledSchemas holds compiled definitions keyed by Schema.Name. Names
// are fixed per call site (e.g. "notes-flashcards"), so the first
// definition seen for a name wins.
var compiledSchemas sync.Map // map[string]*jsonschema.Schema

// validateResponse checks a structured reply against schema. A nil schema
// accepts anything. Failures are *ErrInvalidResponse carrying the raw
// content so callers can fall back to reading it as text.
func validateResponse(schema *Schema, raw json.RawMessage) error {
	if schema == nil {
		return nil
	}
	invalid := func(loc string, err error) error {
		return &ErrInvalidResponse{Content: raw, Schema: schema.Name, Location: loc, Err: err}
	}

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(string(raw)))
	if err != nil {
		return invalid("", fmt.Errorf("reply is not JSON: %w", err))
	}

	compiled, err := compileSchema(schema)
	if err != nil {
		return invalid("", err)
	}

	if err := compiled.Validate(doc); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			leaf := firstLeaf(verr)
			return invalid(pointer(leaf.InstanceLocation), fmt.Errorf("%s reply does not match schema: %s", schema.Name, leaf.Error()))
		}
		return invalid("", fmt.Errorf("%s reply does not match schema: %w", schema.Name, err))
	}
	return nil
}

// firstLeaf follows the first cause down to the error that names a
// concrete value.
func firstLeaf(e *jsonschema.ValidationError) *jsonschema.ValidationError {
	for len(e.Causes) > 0 {
		e = e.Causes[0]
	}
	return e
}

func pointer(loc []string) string {
	if len(loc) == 0 {
		return "/"
	}
	return "/" + strings.Join(loc, "/")
}

func compileSchema(schema *Schema) (*jsonschema.Schema, error) {
	if cached, ok := compiledSchemas.Load(schema.Name); ok {
		return cached.(*jsonschema.Schema), nil
	}

	// The compiler wants decoded JSON values, not Go maps with typed slices.
	def, err := json.Marshal(schema.Definition)
	if err != nil {
		return nil, fmt.Errorf("encode schema %q: %w", schema.Name, err)
	}
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(string(def)))
	if err != nil {
		return nil, fmt.Errorf("decode schema %q: %w", schema.Name, err)
	}

	url := "mem://schemas/" + schema.Name + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add schema %q: %w", schema.Name, err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %q: %w", schema.Name, err)
	}

	actual, _ := compiledSchemas.LoadOrStore(schema.Name, compiled)
	return actual.(*jsonschema.Schema), nil
}
