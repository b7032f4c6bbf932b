package protocol

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"path"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const schemaBase = "mem://schemas/"

// cardActions are the outbound actions validated against action.schema.json.
var cardActions = []string{
	"rent", "multicolor_rent", "debt_collector", "its_your_birthday",
	"sly_deal", "forced_deal", "deal_breaker", "pass_go", "house", "hotel",
}

// Validator checks outbound frames against the embedded JSON Schemas so that
// a malformed frame never reaches the connection.
type Validator struct {
	byAction map[string]*jsonschema.Schema
}

// NewValidator compiles every embedded schema.
func NewValidator() (*Validator, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		return nil, fmt.Errorf("read schemas: %w", err)
	}
	for _, e := range entries {
		raw, err := schemaFS.ReadFile(path.Join("schemas", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		if err := c.AddResource(schemaBase+e.Name(), bytes.NewReader(raw)); err != nil {
			return nil, fmt.Errorf("add %s: %w", e.Name(), err)
		}
	}

	compile := func(name string) (*jsonschema.Schema, error) {
		s, err := c.Compile(schemaBase + name)
		if err != nil {
			return nil, fmt.Errorf("compile %s: %w", name, err)
		}
		return s, nil
	}

	v := &Validator{byAction: make(map[string]*jsonschema.Schema)}
	actionSchema, err := compile("action.schema.json")
	if err != nil {
		return nil, err
	}
	for _, a := range cardActions {
		v.byAction[a] = actionSchema
	}
	for _, a := range []string{ActionJustSayNoChoice, ActionJustSayNoResponse, ActionJustSayNoCancel, ActionPayRent} {
		s, err := compile(a + ".schema.json")
		if err != nil {
			return nil, err
		}
		v.byAction[a] = s
	}
	return v, nil
}

// Validate checks one outbound frame.
func (v *Validator) Validate(frame []byte) error {
	base, err := DecodeBase(frame)
	if err != nil {
		return fmt.Errorf("decode frame: %w", err)
	}
	s, ok := v.byAction[base.Action]
	if !ok {
		return fmt.Errorf("no schema for action %q", base.Action)
	}
	var doc any
	if err := json.Unmarshal(frame, &doc); err != nil {
		return fmt.Errorf("decode frame: %w", err)
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("%s frame: %w", base.Action, err)
	}
	return nil
}
