package observerproto

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var (
	schemaOnce sync.Once
	schemaErr  error
	schemas    map[string]*jsonschema.Schema
)

func loadSchemas() {
	schemas = map[string]*jsonschema.Schema{}
	c := jsonschema.NewCompiler()
	names := []string{"subscribe.schema.json", "chunk_surface.schema.json"}
	for _, name := range names {
		b, err := schemaFS.ReadFile("schemas/" + name)
		if err != nil {
			schemaErr = err
			return
		}
		if err := c.AddResource(name, bytes.NewReader(b)); err != nil {
			schemaErr = fmt.Errorf("schema %s: %w", name, err)
			return
		}
	}
	for _, name := range names {
		s, err := c.Compile(name)
		if err != nil {
			schemaErr = fmt.Errorf("compile %s: %w", name, err)
			return
		}
		schemas[name] = s
	}
}

// Schema returns the compiled embedded schema with the given file name.
func Schema(name string) (*jsonschema.Schema, error) {
	schemaOnce.Do(loadSchemas)
	if schemaErr != nil {
		return nil, schemaErr
	}
	s, ok := schemas[name]
	if !ok {
		return nil, fmt.Errorf("unknown schema %q", name)
	}
	return s, nil
}

// DecodeSubscribe validates raw against the SUBSCRIBE schema before decoding it.
func DecodeSubscribe(raw []byte) (SubscribeMsg, error) {
	var msg SubscribeMsg
	s, err := Schema("subscribe.schema.json")
	if err != nil {
		return msg, err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return msg, fmt.Errorf("bad json: %w", err)
	}
	if err := s.Validate(doc); err != nil {
		return msg, fmt.Errorf("invalid SUBSCRIBE: %w", err)
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		return msg, err
	}
	return msg, nil
}
