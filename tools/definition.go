package tools

import (
	"context"
	"encoding/json"
	"slices"

	"github.com/invopop/jsonschema"
	"github.com/petasbytes/localmind/internal/argnorm"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// CatalogVersion identifies the set of tools and parameters advertised.
const CatalogVersion = "1"

// Handler runs a tool with normalized arguments. It may return any
// JSON-serializable value, or an Envelope to report its own outcome.
type Handler func(ctx context.Context, args argnorm.Args) (any, error)

// ToolDefinition is one catalog entry.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
	Params      []argnorm.Param
	Handler     Handler
}

// Spec is the form of a tool advertised to a model.
type Spec struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Parameters  *jsonschema.Schema `json:"parameters"`
}

// Spec returns the advertised form of d.
func (d ToolDefinition) Spec() Spec {
	return Spec{Name: d.Name, Description: d.Description, Parameters: d.InputSchema}
}

// ArgSpec returns the parameter table the argument normalizer checks.
func (d ToolDefinition) ArgSpec() argnorm.Spec {
	return argnorm.Spec{Tool: d.Name, Params: d.Params}
}

// Specs returns the advertised form of every definition, in order.
func Specs(defs []ToolDefinition) []Spec {
	out := make([]Spec, 0, len(defs))
	for _, d := range defs {
		out = append(out, d.Spec())
	}
	return out
}

// ArgSpecs returns the parameter tables of defs.
func ArgSpecs(defs []ToolDefinition) []argnorm.Spec {
	out := make([]argnorm.Spec, 0, len(defs))
	for _, d := range defs {
		out = append(out, d.ArgSpec())
	}
	return out
}

// GenerateSchema reflects T into an inline object schema. Fields without
// omitempty are required.
func GenerateSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)
	schema.Version = ""
	schema.ID = ""
	return schema
}

// define builds a definition whose parameter table is read from T's schema.
// Names in pathParams are cleaned as directory lists.
func define[T any](name, description string, h Handler, pathParams ...string) ToolDefinition {
	schema := GenerateSchema[T]()
	return ToolDefinition{
		Name:        name,
		Description: description,
		InputSchema: schema,
		Params:      paramsFromSchema(schema.Properties, schema.Required, pathParams),
		Handler:     h,
	}
}

// paramsFromSchema walks schema properties in declaration order.
func paramsFromSchema(props *orderedmap.OrderedMap[string, *jsonschema.Schema], required, pathParams []string) []argnorm.Param {
	if props == nil {
		return nil
	}
	var params []argnorm.Param
	for pair := props.Oldest(); pair != nil; pair = pair.Next() {
		prop := pair.Value
		p := argnorm.Param{
			Name:     pair.Key,
			Kind:     kindOf(prop.Type),
			Required: slices.Contains(required, pair.Key),
			Min:      bound(prop.Minimum),
			Max:      bound(prop.Maximum),
			Default:  defaultValue(prop.Default),
		}
		if p.Kind == argnorm.KindStringList && slices.Contains(pathParams, pair.Key) {
			p.Kind = argnorm.KindPathList
		}
		for _, e := range prop.Enum {
			if s, ok := e.(string); ok {
				p.Enum = append(p.Enum, s)
			}
		}
		params = append(params, p)
	}
	return params
}

func kindOf(schemaType string) argnorm.Kind {
	switch schemaType {
	case "integer":
		return argnorm.KindInteger
	case "number":
		return argnorm.KindNumber
	case "boolean":
		return argnorm.KindBoolean
	case "array":
		return argnorm.KindStringList
	default:
		return argnorm.KindString
	}
}

func bound(n json.Number) *int {
	v, err := n.Int64()
	if err != nil {
		return nil
	}
	return argnorm.Bound(int(v))
}

// defaultValue converts schema defaults into the Go types the normalizer
// produces.
func defaultValue(v any) any {
	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return int(i)
		}
		if f, err := n.Float64(); err == nil {
			return f
		}
	}
	return v
}
