// Package schema models the extracted API schema document and its
// content-addressed fingerprint.
//
// The document is the OpenAPI-shaped description served by the backend:
// named type definitions under components.schemas and named operations under
// paths. A Document is immutable once extracted; the next extraction
// supersedes it rather than mutating it.
package schema

import (
	"sort"
	"strings"
)

// Document is the full extracted schema.
type Document struct {
	OpenAPI    string              `json:"openapi"`
	Info       Info                `json:"info"`
	Paths      map[string]PathItem `json:"paths"`
	Components Components          `json:"components,omitempty"`
}

// Info carries schema metadata.
type Info struct {
	Title       string `json:"title,omitempty"`
	Version     string `json:"version,omitempty"`
	Description string `json:"description,omitempty"`
}

// Components holds the named type definitions.
type Components struct {
	Schemas map[string]*Type `json:"schemas,omitempty"`
}

// PathItem maps a lowercase HTTP method to its operation.
type PathItem map[string]*Operation

// Operation is one named operation with request/response/error shapes.
type Operation struct {
	OperationID string               `json:"operationId,omitempty"`
	Summary     string               `json:"summary,omitempty"`
	Parameters  []Parameter          `json:"parameters,omitempty"`
	RequestBody *RequestBody         `json:"requestBody,omitempty"`
	Responses   map[string]*Response `json:"responses,omitempty"`
}

// Parameter is a query/path/header parameter.
type Parameter struct {
	Name     string `json:"name"`
	In       string `json:"in"`
	Required bool   `json:"required,omitempty"`
	Schema   *Type  `json:"schema,omitempty"`
}

// RequestBody describes an operation's request payload.
type RequestBody struct {
	Required bool                 `json:"required,omitempty"`
	Content  map[string]MediaType `json:"content,omitempty"`
}

// Response describes one response status of an operation.
type Response struct {
	Description string               `json:"description,omitempty"`
	Content     map[string]MediaType `json:"content,omitempty"`
}

// MediaType wraps the schema of one content type.
type MediaType struct {
	Schema *Type `json:"schema,omitempty"`
}

// Type is a recursive schema type node.
type Type struct {
	Ref         string           `json:"$ref,omitempty"`
	Kind        string           `json:"type,omitempty"`
	Format      string           `json:"format,omitempty"`
	Description string           `json:"description,omitempty"`
	Nullable    bool             `json:"nullable,omitempty"`
	Enum        []string         `json:"enum,omitempty"`
	Properties  map[string]*Type `json:"properties,omitempty"`
	Required    []string         `json:"required,omitempty"`
	Items       *Type            `json:"items,omitempty"`
	AllOf       []*Type          `json:"allOf,omitempty"`
	AnyOf       []*Type          `json:"anyOf,omitempty"`
	OneOf       []*Type          `json:"oneOf,omitempty"`
}

// RefName returns the named definition a $ref points at, or "" for non-refs.
func (t *Type) RefName() string {
	if t == nil || t.Ref == "" {
		return ""
	}
	parts := strings.Split(t.Ref, "/")
	return parts[len(parts)-1]
}

// IsRequired reports whether prop appears in the type's required list.
func (t *Type) IsRequired(prop string) bool {
	for _, r := range t.Required {
		if r == prop {
			return true
		}
	}
	return false
}

// NamedOperation pairs an operation with its path, method, and resolved
// identifier.
type NamedOperation struct {
	ID        string
	Path      string
	Method    string
	Operation *Operation
}

// Operations returns every operation in deterministic (path, method) order
// with its identifier resolved. Operations without an explicit operationId
// get a slug synthesized from method and path.
func (d *Document) Operations() []NamedOperation {
	var ops []NamedOperation
	for path, item := range d.Paths {
		for method, op := range item {
			if op == nil {
				continue
			}
			id := op.OperationID
			if id == "" {
				id = slugOperationID(method, path)
			}
			ops = append(ops, NamedOperation{
				ID:        id,
				Path:      path,
				Method:    strings.ToLower(method),
				Operation: op,
			})
		}
	}
	sort.Slice(ops, func(i, j int) bool {
		if ops[i].Path != ops[j].Path {
			return ops[i].Path < ops[j].Path
		}
		return ops[i].Method < ops[j].Method
	})
	return ops
}

// SchemaNames returns the named type definitions in sorted order.
func (d *Document) SchemaNames() []string {
	names := make([]string, 0, len(d.Components.Schemas))
	for name := range d.Components.Schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// slugOperationID builds a fallback identifier like "get_users_id" from
// "GET /users/{id}".
func slugOperationID(method, path string) string {
	cleaned := strings.NewReplacer("{", "", "}", "", "/", "_", "-", "_").Replace(path)
	cleaned = strings.Trim(cleaned, "_")
	if cleaned == "" {
		cleaned = "root"
	}
	return strings.ToLower(method) + "_" + cleaned
}
