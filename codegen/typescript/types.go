package typescript

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Cstannahill/farm-framework/codegen"
	"github.com/Cstannahill/farm-framework/errors"
	"github.com/Cstannahill/farm-framework/schema"
)

// TypeGenerator emits the raw TypeScript type definitions: one artifact per
// named schema definition plus request/response/error artifacts per
// operation.
type TypeGenerator struct{}

// NewTypeGenerator creates the raw type emitter.
func NewTypeGenerator() *TypeGenerator {
	return &TypeGenerator{}
}

// Name implements codegen.Generator.
func (g *TypeGenerator) Name() string { return "typescript-types" }

// apiErrorDefinition is the shared error shape produced by the backend
// (FastAPI HTTPException payloads carry a detail field).
const apiErrorDefinition = "export interface ApiError {\n  status: number;\n  detail?: string;\n}"

// Generate implements codegen.Generator.
func (g *TypeGenerator) Generate(doc *schema.Document) ([]codegen.Artifact, []error) {
	var artifacts []codegen.Artifact
	var errs []error

	emitted := make(map[string]bool)
	emit := func(a codegen.Artifact) {
		artifacts = append(artifacts, a)
		emitted[a.Name] = true
	}

	// Named type definitions.
	for _, name := range doc.SchemaNames() {
		t := doc.Components.Schemas[name]
		a, err := g.definitionArtifact(pascal(name), t, "components.schemas."+name)
		if err != nil {
			errs = append(errs, &codegen.ArtifactError{
				Artifact:  name,
				Generator: g.Name(),
				Err:       err,
			})
			continue
		}
		emit(a)
	}

	// Operation request/response/error shapes. References to types that have
	// not been emitted yet go on a work queue and are materialized after the
	// walk; whatever remains unresolvable becomes an Unknown placeholder.
	var queue []string
	queued := make(map[string]bool)
	enqueue := func(deps []string) {
		for _, dep := range deps {
			if !emitted[dep] && !queued[dep] && dep != UnknownTypeName && dep != "ApiError" {
				queued[dep] = true
				queue = append(queue, dep)
			}
		}
	}

	usesAPIError := false
	for _, op := range doc.Operations() {
		opArtifacts := g.operationArtifacts(op)
		for _, a := range opArtifacts {
			enqueue(a.Dependencies)
			emit(a)
			for _, dep := range a.Dependencies {
				if dep == "ApiError" {
					usesAPIError = true
				}
			}
		}
	}

	if usesAPIError {
		emit(codegen.Artifact{
			Name:              "ApiError",
			Kind:              codegen.KindStruct,
			Definition:        apiErrorDefinition,
			SourceDescription: "shared error response shape",
			File:              TypesFile,
		})
	}

	// Drain the work queue: anything still missing gets a placeholder.
	needUnknown := false
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if emitted[name] {
			continue
		}
		needUnknown = true
		emit(codegen.Artifact{
			Name:              name,
			Kind:              codegen.KindAlias,
			Definition:        fmt.Sprintf("export type %s = %s;", name, UnknownTypeName),
			Dependencies:      []string{UnknownTypeName},
			SourceDescription: "placeholder for unresolvable reference",
			File:              TypesFile,
		})
	}

	if !needUnknown {
		// Inline expressions may produce Unknown without a queued ref.
		for _, a := range artifacts {
			if referencesUnknown(a.Definition) {
				needUnknown = true
				break
			}
		}
	}
	if needUnknown {
		emit(codegen.Artifact{
			Name:              UnknownTypeName,
			Kind:              codegen.KindStruct,
			Definition:        unknownDefinition,
			SourceDescription: "closed variant for unresolvable types",
			File:              TypesFile,
		})
	}

	return artifacts, errs
}

var unknownWord = regexp.MustCompile(`\bUnknown\b`)

func referencesUnknown(definition string) bool {
	return unknownWord.MatchString(definition) &&
		!strings.HasPrefix(definition, "export interface Unknown")
}

// definitionArtifact renders one named schema definition.
func (g *TypeGenerator) definitionArtifact(name string, t *schema.Type, source string) (codegen.Artifact, error) {
	if t == nil {
		return codegen.Artifact{}, errors.Newf("schema definition %s is empty", name)
	}

	kind := codegen.KindAlias
	var definition string

	switch {
	case len(t.Enum) > 0:
		kind = codegen.KindEnum
		definition = fmt.Sprintf("%sexport type %s = %s;", jsdoc(t.Description, ""), name, enumUnion(t.Enum))

	case t.Kind == "object" || len(t.Properties) > 0:
		kind = codegen.KindStruct
		definition = g.interfaceDefinition(name, t)

	case len(t.AllOf) > 0 || len(t.AnyOf) > 0 || len(t.OneOf) > 0,
		t.Kind == "array",
		t.Ref != "",
		primitiveMapping[t.Kind] != "":
		definition = fmt.Sprintf("%sexport type %s = %s;", jsdoc(t.Description, ""), name, tsType(t))

	default:
		return codegen.Artifact{}, errors.Newf("unsupported schema kind %q for %s", t.Kind, name)
	}

	return codegen.Artifact{
		Name:              name,
		Kind:              kind,
		Definition:        definition,
		Dependencies:      collectRefs(t),
		SourceDescription: source,
		File:              TypesFile,
	}, nil
}

// interfaceDefinition renders an object definition as an exported interface.
func (g *TypeGenerator) interfaceDefinition(name string, t *schema.Type) string {
	var sb strings.Builder
	sb.WriteString(jsdoc(t.Description, ""))
	sb.WriteString(fmt.Sprintf("export interface %s {\n", name))

	props := make([]string, 0, len(t.Properties))
	for p := range t.Properties {
		props = append(props, p)
	}
	sort.Strings(props)

	for _, p := range props {
		prop := t.Properties[p]
		sb.WriteString(jsdoc(prop.Description, "  "))
		sb.WriteString(fieldDecl(p, prop, t.IsRequired(p), "  "))
		sb.WriteString("\n")
	}

	sb.WriteString("}")
	return sb.String()
}

// operationArtifacts synthesizes the request/response/error artifacts for one
// operation, keyed by its identifier.
func (g *TypeGenerator) operationArtifacts(op schema.NamedOperation) []codegen.Artifact {
	pid := pascal(op.ID)
	source := fmt.Sprintf("%s %s", strings.ToUpper(op.Method), op.Path)
	var out []codegen.Artifact

	if body := requestBodySchema(op.Operation); body != nil {
		out = append(out, g.shapeArtifact(pid+"Request", body, source+" request body"))
	}

	respSchema := successResponseSchema(op.Operation)
	out = append(out, g.shapeArtifact(pid+"Response", respSchema, source+" response"))

	out = append(out, codegen.Artifact{
		Name:              pid + "Error",
		Kind:              codegen.KindAlias,
		Definition:        fmt.Sprintf("export type %sError = ApiError;", pid),
		Dependencies:      []string{"ApiError"},
		SourceDescription: source + " error",
		File:              TypesFile,
	})

	return out
}

// shapeArtifact renders a request or response schema as a named artifact.
// A nil schema (e.g. a 204 response) becomes a void alias.
func (g *TypeGenerator) shapeArtifact(name string, t *schema.Type, source string) codegen.Artifact {
	if t == nil {
		return codegen.Artifact{
			Name:              name,
			Kind:              codegen.KindAlias,
			Definition:        fmt.Sprintf("export type %s = void;", name),
			SourceDescription: source,
			File:              TypesFile,
		}
	}

	if t.Kind == "object" || (len(t.Properties) > 0 && t.Ref == "") {
		return codegen.Artifact{
			Name:              name,
			Kind:              codegen.KindStruct,
			Definition:        g.interfaceDefinition(name, t),
			Dependencies:      collectRefs(t),
			SourceDescription: source,
			File:              TypesFile,
		}
	}

	return codegen.Artifact{
		Name:              name,
		Kind:              codegen.KindAlias,
		Definition:        fmt.Sprintf("export type %s = %s;", name, tsType(t)),
		Dependencies:      collectRefs(t),
		SourceDescription: source,
		File:              TypesFile,
	}
}

// requestBodySchema returns the JSON request body schema, or nil.
func requestBodySchema(op *schema.Operation) *schema.Type {
	if op.RequestBody == nil {
		return nil
	}
	return jsonContent(op.RequestBody.Content)
}

// successResponseSchema returns the schema of the lowest 2xx response, or nil.
func successResponseSchema(op *schema.Operation) *schema.Type {
	codes := make([]string, 0, len(op.Responses))
	for code := range op.Responses {
		if strings.HasPrefix(code, "2") {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)

	for _, code := range codes {
		if t := jsonContent(op.Responses[code].Content); t != nil {
			return t
		}
	}
	return nil
}

func jsonContent(content map[string]schema.MediaType) *schema.Type {
	if mt, ok := content["application/json"]; ok {
		return mt.Schema
	}
	// Fall back to the first content type in sorted order.
	keys := make([]string, 0, len(content))
	for k := range content {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if content[k].Schema != nil {
			return content[k].Schema
		}
	}
	return nil
}
