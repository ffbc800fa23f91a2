// Package typescript emits TypeScript artifacts from a schema document:
// raw type definitions, fetch-based client bindings, and framework hook
// shapes.
package typescript

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Cstannahill/farm-framework/schema"
	"github.com/go-openapi/inflect"
)

// Output files, relative to the output directory.
const (
	TypesFile  = "types.ts"
	ClientFile = "client.ts"
	HooksFile  = "hooks.ts"
)

// UnknownTypeName is the explicit closed variant emitted for references that
// cannot be resolved. Generated code never falls back to an untyped escape
// hatch.
const UnknownTypeName = "Unknown"

const unknownDefinition = "export interface Unknown {\n  readonly __farmUnknown: true;\n}"

// primitiveMapping defines how schema primitive kinds map to TypeScript.
var primitiveMapping = map[string]string{
	"string":  "string",
	"integer": "number",
	"number":  "number",
	"boolean": "boolean",
	"null":    "null",
}

var nonIdent = regexp.MustCompile(`[^A-Za-z0-9]+`)

// pascal converts any schema identifier to PascalCase.
func pascal(s string) string {
	cleaned := strings.Trim(nonIdent.ReplaceAllString(s, "_"), "_")
	if cleaned == "" {
		return "X"
	}
	return inflect.Camelize(cleaned)
}

// camel converts any schema identifier to camelCase.
func camel(s string) string {
	cleaned := strings.Trim(nonIdent.ReplaceAllString(s, "_"), "_")
	if cleaned == "" {
		return "x"
	}
	return inflect.CamelizeDownFirst(cleaned)
}

// tsType converts a schema type node to a TypeScript type expression.
// Unresolvable or unrecognized nodes become the closed Unknown variant.
func tsType(t *schema.Type) string {
	if t == nil {
		return UnknownTypeName
	}

	expr := tsTypeBare(t)
	if t.Nullable {
		expr += " | null"
	}
	return expr
}

func tsTypeBare(t *schema.Type) string {
	if ref := t.RefName(); ref != "" {
		return pascal(ref)
	}

	if len(t.Enum) > 0 {
		return enumUnion(t.Enum)
	}

	if len(t.AllOf) > 0 {
		return joinVariants(t.AllOf, " & ")
	}
	if len(t.AnyOf) > 0 {
		return joinVariants(t.AnyOf, " | ")
	}
	if len(t.OneOf) > 0 {
		return joinVariants(t.OneOf, " | ")
	}

	switch t.Kind {
	case "array":
		elem := tsType(t.Items)
		if strings.ContainsAny(elem, "|&") {
			return "(" + elem + ")[]"
		}
		return elem + "[]"
	case "object":
		if len(t.Properties) > 0 {
			return inlineObject(t)
		}
		return "Record<string, unknown>"
	default:
		if mapped, ok := primitiveMapping[t.Kind]; ok {
			return mapped
		}
		return UnknownTypeName
	}
}

func joinVariants(types []*schema.Type, sep string) string {
	parts := make([]string, 0, len(types))
	for _, v := range types {
		part := tsType(v)
		if strings.ContainsAny(part, "|&") && sep == " & " {
			part = "(" + part + ")"
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, sep)
}

// enumUnion renders closed enum values, sorted for deterministic output.
func enumUnion(values []string) string {
	sorted := append([]string(nil), values...)
	sort.Strings(sorted)
	parts := make([]string, len(sorted))
	for i, v := range sorted {
		parts[i] = fmt.Sprintf("'%s'", v)
	}
	return strings.Join(parts, " | ")
}

// inlineObject renders an anonymous object literal type.
func inlineObject(t *schema.Type) string {
	names := make([]string, 0, len(t.Properties))
	for name := range t.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString("{ ")
	for i, name := range names {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(fieldDecl(name, t.Properties[name], t.IsRequired(name), ""))
	}
	sb.WriteString(" }")
	return sb.String()
}

// fieldDecl renders one property declaration. indent is prepended when the
// declaration appears inside a multi-line interface body.
func fieldDecl(name string, t *schema.Type, required bool, indent string) string {
	optionalMark := ""
	if !required {
		optionalMark = "?"
	}
	return fmt.Sprintf("%s%s%s: %s;", indent, propertyName(name), optionalMark, tsType(t))
}

var validIdent = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// propertyName quotes property names that are not valid identifiers.
func propertyName(name string) string {
	if validIdent.MatchString(name) {
		return name
	}
	return fmt.Sprintf("'%s'", name)
}

// collectRefs gathers the pascalized names of every $ref reachable from t,
// sorted and deduplicated. These become artifact dependency edges.
func collectRefs(t *schema.Type) []string {
	seen := make(map[string]bool)
	walkRefs(t, seen)

	refs := make([]string, 0, len(seen))
	for name := range seen {
		refs = append(refs, name)
	}
	sort.Strings(refs)
	return refs
}

func walkRefs(t *schema.Type, seen map[string]bool) {
	if t == nil {
		return
	}
	if ref := t.RefName(); ref != "" {
		seen[pascal(ref)] = true
		return
	}
	for _, p := range t.Properties {
		walkRefs(p, seen)
	}
	walkRefs(t.Items, seen)
	for _, v := range t.AllOf {
		walkRefs(v, seen)
	}
	for _, v := range t.AnyOf {
		walkRefs(v, seen)
	}
	for _, v := range t.OneOf {
		walkRefs(v, seen)
	}
}

// jsdoc renders a description as a JSDoc block, or "" when empty.
func jsdoc(description, indent string) string {
	if description == "" {
		return ""
	}
	return fmt.Sprintf("%s/**\n%s * %s\n%s */\n", indent, indent, description, indent)
}
