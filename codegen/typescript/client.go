package typescript

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Cstannahill/farm-framework/codegen"
	"github.com/Cstannahill/farm-framework/schema"
)

// ClientGenerator emits fetch-based client bindings: one function per
// operation plus the shared apiRequest helper they delegate to.
type ClientGenerator struct{}

// NewClientGenerator creates the client-binding emitter.
func NewClientGenerator() *ClientGenerator {
	return &ClientGenerator{}
}

// Name implements codegen.Generator.
func (g *ClientGenerator) Name() string { return "typescript-client" }

const apiRequestDefinition = `const API_BASE: string = (globalThis as { FARM_API_URL?: string }).FARM_API_URL ?? '';

export async function apiRequest<T>(path: string, init?: RequestInit): Promise<T> {
  const response = await fetch(API_BASE + path, {
    headers: { 'Content-Type': 'application/json' },
    ...init,
  });
  if (!response.ok) {
    const detail = await response.text().catch(() => undefined);
    throw Object.assign(new Error('request failed: ' + response.status), {
      status: response.status,
      detail,
    });
  }
  if (response.status === 204) {
    return undefined as T;
  }
  return (await response.json()) as T;
}`

var pathParamPattern = regexp.MustCompile(`\{([^}]+)\}`)

// Generate implements codegen.Generator.
func (g *ClientGenerator) Generate(doc *schema.Document) ([]codegen.Artifact, []error) {
	var errs []error

	artifacts := []codegen.Artifact{{
		Name:              "apiRequest",
		Kind:              codegen.KindAlias,
		Definition:        apiRequestDefinition,
		SourceDescription: "shared request helper",
		File:              ClientFile,
	}}

	for _, op := range doc.Operations() {
		a, err := g.bindingArtifact(op)
		if err != nil {
			errs = append(errs, &codegen.ArtifactError{
				Artifact:  op.ID,
				Generator: g.Name(),
				Err:       err,
			})
			continue
		}
		artifacts = append(artifacts, a)
	}

	return artifacts, errs
}

// bindingArtifact renders the client function for one operation.
func (g *ClientGenerator) bindingArtifact(op schema.NamedOperation) (codegen.Artifact, error) {
	fnName := camel(op.ID)
	pid := pascal(op.ID)
	deps := []string{"apiRequest", pid + "Response"}

	var params []string
	for _, name := range pathParams(op.Path) {
		params = append(params, fmt.Sprintf("%s: %s", camel(name), pathParamType(op.Operation, name)))
	}

	hasBody := requestBodySchema(op.Operation) != nil
	if hasBody {
		params = append(params, fmt.Sprintf("body: %sRequest", pid))
		deps = append(deps, pid+"Request")
	}

	queryFields := queryParamFields(op.Operation)
	if queryFields != "" {
		params = append(params, fmt.Sprintf("params?: { %s }", queryFields))
	}

	var sb strings.Builder
	if op.Operation.Summary != "" {
		sb.WriteString(jsdoc(op.Operation.Summary, ""))
	}
	sb.WriteString(fmt.Sprintf("export async function %s(%s): Promise<%sResponse> {\n",
		fnName, strings.Join(params, ", "), pid))

	urlExpr := templatePath(op.Path)
	if queryFields != "" {
		sb.WriteString("  const query = params ? '?' + new URLSearchParams(params as Record<string, string>).toString() : '';\n")
		urlExpr += " + query"
	}

	sb.WriteString(fmt.Sprintf("  return apiRequest<%sResponse>(%s, {\n    method: '%s',\n",
		pid, urlExpr, strings.ToUpper(op.Method)))
	if hasBody {
		sb.WriteString("    body: JSON.stringify(body),\n")
	}
	sb.WriteString("  });\n}")

	sort.Strings(deps)
	return codegen.Artifact{
		Name:              fnName,
		Kind:              codegen.KindAlias,
		Definition:        sb.String(),
		Dependencies:      deps,
		SourceDescription: fmt.Sprintf("%s %s", strings.ToUpper(op.Method), op.Path),
		File:              ClientFile,
	}, nil
}

// pathParams extracts template parameter names from a path in order.
func pathParams(path string) []string {
	matches := pathParamPattern.FindAllStringSubmatch(path, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

// pathParamType looks up the declared type of a path parameter, defaulting
// to string.
func pathParamType(op *schema.Operation, name string) string {
	for _, p := range op.Parameters {
		if p.In == "path" && p.Name == name {
			if t := tsType(p.Schema); t != UnknownTypeName {
				return t
			}
		}
	}
	return "string"
}

// queryParamFields renders the query parameter object fields, or "".
func queryParamFields(op *schema.Operation) string {
	var fields []string
	for _, p := range op.Parameters {
		if p.In != "query" {
			continue
		}
		optional := "?"
		if p.Required {
			optional = ""
		}
		fields = append(fields, fmt.Sprintf("%s%s: %s", camel(p.Name), optional, tsType(p.Schema)))
	}
	sort.Strings(fields)
	return strings.Join(fields, "; ")
}

// templatePath converts "/users/{id}" to a template literal using the
// camelCase parameter bindings.
func templatePath(path string) string {
	if !strings.Contains(path, "{") {
		return "'" + path + "'"
	}
	templated := pathParamPattern.ReplaceAllStringFunc(path, func(m string) string {
		name := strings.Trim(m, "{}")
		return "${" + camel(name) + "}"
	})
	return "`" + templated + "`"
}
