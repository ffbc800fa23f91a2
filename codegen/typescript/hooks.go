package typescript

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Cstannahill/farm-framework/codegen"
	"github.com/Cstannahill/farm-framework/config"
	"github.com/Cstannahill/farm-framework/schema"
)

// HookGenerator emits framework hook shapes over the client bindings:
// query hooks for GET operations, mutation hooks for the rest, with optional
// streaming and AI variants behind their feature toggles. Only the generated
// type shape is this package's contract; hook bodies stay thin delegations.
type HookGenerator struct {
	opts config.GeneratorOptions
}

// NewHookGenerator creates the hook emitter for the active feature toggles.
func NewHookGenerator(opts config.GeneratorOptions) *HookGenerator {
	return &HookGenerator{opts: opts}
}

// Name implements codegen.Generator.
func (g *HookGenerator) Name() string { return "typescript-hooks" }

// Generate implements codegen.Generator.
func (g *HookGenerator) Generate(doc *schema.Document) ([]codegen.Artifact, []error) {
	var artifacts []codegen.Artifact

	for _, op := range doc.Operations() {
		artifacts = append(artifacts, g.hookArtifact(op))

		if g.opts.Streaming && op.Method == "get" {
			artifacts = append(artifacts, g.streamHookArtifact(op))
		}
		if g.opts.AIHooks && isAIOperation(op) {
			artifacts = append(artifacts, g.aiHookArtifact(op))
		}
	}

	return artifacts, nil
}

// hookArtifact renders the standard query or mutation hook for an operation.
func (g *HookGenerator) hookArtifact(op schema.NamedOperation) codegen.Artifact {
	pid := pascal(op.ID)
	fnName := camel(op.ID)
	hookName := "use" + pid
	source := fmt.Sprintf("%s %s", strings.ToUpper(op.Method), op.Path)

	params, args := hookSignature(op)

	var sb strings.Builder
	if op.Method == "get" {
		keyParts := append([]string{fmt.Sprintf("'%s'", fnName)}, args...)
		sb.WriteString(fmt.Sprintf("export function %s(%s): UseQueryResult<%sResponse, %sError> {\n",
			hookName, strings.Join(params, ", "), pid, pid))
		sb.WriteString(fmt.Sprintf("  return useQuery({\n    queryKey: [%s],\n    queryFn: () => %s(%s),\n  });\n}",
			strings.Join(keyParts, ", "), fnName, strings.Join(args, ", ")))
	} else {
		variables := mutationVariables(op)
		sb.WriteString(fmt.Sprintf("export function %s(): UseMutationResult<%sResponse, %sError, %s> {\n",
			hookName, pid, pid, variables.typeExpr))
		sb.WriteString(fmt.Sprintf("  return useMutation({\n    mutationFn: (%s) => %s(%s),\n  });\n}",
			variables.binding, fnName, strings.Join(variables.callArgs, ", ")))
	}

	deps := []string{fnName, pid + "Response", pid + "Error"}
	sort.Strings(deps)

	return codegen.Artifact{
		Name:              hookName,
		Kind:              codegen.KindAlias,
		Definition:        sb.String(),
		Dependencies:      deps,
		SourceDescription: source,
		File:              HooksFile,
	}
}

// streamHookArtifact renders the EventSource-backed streaming variant.
func (g *HookGenerator) streamHookArtifact(op schema.NamedOperation) codegen.Artifact {
	pid := pascal(op.ID)
	hookName := "use" + pid + "Stream"

	params, _ := hookSignature(op)

	definition := fmt.Sprintf(`export function %s(%s): { data: %sResponse[]; close: () => void } {
  const data: %sResponse[] = [];
  const source = new EventSource(%s);
  source.onmessage = (event) => {
    data.push(JSON.parse(event.data) as %sResponse);
  };
  return { data, close: () => source.close() };
}`, hookName, strings.Join(params, ", "), pid, pid, templatePath(op.Path), pid)

	return codegen.Artifact{
		Name:              hookName,
		Kind:              codegen.KindAlias,
		Definition:        definition,
		Dependencies:      []string{pid + "Response"},
		SourceDescription: fmt.Sprintf("streaming variant of GET %s", op.Path),
		File:              HooksFile,
	}
}

// aiHookArtifact renders the AI variant carrying incremental completion
// state alongside the standard result.
func (g *HookGenerator) aiHookArtifact(op schema.NamedOperation) codegen.Artifact {
	pid := pascal(op.ID)
	fnName := camel(op.ID)
	hookName := "useAI" + pid

	variables := mutationVariables(op)
	definition := fmt.Sprintf(`export function %s(): UseMutationResult<%sResponse, %sError, %s> & { partial: string } {
  const mutation = useMutation({
    mutationFn: (%s) => %s(%s),
  });
  return Object.assign(mutation, { partial: '' });
}`, hookName, pid, pid, variables.typeExpr, variables.binding, fnName, strings.Join(variables.callArgs, ", "))

	deps := []string{fnName, pid + "Response", pid + "Error"}
	sort.Strings(deps)

	return codegen.Artifact{
		Name:              hookName,
		Kind:              codegen.KindAlias,
		Definition:        definition,
		Dependencies:      deps,
		SourceDescription: fmt.Sprintf("AI variant of %s %s", strings.ToUpper(op.Method), op.Path),
		File:              HooksFile,
	}
}

// isAIOperation reports whether an operation belongs to an AI route.
func isAIOperation(op schema.NamedOperation) bool {
	return strings.Contains(op.Path, "/ai/") || strings.HasPrefix(op.Path, "/ai")
}

// hookSignature builds the parameter list and forwarding arguments shared by
// hook variants.
func hookSignature(op schema.NamedOperation) (params, args []string) {
	for _, name := range pathParams(op.Path) {
		params = append(params, fmt.Sprintf("%s: %s", camel(name), pathParamType(op.Operation, name)))
		args = append(args, camel(name))
	}
	if fields := queryParamFields(op.Operation); fields != "" {
		params = append(params, fmt.Sprintf("params?: { %s }", fields))
		args = append(args, "params")
	}
	return params, args
}

// mutationVars describes how a mutation hook passes its variables through to
// the client binding.
type mutationVars struct {
	typeExpr string   // TData type of the mutation variables
	binding  string   // destructuring binding in mutationFn
	callArgs []string // arguments forwarded to the client function
}

func mutationVariables(op schema.NamedOperation) mutationVars {
	pid := pascal(op.ID)
	pathNames := pathParams(op.Path)
	hasBody := requestBodySchema(op.Operation) != nil

	switch {
	case len(pathNames) == 0 && hasBody:
		return mutationVars{
			typeExpr: pid + "Request",
			binding:  "body",
			callArgs: []string{"body"},
		}
	case len(pathNames) == 0 && !hasBody:
		return mutationVars{typeExpr: "void", binding: "", callArgs: nil}
	default:
		var fields, callArgs []string
		for _, name := range pathNames {
			fields = append(fields, fmt.Sprintf("%s: %s", camel(name), pathParamType(op.Operation, name)))
			callArgs = append(callArgs, "vars."+camel(name))
		}
		if hasBody {
			fields = append(fields, fmt.Sprintf("body: %sRequest", pid))
			callArgs = append(callArgs, "vars.body")
		}
		return mutationVars{
			typeExpr: "{ " + strings.Join(fields, "; ") + " }",
			binding:  "vars",
			callArgs: callArgs,
		}
	}
}
