package typescript

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Cstannahill/farm-framework/codegen"
)

// Assembler renders dependency-ordered artifacts into TypeScript source
// files, adding the generated-code header and cross-file imports.
type Assembler struct{}

// NewAssembler creates the TypeScript file assembler.
func NewAssembler() *Assembler {
	return &Assembler{}
}

const fileHeader = `/* eslint-disable */
// Code generated by farm-sync from the backend schema. DO NOT EDIT.
// Regenerate with: farm-sync sync
`

const reactQueryImport = "import { useMutation, useQuery, type UseMutationResult, type UseQueryResult } from '@tanstack/react-query';"

// Assemble implements codegen.Assembler. Artifacts must already be in
// emission order; rendering is purely mechanical so byte output follows
// artifact order exactly.
func (a *Assembler) Assemble(artifacts []codegen.Artifact) (map[string][]byte, error) {
	grouped, files := codegen.GroupByFile(artifacts)

	definedIn := make(map[string]string, len(artifacts))
	for _, art := range artifacts {
		definedIn[art.Name] = art.File
	}

	out := make(map[string][]byte, len(files))
	for _, file := range files {
		var sb strings.Builder
		sb.WriteString(fileHeader)

		var preamble []string
		if file == HooksFile {
			preamble = append(preamble, reactQueryImport)
		}
		preamble = append(preamble, importLines(file, grouped[file], definedIn)...)
		if len(preamble) > 0 {
			sb.WriteString("\n")
			for _, line := range preamble {
				sb.WriteString(line)
				sb.WriteString("\n")
			}
		}

		for _, art := range grouped[file] {
			sb.WriteString("\n")
			sb.WriteString(art.Definition)
			sb.WriteString("\n")
		}

		out[file] = []byte(sb.String())
	}
	return out, nil
}

// importLines computes the cross-file import statements for one output file.
// Imports from types.ts are type-only; everything else is a value import.
func importLines(file string, artifacts []codegen.Artifact, definedIn map[string]string) []string {
	needed := make(map[string]map[string]bool) // source file -> names
	for _, art := range artifacts {
		for _, dep := range art.Dependencies {
			src, ok := definedIn[dep]
			if !ok || src == file {
				continue
			}
			if needed[src] == nil {
				needed[src] = make(map[string]bool)
			}
			needed[src][dep] = true
		}
	}

	sources := make([]string, 0, len(needed))
	for src := range needed {
		sources = append(sources, src)
	}
	sort.Strings(sources)

	var lines []string
	for _, src := range sources {
		names := make([]string, 0, len(needed[src]))
		for name := range needed[src] {
			names = append(names, name)
		}
		sort.Strings(names)

		keyword := "import"
		if src == TypesFile {
			keyword = "import type"
		}
		module := "./" + strings.TrimSuffix(src, ".ts")
		lines = append(lines, fmt.Sprintf("%s { %s } from '%s';", keyword, strings.Join(names, ", "), module))
	}
	return lines
}
