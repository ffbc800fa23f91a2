package codegen

import (
	"fmt"
	"sort"
)

// Kind classifies a generated artifact.
type Kind string

const (
	KindStruct Kind = "struct" // structured object definition
	KindEnum   Kind = "enum"   // closed-value union
	KindAlias  Kind = "alias"  // named alias over another expression
)

// Artifact is one named, immutable generation output. Artifacts are addressed
// by name within a single generation run; names colliding across generators
// are a generation error, never a silent overwrite.
type Artifact struct {
	Name              string   `json:"name"`
	Kind              Kind     `json:"kind"`
	Definition        string   `json:"definition"`
	Dependencies      []string `json:"dependencies,omitempty"`
	SourceDescription string   `json:"source_description,omitempty"`

	// File is the output file this artifact belongs to, relative to the
	// output directory (e.g. "types.ts", "client.ts").
	File string `json:"file"`
}

// ArtifactError is a per-entity generation failure. It isolates one malformed
// schema entry so the rest of the run can proceed.
type ArtifactError struct {
	Artifact  string
	Generator string
	Err       error
}

func (e *ArtifactError) Error() string {
	return fmt.Sprintf("generator %s: artifact %s: %v", e.Generator, e.Artifact, e.Err)
}

func (e *ArtifactError) Unwrap() error { return e.Err }

// CheckCollisions returns an error for every artifact name produced more than
// once in a run.
func CheckCollisions(artifacts []Artifact) []error {
	seen := make(map[string]string, len(artifacts)) // name -> first source
	var errs []error
	for _, a := range artifacts {
		if first, ok := seen[a.Name]; ok {
			errs = append(errs, &ArtifactError{
				Artifact:  a.Name,
				Generator: a.SourceDescription,
				Err:       fmt.Errorf("name collision with artifact from %s", first),
			})
			continue
		}
		seen[a.Name] = a.SourceDescription
	}
	return errs
}

// GroupByFile buckets artifacts by output file, preserving their order.
// File names are returned sorted for deterministic emission.
func GroupByFile(artifacts []Artifact) (map[string][]Artifact, []string) {
	grouped := make(map[string][]Artifact)
	for _, a := range artifacts {
		grouped[a.File] = append(grouped[a.File], a)
	}
	files := make([]string, 0, len(grouped))
	for f := range grouped {
		files = append(files, f)
	}
	sort.Strings(files)
	return grouped, files
}
