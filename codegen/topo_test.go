package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func artifactNames(artifacts []Artifact) []string {
	names := make([]string, len(artifacts))
	for i, a := range artifacts {
		names[i] = a.Name
	}
	return names
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

func TestSortDependencyFirst(t *testing.T) {
	artifacts := []Artifact{
		{Name: "Order", Dependencies: []string{"User", "Item"}},
		{Name: "User"},
		{Name: "Item", Dependencies: []string{"User"}},
	}

	sorted := SortArtifacts(artifacts)
	names := artifactNames(sorted)
	require.Len(t, names, 3)

	assert.Less(t, indexOf(names, "User"), indexOf(names, "Item"))
	assert.Less(t, indexOf(names, "Item"), indexOf(names, "Order"))
}

func TestSortToleratesCircularPair(t *testing.T) {
	artifacts := []Artifact{
		{Name: "TypeA", Dependencies: []string{"TypeB"}},
		{Name: "TypeB", Dependencies: []string{"TypeA"}},
	}

	sorted := SortArtifacts(artifacts)
	names := artifactNames(sorted)

	// Both members of the mutual pair are emitted, no error, no hang.
	assert.ElementsMatch(t, []string{"TypeA", "TypeB"}, names)
}

func TestSortSelfReference(t *testing.T) {
	artifacts := []Artifact{
		{Name: "Tree", Dependencies: []string{"Tree"}},
	}
	sorted := SortArtifacts(artifacts)
	require.Len(t, sorted, 1)
	assert.Equal(t, "Tree", sorted[0].Name)
}

func TestSortIgnoresExternalDeps(t *testing.T) {
	artifacts := []Artifact{
		{Name: "User", Dependencies: []string{"SomethingNotInSet"}},
	}
	sorted := SortArtifacts(artifacts)
	require.Len(t, sorted, 1)
}

func TestSortDeterministic(t *testing.T) {
	a := []Artifact{
		{Name: "C"}, {Name: "A"}, {Name: "B"},
	}
	b := []Artifact{
		{Name: "B"}, {Name: "C"}, {Name: "A"},
	}

	assert.Equal(t, artifactNames(SortArtifacts(a)), artifactNames(SortArtifacts(b)))
}

func TestCheckCollisions(t *testing.T) {
	errs := CheckCollisions([]Artifact{
		{Name: "User", SourceDescription: "types"},
		{Name: "User", SourceDescription: "client"},
		{Name: "Item", SourceDescription: "types"},
	})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "User")
	assert.Contains(t, errs[0].Error(), "collision")
}
