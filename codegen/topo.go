package codegen

import "sort"

// SortArtifacts orders artifacts dependency-first so every artifact is
// emitted after the artifacts it depends on.
//
// Cycles are tolerated: a node re-encountered while still being visited is
// treated as already satisfied (the back edge is skipped), so both members of
// a mutually-referencing pair are emitted and recursion terminates. Roots and
// neighbors are visited in sorted name order, keeping the emission order
// byte-stable across runs.
//
// Dependencies naming artifacts outside the set (externals resolved by the
// target language's module system) are ignored.
func SortArtifacts(artifacts []Artifact) []Artifact {
	byName := make(map[string]*Artifact, len(artifacts))
	names := make([]string, 0, len(artifacts))
	for i := range artifacts {
		a := &artifacts[i]
		if _, dup := byName[a.Name]; dup {
			// Collisions are reported upstream; keep the first occurrence
			// so ordering stays deterministic even on a bad run.
			continue
		}
		byName[a.Name] = a
		names = append(names, a.Name)
	}
	sort.Strings(names)

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(names))
	ordered := make([]Artifact, 0, len(artifacts))

	var visit func(name string)
	visit = func(name string) {
		a, ok := byName[name]
		if !ok || state[name] == done {
			return
		}
		if state[name] == visiting {
			// Back edge: the node is already on the stack, treat as satisfied.
			return
		}
		state[name] = visiting

		deps := append([]string(nil), a.Dependencies...)
		sort.Strings(deps)
		for _, dep := range deps {
			visit(dep)
		}

		state[name] = done
		ordered = append(ordered, *a)
	}

	for _, name := range names {
		visit(name)
	}
	return ordered
}
