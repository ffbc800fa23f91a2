package watch

import (
	"sort"
	"time"
)

// FileChangeEvent is one classified filesystem change.
type FileChangeEvent struct {
	Path string
	Kind Kind
	Op   string
	At   time.Time
}

// Plan describes what one regeneration run must cover. Plans accumulate
// while changes debounce and are consumed whole by the regeneration worker.
type Plan struct {
	// Full forces regeneration of everything, bypassing incremental
	// planning. Config changes always set it.
	Full bool

	// Models and Routes name the entities whose source changed.
	Models []string
	Routes []string

	// Paths are the raw changed paths, deduplicated.
	Paths []string

	// Reason is a short human-readable trigger description for logs.
	Reason string
}

// merge folds one classified change into the plan.
func (p *Plan) merge(evt FileChangeEvent) {
	p.Paths = appendUnique(p.Paths, evt.Path)

	switch evt.Kind {
	case KindConfig:
		p.Full = true
		p.Reason = "configuration changed"
	case KindModel:
		p.Models = appendUnique(p.Models, entityName(evt.Path))
	case KindRoute:
		p.Routes = appendUnique(p.Routes, entityName(evt.Path))
	case KindForced:
		p.Full = true
		if p.Reason == "" {
			p.Reason = "forced by override"
		}
	}

	if p.Reason == "" {
		p.Reason = "source changed"
	}
}

// normalize sorts the plan's slices so downstream consumers see
// deterministic ordering.
func (p *Plan) normalize() {
	sort.Strings(p.Models)
	sort.Strings(p.Routes)
	sort.Strings(p.Paths)
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
