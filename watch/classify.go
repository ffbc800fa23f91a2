package watch

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/Cstannahill/farm-framework/config"
)

// Kind classifies a changed file by what it affects downstream.
type Kind int

const (
	// KindIgnored files never trigger regeneration.
	KindIgnored Kind = iota
	// KindModel files change type definitions.
	KindModel
	// KindRoute files change operations.
	KindRoute
	// KindConfig files change pipeline behavior and force a full rebuild.
	KindConfig
	// KindForced files match an always-regenerate override without falling
	// into any category.
	KindForced
)

func (k Kind) String() string {
	switch k {
	case KindModel:
		return "model"
	case KindRoute:
		return "route"
	case KindConfig:
		return "config"
	case KindForced:
		return "forced"
	default:
		return "ignored"
	}
}

// classifier resolves a changed path to a Kind, applying the override lists
// on top of the category globs.
type classifier struct {
	cfg config.WatchConfig
}

// Classify resolves the kind of one changed path. Overrides are applied
// first: when a path matches patterns in both override lists, the most
// specific pattern wins, and never-regenerate wins ties.
func (c classifier) Classify(path string) Kind {
	path = filepath.ToSlash(path)

	alwaysSpec := bestMatch(c.cfg.AlwaysRegenerate, path)
	neverSpec := bestMatch(c.cfg.NeverRegenerate, path)
	if neverSpec >= 0 && neverSpec >= alwaysSpec {
		return KindIgnored
	}

	kind := c.categorize(path)
	if alwaysSpec >= 0 && kind == KindIgnored {
		return KindForced
	}
	return kind
}

func (c classifier) categorize(path string) Kind {
	switch {
	case matchAny(c.cfg.ConfigGlobs, path):
		return KindConfig
	case matchAny(c.cfg.ModelGlobs, path):
		return KindModel
	case matchAny(c.cfg.RouteGlobs, path):
		return KindRoute
	default:
		return KindIgnored
	}
}

// bestMatch returns the specificity of the most specific matching pattern,
// or -1 when nothing matches. Specificity is the pattern's literal length
// with wildcards discounted, so "src/models/user.py" beats "**/*.py".
func bestMatch(patterns []string, path string) int {
	best := -1
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, path); err != nil || !ok {
			if matched, _ := doublestar.Match("**/"+pattern, path); !matched {
				continue
			}
		}
		if spec := specificity(pattern); spec > best {
			best = spec
		}
	}
	return best
}

func matchAny(patterns []string, path string) bool {
	return bestMatch(patterns, path) >= 0
}

func specificity(pattern string) int {
	literal := strings.NewReplacer("**", "", "*", "", "?", "").Replace(pattern)
	return len(literal)
}

// entityName derives the model or route name from a changed path:
// "src/models/user.py" yields "user".
func entityName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
