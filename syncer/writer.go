package syncer

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Cstannahill/farm-framework/errors"
)

// stageFiles publishes generated files into outputDir atomically: every file
// is written into a per-run staging directory first, and renamed into place
// only after all writes succeed. A failed run never leaves partial output
// behind. Files whose content is unchanged are left untouched so watchers
// on the output directory do not fire spuriously.
func stageFiles(outputDir string, runID uuid.UUID, files map[string][]byte) ([]string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating output directory %s", outputDir)
	}

	staging := filepath.Join(outputDir, fmt.Sprintf(".staging-%s", runID.String()))
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating staging directory")
	}
	defer os.RemoveAll(staging)

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	changed := make([]string, 0, len(names))
	for _, name := range names {
		final := filepath.Join(outputDir, name)
		if existing, err := os.ReadFile(final); err == nil && bytes.Equal(existing, files[name]) {
			continue
		}
		if err := os.WriteFile(filepath.Join(staging, name), files[name], 0o644); err != nil {
			return nil, errors.Wrapf(err, "staging %s", name)
		}
		changed = append(changed, name)
	}

	for _, name := range changed {
		if err := os.Rename(filepath.Join(staging, name), filepath.Join(outputDir, name)); err != nil {
			return nil, errors.Wrapf(err, "publishing %s", name)
		}
	}
	return changed, nil
}

// touchTrigger updates the trigger marker's mtime, creating it if needed.
// Frontend dev servers watch this single file instead of the whole output
// tree.
func touchTrigger(path string) error {
	if path == "" {
		return nil
	}
	now := time.Now()
	if err := os.Chtimes(path, now, now); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "creating trigger directory for %s", path)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, "creating trigger file %s", path)
	}
	return f.Close()
}
