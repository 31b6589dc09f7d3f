// SPDX-License-Identifier: MPL-2.0

package snarl

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

type (
	// Selector chooses the blocks to tangle. Names wins over All; with
	// neither, every tangle target is selected. Tags restricts All and the
	// default selection.
	Selector struct {
		Names []string
		All   bool
		Tags  []string
	}

	// TangledFile is the generated content of one block.
	TangledFile struct {
		Name    string
		Content string
	}

	// WriteOptions controls WriteTangled.
	WriteOptions struct {
		// Dir is the directory block labels are resolved against.
		Dir string
		// Overwrite replaces existing files instead of skipping them.
		Overwrite bool
		// Observer receives written/skipped events. May be nil.
		Observer Observer
	}

	// WriteReport lists what WriteTangled did, in input order.
	WriteReport struct {
		Written []string
		Skipped []string
	}
)

// Labels resolves the selector against store.
func (sel Selector) Labels(store *Store) []string {
	switch {
	case len(sel.Names) > 0:
		return sel.Names
	case sel.All:
		return store.Blocks(sel.Tags...)
	default:
		return store.Files(sel.Tags...)
	}
}

// Tangle generates the selected blocks. It fails on the first unknown label
// or generation error.
func (s *Session) Tangle(sel Selector) ([]TangledFile, error) {
	labels := sel.Labels(s.store)
	out := make([]TangledFile, 0, len(labels))
	for _, label := range labels {
		lines, err := s.Generate(label)
		if err != nil {
			return nil, err
		}
		text, err := lines.Text()
		if err != nil {
			return nil, fmt.Errorf("generate %s: %w", label, err)
		}
		out = append(out, TangledFile{Name: label, Content: text})
	}
	return out, nil
}

// WriteTangled writes files below opts.Dir, creating parent directories.
// An existing regular file is left untouched unless opts.Overwrite is set;
// it is reported as skipped and does not stop the remaining files.
func WriteTangled(fsys afero.Fs, files []TangledFile, opts WriteOptions) (WriteReport, error) {
	obs := opts.Observer
	if obs == nil {
		obs = nopObserver{}
	}

	var report WriteReport
	for _, f := range files {
		path := filepath.Join(opts.Dir, f.Name)

		if info, err := fsys.Stat(path); err == nil && !info.IsDir() && !opts.Overwrite {
			obs.Observe(Event{Kind: EventTangleSkipped, Label: f.Name, Path: path})
			report.Skipped = append(report.Skipped, path)
			continue
		}

		if dir := filepath.Dir(path); dir != "." {
			if err := fsys.MkdirAll(dir, 0o755); err != nil {
				return report, fmt.Errorf("create directory %s: %w", dir, err)
			}
		}

		if err := afero.WriteFile(fsys, path, []byte(f.Content), 0o644); err != nil {
			return report, fmt.Errorf("write %s: %w", path, err)
		}
		obs.Observe(Event{Kind: EventTangleWritten, Label: f.Name, Path: path})
		report.Written = append(report.Written, path)
	}
	return report, nil
}
