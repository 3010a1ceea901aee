package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/zoobzio/formz"
)

// ImportResult counts the outcome of an import run.
type ImportResult struct {
	Imported int
	Rejected int
	Failed   int
}

var draftExtensions = []string{".json", ".yaml", ".yml"}

// importDrafts submits every draft file in dir through a create form, in
// file name order. A draft that fails validation, including an id that is
// already taken, is counted as rejected and skipped.
func importDrafts(ctx context.Context, catalog formz.Catalog, dir string, timeout time.Duration, logger *slog.Logger) (ImportResult, error) {
	var res ImportResult

	entries, err := os.ReadDir(dir)
	if err != nil {
		return res, fmt.Errorf("read import dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !slices.Contains(draftExtensions, strings.ToLower(filepath.Ext(e.Name()))) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	slices.Sort(files)

	for _, path := range files {
		err := importDraft(ctx, catalog, path, timeout)
		switch {
		case err == nil:
			res.Imported++
		case errors.Is(err, formz.ErrInvalid):
			res.Rejected++
			logger.Warn("draft rejected", "file", path, "error", err)
		default:
			res.Failed++
			logger.Error("draft import failed", "file", path, "error", err)
		}
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
	}
	return res, nil
}

func importDraft(ctx context.Context, catalog formz.Catalog, path string, timeout time.Duration) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	lookups := &lookupCatalog{Catalog: catalog, failed: make(chan error, 1)}
	form := formz.New(lookups, "")
	if err := form.Open(ctx); err != nil {
		return err
	}
	defer form.Close()

	settled := make(chan struct{}, 1)
	if err := form.Observe(formz.FieldID, func(st formz.FieldState) {
		if st.Status != formz.StatusPending {
			select {
			case settled <- struct{}{}:
			default:
			}
		}
	}); err != nil {
		return err
	}

	if err := form.ApplyDraft(ctx, raw); err != nil {
		return fmt.Errorf("%w: %v", formz.ErrInvalid, err)
	}
	for form.Status() == formz.StatusPending {
		select {
		case <-settled:
		case err := <-lookups.failed:
			return fmt.Errorf("identifier check: %w", err)
		case <-ctx.Done():
			return fmt.Errorf("waiting for identifier check: %w", ctx.Err())
		}
	}
	return form.Submit(ctx)
}

// lookupCatalog reports failed identifier lookups, which otherwise leave
// the form pending until the import times out.
type lookupCatalog struct {
	formz.Catalog
	failed chan error
}

func (c *lookupCatalog) Exists(ctx context.Context, id string) (bool, error) {
	exists, err := c.Catalog.Exists(ctx, id)
	if err != nil && ctx.Err() == nil {
		select {
		case c.failed <- err:
		default:
		}
	}
	return exists, err
}
