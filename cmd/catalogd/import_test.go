package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoobzio/formz"
	"github.com/zoobzio/formz/pkg/memory"
	formztest "github.com/zoobzio/formz/testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeDraft(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestImportDrafts(t *testing.T) {
	dir := t.TempDir()
	release := time.Now().AddDate(0, 2, 0).Format(formz.DateLayout)

	writeDraft(t, dir, "01-valid.json", `{
		"id": "IMP001",
		"name": "Imported product",
		"description": "Imported from a JSON draft",
		"logo": "https://example.com/imp001.png",
		"date_release": "`+release+`"
	}`)
	writeDraft(t, dir, "02-valid.yaml", `
id: IMP002
name: Second import
description: Imported from a YAML draft
logo: https://example.com/imp002.png
date_release: "`+release+`"
`)
	writeDraft(t, dir, "03-short.json", `{"id": "X", "name": "Bad"}`)
	writeDraft(t, dir, "04-taken.json", `{
		"id": "TAKEN",
		"name": "Duplicate product",
		"description": "Collides with an existing item",
		"logo": "https://example.com/taken.png",
		"date_release": "`+release+`"
	}`)
	writeDraft(t, dir, "notes.txt", "ignored")

	catalog := memory.New(formztest.ValidItem("TAKEN", time.Now()))
	res, err := importDrafts(context.Background(), catalog, dir, 5*time.Second, discardLogger())
	require.NoError(t, err)

	assert.Equal(t, ImportResult{Imported: 2, Rejected: 2}, res)

	got, err := catalog.Get(context.Background(), "IMP002")
	require.NoError(t, err)
	assert.Equal(t, "Second import", got.Name)
	assert.Equal(t, formz.AddOneYear(release), got.DateRevision)
}

func TestImportDrafts_MissingDir(t *testing.T) {
	_, err := importDrafts(context.Background(), memory.New(), filepath.Join(t.TempDir(), "nope"), time.Second, discardLogger())
	assert.Error(t, err)
}

func TestImportDrafts_MalformedDraftIsRejected(t *testing.T) {
	dir := t.TempDir()
	writeDraft(t, dir, "broken.json", `{"id": `)

	res, err := importDrafts(context.Background(), memory.New(), dir, time.Second, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Rejected)
}

type unreachableCatalog struct {
	*memory.Catalog
}

func (unreachableCatalog) Exists(context.Context, string) (bool, error) {
	return false, errors.New("catalog unreachable")
}

func TestImportDrafts_LookupFailureFailsFast(t *testing.T) {
	dir := t.TempDir()
	release := time.Now().AddDate(0, 2, 0).Format(formz.DateLayout)
	writeDraft(t, dir, "draft.json", `{
		"id": "IMP010",
		"name": "Unchecked product",
		"description": "Identifier lookup will fail",
		"logo": "https://example.com/imp010.png",
		"date_release": "`+release+`"
	}`)

	catalog := unreachableCatalog{Catalog: memory.New()}
	start := time.Now()
	res, err := importDrafts(context.Background(), catalog, dir, 10*time.Second, discardLogger())
	require.NoError(t, err)

	assert.Equal(t, ImportResult{Failed: 1}, res)
	assert.Less(t, time.Since(start), 5*time.Second)

	_, err = catalog.Get(context.Background(), "IMP010")
	assert.ErrorIs(t, err, formz.ErrNotFound)
}
