package repository_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatbridge/internal/model"
	"chatbridge/internal/repository"
)

func readModels(t *testing.T, path string) []model.ModelRecord {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var recs []model.ModelRecord
	require.NoError(t, json.Unmarshal(data, &recs))
	return recs
}

func TestFileModelWriter_WriteModel(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	w, err := repository.NewFileModelWriter(dir)
	require.NoError(t, err)

	rec := model.ModelRecord{ID: "Code Helper", Name: "Code Helper", Meta: model.ModelMeta{Description: "<b>&</b> ü"}}
	name, err := w.WriteModel(rec)
	require.NoError(t, err)
	assert.Equal(t, "Model-Code_Helper.json", name)

	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  {\n    \"id\": \"Code Helper\"")
	assert.Contains(t, string(data), `"description": "<b>&</b> ü"`)

	recs := readModels(t, filepath.Join(dir, name))
	require.Len(t, recs, 1)
	assert.Equal(t, "Code Helper", recs[0].ID)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files are left behind")
}

func TestFileModelWriter_CollisionIsLastWriteWins(t *testing.T) {
	dir := t.TempDir()
	w, err := repository.NewFileModelWriter(dir)
	require.NoError(t, err)

	first, err := w.WriteModel(model.ModelRecord{ID: "a/b", Name: "a/b"})
	require.NoError(t, err)
	second, err := w.WriteModel(model.ModelRecord{ID: "ab", Name: "ab"})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	recs := readModels(t, filepath.Join(dir, second))
	assert.Equal(t, "ab", recs[0].ID)
}

func TestFileModelWriter_WriteCombined(t *testing.T) {
	dir := t.TempDir()
	w, err := repository.NewFileModelWriter(dir)
	require.NoError(t, err)

	require.NoError(t, w.WriteCombined([]model.ModelRecord{{ID: "one"}}))
	require.NoError(t, w.WriteCombined([]model.ModelRecord{{ID: "one"}, {ID: "two"}}))

	recs := readModels(t, filepath.Join(dir, "all_models.json"))
	require.Len(t, recs, 2)
	assert.Equal(t, "two", recs[1].ID)
}
