package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodielens/dishbook/internal/domain"
	"github.com/foodielens/dishbook/internal/infra/lock"
	"github.com/foodielens/dishbook/internal/infra/repository"
	"github.com/foodielens/dishbook/internal/infra/storage"
	"github.com/foodielens/dishbook/internal/infra/tabular"
	"github.com/foodielens/dishbook/internal/usecase"
)

func TestExportFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	fsys, err := storage.NewFilesystem(filepath.Join(dir, "store"))
	require.NoError(t, err)
	records := usecase.NewRecordUsecase(repository.NewCSVTable(fsys, "food_data.csv"), lock.NewLocal())

	ref := domain.AssetRef{ContentHash: domain.ContentHash([]byte("pic")), Location: "file:///pic"}
	for _, name := range []string{"Eba", "Amala", "Moi Moi"} {
		_, err := records.Append(ctx, domain.Fields{Name: name, Country: "Nigeria", State: "Oyo", Tribe: "Yoruba"}, ref)
		require.NoError(t, err)
	}

	out := filepath.Join(dir, "export.csv")
	require.NoError(t, exportFile(ctx, records, out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	got, err := tabular.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Moi Moi", got[2].Name)

	leftovers, err := filepath.Glob(filepath.Join(dir, ".export-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestRootCommandHasSubcommands(t *testing.T) {
	root := newRootCommand()
	for _, name := range []string{"serve", "migrate", "export"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
}
