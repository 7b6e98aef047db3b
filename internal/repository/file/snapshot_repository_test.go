package file

import (
	"os"
	"path/filepath"
	"testing"

	"ai-salesbot-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoadRoundTrip(t *testing.T) {
	repo := NewSnapshotRepository(t.TempDir())

	sess := store.NewSession("sess-1")
	sess.State = store.StateInsuranceUpsell
	sess.AddTurn(store.RoleUser, "I want an iPhone", nil)
	sess.AddTurn(store.RoleAssistant, "Here you go", []store.Recommendation{
		{Name: "Apple iPhone 15", URL: "https://example.com/iphone"},
	})

	require.NoError(t, repo.Save(sess))

	got, err := repo.Load("sess-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, sess.ID, got.ID)
	assert.Equal(t, store.StateInsuranceUpsell, got.State)
	require.Len(t, got.Turns, 2)
	assert.Equal(t, "Apple iPhone 15", got.Turns[1].Recommendations[0].Name)
}

func TestLoadMissingReturnsNil(t *testing.T) {
	repo := NewSnapshotRepository(t.TempDir())

	got, err := repo.Load("never-saved")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSaveOverwrites(t *testing.T) {
	repo := NewSnapshotRepository(t.TempDir())
	sess := store.NewSession("sess-1")
	require.NoError(t, repo.Save(sess))

	sess.AddTurn(store.RoleUser, "hello", nil)
	require.NoError(t, repo.Save(sess))

	got, err := repo.Load("sess-1")
	require.NoError(t, err)
	assert.Len(t, got.Turns, 1)
}

func TestSessionIDCannotEscapeDirectory(t *testing.T) {
	dir := t.TempDir()
	repo := NewSnapshotRepository(dir)

	sess := store.NewSession("../../etc/passwd")
	require.NoError(t, repo.Save(sess))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, filepath.Base(entries[0].Name()), entries[0].Name())

	got, err := repo.Load("../../etc/passwd")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "../../etc/passwd", got.ID)
}
