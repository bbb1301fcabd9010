package vectorstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/vibify-api/internal/analyzer"
	"github.com/Conceptual-Machines/vibify-api/internal/config"
	"github.com/Conceptual-Machines/vibify-api/internal/notes"
)

func openTestStore(t *testing.T) *SQLStore {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "db", "songs.db"), NewHashEmbedder())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func analysisOf(t *testing.T, name, path string, raw []notes.Raw) *analyzer.Analysis {
	t.Helper()
	a, err := analyzer.New(config.Config{}, nil).AnalyzeNotes(name, path, raw)
	require.NoError(t, err)
	return a
}

func slowSong() []notes.Raw {
	return []notes.Raw{
		notes.FromTuple(0, 0.5, 60, 80),
		notes.FromTuple(0.5, 1, 64, 90),
		notes.FromTuple(1, 1.5, 67, 100),
		notes.FromTuple(1.5, 2, 72, 110),
	}
}

func busySong() []notes.Raw {
	raw := make([]notes.Raw, 0, 40)
	for i := 0; i < 40; i++ {
		start := float64(i) * 0.1
		raw = append(raw, notes.FromTuple(start, start+0.05, float64(40+i), 20))
	}
	return raw
}

func TestSQLStore_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	analysis := analysisOf(t, "Slow Song", "in/slow_song.mid", slowSong())
	id, err := store.Save(ctx, analysis)
	require.NoError(t, err)
	assert.Equal(t, SongID("Slow Song", "in/slow_song.mid"), id)

	got, err := store.GetBySongName(ctx, "Slow Song")
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, analysis.Text, got.AnalysisText)
	assert.Equal(t, analysis.Summary, got.RawFeatures)
	require.NotNil(t, got.Tempo)
	assert.InDelta(t, 30.0, *got.Tempo, 1e-9)
	require.NotNil(t, got.NoteCount)
	assert.Equal(t, 4, *got.NoteCount)
	assert.Len(t, got.Embedding, DefaultHashDimensions)

	_, err = store.GetBySongName(ctx, "Missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLStore_SaveUpserts(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	first := analysisOf(t, "Song", "song.mid", slowSong())
	second := analysisOf(t, "Song", "song.mid", busySong())

	id1, err := store.Save(ctx, first)
	require.NoError(t, err)
	id2, err := store.Save(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	rows, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, second.Text, rows[0].AnalysisText)
}

func TestSQLStore_SentinelHasNoNumbers(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	_, err := store.Save(ctx, analysisOf(t, "Silence", "silence.mid", nil))
	require.NoError(t, err)

	got, err := store.GetBySongName(ctx, "Silence")
	require.NoError(t, err)
	assert.True(t, got.RawFeatures.IsSentinel())
	assert.Nil(t, got.Tempo)
	assert.Nil(t, got.NoteCount)

	byTempo, err := store.FindByTempo(ctx, 0, 1000, 10)
	require.NoError(t, err)
	assert.Empty(t, byTempo)
}

func TestSQLStore_FindSimilar(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	slow := analysisOf(t, "Slow Song", "slow.mid", slowSong())
	busy := analysisOf(t, "Busy Song", "busy.mid", busySong())
	for _, a := range []*analyzer.Analysis{slow, busy} {
		_, err := store.Save(ctx, a)
		require.NoError(t, err)
	}

	matches, err := store.FindSimilar(ctx, slow.Text, 5)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "Slow Song", matches[0].Song.SongName)
	assert.InDelta(t, 0, matches[0].Distance, 1e-9)
	assert.InDelta(t, 100, matches[0].Similarity(), 1e-6)
	assert.LessOrEqual(t, matches[0].Distance, matches[1].Distance)

	limited, err := store.FindSimilar(ctx, busy.Text, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "Busy Song", limited[0].Song.SongName)
}

func TestSQLStore_FindByTempo(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	slow := analysisOf(t, "Slow Song", "slow.mid", slowSong())
	busy := analysisOf(t, "Busy Song", "busy.mid", busySong())
	for _, a := range []*analyzer.Analysis{slow, busy} {
		_, err := store.Save(ctx, a)
		require.NoError(t, err)
	}

	rows, err := store.FindByTempo(ctx, 0, 60, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Slow Song", rows[0].SongName)

	rows, err = store.FindByTempo(ctx, 0, 1000, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Slow Song", rows[0].SongName)

	_, err = store.FindByTempo(ctx, 100, 50, 10)
	assert.Error(t, err)
}

func TestSQLStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	_, err := store.Save(ctx, analysisOf(t, "Song", "a.mid", slowSong()))
	require.NoError(t, err)
	_, err = store.Save(ctx, analysisOf(t, "Song", "b.mid", slowSong()))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "Song"))
	rows, err := store.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, rows)

	assert.ErrorIs(t, store.Delete(ctx, "Song"), ErrNotFound)
}

func TestDisabledStore(t *testing.T) {
	ctx := context.Background()
	store := Disabled()

	_, err := store.Save(ctx, &analyzer.Analysis{})
	assert.ErrorIs(t, err, ErrStoreDisabled)
	_, err = store.FindSimilar(ctx, "text", 5)
	assert.ErrorIs(t, err, ErrStoreDisabled)
	_, err = store.FindByTempo(ctx, 0, 1, 5)
	assert.ErrorIs(t, err, ErrStoreDisabled)
	_, err = store.GetBySongName(ctx, "x")
	assert.ErrorIs(t, err, ErrStoreDisabled)
	_, err = store.List(ctx, 5)
	assert.ErrorIs(t, err, ErrStoreDisabled)
	assert.ErrorIs(t, store.Delete(ctx, "x"), ErrStoreDisabled)
	assert.NoError(t, store.Close())
	assert.False(t, Enabled(store))
	assert.False(t, Enabled(nil))
}

func TestFromConfig(t *testing.T) {
	store, err := FromConfig(config.Config{StoreDSN: "x.db", StoreEnabled: false})
	require.NoError(t, err)
	assert.Equal(t, Disabled(), store)

	dsn := filepath.Join(t.TempDir(), "cfg.db")
	store, err = FromConfig(config.Config{StoreDSN: dsn, StoreEnabled: true})
	require.NoError(t, err)
	_, ok := store.(*SQLStore)
	assert.True(t, ok)
	assert.True(t, Enabled(store))
	assert.NoError(t, store.Close())
}

func TestIsPostgresDSN(t *testing.T) {
	tests := map[string]bool{
		"postgres://user:pw@localhost:5432/vibify": true,
		"postgresql://localhost/vibify":            true,
		"host=localhost user=vibify dbname=vibify": true,
		"data/vibify.db":                           false,
		"/var/lib/vibify/songs.sqlite3":            false,
	}
	for dsn, want := range tests {
		assert.Equal(t, want, IsPostgresDSN(dsn), dsn)
	}
}

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 100.0, Similarity(0), 1e-9)
	assert.InDelta(t, 75.0, Similarity(0.25), 1e-9)
	assert.Equal(t, 0.0, Similarity(1.5))
}
