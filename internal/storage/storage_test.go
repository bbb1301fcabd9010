package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/vibify-api/internal/config"
	"github.com/Conceptual-Machines/vibify-api/internal/features"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestValidateAudioFile(t *testing.T) {
	dir := t.TempDir()
	mp3 := filepath.Join(dir, "song.MP3")
	txt := filepath.Join(dir, "notes.txt")
	touch(t, mp3)
	touch(t, txt)

	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{name: "supported", path: mp3},
		{name: "unsupported", path: txt, wantErr: ErrUnsupportedFormat},
		{name: "missing", path: filepath.Join(dir, "missing.wav"), wantErr: ErrFileNotFound},
		{name: "directory", path: dir, wantErr: ErrFileNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAudioFile(tt.path)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateInputFile(t *testing.T) {
	dir := t.TempDir()
	mid := filepath.Join(dir, "song.mid")
	wav := filepath.Join(dir, "song.wav")
	touch(t, mid)
	touch(t, wav)

	assert.NoError(t, ValidateInputFile(mid, []string{".mp3"}))
	assert.ErrorIs(t, ValidateInputFile(wav, []string{".mp3"}), ErrUnsupportedFormat)
}

func TestIsInputFormat(t *testing.T) {
	assert.True(t, IsInputFormat("song.MP3", []string{".mp3"}))
	assert.True(t, IsInputFormat("notes.json", nil))
	assert.True(t, IsInputFormat("take.midi", nil))
	assert.False(t, IsInputFormat("cover.png", []string{".mp3"}))
	assert.False(t, IsInputFormat("README", []string{".mp3"}))
}

func TestFindAudioFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.wav", "a.mp3", "c.txt", "d.FLAC"} {
		touch(t, filepath.Join(dir, name))
	}
	touch(t, filepath.Join(dir, "nested", "e.mp3"))

	files, err := FindAudioFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.mp3"),
		filepath.Join(dir, "b.wav"),
		filepath.Join(dir, "d.FLAC"),
	}, files)

	files, err = FindAudioFiles(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestSaveAndLoadAnalysis(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "deep", "song_analysis.json")
	summary := &features.Summary{
		PitchRange: &features.PitchRange{Min: 60, Max: 72, Mean: 66, Std: 3.5},
		Rhythm:     &features.Rhythm{TotalNotes: 2, AvgDuration: 0.5, NoteDensity: 2},
		Dynamics:   &features.Dynamics{AvgVelocity: 80},
		Temporal:   &features.Temporal{SongDuration: 1, OnsetPattern: []float64{0.5}, TempoEstimate: 30},
		Harmony: &features.Harmony{
			PitchClasses:         map[string]int{"C": 2},
			IntervalDistribution: map[int]int{12: 1},
		},
	}

	require.NoError(t, SaveAnalysis(summary, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"pitch_range\": {")

	loaded, err := LoadAnalysis(path)
	require.NoError(t, err)
	assert.Equal(t, summary, loaded)
}

func TestSaveAnalysis_Sentinel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty_analysis.json")
	require.NoError(t, SaveAnalysis(features.Sentinel(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"No notes detected"}`, string(data))

	loaded, err := LoadAnalysis(path)
	require.NoError(t, err)
	assert.True(t, loaded.IsSentinel())
}

func TestLoadAnalysis_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))

	_, err := LoadAnalysis(bad)
	assert.Error(t, err)

	_, err = LoadAnalysis(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSaveRecommendations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "song_recommendations.txt")
	require.NoError(t, SaveRecommendations("1. Song A", path, "/in/my song.mp3"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	want := "Music Recommendations for my song.mp3\n" + strings.Repeat("=", 50) + "\n\n1. Song A"
	assert.Equal(t, want, string(data))
}

func TestSafeFilename(t *testing.T) {
	tests := map[string]string{
		"sample.mp3":             "sample",
		"/in/My Song (live).wav": "My_Song__live_",
		"a.b-c_d.flac":           "a.b-c_d",
		"café.mp3":               "café",
		"no_extension":           "no_extension",
	}
	for in, want := range tests {
		assert.Equal(t, want, SafeFilename(in), in)
	}
}

func TestPaths(t *testing.T) {
	paths := NewPaths(config.Config{OutputDir: "data/output"})
	assert.Equal(t, filepath.Join("data", "output", "My_Song_analysis.json"), paths.AnalysisPath("in/My Song.mp3"))
	assert.Equal(t, filepath.Join("data", "output", "My_Song_recommendations.txt"), paths.RecommendationsPath("My Song.mp3"))
}

func TestEnsureDirectories(t *testing.T) {
	root := t.TempDir()
	cfg := config.Config{InputDir: filepath.Join(root, "in"), OutputDir: filepath.Join(root, "out")}
	require.NoError(t, EnsureDirectories(cfg))
	assert.DirExists(t, cfg.InputDir)
	assert.DirExists(t, cfg.OutputDir)
}

func TestParseS3URL(t *testing.T) {
	tests := []struct {
		in      string
		bucket  string
		key     string
		wantErr bool
	}{
		{in: "s3://music/input/song.mp3", bucket: "music", key: "input/song.mp3"},
		{in: "s3://music/song.mid", bucket: "music", key: "song.mid"},
		{in: "s3://music/", wantErr: true},
		{in: "s3:///song.mp3", wantErr: true},
		{in: "https://music/song.mp3", wantErr: true},
		{in: "s3://music/folder/", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			bucket, key, err := ParseS3URL(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidS3URL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.bucket, bucket)
			assert.Equal(t, tt.key, key)
		})
	}

	assert.True(t, IsS3URL("s3://b/k"))
	assert.False(t, IsS3URL("data/input/sample.mp3"))
}

type fakeDownloader struct {
	content string
	err     error
	input   *s3.GetObjectInput
}

func (f *fakeDownloader) DownloadWithContext(_ aws.Context, w io.WriterAt, input *s3.GetObjectInput, _ ...func(*s3manager.Downloader)) (int64, error) {
	f.input = input
	if f.err != nil {
		return 0, f.err
	}
	n, err := w.WriteAt([]byte(f.content), 0)
	return int64(n), err
}

func TestS3Fetcher_Fetch(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "input")
	fake := &fakeDownloader{content: "MThd"}
	fetcher := &S3Fetcher{downloader: fake}

	local, err := fetcher.Fetch(context.Background(), "s3://music/tracks/song.mid", dest)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dest, "song.mid"), local)
	assert.Equal(t, "music", aws.StringValue(fake.input.Bucket))
	assert.Equal(t, "tracks/song.mid", aws.StringValue(fake.input.Key))

	data, err := os.ReadFile(local)
	require.NoError(t, err)
	assert.Equal(t, "MThd", string(data))
}

func TestS3Fetcher_FetchFailure(t *testing.T) {
	dest := t.TempDir()
	fetcher := &S3Fetcher{downloader: &fakeDownloader{err: errors.New("access denied")}}

	_, err := fetcher.Fetch(context.Background(), "s3://music/song.mp3", dest)
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dest, "song.mp3"))

	_, err = fetcher.Fetch(context.Background(), "not-s3", dest)
	assert.ErrorIs(t, err, ErrInvalidS3URL)
}
