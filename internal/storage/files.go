// Package storage persists analysis and recommendation results on disk and
// fetches remote inputs.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/Conceptual-Machines/vibify-api/internal/config"
	"github.com/Conceptual-Machines/vibify-api/internal/features"
	"github.com/Conceptual-Machines/vibify-api/internal/logger"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644

	headerRuleWidth = 50
)

// SupportedAudioFormats are the audio extensions accepted as input
var SupportedAudioFormats = config.DefaultSupportedFormats

// noteFormats are accepted inputs that are already note data
var noteFormats = []string{".mid", ".midi", ".json"}

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrFileNotFound      = errors.New("file does not exist")
)

func hasExtension(path string, formats []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, f := range formats {
		if strings.ToLower(f) == ext {
			return true
		}
	}
	return false
}

func validateFile(path string, formats []string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrFileNotFound, path)
	}
	if !hasExtension(path, formats) {
		return fmt.Errorf("%w %q (supported: %s)", ErrUnsupportedFormat, filepath.Ext(path), strings.Join(formats, ", "))
	}
	return nil
}

// ValidateAudioFile checks that path exists and has a supported audio extension
func ValidateAudioFile(path string) error {
	return validateFile(path, SupportedAudioFormats)
}

// IsInputFormat reports whether name has one of the given audio extensions or
// a MIDI or JSON note extension
func IsInputFormat(name string, audioFormats []string) bool {
	return hasExtension(name, audioFormats) || hasExtension(name, noteFormats)
}

// ValidateInputFile accepts the given audio formats plus MIDI and JSON note files
func ValidateInputFile(path string, audioFormats []string) error {
	return validateFile(path, append(append([]string{}, audioFormats...), noteFormats...))
}

// FindAudioFiles lists the supported audio files directly inside dir, sorted.
// A missing directory yields an empty list.
func FindAudioFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	files := []string{}
	for _, entry := range entries {
		if entry.Type().IsRegular() && hasExtension(entry.Name(), SupportedAudioFormats) {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// SaveAnalysis writes summary as indented JSON, creating parent directories
func SaveAnalysis(summary *features.Summary, path string) error {
	if err := summary.Validate(); err != nil {
		return fmt.Errorf("save analysis: %w", err)
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}
	if err := writeFile(path, data); err != nil {
		return fmt.Errorf("save analysis: %w", err)
	}

	logger.Info("Analysis saved", logger.Fields{"path": path})
	return nil
}

// LoadAnalysis reads a summary written by SaveAnalysis
func LoadAnalysis(path string) (*features.Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load analysis: %w", err)
	}

	var summary features.Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("decode analysis %s: %w", path, err)
	}
	return &summary, nil
}

// SaveRecommendations writes the recommendation text under a header naming audioFile
func SaveRecommendations(text, path, audioFile string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Music Recommendations for %s\n", filepath.Base(audioFile))
	b.WriteString(strings.Repeat("=", headerRuleWidth))
	b.WriteString("\n\n")
	b.WriteString(text)

	if err := writeFile(path, []byte(b.String())); err != nil {
		return fmt.Errorf("save recommendations: %w", err)
	}

	logger.Info("Recommendations saved", logger.Fields{"path": path})
	return nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return err
	}
	return os.WriteFile(path, data, filePerm)
}

// SafeFilename returns the file stem with every character outside
// letters, digits and "._-" replaced by "_"
func SafeFilename(name string) string {
	base := filepath.Base(name)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("._-", r) {
			return r
		}
		return '_'
	}, stem)
}

// Paths names the output files for an input
type Paths struct {
	OutputDir string
}

// NewPaths returns the output paths for cfg
func NewPaths(cfg config.Config) Paths {
	return Paths{OutputDir: cfg.OutputDir}
}

// AnalysisPath is <out>/<safe name>_analysis.json
func (p Paths) AnalysisPath(audioFile string) string {
	return filepath.Join(p.OutputDir, SafeFilename(audioFile)+"_analysis.json")
}

// RecommendationsPath is <out>/<safe name>_recommendations.txt
func (p Paths) RecommendationsPath(audioFile string) string {
	return filepath.Join(p.OutputDir, SafeFilename(audioFile)+"_recommendations.txt")
}

// EnsureDirectories creates the input and output directories of cfg
func EnsureDirectories(cfg config.Config) error {
	for _, dir := range []string{cfg.InputDir, cfg.OutputDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}
