// Package vectorstore keeps analyzed songs and finds similar ones by the
// embedding of their descriptive text.
package vectorstore

import (
	"context"
	"errors"
	"math"

	"github.com/Conceptual-Machines/vibify-api/internal/analyzer"
	"github.com/Conceptual-Machines/vibify-api/internal/models"
)

var (
	// ErrStoreDisabled is returned by every operation of the disabled store
	ErrStoreDisabled = errors.New("vector store is disabled")
	// ErrNotFound is returned when no song has the requested name
	ErrNotFound = errors.New("song not found")
)

// Store persists analyses and answers similarity queries
type Store interface {
	Save(ctx context.Context, analysis *analyzer.Analysis) (string, error)
	FindSimilar(ctx context.Context, text string, limit int) ([]Match, error)
	FindByTempo(ctx context.Context, minTempo, maxTempo float64, limit int) ([]models.SongAnalysis, error)
	GetBySongName(ctx context.Context, name string) (*models.SongAnalysis, error)
	List(ctx context.Context, limit int) ([]models.SongAnalysis, error)
	Delete(ctx context.Context, name string) error
	Close() error
}

// Match is a similarity search hit. Distance is the cosine distance 1 - cos.
type Match struct {
	Song     models.SongAnalysis
	Distance float64
}

// Similarity is the display percentage max(0, (1 - distance) * 100)
func (m Match) Similarity() float64 {
	return Similarity(m.Distance)
}

// Similarity converts a cosine distance into a display percentage
func Similarity(distance float64) float64 {
	return math.Max(0, (1-distance)*100)
}

type disabledStore struct{}

// Disabled returns the store used when no database is configured
func Disabled() Store {
	return disabledStore{}
}

// Enabled reports whether s is backed by a database
func Enabled(s Store) bool {
	if s == nil {
		return false
	}
	_, disabled := s.(disabledStore)
	return !disabled
}

func (disabledStore) Save(context.Context, *analyzer.Analysis) (string, error) {
	return "", ErrStoreDisabled
}

func (disabledStore) FindSimilar(context.Context, string, int) ([]Match, error) {
	return nil, ErrStoreDisabled
}

func (disabledStore) FindByTempo(context.Context, float64, float64, int) ([]models.SongAnalysis, error) {
	return nil, ErrStoreDisabled
}

func (disabledStore) GetBySongName(context.Context, string) (*models.SongAnalysis, error) {
	return nil, ErrStoreDisabled
}

func (disabledStore) List(context.Context, int) ([]models.SongAnalysis, error) {
	return nil, ErrStoreDisabled
}

func (disabledStore) Delete(context.Context, string) error {
	return ErrStoreDisabled
}

func (disabledStore) Close() error {
	return nil
}
