package vectorstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Conceptual-Machines/vibify-api/internal/analyzer"
	"github.com/Conceptual-Machines/vibify-api/internal/config"
	"github.com/Conceptual-Machines/vibify-api/internal/logger"
	"github.com/Conceptual-Machines/vibify-api/internal/models"
)

const (
	// DefaultLimit applies when a query passes a non-positive limit
	DefaultLimit = 50

	maxOpenConns    = 10
	maxIdleConns    = 2
	connMaxLifetime = time.Hour
)

// SQLStore is a Store on a SQL database through gorm
type SQLStore struct {
	db       *gorm.DB
	sqlDB    *sql.DB
	embedder Embedder
}

// IsPostgresDSN reports whether dsn names a Postgres database rather than a SQLite file
func IsPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") ||
		strings.HasPrefix(dsn, "postgresql://") ||
		strings.HasPrefix(dsn, "host=")
}

// Open connects to dsn and migrates the schema. A Postgres URL or key/value
// DSN selects Postgres; anything else is a SQLite file path.
func Open(dsn string, embedder Embedder) (*SQLStore, error) {
	if dsn == "" {
		return nil, errors.New("empty store dsn")
	}
	if embedder == nil {
		embedder = NewHashEmbedder()
	}

	gormConfig := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	}

	var dialector gorm.Dialector
	if IsPostgresDSN(dsn) {
		dialector = postgres.Open(dsn)
	} else {
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating store dir: %w", err)
			}
		}
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)

	if err := db.AutoMigrate(&models.SongAnalysis{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &SQLStore{db: db, sqlDB: sqlDB, embedder: embedder}, nil
}

// SongID is the deterministic id of a song name and file path pair
func SongID(songName, filePath string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("vibify:"+songName+"\x00"+filePath)).String()
}

// Save embeds the analysis text and upserts the song
func (s *SQLStore) Save(ctx context.Context, analysis *analyzer.Analysis) (string, error) {
	if analysis == nil {
		return "", errors.New("nil analysis")
	}

	embedding, err := s.embedder.Embed(ctx, analysis.Text)
	if err != nil {
		return "", fmt.Errorf("embedding %s: %w", analysis.SongName, err)
	}

	row := models.SongAnalysis{
		ID:           SongID(analysis.SongName, analysis.FilePath),
		SongName:     analysis.SongName,
		FilePath:     analysis.FilePath,
		AnalysisText: analysis.Text,
		RawFeatures:  analysis.Summary,
		Timestamp:    time.Now().UTC(),
		Embedding:    embedding,
	}
	row.SetNumericProperties(analysis.Summary)

	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
	if err != nil {
		return "", fmt.Errorf("saving %s: %w", analysis.SongName, err)
	}

	logger.Info("Song stored", logger.Fields{"song_name": analysis.SongName, "id": row.ID})
	return row.ID, nil
}

// FindSimilar returns the stored songs closest to text, nearest first
func (s *SQLStore) FindSimilar(ctx context.Context, text string, limit int) ([]Match, error) {
	query, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	var rows []models.SongAnalysis
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("loading songs: %w", err)
	}

	matches := make([]Match, 0, len(rows))
	for _, row := range rows {
		distance, ok := cosineDistance(query, row.Embedding)
		if !ok {
			continue
		}
		matches = append(matches, Match{Song: row, Distance: distance})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].Song.SongName < matches[j].Song.SongName
	})
	if n := normalizeLimit(limit); len(matches) > n {
		matches = matches[:n]
	}
	return matches, nil
}

// FindByTempo returns songs whose tempo estimate lies in [minTempo, maxTempo]
func (s *SQLStore) FindByTempo(ctx context.Context, minTempo, maxTempo float64, limit int) ([]models.SongAnalysis, error) {
	if minTempo > maxTempo {
		return nil, fmt.Errorf("min tempo %.1f is above max tempo %.1f", minTempo, maxTempo)
	}

	var rows []models.SongAnalysis
	err := s.db.WithContext(ctx).
		Where("tempo IS NOT NULL AND tempo >= ? AND tempo <= ?", minTempo, maxTempo).
		Order("tempo ASC").
		Limit(normalizeLimit(limit)).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("querying by tempo: %w", err)
	}
	return rows, nil
}

// GetBySongName returns the most recently stored song with the given name
func (s *SQLStore) GetBySongName(ctx context.Context, name string) (*models.SongAnalysis, error) {
	var row models.SongAnalysis
	err := s.db.WithContext(ctx).
		Where("song_name = ?", name).
		Order("timestamp DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", name, err)
	}
	return &row, nil
}

// List returns stored songs, newest first
func (s *SQLStore) List(ctx context.Context, limit int) ([]models.SongAnalysis, error) {
	var rows []models.SongAnalysis
	err := s.db.WithContext(ctx).
		Order("timestamp DESC").
		Limit(normalizeLimit(limit)).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("listing songs: %w", err)
	}
	return rows, nil
}

// Delete removes every stored song with the given name
func (s *SQLStore) Delete(ctx context.Context, name string) error {
	result := s.db.WithContext(ctx).Where("song_name = ?", name).Delete(&models.SongAnalysis{})
	if result.Error != nil {
		return fmt.Errorf("deleting %s: %w", name, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	logger.Info("Song deleted", logger.Fields{"song_name": name, "rows": result.RowsAffected})
	return nil
}

// Close releases the database connection
func (s *SQLStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}

// FromConfig opens the store named by cfg, or returns the disabled store
// when none is configured
func FromConfig(cfg config.Config) (Store, error) {
	if !cfg.VectorStoreEnabled() {
		return Disabled(), nil
	}
	return Open(cfg.StoreDSN, NewEmbedder(cfg))
}
