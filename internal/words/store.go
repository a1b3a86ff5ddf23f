package words

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type wordPack struct {
	ID          string `gorm:"primaryKey"`
	Name        string `gorm:"uniqueIndex"`
	Description string
	IsActive    bool
}

func (wordPack) TableName() string { return "word_packs" }

type wordRecord struct {
	ID         string `gorm:"primaryKey"`
	Text       string
	Points     int
	Difficulty string
	PackID     string `gorm:"index"`
}

func (wordRecord) TableName() string { return "words" }

// Store is the Postgres-backed corpus provider.
type Store struct {
	db *gorm.DB
}

func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open word store: %w", err)
	}
	if err := db.AutoMigrate(&wordPack{}, &wordRecord{}); err != nil {
		return nil, fmt.Errorf("migrate word store: %w", err)
	}
	return &Store{db: db}, nil
}

// Words returns the corpus from active packs, optionally scoped to one pack
// by name.
func (s *Store) Words(ctx context.Context, pack string) ([]Entry, error) {
	q := s.db.WithContext(ctx).
		Table("words").
		Select("words.id, words.text, words.points, words.difficulty").
		Joins("JOIN word_packs ON word_packs.id = words.pack_id").
		Where("word_packs.is_active = ?", true)
	if pack != "" {
		q = q.Where("word_packs.name = ?", pack)
	}

	var records []wordRecord
	if err := q.Scan(&records).Error; err != nil {
		return nil, fmt.Errorf("query words: %w", err)
	}

	entries := make([]Entry, len(records))
	for i, r := range records {
		entries[i] = Entry{
			ID:         r.ID,
			Text:       r.Text,
			Points:     r.Points,
			Difficulty: Difficulty(r.Difficulty),
		}
	}
	return entries, nil
}

// Seed installs the builtin corpus as a "standard" pack when the database is
// empty. Safe to call on every startup.
func (s *Store) Seed(ctx context.Context) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&wordRecord{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count words: %w", err)
	}
	if count > 0 {
		return nil
	}

	pack := wordPack{
		ID:          uuid.NewString(),
		Name:        "standard",
		Description: "Standard word pack with varied difficulty",
		IsActive:    true,
	}

	entries, _ := BuiltinProvider{}.Words(ctx, "")
	records := make([]wordRecord, len(entries))
	for i, e := range entries {
		records[i] = wordRecord{
			ID:         e.ID,
			Text:       e.Text,
			Points:     e.Points,
			Difficulty: string(e.Difficulty),
			PackID:     pack.ID,
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&pack).Error; err != nil {
			return fmt.Errorf("create pack: %w", err)
		}
		if err := tx.CreateInBatches(records, 100).Error; err != nil {
			return fmt.Errorf("seed words: %w", err)
		}
		return nil
	})
}
