package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dugnadhub-api/internal/store"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// row is the gorm model backing every collection: one table of JSON
// field bags keyed by (collection, id).
type row struct {
	Collection string `gorm:"primaryKey;column:collection"`
	ID         string `gorm:"primaryKey;column:id"`
	Data       string `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName specifies the table name for the document rows
func (row) TableName() string {
	return "documents"
}

// Store is a DocumentStore backed by a SQLite database through gorm.
// Using glebarez/sqlite which is a pure Go implementation (no CGO required).
type Store struct {
	db *gorm.DB
}

// New wraps an open gorm connection and migrates the documents table.
func New(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("document store: nil db")
	}
	if err := db.AutoMigrate(&row{}); err != nil {
		return nil, fmt.Errorf("migrate documents table: %w", err)
	}
	return &Store{db: db}, nil
}

// ListAll implements store.DocumentStore.
func (s *Store) ListAll(ctx context.Context, collection string) ([]store.Record, error) {
	var rows []row
	err := s.db.WithContext(ctx).
		Where("collection = ?", collection).
		Order("created_at asc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}

	records := make([]store.Record, 0, len(rows))
	for _, r := range rows {
		fields, err := decodeFields(r.Data)
		if err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", collection, r.ID, err)
		}
		records = append(records, store.Record{ID: r.ID, Fields: fields})
	}
	return records, nil
}

// Create implements store.DocumentStore. Ids are opaque uuids, never
// reused and stable for the document's lifetime.
func (s *Store) Create(ctx context.Context, collection string, fields store.Fields) (string, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}

	id := uuid.NewString()
	r := row{Collection: collection, ID: id, Data: string(data)}
	if err := s.db.WithContext(ctx).Create(&r).Error; err != nil {
		return "", fmt.Errorf("create %s document: %w", collection, err)
	}
	return id, nil
}

// UpdatePartial implements store.DocumentStore. The merge is
// field-level: keys present in fields overwrite, everything else in
// the stored bag is untouched.
func (s *Store) UpdatePartial(ctx context.Context, collection, id string, fields store.Fields) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var r row
		err := tx.Where("collection = ? AND id = ?", collection, id).First(&r).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return store.ErrNotFound
			}
			return fmt.Errorf("fetch %s/%s: %w", collection, id, err)
		}

		existing, err := decodeFields(r.Data)
		if err != nil {
			return fmt.Errorf("decode %s/%s: %w", collection, id, err)
		}
		for k, v := range fields {
			existing[k] = v
		}

		data, err := json.Marshal(existing)
		if err != nil {
			return fmt.Errorf("encode %s/%s: %w", collection, id, err)
		}
		r.Data = string(data)
		if err := tx.Save(&r).Error; err != nil {
			return fmt.Errorf("update %s/%s: %w", collection, id, err)
		}
		return nil
	})
}

// Delete implements store.DocumentStore. Deleting a missing id
// succeeds, matching the original backend's delete semantics.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	err := s.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		Delete(&row{}).Error
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return nil
}

// GetByID implements store.DocumentStore.
func (s *Store) GetByID(ctx context.Context, collection, id string) (store.Record, error) {
	var r row
	err := s.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		First(&r).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return store.Record{}, store.ErrNotFound
		}
		return store.Record{}, fmt.Errorf("fetch %s/%s: %w", collection, id, err)
	}

	fields, err := decodeFields(r.Data)
	if err != nil {
		return store.Record{}, fmt.Errorf("decode %s/%s: %w", collection, id, err)
	}
	return store.Record{ID: r.ID, Fields: fields}, nil
}

func decodeFields(data string) (store.Fields, error) {
	fields := store.Fields{}
	if err := json.Unmarshal([]byte(data), &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// Ensure Store implements the capability at compile time.
var _ store.DocumentStore = (*Store)(nil)
