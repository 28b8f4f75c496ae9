package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// FeedRepository handles database operations for feeds
type FeedRepository struct {
	db *DB
}

// NewFeedRepository creates a new feed repository
func NewFeedRepository(db *DB) *FeedRepository {
	return &FeedRepository{db: db}
}

// Upsert registers a feed, or overwrites the registration with the same
// URL. Stored XML content survives re-registration: UpdateContent is the
// only writer of xml_content and the staleness clock. Returns the
// record's database ID.
func (r *FeedRepository) Upsert(record *FeedRecord) (string, error) {
	existing, err := r.GetByURL(record.URL)
	if err != nil {
		return "", fmt.Errorf("failed to check existing feed: %w", err)
	}

	if existing != nil {
		_, err = r.db.Exec(`
			UPDATE feeds
			SET title = ?, type = ?, cache_seconds = ?
			WHERE id = ?
		`, record.Title, record.Type, record.CacheSeconds, existing.ID)
		if err != nil {
			return "", fmt.Errorf("failed to update feed: %w", err)
		}
		return existing.ID, nil
	}

	id := uuid.NewString()
	_, err = r.db.Exec(`
		INSERT INTO feeds (id, url, title, type, cache_seconds)
		VALUES (?, ?, ?, ?, ?)
	`, id, record.URL, record.Title, record.Type, record.CacheSeconds)
	if err != nil {
		return "", fmt.Errorf("failed to insert feed: %w", err)
	}

	return id, nil
}

// GetByID retrieves a feed by its database ID. Returns nil when absent.
func (r *FeedRepository) GetByID(id string) (*FeedRecord, error) {
	row := r.db.QueryRow(`
		SELECT id, url, title, type, cache_seconds, xml_content, public_url, file_id, created_at, updated_at
		FROM feeds
		WHERE id = ?
	`, id)

	return scanFeed(row)
}

// GetByURL retrieves a feed by its source page URL. Returns nil when absent.
func (r *FeedRepository) GetByURL(feedURL string) (*FeedRecord, error) {
	row := r.db.QueryRow(`
		SELECT id, url, title, type, cache_seconds, xml_content, public_url, file_id, created_at, updated_at
		FROM feeds
		WHERE url = ?
	`, feedURL)

	return scanFeed(row)
}

// List returns all registered feeds, newest first.
func (r *FeedRepository) List() ([]FeedRecord, error) {
	rows, err := r.db.Query(`
		SELECT id, url, title, type, cache_seconds, xml_content, public_url, file_id, created_at, updated_at
		FROM feeds
		ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list feeds: %w", err)
	}
	defer rows.Close()

	var records []FeedRecord
	for rows.Next() {
		var record FeedRecord
		err := rows.Scan(
			&record.ID, &record.URL, &record.Title, &record.Type, &record.CacheSeconds,
			&record.XMLContent, &record.PublicURL, &record.FileID,
			&record.CreatedAt, &record.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feed row: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feed rows: %w", err)
	}

	return records, nil
}

// UpdateContent stores freshly generated XML and restarts the staleness clock.
func (r *FeedRepository) UpdateContent(id string, xmlContent string) error {
	_, err := r.db.Exec(`
		UPDATE feeds
		SET xml_content = ?, updated_at = datetime('now')
		WHERE id = ?
	`, xmlContent, id)

	if err != nil {
		return fmt.Errorf("failed to update feed content: %w", err)
	}

	return nil
}

// SetUpload records where the feed XML was published externally.
func (r *FeedRepository) SetUpload(id, fileID, publicURL string) error {
	_, err := r.db.Exec(`
		UPDATE feeds
		SET file_id = ?, public_url = ?
		WHERE id = ?
	`, fileID, publicURL, id)

	if err != nil {
		return fmt.Errorf("failed to set feed upload: %w", err)
	}

	return nil
}

// Delete removes a feed record.
func (r *FeedRepository) Delete(id string) error {
	_, err := r.db.Exec("DELETE FROM feeds WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete feed: %w", err)
	}

	return nil
}

// Count returns the total number of registered feeds.
func (r *FeedRepository) Count() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM feeds").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get feed count: %w", err)
	}
	return count, nil
}

func scanFeed(row *sql.Row) (*FeedRecord, error) {
	var record FeedRecord
	err := row.Scan(
		&record.ID, &record.URL, &record.Title, &record.Type, &record.CacheSeconds,
		&record.XMLContent, &record.PublicURL, &record.FileID,
		&record.CreatedAt, &record.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed: %w", err)
	}

	return &record, nil
}
