package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/leca/image-gateway/internal/model"
	_ "modernc.org/sqlite"
)

// Compile-time check that SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

// createdAtFormat is fixed-width so TEXT ordering matches time ordering.
const createdAtFormat = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore implements Store backed by SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) an SQLite database at dsn and runs
// migrations. For in-memory use pass "file::memory:?cache=shared".
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	if !strings.Contains(dsn, "?") {
		dsn += "?_journal_mode=WAL&_busy_timeout=5000"
	} else if !strings.Contains(dsn, "_journal_mode") {
		dsn += "&_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// NewWithDB wraps an existing handle without running migrations. Tests use
// it to inject a mocked connection.
func NewWithDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveImage(img *model.Image) (int64, error) {
	createdAt := time.Now().UTC()
	res, err := s.db.Exec(`
		INSERT INTO images (image_id, file_name, description, mime_type, size_in_bytes, width, height, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		img.ID, img.FileName, img.Description, img.MimeType, img.SizeBytes,
		img.Width, img.Height, createdAt.Format(createdAtFormat),
	)
	if err != nil {
		return 0, fmt.Errorf("insert image: %w", err)
	}
	rowID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert image: %w", err)
	}
	img.RowID = rowID
	img.CreatedAt = createdAt
	return rowID, nil
}

func (s *SQLiteStore) SaveVariantURLs(rowID int64, urls map[string]string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			slog.Error("variant batch rollback failed", "error", err)
		}
	}()

	// Insert in name order so failures are reproducible.
	names := make([]string, 0, len(urls))
	for name := range urls {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		_, err := tx.Exec(`
			INSERT INTO image_variants (image_id, variant_name, url)
			VALUES (?, ?, ?)`,
			rowID, name, urls[name],
		)
		if err != nil {
			return fmt.Errorf("insert variant %s: %w", name, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) GetImageByProviderID(providerID string) (*model.Image, error) {
	row := s.db.QueryRow(`
		SELECT id, image_id, file_name, description, mime_type, size_in_bytes, width, height, created_at
		FROM images WHERE image_id = ?`,
		providerID,
	)
	img, err := scanImage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
		SELECT variant_name, url FROM image_variants WHERE image_id = ?`,
		img.RowID,
	)
	if err != nil {
		return nil, fmt.Errorf("query variants: %w", err)
	}
	defer rows.Close()

	img.Variants = map[string]string{}
	for rows.Next() {
		var name, url string
		if err := rows.Scan(&name, &url); err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}
		img.Variants[name] = url
	}
	return img, rows.Err()
}

func (s *SQLiteStore) ListImages(limit, offset int) ([]*model.Image, int, error) {
	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM images`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count images: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT id, image_id, file_name, description, mime_type, size_in_bytes, width, height, created_at
		FROM images
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()

	var images []*model.Image
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, 0, err
		}
		images = append(images, img)
	}
	return images, total, rows.Err()
}

func (s *SQLiteStore) DeleteImage(providerID string) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			slog.Error("delete rollback failed", "error", err)
		}
	}()

	// Variants are removed explicitly rather than relying on the cascade,
	// which needs the foreign_keys pragma enabled per connection.
	_, err = tx.Exec(`
		DELETE FROM image_variants
		WHERE image_id IN (SELECT id FROM images WHERE image_id = ?)`,
		providerID,
	)
	if err != nil {
		return 0, fmt.Errorf("delete variants: %w", err)
	}

	res, err := tx.Exec(`DELETE FROM images WHERE image_id = ?`, providerID)
	if err != nil {
		return 0, fmt.Errorf("delete image: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete image: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit delete: %w", err)
	}
	return deleted, nil
}

type scannable interface {
	Scan(dest ...interface{}) error
}

func scanImage(row scannable) (*model.Image, error) {
	img := &model.Image{}
	var createdStr string

	err := row.Scan(&img.RowID, &img.ID, &img.FileName, &img.Description,
		&img.MimeType, &img.SizeBytes, &img.Width, &img.Height, &createdStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan image: %w", err)
	}

	img.CreatedAt, _ = time.Parse(createdAtFormat, createdStr)
	return img, nil
}
