package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tunedeck/internal/domain"
	"tunedeck/internal/repository"
)

const (
	createSongsTable = `
CREATE TABLE IF NOT EXISTS songs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	thumbnail TEXT NOT NULL,
	track_url TEXT NOT NULL DEFAULT '',
	storage_key TEXT NOT NULL DEFAULT '',
	artist_id INTEGER NOT NULL REFERENCES users(id),
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`
	createSongLikesTable = `
CREATE TABLE IF NOT EXISTS song_likes (
	user_id INTEGER NOT NULL REFERENCES users(id),
	song_id INTEGER NOT NULL REFERENCES songs(id) ON DELETE CASCADE,
	created_at DATETIME NOT NULL,
	UNIQUE (user_id, song_id)
);
`
)

type SongRepository struct {
	db *sql.DB
}

func NewSongRepository(db *sql.DB) repository.SongRepository {
	return &SongRepository{db: db}
}

func (r *SongRepository) Init(ctx context.Context) error {
	for _, stmt := range []string{createSongsTable, createSongLikesTable} {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create songs tables: %w", err)
		}
	}
	return nil
}

func (r *SongRepository) Create(ctx context.Context, song *domain.Song) (int64, error) {
	now := time.Now().UTC()
	song.CreatedAt = now
	song.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, `
INSERT INTO songs (name, thumbnail, track_url, storage_key, artist_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		song.Name,
		song.Thumbnail,
		song.TrackURL,
		song.StorageKey,
		song.ArtistID,
		song.CreatedAt,
		song.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert song: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("song last insert id: %w", err)
	}
	song.ID = id
	return id, nil
}

func (r *SongRepository) Get(ctx context.Context, id int64) (*domain.Song, error) {
	row := r.db.QueryRowContext(ctx, selectSong+`WHERE id = ?`, id)
	return scanSong(row)
}

func (r *SongRepository) List(ctx context.Context) ([]domain.Song, error) {
	rows, err := r.db.QueryContext(ctx, selectSong+`ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list songs: %w", err)
	}
	defer rows.Close()
	return collectSongs(rows)
}

func (r *SongRepository) Update(ctx context.Context, song *domain.Song) error {
	song.UpdatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
UPDATE songs
SET name = ?, thumbnail = ?, track_url = ?, storage_key = ?, updated_at = ?
WHERE id = ?`,
		song.Name,
		song.Thumbnail,
		song.TrackURL,
		song.StorageKey,
		song.UpdatedAt,
		song.ID,
	)
	if err != nil {
		return fmt.Errorf("update song: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("song %w", repository.ErrNotFound)
	}
	return nil
}

func (r *SongRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM songs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete song: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("song %w", repository.ErrNotFound)
	}
	return nil
}

func (r *SongRepository) Like(ctx context.Context, userID, songID int64) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO song_likes (user_id, song_id, created_at)
VALUES (?, ?, ?)
ON CONFLICT (user_id, song_id) DO NOTHING`,
		userID, songID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("like song: %w", err)
	}
	return nil
}

func (r *SongRepository) Unlike(ctx context.Context, userID, songID int64) error {
	if _, err := r.db.ExecContext(ctx, `
DELETE FROM song_likes WHERE user_id = ? AND song_id = ?`,
		userID, songID,
	); err != nil {
		return fmt.Errorf("unlike song: %w", err)
	}
	return nil
}

func (r *SongRepository) ListLikedBy(ctx context.Context, userID int64) ([]domain.Song, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT s.id, s.name, s.thumbnail, s.track_url, s.storage_key, s.artist_id, s.created_at, s.updated_at
FROM songs s
JOIN song_likes l ON l.song_id = s.id
WHERE l.user_id = ?
ORDER BY l.created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list liked songs: %w", err)
	}
	defer rows.Close()
	return collectSongs(rows)
}

const selectSong = `
SELECT id, name, thumbnail, track_url, storage_key, artist_id, created_at, updated_at
FROM songs
`

func scanSong(row interface {
	Scan(dest ...any) error
}) (*domain.Song, error) {
	var song domain.Song
	if err := row.Scan(
		&song.ID,
		&song.Name,
		&song.Thumbnail,
		&song.TrackURL,
		&song.StorageKey,
		&song.ArtistID,
		&song.CreatedAt,
		&song.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("song %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan song: %w", err)
	}
	return &song, nil
}

func collectSongs(rows *sql.Rows) ([]domain.Song, error) {
	var songs []domain.Song
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, err
		}
		songs = append(songs, *song)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate songs: %w", err)
	}
	return songs, nil
}
