package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"tunedeck/internal/domain"
	"tunedeck/internal/repository"
)

const (
	createPlaylistsTable = `
CREATE TABLE IF NOT EXISTS playlists (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	thumbnail TEXT NOT NULL,
	owner_id INTEGER NOT NULL REFERENCES users(id),
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`
	createPlaylistSongsTable = `
CREATE TABLE IF NOT EXISTS playlist_songs (
	playlist_id INTEGER NOT NULL REFERENCES playlists(id) ON DELETE CASCADE,
	song_id INTEGER NOT NULL REFERENCES songs(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	UNIQUE (playlist_id, song_id)
);
`
)

type PlaylistRepository struct {
	db *sql.DB
}

func NewPlaylistRepository(db *sql.DB) repository.PlaylistRepository {
	return &PlaylistRepository{db: db}
}

func (r *PlaylistRepository) Init(ctx context.Context) error {
	for _, stmt := range []string{createPlaylistsTable, createPlaylistSongsTable} {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create playlists tables: %w", err)
		}
	}
	return nil
}

func (r *PlaylistRepository) Create(ctx context.Context, playlist *domain.Playlist) (int64, error) {
	now := time.Now().UTC()
	playlist.CreatedAt = now
	playlist.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, `
INSERT INTO playlists (name, thumbnail, owner_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)`,
		playlist.Name,
		playlist.Thumbnail,
		playlist.OwnerID,
		playlist.CreatedAt,
		playlist.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert playlist: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("playlist last insert id: %w", err)
	}
	playlist.ID = id
	return id, nil
}

func (r *PlaylistRepository) Get(ctx context.Context, id int64) (*domain.Playlist, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, thumbnail, owner_id, created_at, updated_at
FROM playlists
WHERE id = ?`,
		id,
	)
	playlist, err := scanPlaylist(row)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT song_id FROM playlist_songs WHERE playlist_id = ? ORDER BY position`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("list playlist songs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var songID int64
		if err := rows.Scan(&songID); err != nil {
			return nil, fmt.Errorf("scan playlist song: %w", err)
		}
		playlist.SongIDs = append(playlist.SongIDs, songID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playlist songs: %w", err)
	}
	return playlist, nil
}

func (r *PlaylistRepository) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Playlist, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, thumbnail, owner_id, created_at, updated_at
FROM playlists
WHERE owner_id = ?
ORDER BY id`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list playlists: %w", err)
	}
	defer rows.Close()

	var playlists []domain.Playlist
	for rows.Next() {
		playlist, err := scanPlaylist(rows)
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, *playlist)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playlists: %w", err)
	}
	return playlists, nil
}

func (r *PlaylistRepository) AddSong(ctx context.Context, playlistID, songID int64) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO playlist_songs (playlist_id, song_id, position)
VALUES (?, ?, COALESCE((SELECT MAX(position) + 1 FROM playlist_songs WHERE playlist_id = ?), 0))
ON CONFLICT (playlist_id, song_id) DO NOTHING`,
		playlistID, songID, playlistID,
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "foreign key") {
			return fmt.Errorf("playlist or song %w", repository.ErrNotFound)
		}
		return fmt.Errorf("add playlist song: %w", err)
	}
	return nil
}

func scanPlaylist(row interface {
	Scan(dest ...any) error
}) (*domain.Playlist, error) {
	var playlist domain.Playlist
	if err := row.Scan(
		&playlist.ID,
		&playlist.Name,
		&playlist.Thumbnail,
		&playlist.OwnerID,
		&playlist.CreatedAt,
		&playlist.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("playlist %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan playlist: %w", err)
	}
	return &playlist, nil
}
