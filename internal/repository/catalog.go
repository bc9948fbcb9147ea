package repository

import (
	"context"

	"tunedeck/internal/domain"
)

// SongRepository defines persistence operations for Song entities.
type SongRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, song *domain.Song) (int64, error)
	Get(ctx context.Context, id int64) (*domain.Song, error)
	List(ctx context.Context) ([]domain.Song, error)
	Update(ctx context.Context, song *domain.Song) error
	Delete(ctx context.Context, id int64) error
	Like(ctx context.Context, userID, songID int64) error
	Unlike(ctx context.Context, userID, songID int64) error
	ListLikedBy(ctx context.Context, userID int64) ([]domain.Song, error)
}

// PlaylistRepository defines persistence operations for Playlist entities.
type PlaylistRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, playlist *domain.Playlist) (int64, error)
	Get(ctx context.Context, id int64) (*domain.Playlist, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]domain.Playlist, error)
	AddSong(ctx context.Context, playlistID, songID int64) error
}
