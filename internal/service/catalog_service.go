package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"tunedeck/internal/domain"
	"tunedeck/internal/repository"
	"tunedeck/internal/storage"
)

var (
	// ErrNotFound indicates the requested catalog entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden indicates the caller does not own the entity it is
	// trying to mutate.
	ErrForbidden = errors.New("forbidden")
	// ErrStorageUnavailable indicates no object storage is configured.
	ErrStorageUnavailable = errors.New("media storage is not configured")
)

// CatalogService coordinates song and playlist operations.
type CatalogService interface {
	CreateSong(ctx context.Context, artistID int64, name, thumbnail, trackURL string) (*domain.Song, error)
	GetSong(ctx context.Context, id int64) (*domain.Song, error)
	ListSongs(ctx context.Context) ([]domain.Song, error)
	DeleteSong(ctx context.Context, callerID, id int64) error
	UploadTrack(ctx context.Context, callerID, songID int64, filename string, body io.Reader, contentType string) (*domain.Song, error)
	StreamURL(ctx context.Context, songID int64) (string, error)
	LikeSong(ctx context.Context, userID, songID int64) error
	UnlikeSong(ctx context.Context, userID, songID int64) error
	ListLikedSongs(ctx context.Context, userID int64) ([]domain.Song, error)

	CreatePlaylist(ctx context.Context, ownerID int64, name, thumbnail string) (*domain.Playlist, error)
	GetPlaylist(ctx context.Context, id int64) (*domain.Playlist, error)
	ListPlaylists(ctx context.Context, ownerID int64) ([]domain.Playlist, error)
	AddPlaylistSong(ctx context.Context, callerID, playlistID, songID int64) error
}

type catalogService struct {
	songs     repository.SongRepository
	playlists repository.PlaylistRepository
	media     storage.Service
	bucket    string
	keyPrefix string
}

func NewCatalogService(songs repository.SongRepository, playlists repository.PlaylistRepository, media storage.Service, bucket, keyPrefix string) CatalogService {
	return &catalogService{
		songs:     songs,
		playlists: playlists,
		media:     media,
		bucket:    bucket,
		keyPrefix: strings.Trim(keyPrefix, "/"),
	}
}

func (s *catalogService) CreateSong(ctx context.Context, artistID int64, name, thumbnail, trackURL string) (*domain.Song, error) {
	if name == "" {
		return nil, errors.New("song name is required")
	}
	song := &domain.Song{
		Name:      name,
		Thumbnail: thumbnail,
		TrackURL:  trackURL,
		ArtistID:  artistID,
	}
	if _, err := s.songs.Create(ctx, song); err != nil {
		return nil, err
	}
	return song, nil
}

func (s *catalogService) GetSong(ctx context.Context, id int64) (*domain.Song, error) {
	song, err := s.songs.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return song, nil
}

func (s *catalogService) ListSongs(ctx context.Context) ([]domain.Song, error) {
	return s.songs.List(ctx)
}

func (s *catalogService) DeleteSong(ctx context.Context, callerID, id int64) error {
	song, err := s.GetSong(ctx, id)
	if err != nil {
		return err
	}
	if song.ArtistID != callerID {
		return ErrForbidden
	}
	if song.StorageKey != "" && s.media != nil {
		if err := s.media.DeleteObject(ctx, s.bucket, song.StorageKey); err != nil {
			return fmt.Errorf("delete track object: %w", err)
		}
	}
	return s.songs.Delete(ctx, id)
}

// UploadTrack streams the uploaded file into object storage and records the
// resulting location on the song.
func (s *catalogService) UploadTrack(ctx context.Context, callerID, songID int64, filename string, body io.Reader, contentType string) (*domain.Song, error) {
	if s.media == nil || s.bucket == "" {
		return nil, ErrStorageUnavailable
	}

	song, err := s.GetSong(ctx, songID)
	if err != nil {
		return nil, err
	}
	if song.ArtistID != callerID {
		return nil, ErrForbidden
	}

	key := fmt.Sprintf("songs/%d/%s%s", songID, uuid.NewString(), path.Ext(filename))
	if s.keyPrefix != "" {
		key = s.keyPrefix + "/" + key
	}

	location, err := s.media.UploadObject(ctx, s.bucket, key, body, contentType)
	if err != nil {
		return nil, fmt.Errorf("upload track: %w", err)
	}

	song.StorageKey = key
	song.TrackURL = location
	if err := s.songs.Update(ctx, song); err != nil {
		return nil, err
	}
	return song, nil
}

// StreamURL resolves a playable URL for the song: a presigned object URL for
// uploaded tracks, the stored track URL otherwise.
func (s *catalogService) StreamURL(ctx context.Context, songID int64) (string, error) {
	song, err := s.GetSong(ctx, songID)
	if err != nil {
		return "", err
	}
	if song.StorageKey != "" && s.media != nil && s.bucket != "" {
		return s.media.PresignGet(ctx, s.bucket, song.StorageKey, storage.DefaultPresignTTL)
	}
	if song.TrackURL == "" {
		return "", ErrNotFound
	}
	return song.TrackURL, nil
}

func (s *catalogService) LikeSong(ctx context.Context, userID, songID int64) error {
	if _, err := s.GetSong(ctx, songID); err != nil {
		return err
	}
	return s.songs.Like(ctx, userID, songID)
}

func (s *catalogService) UnlikeSong(ctx context.Context, userID, songID int64) error {
	return s.songs.Unlike(ctx, userID, songID)
}

func (s *catalogService) ListLikedSongs(ctx context.Context, userID int64) ([]domain.Song, error) {
	return s.songs.ListLikedBy(ctx, userID)
}

func (s *catalogService) CreatePlaylist(ctx context.Context, ownerID int64, name, thumbnail string) (*domain.Playlist, error) {
	if name == "" {
		return nil, errors.New("playlist name is required")
	}
	playlist := &domain.Playlist{
		Name:      name,
		Thumbnail: thumbnail,
		OwnerID:   ownerID,
	}
	if _, err := s.playlists.Create(ctx, playlist); err != nil {
		return nil, err
	}
	return playlist, nil
}

func (s *catalogService) GetPlaylist(ctx context.Context, id int64) (*domain.Playlist, error) {
	playlist, err := s.playlists.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return playlist, nil
}

func (s *catalogService) ListPlaylists(ctx context.Context, ownerID int64) ([]domain.Playlist, error) {
	return s.playlists.ListByOwner(ctx, ownerID)
}

func (s *catalogService) AddPlaylistSong(ctx context.Context, callerID, playlistID, songID int64) error {
	playlist, err := s.GetPlaylist(ctx, playlistID)
	if err != nil {
		return err
	}
	if playlist.OwnerID != callerID {
		return ErrForbidden
	}
	if _, err := s.GetSong(ctx, songID); err != nil {
		return err
	}
	return s.playlists.AddSong(ctx, playlistID, songID)
}
