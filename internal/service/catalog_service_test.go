package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"tunedeck/internal/domain"
	"tunedeck/internal/repository"
)

type memorySongRepo struct {
	mu    sync.Mutex
	seq   int64
	songs map[int64]*domain.Song
	likes map[string]struct{}
}

func newMemorySongRepo() *memorySongRepo {
	return &memorySongRepo{
		songs: make(map[int64]*domain.Song),
		likes: make(map[string]struct{}),
	}
}

func likeKey(userID, songID int64) string {
	return fmt.Sprintf("%d:%d", userID, songID)
}

func (r *memorySongRepo) Init(ctx context.Context) error { return nil }

func (r *memorySongRepo) Create(ctx context.Context, song *domain.Song) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	song.ID = r.seq
	copied := *song
	r.songs[song.ID] = &copied
	return song.ID, nil
}

func (r *memorySongRepo) Get(ctx context.Context, id int64) (*domain.Song, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	song, ok := r.songs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *song
	return &copied, nil
}

func (r *memorySongRepo) List(ctx context.Context) ([]domain.Song, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var songs []domain.Song
	for _, song := range r.songs {
		songs = append(songs, *song)
	}
	return songs, nil
}

func (r *memorySongRepo) Update(ctx context.Context, song *domain.Song) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.songs[song.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *song
	r.songs[song.ID] = &copied
	return nil
}

func (r *memorySongRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.songs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.songs, id)
	return nil
}

func (r *memorySongRepo) Like(ctx context.Context, userID, songID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.likes[likeKey(userID, songID)] = struct{}{}
	return nil
}

func (r *memorySongRepo) Unlike(ctx context.Context, userID, songID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.likes, likeKey(userID, songID))
	return nil
}

func (r *memorySongRepo) ListLikedBy(ctx context.Context, userID int64) ([]domain.Song, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var songs []domain.Song
	for id, song := range r.songs {
		if _, ok := r.likes[likeKey(userID, id)]; ok {
			songs = append(songs, *song)
		}
	}
	return songs, nil
}

type memoryPlaylistRepo struct {
	mu        sync.Mutex
	seq       int64
	playlists map[int64]*domain.Playlist
}

func newMemoryPlaylistRepo() *memoryPlaylistRepo {
	return &memoryPlaylistRepo{playlists: make(map[int64]*domain.Playlist)}
}

func (r *memoryPlaylistRepo) Init(ctx context.Context) error { return nil }

func (r *memoryPlaylistRepo) Create(ctx context.Context, playlist *domain.Playlist) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	playlist.ID = r.seq
	copied := *playlist
	r.playlists[playlist.ID] = &copied
	return playlist.ID, nil
}

func (r *memoryPlaylistRepo) Get(ctx context.Context, id int64) (*domain.Playlist, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	playlist, ok := r.playlists[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *playlist
	copied.SongIDs = append([]int64(nil), playlist.SongIDs...)
	return &copied, nil
}

func (r *memoryPlaylistRepo) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Playlist, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var playlists []domain.Playlist
	for _, playlist := range r.playlists {
		if playlist.OwnerID == ownerID {
			playlists = append(playlists, *playlist)
		}
	}
	return playlists, nil
}

func (r *memoryPlaylistRepo) AddSong(ctx context.Context, playlistID, songID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	playlist, ok := r.playlists[playlistID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, existing := range playlist.SongIDs {
		if existing == songID {
			return nil
		}
	}
	playlist.SongIDs = append(playlist.SongIDs, songID)
	return nil
}

type fakeMediaStore struct {
	mu       sync.Mutex
	uploaded map[string]string
	deleted  []string
}

func newFakeMediaStore() *fakeMediaStore {
	return &fakeMediaStore{uploaded: make(map[string]string)}
}

func (s *fakeMediaStore) UploadObject(ctx context.Context, bucket, key string, body io.Reader, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploaded[key] = contentType
	return fmt.Sprintf("s3://%s/%s", bucket, key), nil
}

func (s *fakeMediaStore) PresignGet(ctx context.Context, bucket, key string, expires time.Duration) (string, error) {
	return "https://signed.example.com/" + key, nil
}

func (s *fakeMediaStore) DeleteObject(ctx context.Context, bucket, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, key)
	return nil
}

const (
	artistID = int64(1)
	otherID  = int64(2)
)

func newTestCatalog(t *testing.T, media *fakeMediaStore) (CatalogService, *memorySongRepo, *memoryPlaylistRepo) {
	t.Helper()
	songs := newMemorySongRepo()
	playlists := newMemoryPlaylistRepo()
	if media == nil {
		return NewCatalogService(songs, playlists, nil, "", "tunedeck-media"), songs, playlists
	}
	return NewCatalogService(songs, playlists, media, "media-bucket", "tunedeck-media"), songs, playlists
}

func createTestSong(t *testing.T, svc CatalogService) *domain.Song {
	t.Helper()
	song, err := svc.CreateSong(context.Background(), artistID, "Song One", "thumb.png", "")
	if err != nil {
		t.Fatalf("CreateSong: %v", err)
	}
	return song
}

func TestUploadTrackRequiresConfiguredStorage(t *testing.T) {
	svc, _, _ := newTestCatalog(t, nil)
	song := createTestSong(t, svc)

	_, err := svc.UploadTrack(context.Background(), artistID, song.ID, "track.mp3", strings.NewReader("data"), "audio/mpeg")
	if !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("err = %v, want ErrStorageUnavailable", err)
	}
}

func TestUploadTrackRequiresOwnedSong(t *testing.T) {
	media := newFakeMediaStore()
	svc, _, _ := newTestCatalog(t, media)
	song := createTestSong(t, svc)

	_, err := svc.UploadTrack(context.Background(), otherID, song.ID, "track.mp3", strings.NewReader("data"), "audio/mpeg")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
	if len(media.uploaded) != 0 {
		t.Fatalf("forbidden upload still stored: %v", media.uploaded)
	}

	if _, err := svc.UploadTrack(context.Background(), artistID, 99, "track.mp3", strings.NewReader("data"), "audio/mpeg"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown song err = %v, want ErrNotFound", err)
	}
}

func TestUploadTrackStoresObjectAndRecordsLocation(t *testing.T) {
	media := newFakeMediaStore()
	svc, songs, _ := newTestCatalog(t, media)
	song := createTestSong(t, svc)

	updated, err := svc.UploadTrack(context.Background(), artistID, song.ID, "track.mp3", strings.NewReader("data"), "audio/mpeg")
	if err != nil {
		t.Fatalf("UploadTrack: %v", err)
	}
	if updated.StorageKey == "" || !strings.HasPrefix(updated.StorageKey, "tunedeck-media/") {
		t.Fatalf("storage key = %q, want prefixed key", updated.StorageKey)
	}
	if !strings.HasSuffix(updated.StorageKey, ".mp3") {
		t.Fatalf("storage key = %q, want original extension", updated.StorageKey)
	}
	if updated.TrackURL != "s3://media-bucket/"+updated.StorageKey {
		t.Fatalf("track url = %q", updated.TrackURL)
	}
	if _, ok := media.uploaded[updated.StorageKey]; !ok {
		t.Fatalf("object not uploaded under %q", updated.StorageKey)
	}

	stored, err := songs.Get(context.Background(), song.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.StorageKey != updated.StorageKey {
		t.Fatalf("persisted key = %q, want %q", stored.StorageKey, updated.StorageKey)
	}
}

func TestStreamURL(t *testing.T) {
	media := newFakeMediaStore()
	svc, _, _ := newTestCatalog(t, media)
	ctx := context.Background()

	t.Run("uploaded tracks are presigned", func(t *testing.T) {
		song := createTestSong(t, svc)
		uploaded, err := svc.UploadTrack(ctx, artistID, song.ID, "track.mp3", strings.NewReader("data"), "audio/mpeg")
		if err != nil {
			t.Fatalf("UploadTrack: %v", err)
		}

		url, err := svc.StreamURL(ctx, song.ID)
		if err != nil {
			t.Fatalf("StreamURL: %v", err)
		}
		if url != "https://signed.example.com/"+uploaded.StorageKey {
			t.Fatalf("url = %q, want presigned", url)
		}
	})

	t.Run("external tracks use the stored url", func(t *testing.T) {
		song, err := svc.CreateSong(ctx, artistID, "External", "", "https://cdn.example.com/x.mp3")
		if err != nil {
			t.Fatalf("CreateSong: %v", err)
		}
		url, err := svc.StreamURL(ctx, song.ID)
		if err != nil {
			t.Fatalf("StreamURL: %v", err)
		}
		if url != "https://cdn.example.com/x.mp3" {
			t.Fatalf("url = %q", url)
		}
	})

	t.Run("song without any track is not found", func(t *testing.T) {
		song, err := svc.CreateSong(ctx, artistID, "Empty", "", "")
		if err != nil {
			t.Fatalf("CreateSong: %v", err)
		}
		if _, err := svc.StreamURL(ctx, song.ID); !errors.Is(err, ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestDeleteSongOwnerOnlyAndRemovesObject(t *testing.T) {
	media := newFakeMediaStore()
	svc, _, _ := newTestCatalog(t, media)
	ctx := context.Background()

	song := createTestSong(t, svc)
	uploaded, err := svc.UploadTrack(ctx, artistID, song.ID, "track.mp3", strings.NewReader("data"), "audio/mpeg")
	if err != nil {
		t.Fatalf("UploadTrack: %v", err)
	}

	if err := svc.DeleteSong(ctx, otherID, song.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-owner delete err = %v, want ErrForbidden", err)
	}

	if err := svc.DeleteSong(ctx, artistID, song.ID); err != nil {
		t.Fatalf("DeleteSong: %v", err)
	}
	if len(media.deleted) != 1 || media.deleted[0] != uploaded.StorageKey {
		t.Fatalf("deleted objects = %v, want [%s]", media.deleted, uploaded.StorageKey)
	}
	if _, err := svc.GetSong(ctx, song.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound after delete", err)
	}
}

func TestLikeSongRequiresExistingSong(t *testing.T) {
	svc, _, _ := newTestCatalog(t, nil)

	if err := svc.LikeSong(context.Background(), otherID, 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestAddPlaylistSongOwnerRestricted(t *testing.T) {
	svc, _, _ := newTestCatalog(t, nil)
	ctx := context.Background()

	song := createTestSong(t, svc)
	playlist, err := svc.CreatePlaylist(ctx, artistID, "Mix", "thumb.png")
	if err != nil {
		t.Fatalf("CreatePlaylist: %v", err)
	}

	t.Run("non-owner is forbidden", func(t *testing.T) {
		if err := svc.AddPlaylistSong(ctx, otherID, playlist.ID, song.ID); !errors.Is(err, ErrForbidden) {
			t.Fatalf("err = %v, want ErrForbidden", err)
		}
	})

	t.Run("unknown playlist is not found", func(t *testing.T) {
		if err := svc.AddPlaylistSong(ctx, artistID, 99, song.ID); !errors.Is(err, ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("unknown song is not found", func(t *testing.T) {
		if err := svc.AddPlaylistSong(ctx, artistID, playlist.ID, 99); !errors.Is(err, ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("owner adds the song", func(t *testing.T) {
		if err := svc.AddPlaylistSong(ctx, artistID, playlist.ID, song.ID); err != nil {
			t.Fatalf("AddPlaylistSong: %v", err)
		}
		stored, err := svc.GetPlaylist(ctx, playlist.ID)
		if err != nil {
			t.Fatalf("GetPlaylist: %v", err)
		}
		if len(stored.SongIDs) != 1 || stored.SongIDs[0] != song.ID {
			t.Fatalf("song ids = %v, want [%d]", stored.SongIDs, song.ID)
		}
	})
}
