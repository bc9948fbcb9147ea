package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"tunedeck/internal/domain"
	"tunedeck/internal/repository"
)

func newTestCatalogDB(t *testing.T) (*sql.DB, repository.SongRepository, int64) {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	users := NewUserRepository(db)
	if err := users.Init(ctx); err != nil {
		t.Fatalf("init users: %v", err)
	}
	songs := NewSongRepository(db)
	if err := songs.Init(ctx); err != nil {
		t.Fatalf("init songs: %v", err)
	}

	userID, err := users.Create(ctx, testUser("artist@example.com", "artist"))
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return db, songs, userID
}

func TestSongRepositoryLikeIsIdempotent(t *testing.T) {
	db, songs, userID := newTestCatalogDB(t)
	ctx := context.Background()

	songID, err := songs.Create(ctx, &domain.Song{
		Name:     "Song One",
		ArtistID: userID,
	})
	if err != nil {
		t.Fatalf("create song: %v", err)
	}

	// Liking the same song twice leaves a single row behind.
	if err := songs.Like(ctx, userID, songID); err != nil {
		t.Fatalf("first like: %v", err)
	}
	if err := songs.Like(ctx, userID, songID); err != nil {
		t.Fatalf("second like: %v", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM song_likes WHERE user_id = ? AND song_id = ?`, userID, songID).Scan(&count); err != nil {
		t.Fatalf("count likes: %v", err)
	}
	if count != 1 {
		t.Fatalf("like rows = %d, want 1", count)
	}

	liked, err := songs.ListLikedBy(ctx, userID)
	if err != nil {
		t.Fatalf("ListLikedBy: %v", err)
	}
	if len(liked) != 1 || liked[0].ID != songID {
		t.Fatalf("liked songs = %+v, want the one song", liked)
	}
}

func TestSongRepositoryUnlike(t *testing.T) {
	_, songs, userID := newTestCatalogDB(t)
	ctx := context.Background()

	songID, err := songs.Create(ctx, &domain.Song{Name: "Song One", ArtistID: userID})
	if err != nil {
		t.Fatalf("create song: %v", err)
	}
	if err := songs.Like(ctx, userID, songID); err != nil {
		t.Fatalf("like: %v", err)
	}
	if err := songs.Unlike(ctx, userID, songID); err != nil {
		t.Fatalf("unlike: %v", err)
	}

	liked, err := songs.ListLikedBy(ctx, userID)
	if err != nil {
		t.Fatalf("ListLikedBy: %v", err)
	}
	if len(liked) != 0 {
		t.Fatalf("liked songs = %+v, want none", liked)
	}

	// Unliking again is a no-op, not an error.
	if err := songs.Unlike(ctx, userID, songID); err != nil {
		t.Fatalf("repeat unlike: %v", err)
	}
}
