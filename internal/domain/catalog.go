package domain

import "time"

// Song is a catalog entry published by an artist (a registered user).
// TrackURL points at the playable media; StorageKey is set once the track
// has been uploaded to object storage.
type Song struct {
	ID         int64
	Name       string
	Thumbnail  string
	TrackURL   string
	StorageKey string
	ArtistID   int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Playlist is an ordered collection of songs owned by a user.
type Playlist struct {
	ID        int64
	Name      string
	Thumbnail string
	OwnerID   int64
	SongIDs   []int64
	CreatedAt time.Time
	UpdatedAt time.Time
}
