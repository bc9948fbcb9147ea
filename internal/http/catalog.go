package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"tunedeck/internal/domain"
	"tunedeck/internal/service"
)

type createSongRequest struct {
	Name      string `json:"name" binding:"required"`
	Thumbnail string `json:"thumbnail"`
	TrackURL  string `json:"trackUrl"`
}

type createPlaylistRequest struct {
	Name      string `json:"name" binding:"required"`
	Thumbnail string `json:"thumbnail"`
}

type addPlaylistSongRequest struct {
	SongID int64 `json:"songId" binding:"required"`
}

type SongResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Thumbnail string `json:"thumbnail"`
	TrackURL  string `json:"trackUrl"`
	ArtistID  int64  `json:"artistId"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type PlaylistResponse struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Thumbnail string  `json:"thumbnail"`
	OwnerID   int64   `json:"ownerId"`
	SongIDs   []int64 `json:"songIds"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

func (h *Handler) createSong(c *gin.Context) {
	id, ok := currentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "authentication required"})
		return
	}

	var req createSongRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid input", "error": err.Error()})
		return
	}

	song, err := h.catalog.CreateSong(c.Request.Context(), id.UserID, req.Name, req.Thumbnail, req.TrackURL)
	if err != nil {
		h.internalError(c, "create song", err)
		return
	}
	c.JSON(http.StatusCreated, songToResponse(*song))
}

func (h *Handler) listSongs(c *gin.Context) {
	songs, err := h.catalog.ListSongs(c.Request.Context())
	if err != nil {
		h.internalError(c, "list songs", err)
		return
	}
	c.JSON(http.StatusOK, songsToResponse(songs))
}

func (h *Handler) getSong(c *gin.Context) {
	songID, ok := pathID(c)
	if !ok {
		return
	}
	song, err := h.catalog.GetSong(c.Request.Context(), songID)
	if err != nil {
		h.catalogError(c, "get song", err)
		return
	}
	c.JSON(http.StatusOK, songToResponse(*song))
}

func (h *Handler) deleteSong(c *gin.Context) {
	id, _ := currentIdentity(c)
	songID, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.catalog.DeleteSong(c.Request.Context(), id.UserID, songID); err != nil {
		h.catalogError(c, "delete song", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": songID})
}

func (h *Handler) uploadTrack(c *gin.Context) {
	id, _ := currentIdentity(c)
	songID, ok := pathID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("track")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "track file is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.internalError(c, "upload track", err)
		return
	}
	defer file.Close()

	song, err := h.catalog.UploadTrack(
		c.Request.Context(),
		id.UserID,
		songID,
		fileHeader.Filename,
		file,
		fileHeader.Header.Get("Content-Type"),
	)
	if err != nil {
		if errors.Is(err, service.ErrStorageUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"message": "media storage is not configured"})
			return
		}
		h.catalogError(c, "upload track", err)
		return
	}
	c.JSON(http.StatusOK, songToResponse(*song))
}

func (h *Handler) streamSong(c *gin.Context) {
	songID, ok := pathID(c)
	if !ok {
		return
	}
	url, err := h.catalog.StreamURL(c.Request.Context(), songID)
	if err != nil {
		h.catalogError(c, "stream song", err)
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, url)
}

func (h *Handler) likeSong(c *gin.Context) {
	id, _ := currentIdentity(c)
	songID, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.catalog.LikeSong(c.Request.Context(), id.UserID, songID); err != nil {
		h.catalogError(c, "like song", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": songID})
}

func (h *Handler) unlikeSong(c *gin.Context) {
	id, _ := currentIdentity(c)
	songID, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.catalog.UnlikeSong(c.Request.Context(), id.UserID, songID); err != nil {
		h.catalogError(c, "unlike song", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unliked": songID})
}

func (h *Handler) listLikedSongs(c *gin.Context) {
	id, _ := currentIdentity(c)
	songs, err := h.catalog.ListLikedSongs(c.Request.Context(), id.UserID)
	if err != nil {
		h.internalError(c, "list liked songs", err)
		return
	}
	c.JSON(http.StatusOK, songsToResponse(songs))
}

func (h *Handler) createPlaylist(c *gin.Context) {
	id, _ := currentIdentity(c)

	var req createPlaylistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid input", "error": err.Error()})
		return
	}

	playlist, err := h.catalog.CreatePlaylist(c.Request.Context(), id.UserID, req.Name, req.Thumbnail)
	if err != nil {
		h.internalError(c, "create playlist", err)
		return
	}
	c.JSON(http.StatusCreated, playlistToResponse(*playlist))
}

func (h *Handler) listPlaylists(c *gin.Context) {
	id, _ := currentIdentity(c)
	playlists, err := h.catalog.ListPlaylists(c.Request.Context(), id.UserID)
	if err != nil {
		h.internalError(c, "list playlists", err)
		return
	}
	resp := make([]PlaylistResponse, len(playlists))
	for i := range playlists {
		resp[i] = playlistToResponse(playlists[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getPlaylist(c *gin.Context) {
	playlistID, ok := pathID(c)
	if !ok {
		return
	}
	playlist, err := h.catalog.GetPlaylist(c.Request.Context(), playlistID)
	if err != nil {
		h.catalogError(c, "get playlist", err)
		return
	}
	c.JSON(http.StatusOK, playlistToResponse(*playlist))
}

func (h *Handler) addPlaylistSong(c *gin.Context) {
	id, _ := currentIdentity(c)
	playlistID, ok := pathID(c)
	if !ok {
		return
	}

	var req addPlaylistSongRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid input", "error": err.Error()})
		return
	}

	if err := h.catalog.AddPlaylistSong(c.Request.Context(), id.UserID, playlistID, req.SongID); err != nil {
		h.catalogError(c, "add playlist song", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"added": req.SongID})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid id"})
		return 0, false
	}
	return id, true
}

func (h *Handler) catalogError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "not found"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"message": "forbidden"})
	default:
		h.internalError(c, op, err)
	}
}

func songToResponse(song domain.Song) SongResponse {
	return SongResponse{
		ID:        song.ID,
		Name:      song.Name,
		Thumbnail: song.Thumbnail,
		TrackURL:  song.TrackURL,
		ArtistID:  song.ArtistID,
		CreatedAt: song.CreatedAt.Format(time.RFC3339),
		UpdatedAt: song.UpdatedAt.Format(time.RFC3339),
	}
}

func songsToResponse(songs []domain.Song) []SongResponse {
	resp := make([]SongResponse, len(songs))
	for i := range songs {
		resp[i] = songToResponse(songs[i])
	}
	return resp
}

func playlistToResponse(playlist domain.Playlist) PlaylistResponse {
	return PlaylistResponse{
		ID:        playlist.ID,
		Name:      playlist.Name,
		Thumbnail: playlist.Thumbnail,
		OwnerID:   playlist.OwnerID,
		SongIDs:   playlist.SongIDs,
		CreatedAt: playlist.CreatedAt.Format(time.RFC3339),
		UpdatedAt: playlist.UpdatedAt.Format(time.RFC3339),
	}
}
