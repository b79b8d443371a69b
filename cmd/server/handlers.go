package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/himanishpuri/fpstore/pkg/acousticdna"
	"github.com/himanishpuri/fpstore/pkg/logger"
)

// Server encapsulates the HTTP server and its dependencies
type Server struct {
	service acousticdna.Service
	config  *ServerConfig
	log     acousticdna.Logger
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	DBPath         string
	AllowedOrigins []string
	RequestTimeout time.Duration
	AccessLog      bool
}

// NewServer creates a new server instance
func NewServer(service acousticdna.Service, config *ServerConfig) *Server {
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = time.Minute
	}
	return &Server{
		service: service,
		config:  config,
		log:     logger.GetLogger().With("component", "server"),
	}
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response
func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

// statusFor maps a storage error category to an HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, acousticdna.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, acousticdna.ErrInvalidHash), errors.Is(err, acousticdna.ErrEmptyName):
		return http.StatusBadRequest
	case errors.Is(err, acousticdna.ErrCapacity):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, acousticdna.ErrConnection), errors.Is(err, acousticdna.ErrClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		s.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"service": "fpstore API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":      "GET /health",
			"metrics":     "GET /api/health/metrics",
			"songs":       "GET /api/songs",
			"addSong":     "POST /api/songs",
			"getSong":     "GET /api/songs/{id}",
			"deleteSong":  "DELETE /api/songs/{id}",
			"matchHashes": "POST /api/match/hashes",
			"resetPool":   "POST /api/admin/reset-pool",
		},
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleMetrics handles GET /api/health/metrics
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.Stats(r.Context())
	if err != nil {
		s.log.Errorf("Failed to collect stats: %v", err)
		s.respondError(w, statusFor(err), "Failed to retrieve metrics")
		return
	}

	s.respondJSON(w, http.StatusOK, MetricsResponse{
		Status:           "healthy",
		DatabasePath:     s.config.DBPath,
		SongCount:        stats.Songs,
		FingerprintCount: stats.Fingerprints,
		Pool:             stats.Pool,
	})
}

// handleListSongs handles GET /api/songs
func (s *Server) handleListSongs(w http.ResponseWriter, r *http.Request) {
	songs, err := s.service.ListSongs(r.Context())
	if err != nil {
		s.log.Errorf("Failed to list songs: %v", err)
		s.respondError(w, statusFor(err), "Failed to retrieve songs")
		return
	}

	songDTOs := make([]SongDTO, len(songs))
	for i, song := range songs {
		songDTOs[i] = SongDTO{
			ID:        song.ID,
			Name:      song.Name,
			CreatedAt: song.CreatedAt.Format(time.RFC3339),
		}
	}

	s.respondJSON(w, http.StatusOK, ListSongsResponse{
		Songs: songDTOs,
		Count: len(songDTOs),
	})
}

// handleGetSong handles GET /api/songs/{id}
func (s *Server) handleGetSong(w http.ResponseWriter, r *http.Request, songID uint) {
	song, err := s.service.GetSongByID(r.Context(), songID)
	if err != nil {
		if errors.Is(err, acousticdna.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, fmt.Sprintf("Song with ID %d not found", songID))
			return
		}
		s.log.Errorf("Failed to get song %d: %v", songID, err)
		s.respondError(w, statusFor(err), "Failed to retrieve song")
		return
	}

	count, err := s.service.CountFingerprintsForSong(r.Context(), songID)
	if err != nil {
		s.log.Errorf("Failed to count fingerprints for song %d: %v", songID, err)
		s.respondError(w, statusFor(err), "Failed to retrieve song")
		return
	}

	s.respondJSON(w, http.StatusOK, SongDTO{
		ID:           song.ID,
		Name:         song.Name,
		Fingerprints: count,
		CreatedAt:    song.CreatedAt.Format(time.RFC3339),
	})
}

// handleDeleteSong handles DELETE /api/songs/{id}
func (s *Server) handleDeleteSong(w http.ResponseWriter, r *http.Request, songID uint) {
	if err := s.service.DeleteSong(r.Context(), songID); err != nil {
		if errors.Is(err, acousticdna.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, fmt.Sprintf("Song with ID %d not found", songID))
			return
		}
		s.log.Errorf("Failed to delete song %d: %v", songID, err)
		s.respondError(w, statusFor(err), "Failed to delete song")
		return
	}

	s.log.Infof("Deleted song %d", songID)
	s.respondJSON(w, http.StatusOK, DeleteSongResponse{
		Message: "Song deleted successfully",
		ID:      songID,
	})
}

// handleAddSong handles POST /api/songs
func (s *Server) handleAddSong(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.config.RequestTimeout)
	defer cancel()

	var req AddSongRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	pairs, err := toPairs(req.Hashes)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	songID, err := s.service.IngestSong(ctx, req.Name, pairs)
	if err != nil {
		s.log.Errorf("Failed to add song %q: %v", req.Name, err)
		s.respondError(w, statusFor(err), fmt.Sprintf("Failed to add song: %v", err))
		return
	}

	s.log.Infof("Added song %q (ID: %d, %d fingerprints)", req.Name, songID, len(pairs))
	s.respondJSON(w, http.StatusCreated, AddSongResponse{
		Message:      "Song added successfully",
		ID:           songID,
		Name:         req.Name,
		Fingerprints: len(pairs),
	})
}

// handleMatchHashes handles POST /api/match/hashes
func (s *Server) handleMatchHashes(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.config.RequestTimeout)
	defer cancel()

	var req MatchHashesRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	pairs, err := toPairs(req.Hashes)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(pairs) > HashWarningThreshold {
		s.log.Warnf("Large hash batch: %d pairs", len(pairs))
	}

	matches, err := s.service.MatchHashes(ctx, pairs)
	if err != nil {
		s.log.Errorf("Hash match failed: %v", err)
		s.respondError(w, statusFor(err), "Failed to match hashes")
		return
	}

	songs := summarize(matches)
	for i := range songs {
		if song, err := s.service.GetSongByID(ctx, songs[i].SongID); err == nil {
			songs[i].Name = song.Name
		}
	}

	s.log.Infof("Hash match complete: %d matches across %d songs", len(matches), len(songs))
	s.respondJSON(w, http.StatusOK, MatchHashesResponse{
		Matches: matches,
		Songs:   songs,
		Count:   len(matches),
	})
}

// summarize groups matches by song and finds the dominant offset delta,
// ordered by aligned count, then total matches, then song ID.
func summarize(matches []acousticdna.Match) []SongMatchDTO {
	type tally struct {
		total  int
		deltas map[int64]int
	}
	bySong := make(map[uint]*tally)
	for _, m := range matches {
		t := bySong[m.SongID]
		if t == nil {
			t = &tally{deltas: make(map[int64]int)}
			bySong[m.SongID] = t
		}
		t.total++
		t.deltas[m.OffsetDelta]++
	}

	out := make([]SongMatchDTO, 0, len(bySong))
	for id, t := range bySong {
		dto := SongMatchDTO{SongID: id, Matches: t.total}
		for delta, n := range t.deltas {
			if n > dto.Aligned || (n == dto.Aligned && delta < dto.BestDelta) {
				dto.BestDelta, dto.Aligned = delta, n
			}
		}
		out = append(out, dto)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Aligned != out[j].Aligned {
			return out[i].Aligned > out[j].Aligned
		}
		if out[i].Matches != out[j].Matches {
			return out[i].Matches > out[j].Matches
		}
		return out[i].SongID < out[j].SongID
	})
	return out
}

// handleResetPool handles POST /api/admin/reset-pool
func (s *Server) handleResetPool(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.service.ResetPool()
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// handleSongs routes requests to /api/songs
func (s *Server) handleSongs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListSongs(w, r)
	case http.MethodPost:
		s.handleAddSong(w, r)
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleSong routes requests to /api/songs/{id}
func (s *Server) handleSong(w http.ResponseWriter, r *http.Request) {
	idStr := r.URL.Path[len("/api/songs/"):]
	if idStr == "" {
		s.respondError(w, http.StatusBadRequest, "Song ID required")
		return
	}

	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid song ID")
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleGetSong(w, r, uint(id))
	case http.MethodDelete:
		s.handleDeleteSong(w, r, uint(id))
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleMatchHashesRoute routes requests to /api/match/hashes
func (s *Server) handleMatchHashesRoute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.handleMatchHashes(w, r)
}
