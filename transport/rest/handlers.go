package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/rocketscienceinc/stonepaper-backend/internal/apperror"
	"github.com/rocketscienceinc/stonepaper-backend/internal/entity"
)

type directoryService interface {
	Create(ctx context.Context, name, email string) (*entity.RoomCredentials, error)
	Verify(ctx context.Context, roomKey, passcode string) (bool, error)
}

type historyReader interface {
	Recent(ctx context.Context, limit int) ([]*entity.MatchRecord, error)
}

type handlers struct {
	logger    *slog.Logger
	directory directoryService
	history   historyReader
}

type createRoomRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type verifyRoomRequest struct {
	RoomID   string `json:"roomId"`
	Passcode string `json:"passcode"`
}

type verifyRoomResponse struct {
	RoomID string `json:"roomId"`
	Valid  bool   `json:"valid"`
}

type historyResponse struct {
	Matches []*entity.MatchRecord `json:"matches"`
}

func newHandlers(logger *slog.Logger, directory directoryService, history historyReader) *handlers {
	return &handlers{
		logger:    logger,
		directory: directory,
		history:   history,
	}
}

func (that *handlers) createRoom(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "createRoom")

	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	credentials, err := that.directory.Create(r.Context(), req.Name, req.Email)
	if err != nil {
		log.Error("failed to create room", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create room")
		return
	}

	log.Info("room created", "roomId", credentials.RoomKey)

	writeJSON(w, http.StatusCreated, credentials)
}

func (that *handlers) verifyRoom(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "verifyRoom")

	var req verifyRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.RoomID = strings.TrimSpace(req.RoomID)
	if req.RoomID == "" || req.Passcode == "" {
		writeError(w, http.StatusBadRequest, "roomId and passcode are required")
		return
	}

	ok, err := that.directory.Verify(r.Context(), req.RoomID, req.Passcode)
	switch {
	case errors.Is(err, apperror.ErrRoomNotFound):
		writeError(w, http.StatusNotFound, apperror.ErrRoomNotFound.Error())
		return
	case err != nil:
		log.Error("failed to verify room", "roomId", req.RoomID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to verify room")
		return
	case !ok:
		writeError(w, http.StatusForbidden, apperror.ErrInvalidPasscode.Error())
		return
	}

	writeJSON(w, http.StatusOK, verifyRoomResponse{RoomID: req.RoomID, Valid: true})
}

func (that *handlers) recentMatches(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "recentMatches")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	matches, err := that.history.Recent(r.Context(), limit)
	if err != nil {
		log.Error("failed to read match history", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read match history")
		return
	}

	writeJSON(w, http.StatusOK, historyResponse{Matches: withoutEmails(matches)})
}

// withoutEmails - copies of records safe to expose publicly.
func withoutEmails(records []*entity.MatchRecord) []*entity.MatchRecord {
	public := make([]*entity.MatchRecord, 0, len(records))
	for _, record := range records {
		copied := *record
		copied.Players = make([]entity.Participant, len(record.Players))
		for i, player := range record.Players {
			player.Email = ""
			copied.Players[i] = player
		}
		public = append(public, &copied)
	}

	return public
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, entity.ErrorPayload{Error: message})
}
