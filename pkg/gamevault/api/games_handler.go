package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/canvasforge/gamevault/pkg/gamevault"
)

// GamesHandler handles HTTP requests for games using pkg/gamevault
type GamesHandler struct {
	service gamevault.Service
}

// NewGamesHandler creates a new games handler
func NewGamesHandler(service gamevault.Service) *GamesHandler {
	return &GamesHandler{service: service}
}

// Routes returns the routes for games
func (h *GamesHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.SaveGame)
	r.Get("/", h.ListGames)
	r.Get("/{gameID}", h.GetGame)
	r.Delete("/{gameID}", h.DeleteGame)

	r.Post("/fork", h.ForkGame)
	r.Post("/publish", h.SetPublication)

	return r
}

// SaveGameRequest is the request body for creating or updating a game
type SaveGameRequest struct {
	GameID        string   `json:"game_id,omitempty"`
	WalletAddress string   `json:"wallet_address"`
	HTML          string   `json:"html"`
	ContentType   string   `json:"content_type,omitempty"`
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	Tags          []string `json:"tags,omitempty"`
}

// SaveGame creates a new game or appends a version to an existing one
func (h *GamesHandler) SaveGame(w http.ResponseWriter, r *http.Request) {
	var req SaveGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	saveReq := gamevault.SaveGameRequest{
		CallerID:    req.WalletAddress,
		Content:     []byte(req.HTML),
		ContentType: req.ContentType,
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
	}

	created := req.GameID == ""
	if !created {
		gameID, err := uuid.Parse(req.GameID)
		if err != nil {
			slog.Error("Invalid game ID", "game_id", req.GameID, "error", err)
			http.Error(w, "Invalid game ID", http.StatusBadRequest)
			return
		}
		saveReq.GameID = &gameID
	}

	game, err := h.service.CreateOrUpdateGame(r.Context(), saveReq)
	if err != nil {
		writeServiceError(w, r, "save game", err)
		return
	}

	if created {
		render.Status(r, http.StatusCreated)
	}
	render.JSON(w, r, game)
}

// ForkGameRequest is the request body for forking a game
type ForkGameRequest struct {
	OriginalGameID string `json:"original_game_id"`
	WalletAddress  string `json:"wallet_address"`
	NewTitle       string `json:"new_title,omitempty"`
}

// ForkGame creates a new lineage from another game's latest version
func (h *GamesHandler) ForkGame(w http.ResponseWriter, r *http.Request) {
	var req ForkGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sourceID, err := uuid.Parse(req.OriginalGameID)
	if err != nil {
		slog.Error("Invalid original game ID", "original_game_id", req.OriginalGameID, "error", err)
		http.Error(w, "Invalid original game ID", http.StatusBadRequest)
		return
	}

	game, err := h.service.ForkGame(r.Context(), gamevault.ForkGameRequest{
		SourceGameID: sourceID,
		CallerID:     req.WalletAddress,
		NewTitle:     req.NewTitle,
	})
	if err != nil {
		writeServiceError(w, r, "fork game", err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, game)
}

// SetPublicationRequest is the request body for publishing or unpublishing
type SetPublicationRequest struct {
	GameID        string `json:"game_id"`
	Channel       string `json:"channel"`
	WalletAddress string `json:"wallet_address"`
	Published     bool   `json:"published"`
}

// SetPublication toggles one channel's publication flag
func (h *GamesHandler) SetPublication(w http.ResponseWriter, r *http.Request) {
	var req SetPublicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	gameID, err := uuid.Parse(req.GameID)
	if err != nil {
		slog.Error("Invalid game ID", "game_id", req.GameID, "error", err)
		http.Error(w, "Invalid game ID", http.StatusBadRequest)
		return
	}

	game, err := h.service.SetPublication(r.Context(), gamevault.SetPublicationRequest{
		GameID:    gameID,
		Channel:   gamevault.Channel(req.Channel),
		CallerID:  req.WalletAddress,
		Published: req.Published,
	})
	if err != nil {
		writeServiceError(w, r, "set publication", err)
		return
	}

	render.JSON(w, r, game)
}

// GetGame returns a single game by ID
func (h *GamesHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := uuid.Parse(chi.URLParam(r, "gameID"))
	if err != nil {
		http.Error(w, "Invalid game ID", http.StatusBadRequest)
		return
	}

	game, err := h.service.GetGame(r.Context(), gameID)
	if err != nil {
		writeServiceError(w, r, "get game", err)
		return
	}

	render.JSON(w, r, game)
}

// ListGames lists games by owner wallet or by publication channel
func (h *GamesHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	req := gamevault.ListGamesRequest{
		OwnerID: q.Get("wallet"),
		Channel: gamevault.Channel(q.Get("channel")),
		Search:  q.Get("search"),
	}
	if page := q.Get("page"); page != "" {
		n, err := strconv.Atoi(page)
		if err != nil {
			http.Error(w, "Invalid page", http.StatusBadRequest)
			return
		}
		req.Page = n
	}
	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		req.Limit = n
	}

	games, err := h.service.ListGames(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, "list games", err)
		return
	}
	if games == nil {
		games = []*gamevault.Game{}
	}

	render.JSON(w, r, games)
}

// DeleteGame removes a game owned by the calling wallet. The wallet address
// comes from the X-Wallet-Address header.
func (h *GamesHandler) DeleteGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := uuid.Parse(chi.URLParam(r, "gameID"))
	if err != nil {
		http.Error(w, "Invalid game ID", http.StatusBadRequest)
		return
	}

	callerID := r.Header.Get("X-Wallet-Address")
	if callerID == "" {
		http.Error(w, "X-Wallet-Address header is required", http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteGame(r.Context(), gameID, callerID); err != nil {
		writeServiceError(w, r, "delete game", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// errorResponse is the JSON error envelope for all failure paths
type errorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// writeServiceError maps the service error taxonomy onto HTTP statuses. The
// kind travels in the body so clients can match on it rather than on status
// codes or message text.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var (
		validationErr *gamevault.ValidationError
		authzErr      *gamevault.AuthorizationError
		conflictErr   *gamevault.ConcurrencyConflictError
		uploadErr     *gamevault.UploadError
		repoErr       *gamevault.RepositoryError
	)

	status := http.StatusInternalServerError
	resp := errorResponse{Kind: "internal", Message: "internal error"}

	switch {
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
		resp = errorResponse{Kind: "validation", Message: err.Error()}
	case errors.As(err, &authzErr):
		status = http.StatusForbidden
		resp = errorResponse{Kind: "authorization", Message: err.Error()}
	case errors.Is(err, gamevault.ErrGameNotFound), errors.Is(err, gamevault.ErrContentNotFound):
		status = http.StatusNotFound
		resp = errorResponse{Kind: "not_found", Message: err.Error()}
	case errors.As(err, &conflictErr):
		status = http.StatusConflict
		resp = errorResponse{Kind: "conflict", Message: err.Error()}
	case errors.As(err, &uploadErr):
		switch uploadErr.Kind {
		case gamevault.UploadTimeout:
			status = http.StatusGatewayTimeout
		case gamevault.UploadRateLimit:
			status = http.StatusTooManyRequests
		default:
			status = http.StatusBadGateway
		}
		resp = errorResponse{Kind: "upload_" + string(uploadErr.Kind), Message: err.Error()}
	case errors.As(err, &repoErr):
		resp = errorResponse{Kind: "repository", Message: err.Error()}
	}

	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "op", op, "error", err)
	} else {
		slog.Info("Request rejected", "op", op, "status", status, "error", err)
	}

	render.Status(r, status)
	render.JSON(w, r, resp)
}
