package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/upb/user-api/internal/observability"
	"github.com/upb/user-api/middleware"
	"github.com/upb/user-api/models"
	"github.com/upb/user-api/utils"
	"go.uber.org/zap"
)

const maxRequestBody = 1 << 20

// UserService defines the interface for user operations
type UserService interface {
	List(ctx context.Context) ([]*models.User, error)
	Get(ctx context.Context, id int32) (*models.User, error)
	Register(ctx context.Context, reg models.RegisterUser) (*models.User, error)
	Delete(ctx context.Context, id int32) error
}

// CurrentUserResponse describes the caller as seen in their verified token
type CurrentUserResponse struct {
	Sub    string         `json:"sub"`
	Email  string         `json:"email,omitempty"`
	Claims map[string]any `json:"claims"`
}

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	service UserService
	logger  *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger,
	}
}

// HandleListUsers handles GET /api/users
func (h *UserHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, users)
}

// HandleGetUser handles GET /api/users/{userID}
func (h *UserHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(r)
	if !ok {
		_ = utils.WriteNotFound(w, "user not found")
		return
	}

	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteJSON(w, http.StatusOK, user)
}

// HandleCreateUser handles POST /api/users
func (h *UserHandler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterUser
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		observability.RequestLogger(r.Context(), h.logger).Debug("invalid request body", zap.Error(err))
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	user, err := h.service.Register(r.Context(), req)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	observability.RequestLogger(r.Context(), h.logger).Info("user created", zap.Int32("id", user.ID))

	_ = utils.WriteCreated(w, user)
}

// HandleDeleteUser handles DELETE /api/users/{userID}
func (h *UserHandler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(r)
	if !ok {
		_ = utils.WriteNotFound(w, "user not found")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	observability.RequestLogger(r.Context(), h.logger).Info("user deleted", zap.Int32("id", id))
	_ = utils.WriteMessage(w, "deleted")
}

// HandleCurrentUser handles GET /api/me
func (h *UserHandler) HandleCurrentUser(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		_ = utils.WriteUnauthorized(w, "")
		return
	}

	email, _ := claims["email"].(string)
	_ = utils.WriteOK(w, CurrentUserResponse{
		Sub:    claims.Subject(),
		Email:  email,
		Claims: claims,
	})
}

// userIDParam parses {userID} as a 32-bit id
func userIDParam(r *http.Request) (int32, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 32)
	if err != nil {
		return 0, false
	}
	return int32(id), true
}
