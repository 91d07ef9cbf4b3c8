package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/teamtodo/teamtodo/internal/apperror"
	"github.com/teamtodo/teamtodo/internal/auth"
	"github.com/teamtodo/teamtodo/internal/handler/dto"
	"github.com/teamtodo/teamtodo/internal/service"
)

// UserHandler handles account endpoints.
type UserHandler struct {
	svc      *service.UserService
	cookies  auth.CookieConfig
	tokenTTL time.Duration
	logger   *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc *service.UserService, cookies auth.CookieConfig, tokenTTL time.Duration, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		svc:      svc,
		cookies:  cookies,
		tokenTTL: tokenTTL,
		logger:   logger.With("component", "handler.user"),
	}
}

// Register handles POST /api/v1/user/register.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, err := h.svc.Register(r.Context(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Nickname: req.Nickname,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.logger.Info("user_registered", "user_id", user.ID)
	writeEnvelope(w, apperror.Success(apperror.CodeCreated, user.Nickname+" registered", dto.ToUserResponse(user)))
}

// Login handles POST /api/v1/user/login. Both credentials are returned in
// the body and as httpOnly cookies.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	res, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	http.SetCookie(w, h.cookies.NewCookie(auth.CookieAPIKey, res.APIKey, 0))
	http.SetCookie(w, h.cookies.NewCookie(auth.CookieAccessToken, res.AccessToken, h.tokenTTL))

	h.logger.Info("user_logged_in", "user_id", res.User.ID)
	writeEnvelope(w, apperror.Success(apperror.CodeSuccess, "welcome, "+res.User.Nickname, dto.LoginResponse{
		Item:        dto.ToUserResponse(res.User),
		APIKey:      res.APIKey,
		AccessToken: res.AccessToken,
	}))
}

// Logout handles POST /api/v1/user/logout by deleting both credential
// cookies. Tokens stay valid until they expire.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.cookies.ExpiredCookie(auth.CookieAPIKey))
	http.SetCookie(w, h.cookies.ExpiredCookie(auth.CookieAccessToken))
	writeEnvelope(w, apperror.Success(apperror.CodeSuccess, "logged out", nil))
}

// Me handles GET /api/v1/user/me.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := principalID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, err := h.svc.Me(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeEnvelope(w, apperror.Success(apperror.CodeSuccess, "current user", dto.ToUserResponse(user)))
}

// UpdateMe handles POST /api/v1/user/me.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, err := principalID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req dto.UpdateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, err := h.svc.UpdateProfile(r.Context(), userID, service.UpdateProfileInput{
		Nickname:        req.Nickname,
		ProfileImageURL: req.ProfileImageURL,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeEnvelope(w, apperror.Success(apperror.CodeSuccess, "profile updated", dto.ToUserResponse(user)))
}
