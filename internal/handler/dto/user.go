// Package dto provides the request and response bodies of the HTTP API.
package dto

import (
	"time"

	"github.com/teamtodo/teamtodo/internal/model"
)

// RegisterRequest is the body of POST /api/v1/user/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
}

// LoginRequest is the body of POST /api/v1/user/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest is the body of POST /api/v1/user/me.
type UpdateProfileRequest struct {
	Nickname        string `json:"nickname"`
	ProfileImageURL string `json:"profileImageUrl"`
}

// UserResponse is the public view of a user. Credentials are never included.
type UserResponse struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Nickname        string    `json:"nickname"`
	ProfileImageURL string    `json:"profileImageUrl"`
	IsAdmin         bool      `json:"isAdmin"`
	CreatedAt       time.Time `json:"createdDate"`
}

// LoginResponse carries both credentials so non-browser clients can use
// the Authorization header instead of cookies.
type LoginResponse struct {
	Item        UserResponse `json:"item"`
	APIKey      string       `json:"apiKey"`
	AccessToken string       `json:"accessToken"`
}

// ToUserResponse converts a model.User to its public view.
func ToUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:              u.ID,
		Email:           u.Email,
		Nickname:        u.Nickname,
		ProfileImageURL: u.ProfileImageURL,
		IsAdmin:         u.IsAdmin,
		CreatedAt:       u.CreatedAt,
	}
}
