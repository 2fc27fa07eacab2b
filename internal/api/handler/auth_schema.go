package handler

import (
	"time"

	"github.com/99minutos/identity-service/internal/core/domain"
	"github.com/99minutos/identity-service/internal/core/ports"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error" example:"invalid username or password"`
}

type messageResponse struct {
	Message string `json:"message" example:"Logged out successfully"`
}

type registerRequest struct {
	Username  string `json:"username"  validate:"required,min=3,max=20,username" example:"alice"`
	Email     string `json:"email"     validate:"required,email,max=50"         example:"alice@x.com"`
	Password  string `json:"password"  validate:"required,min=6,max=40"          example:"p@ss1234"`
	FirstName string `json:"firstName" validate:"max=50"                         example:"Alice"`
	LastName  string `json:"lastName"  validate:"max=50"                         example:"Liddell"`
}

// updateUserRequest mirrors registration, except that the password may be
// left empty to keep the current one.
type updateUserRequest struct {
	Username  string `json:"username"  validate:"required,min=3,max=20,username" example:"alice"`
	Email     string `json:"email"     validate:"required,email,max=50"         example:"alice@x.com"`
	Password  string `json:"password"  validate:"omitempty,min=6,max=40"         example:"n3w-secret"`
	FirstName string `json:"firstName" validate:"max=50"                         example:"Alice"`
	LastName  string `json:"lastName"  validate:"max=50"                         example:"Liddell"`
}

// loginRequest accepts a username or an email in the username field.
type loginRequest struct {
	Username string `json:"username" validate:"required" example:"alice"`
	Password string `json:"password" validate:"required" example:"p@ss1234"`
}

// refreshRequest is the body fallback for clients that cannot set the Authorization header.
type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type jwtResponse struct {
	Token        string   `json:"token"`
	Type         string   `json:"type" example:"Bearer"`
	RefreshToken string   `json:"refreshToken"`
	ID           string   `json:"id"`
	Username     string   `json:"username"`
	Email        string   `json:"email"`
	Roles        []string `json:"roles"`
	ExpiresIn    int64    `json:"expiresIn" example:"86400"`
}

type userResponse struct {
	ID              string     `json:"id"`
	Username        string     `json:"username"`
	Email           string     `json:"email"`
	FirstName       string     `json:"firstName"`
	LastName        string     `json:"lastName"`
	IsActive        bool       `json:"isActive"`
	IsEmailVerified bool       `json:"isEmailVerified"`
	Roles           []string   `json:"roles"`
	CreatedAt       time.Time  `json:"createdAt"`
	LastLogin       *time.Time `json:"lastLogin,omitempty"`
}

type userPageResponse struct {
	Items      []userResponse `json:"items"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	Size       int            `json:"size"`
	TotalPages int            `json:"totalPages"`
}

func toJWTResponse(r *ports.LoginResult) jwtResponse {
	return jwtResponse{
		Token:        r.Tokens.AccessToken,
		Type:         r.Tokens.TokenType,
		RefreshToken: r.Tokens.RefreshToken,
		ID:           r.User.ID,
		Username:     r.User.Username,
		Email:        r.User.Email,
		Roles:        domain.RoleNames(r.User.Roles),
		ExpiresIn:    r.Tokens.ExpiresIn,
	}
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:              u.ID,
		Username:        u.Username,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		IsActive:        u.IsActive,
		IsEmailVerified: u.IsEmailVerified,
		Roles:           domain.RoleNames(u.Roles),
		CreatedAt:       u.CreatedAt,
		LastLogin:       u.LastLogin,
	}
}

func toUserPageResponse(p *ports.UserPage) userPageResponse {
	items := make([]userResponse, 0, len(p.Items))
	for _, u := range p.Items {
		items = append(items, toUserResponse(u))
	}
	return userPageResponse{
		Items:      items,
		Total:      p.Total,
		Page:       p.Page,
		Size:       p.Size,
		TotalPages: p.TotalPages,
	}
}
