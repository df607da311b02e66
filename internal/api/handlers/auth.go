package handlers

import (
	"log"
	"net/http"

	"github.com/video-stream/captionsync/internal/api/middleware"
	"github.com/video-stream/captionsync/internal/auth"
	"github.com/video-stream/captionsync/internal/db"
	"github.com/video-stream/captionsync/internal/db/models"
)

type AuthHandler struct {
	db  *db.Database
	jwt *auth.JWTService
}

func NewAuthHandler(db *db.Database, jwt *auth.JWTService) *AuthHandler {
	return &AuthHandler{db: db, jwt: jwt}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// account is the caller as the caption UI sees it.
type account struct {
	ID           int64             `json:"id"`
	Username     string            `json:"username"`
	Role         string            `json:"role"`
	Capabilities auth.Capabilities `json:"capabilities"`
}

func accountOf(u *models.User) account {
	return account{ID: u.ID, Username: u.Username, Role: u.Role, Capabilities: auth.CapabilitiesFor(u.Role)}
}

type loginResponse struct {
	Token string  `json:"token"`
	User  account `json:"user"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.db.GetUserByUsername(req.Username)
	if err != nil || !auth.CheckPassword(req.Password, user.Password) {
		log.Printf("[auth] failed login for %q from %s", req.Username, r.RemoteAddr)
		jsonError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := h.jwt.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		jsonError(w, "failed to generate token", http.StatusInternalServerError)
		return
	}
	jsonResponse(w, loginResponse{Token: token, User: accountOf(user)}, http.StatusOK)
}

// Me returns the caller with the capabilities of their current role. The
// role is read from the database, so a demotion shows up before the token
// expires.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r)
	if claims == nil {
		jsonError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.db.GetUserByID(claims.UserID)
	if err != nil {
		dbError(w, "user", err)
		return
	}
	jsonResponse(w, accountOf(user), http.StatusOK)
}
