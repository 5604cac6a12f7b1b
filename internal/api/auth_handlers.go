package api

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/urbanfrill/storefront/internal/api/middleware"
	"github.com/urbanfrill/storefront/internal/auth"
	"github.com/urbanfrill/storefront/internal/domain/user"
	"github.com/urbanfrill/storefront/internal/profile"
	"github.com/urbanfrill/storefront/internal/session"
)

const (
	refreshTokenCookie = "refresh_token"
	refreshCookiePath  = "/api/auth/refresh"
	// multipart overhead allowed on top of the picture itself
	uploadSlack = 1 << 20
)

// AuthHandlers handles authentication-related HTTP requests
type AuthHandlers struct {
	jwtService *auth.JWTService
	profiles   *profile.Service
	logger     *zap.Logger
}

// NewAuthHandlers creates a new AuthHandlers instance
func NewAuthHandlers(jwtService *auth.JWTService, profiles *profile.Service, logger *zap.Logger) *AuthHandlers {
	return &AuthHandlers{
		jwtService: jwtService,
		profiles:   profiles,
		logger:     logger,
	}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse represents the authentication response
type AuthResponse struct {
	User    *user.Identity `json:"user"`
	Message string         `json:"message,omitempty"`
}

// SignUp handles user registration
func (h *AuthHandlers) SignUp(w http.ResponseWriter, r *http.Request) {
	sh, ok := currentShopper(w, r)
	if !ok {
		return
	}

	var req RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	id, err := sh.Session.SignUp(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	if !h.setAuthCookies(w, r, id) {
		return
	}

	respondJSON(w, http.StatusCreated, AuthResponse{User: id, Message: "Registration successful"})
}

// Login handles user login
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	sh, ok := currentShopper(w, r)
	if !ok {
		return
	}

	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	id, err := sh.Session.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	if !h.setAuthCookies(w, r, id) {
		return
	}

	respondJSON(w, http.StatusOK, AuthResponse{User: id, Message: "Login successful"})
}

// LoginSSO exchanges a provider ID token for a session.
func (h *AuthHandlers) LoginSSO(w http.ResponseWriter, r *http.Request) {
	sh, ok := currentShopper(w, r)
	if !ok {
		return
	}

	var req struct {
		IDToken string `json:"idToken"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	id, err := sh.Session.LoginSSO(r.Context(), req.IDToken)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	if !h.setAuthCookies(w, r, id) {
		return
	}

	respondJSON(w, http.StatusOK, AuthResponse{User: id, Message: "Login successful"})
}

// Logout handles user logout
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if sh, ok := middleware.GetShopper(r.Context()); ok {
		sh.Session.Logout(r.Context())
	}
	h.clearAuthCookies(w)

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Logout successful",
	})
}

// Refresh re-issues both tokens from a valid refresh token. The identity is
// rebuilt from the stored profile so renamed users get fresh claims.
func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	sh, ok := currentShopper(w, r)
	if !ok {
		return
	}

	refreshCookie, err := r.Cookie(refreshTokenCookie)
	if err != nil {
		respondJSONError(w, "No refresh token", http.StatusUnauthorized)
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(refreshCookie.Value)
	if err != nil {
		h.clearAuthCookies(w)
		respondJSONError(w, "Invalid refresh token", http.StatusUnauthorized)
		return
	}

	p, err := h.profiles.Get(r.Context(), claims.Subject)
	if errors.Is(err, profile.ErrProfileNotFound) {
		h.clearAuthCookies(w)
		respondJSONError(w, "User not found", http.StatusUnauthorized)
		return
	}
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	id := &user.Identity{
		UID:         p.UID,
		Email:       p.Email,
		DisplayName: p.DisplayName,
		PhotoURL:    p.PhotoURL,
		Provider:    claims.Provider,
	}
	if !h.setAuthCookies(w, r, id) {
		return
	}
	sh.Session.Restore(r.Context(), id)

	respondJSON(w, http.StatusOK, AuthResponse{User: id, Message: "Token refreshed"})
}

// Me returns the current authenticated user's information
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	sh, ok := currentShopper(w, r)
	if !ok {
		return
	}
	id := sh.Session.Current()
	if id == nil {
		respondJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	respondJSON(w, http.StatusOK, AuthResponse{User: id})
}

// Profile handlers. These run behind AuthMiddleware.

func (h *AuthHandlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.profiles.Get(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *AuthHandlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	sh, ok := currentShopper(w, r)
	if !ok {
		return
	}

	var req profile.Update
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.profiles.Update(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	if current := sh.Session.Current(); current != nil && current.DisplayName != p.DisplayName {
		next := current.Clone()
		next.DisplayName = p.DisplayName
		if !h.setAuthCookies(w, r, next) {
			return
		}
		sh.Session.Restore(r.Context(), next)
	}

	respondJSON(w, http.StatusOK, p)
}

// UploadProfilePicture accepts a multipart "file" field.
func (h *AuthHandlers) UploadProfilePicture(w http.ResponseWriter, r *http.Request) {
	sh, ok := currentShopper(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, session.MaxPictureSize+uploadSlack)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondServiceError(w, h.logger, session.ErrImageTooLarge)
			return
		}
		respondJSONError(w, "file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	id, err := sh.Session.UpdateProfilePicture(r.Context(), session.Picture{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	if !h.setAuthCookies(w, r, id) {
		return
	}

	respondJSON(w, http.StatusOK, AuthResponse{User: id, Message: "Profile picture updated"})
}

// Helper methods

func (h *AuthHandlers) setAuthCookies(w http.ResponseWriter, r *http.Request, id *user.Identity) bool {
	accessToken, accessExpiry, err := h.jwtService.GenerateAccessToken(id)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return false
	}
	refreshToken, refreshExpiry, err := h.jwtService.GenerateRefreshToken(id.UID, id.Provider)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return false
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    accessToken,
		Path:     "/",
		Expires:  accessExpiry,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    refreshToken,
		Path:     refreshCookiePath,
		Expires:  refreshExpiry,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
	return true
}

func (h *AuthHandlers) clearAuthCookies(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    "",
		Path:     refreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
	})
}
