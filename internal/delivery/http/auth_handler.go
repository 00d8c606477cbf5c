package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"
	"wassup/internal/entity"
	"wassup/internal/repository"
	"wassup/internal/usecase"
)

type AuthHandler struct {
	authUc usecase.AuthUsecase
}

func NewAuthHandler(authUc usecase.AuthUsecase) *AuthHandler {
	return &AuthHandler{
		authUc: authUc,
	}
}

// POST /api/auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req entity.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusOK, "invalid request body")
		return
	}

	authResponse, err := h.authUc.Signup(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrMissingDetails),
			errors.Is(err, usecase.ErrPasswordTooShort),
			errors.Is(err, usecase.ErrAccountExists):
			writeFailure(w, http.StatusOK, err.Error())
		default:
			log.Printf("Signup error: %v", err)
			writeFailure(w, http.StatusOK, "internal server error")
		}
		return
	}

	h.setRefreshTokenCookie(w, authResponse.RefreshToken)

	writeSuccess(w, map[string]any{
		"userData": authResponse.User,
		"token":    authResponse.AccessToken,
		"message":  "account created successfully",
	})
}

// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req entity.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusOK, "invalid request body")
		return
	}

	authResponse, err := h.authUc.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidCredentials) {
			writeFailure(w, http.StatusOK, "invalid credentials")
			return
		}
		log.Printf("Login error: %v", err)
		writeFailure(w, http.StatusOK, "internal server error")
		return
	}

	h.setRefreshTokenCookie(w, authResponse.RefreshToken)

	writeSuccess(w, map[string]any{
		"userData": authResponse.User,
		"token":    authResponse.AccessToken,
		"message":  "login successful",
	})
}

// GET /api/auth/check
func (h *AuthHandler) Check(w http.ResponseWriter, r *http.Request) {
	claims, ok := r.Context().Value(UserContextKey).(*entity.TokenClaims)
	if !ok {
		writeFailure(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.authUc.GetUser(r.Context(), claims.UserId)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			writeFailure(w, http.StatusOK, "user not found")
			return
		}
		log.Printf("Check auth error: %v", err)
		writeFailure(w, http.StatusOK, "internal server error")
		return
	}

	writeSuccess(w, map[string]any{"user": user})
}

// PUT /api/auth/update-profile
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := r.Context().Value(UserContextKey).(*entity.TokenClaims)
	if !ok {
		writeFailure(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req entity.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusOK, "invalid request body")
		return
	}

	user, err := h.authUc.UpdateProfile(r.Context(), claims.UserId, req)
	if err != nil {
		log.Printf("Update profile error: %v", err)
		writeFailure(w, http.StatusOK, "internal server error")
		return
	}

	writeSuccess(w, map[string]any{"user": user})
}

// POST /api/auth/refresh
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	refreshToken := h.refreshTokenFromRequest(r)
	if refreshToken == "" {
		writeFailure(w, http.StatusOK, "refresh token is required")
		return
	}

	authResponse, err := h.authUc.RefreshToken(r.Context(), refreshToken)
	if err != nil {
		log.Printf("Refresh token error: %v", err)
		h.clearRefreshTokenCookie(w)
		writeFailure(w, http.StatusUnauthorized, "invalid or expired refresh token")
		return
	}

	h.setRefreshTokenCookie(w, authResponse.RefreshToken)

	writeSuccess(w, map[string]any{
		"userData": authResponse.User,
		"token":    authResponse.AccessToken,
		"message":  "token refreshed successfully",
	})
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	refreshToken := h.refreshTokenFromRequest(r)
	if refreshToken != "" {
		if err := h.authUc.Logout(r.Context(), refreshToken); err != nil {
			log.Printf("Logout error: %v", err)
		}
	}

	h.clearRefreshTokenCookie(w)

	writeSuccess(w, map[string]any{"message": "logout successful"})
}

// POST /api/auth/logout-all
func (h *AuthHandler) LogoutAllDevices(w http.ResponseWriter, r *http.Request) {
	claims, ok := r.Context().Value(UserContextKey).(*entity.TokenClaims)
	if !ok {
		writeFailure(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.authUc.LogoutAllDevices(r.Context(), claims.UserId); err != nil {
		log.Printf("Logout all devices error: %v", err)
		writeFailure(w, http.StatusOK, "internal server error")
		return
	}

	h.clearRefreshTokenCookie(w)

	writeSuccess(w, map[string]any{"message": "logged out on all devices"})
}

// refreshTokenFromRequest reads the token from the cookie first, then
// the request body.
func (h *AuthHandler) refreshTokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie("refresh_token"); err == nil {
		return cookie.Value
	}

	var req entity.RefreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
		return req.RefreshToken
	}
	return ""
}

func (h *AuthHandler) setRefreshTokenCookie(w http.ResponseWriter, token string) {
	cookie := &http.Cookie{
		Name:     "refresh_token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,                 // Cannot be accessed by JavaScript
		Secure:   false,                // Set to true in production with HTTPS
		SameSite: http.SameSiteLaxMode, // CSRF protection
		MaxAge:   30 * 24 * 60 * 60,    // 30 days
	}
	http.SetCookie(w, cookie)
}

func (h *AuthHandler) clearRefreshTokenCookie(w http.ResponseWriter) {
	cookie := &http.Cookie{
		Name:     "refresh_token",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   false,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1, // Delete cookie
		Expires:  time.Unix(0, 0),
	}
	http.SetCookie(w, cookie)
}
