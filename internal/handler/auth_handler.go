package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Raymond16-cyber/aura-backend/internal/model"
	"github.com/Raymond16-cyber/aura-backend/internal/service"
	"github.com/Raymond16-cyber/aura-backend/internal/token"
)

const sessionCookieMaxAge = 7 * 24 * time.Hour

// AuthHandler exposes the auth workflow over HTTP.
type AuthHandler struct {
	svc        service.AuthService
	production bool
}

// NewAuthHandler constructs a new handler. production controls the session
// cookie's Secure/SameSite flags.
func NewAuthHandler(svc service.AuthService, production bool) *AuthHandler {
	return &AuthHandler{svc: svc, production: production}
}

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotPasswordReq struct {
	Email string `json:"email"`
}

type resetPasswordReq struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type userPart struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	IsEmailVerified bool   `json:"isEmailVerified"`
}

func toUserPart(u *model.User) userPart {
	return userPart{
		ID:              u.ID.Hex(),
		Name:            u.Name,
		Email:           u.Email,
		IsEmailVerified: u.IsEmailVerified,
	}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	res, err := h.svc.Register(c.Request().Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingFields):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, email and password are required"})
		case errors.Is(err, service.ErrEmailTaken):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "User with this email already exists"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Server error. Try again."})
		}
	}

	message := "User registered successfully"
	if !res.EmailSent {
		message = "User registered, but the verification email could not be sent. Request a new one."
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"success": res.EmailSent,
		"message": message,
		"url":     res.VerifyURL,
		"user":    toUserPart(res.User),
	})
}

// VerifyEmail handles GET /api/auth/verify-email/:token.
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	tokenStr := c.Param("token")
	if tokenStr == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Token is required"})
	}

	if err := h.svc.VerifyEmail(c.Request().Context(), tokenStr); err != nil {
		switch {
		case errors.Is(err, token.ErrInvalidToken), errors.Is(err, service.ErrMissingFields):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid or expired verification token"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Server error. Try again."})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Email verified successfully"})
}

// Login handles POST /api/auth/login. The session token is set as an
// http-only cookie and also returned in the body.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	res, err := h.svc.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingFields), errors.Is(err, service.ErrInvalidCredentials):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid email or password"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Server error. Try again."})
		}
	}

	c.SetCookie(h.sessionCookie(res.Token))
	return c.JSON(http.StatusOK, echo.Map{
		"token": res.Token,
		"user":  toUserPart(res.User),
	})
}

// ForgotPassword handles POST /api/auth/forgot-password.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	res, err := h.svc.ForgotPassword(c.Request().Context(), req.Email)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingFields):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Email is required"})
		case errors.Is(err, service.ErrUserNotFound):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "User with this email does not exist"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Server error. Try again."})
		}
	}

	message := "Password reset email sent"
	if !res.EmailSent {
		message = "Could not send the reset email. Try again later."
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": res.EmailSent,
		"message": message,
		"url":     res.ResetURL,
	})
}

// ResetPassword handles POST /api/auth/reset-password.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	if err := h.svc.ResetPassword(c.Request().Context(), req.Token, req.Password); err != nil {
		switch {
		case errors.Is(err, service.ErrMissingFields):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Token and password are required"})
		case errors.Is(err, service.ErrResetNotAllowed):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Unable to reset password"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Server error. Try again."})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Password reset successfully"})
}

func (h *AuthHandler) sessionCookie(tokenStr string) *http.Cookie {
	cookie := &http.Cookie{
		Name:     "token",
		Value:    tokenStr,
		Path:     "/",
		MaxAge:   int(sessionCookieMaxAge / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	// Cross-site cookies need Secure; only outside local development.
	if h.production {
		cookie.Secure = true
		cookie.SameSite = http.SameSiteNoneMode
	}
	return cookie
}
