package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Raymond16-cyber/aura-backend/internal/service"
)

// WaitlistHandler exposes the waitlist workflow over HTTP.
type WaitlistHandler struct {
	svc service.WaitlistService
}

func NewWaitlistHandler(svc service.WaitlistService) *WaitlistHandler {
	return &WaitlistHandler{svc: svc}
}

type joinReq struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	ReferralCode string `json:"referralCode"`
}

// Join handles POST /waitlist/join.
func (h *WaitlistHandler) Join(c echo.Context) error {
	var req joinReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Email) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Email is required."})
	}
	if strings.TrimSpace(req.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Name is required."})
	}

	res, err := h.svc.Join(c.Request().Context(), service.JoinInput{
		Email:        req.Email,
		Name:         req.Name,
		ReferralCode: req.ReferralCode,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingFields):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Email and name are required."})
		case errors.Is(err, service.ErrDeliveryFailed):
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "Unable to send confirmation email. Please check your email address.",
			})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Server error. Try again."})
		}
	}

	if res.AlreadyEnrolled {
		// Informational, not an error: the caller learns their existing spot.
		return c.JSON(http.StatusOK, echo.Map{
			"error":            "You are already on the waitlist.",
			"referralCode":     res.ReferralCode,
			"waitlistPosition": res.Position,
		})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"success":          "true",
		"message":          "Welcome! You're now on the waitlist 🚀",
		"referralCode":     res.ReferralCode,
		"waitlistPosition": res.Position,
	})
}
