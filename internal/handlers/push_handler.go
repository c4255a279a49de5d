package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/numeneon-social/backend/internal/models"
	"github.com/numeneon-social/backend/internal/repositories"
)

// PushHandler handles push subscription management
type PushHandler struct {
	subscriptions  repositories.PushSubscriptionRepository
	vapidPublicKey string
	pushEnabled    bool
}

// NewPushHandler creates a new PushHandler
func NewPushHandler(subscriptions repositories.PushSubscriptionRepository, vapidPublicKey string, pushEnabled bool) *PushHandler {
	return &PushHandler{
		subscriptions:  subscriptions,
		vapidPublicKey: vapidPublicKey,
		pushEnabled:    pushEnabled,
	}
}

// RegisterPushRoutes registers the authenticated push routes
func (h *PushHandler) RegisterPushRoutes(g *echo.Group) {
	g.POST("/notifications/subscribe", h.Subscribe)
	g.POST("/notifications/unsubscribe", h.Unsubscribe)
}

// RegisterPublicRoutes registers the unauthenticated push routes
func (h *PushHandler) RegisterPublicRoutes(e *echo.Echo) {
	e.GET("/notifications/vapid-public-key", h.GetVAPIDPublicKey)
}

// GetVAPIDPublicKey returns the VAPID public key the frontend needs to
// subscribe. Public: it is requested before any subscription exists.
func (h *PushHandler) GetVAPIDPublicKey(c echo.Context) error {
	if !h.pushEnabled || h.vapidPublicKey == "" {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Push notifications not configured")
	}
	return c.JSON(http.StatusOK, echo.Map{"publicKey": h.vapidPublicKey})
}

// Subscribe registers or refreshes a browser's push subscription.
func (h *PushHandler) Subscribe(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	if !h.pushEnabled {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Push notifications not configured")
	}

	var req models.SubscribePushRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	sub := &models.PushSubscription{
		UserID:   currentUserID,
		Endpoint: req.Endpoint,
		P256dh:   req.Keys.P256dh,
		Auth:     req.Keys.Auth,
	}
	if err := h.subscriptions.Upsert(sub); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, sub)
}

// Unsubscribe removes a browser's push subscription. Only a row owned
// by the caller is deleted.
func (h *PushHandler) Unsubscribe(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.UnsubscribePushRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	deleted, err := h.subscriptions.DeleteOwned(currentUserID, req.Endpoint)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !deleted {
		return echo.NewHTTPError(http.StatusNotFound, "Subscription not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Successfully unsubscribed"})
}
