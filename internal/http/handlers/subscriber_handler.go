package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Dhoini/Stars-subscription-service/internal/services"
	"github.com/Dhoini/Stars-subscription-service/pkg/logger"
	"github.com/Dhoini/Stars-subscription-service/pkg/res"
)

// SubscriberHandler обрабатывает запросы статуса подписки.
type SubscriberHandler struct {
	entitlement *services.EntitlementService
	log         *logger.Logger
}

// NewSubscriberHandler создает новый экземпляр SubscriberHandler.
func NewSubscriberHandler(entitlement *services.EntitlementService, log *logger.Logger) *SubscriberHandler {
	return &SubscriberHandler{
		entitlement: entitlement,
		log:         log,
	}
}

type SubscriberStatusResponse struct {
	UserID    int64  `json:"user_id"`
	Active    bool   `json:"active"`
	ExpiresAt string `json:"expires_at,omitempty"`
}

// Status обрабатывает GET /subscribers/:user_id/status
func (h *SubscriberHandler) Status(c *gin.Context) {
	ctx := c.Request.Context()

	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		h.log.Warnw("Invalid user ID in request path", "userID", c.Param("user_id"))
		res.JsonResponse(c.Writer, res.ErrorResponse{Error: "Invalid user ID"}, http.StatusBadRequest)
		c.Abort()
		return
	}

	expiresAt, active, found, err := h.entitlement.Status(ctx, userID)
	if err != nil {
		h.log.Errorw("Failed to get subscriber status", "error", err, "userID", userID)
		res.JsonResponse(c.Writer, res.ErrorResponse{Error: "Failed to retrieve status"}, http.StatusInternalServerError)
		c.Abort()
		return
	}

	response := SubscriberStatusResponse{
		UserID: userID,
		Active: active,
	}
	if found {
		response.ExpiresAt = expiresAt.Format(time.RFC3339)
	}

	res.JsonResponse(c.Writer, response, http.StatusOK)
}
