package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/barber-manager/internal/audit"
	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/httpresp"
	"github.com/BruksfildServices01/barber-manager/internal/notify"
)

// NotificationHandler relays a single push synchronously and returns the
// webhook's envelope to the caller.
type NotificationHandler struct {
	sender notify.Sender
	audit  *audit.Dispatcher
}

func NewNotificationHandler(sender notify.Sender, audit *audit.Dispatcher) *NotificationHandler {
	return &NotificationHandler{sender: sender, audit: audit}
}

func (h *NotificationHandler) Send(c *gin.Context) {
	barbershopID, userID := scope(c)

	var msg notify.Message
	if err := c.ShouldBindJSON(&msg); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	env, err := h.sender.Send(c.Request.Context(), msg)

	var derr *notify.DeliveryError
	if errors.As(err, &derr) {
		h.record(barbershopID, userID, msg, derr.Envelope.Error)
		c.JSON(502, derr.Envelope)
		return
	}
	if err != nil {
		respondError(c, err, "notification_failed", "Falha ao enviar notificação.")
		return
	}

	h.record(barbershopID, userID, msg, "")
	httpresp.OK(c, env)
}

func (h *NotificationHandler) record(barbershopID, userID uint, msg notify.Message, failure string) {
	action := "notification_sent"
	if failure != "" {
		action = "notification_failed"
	}
	h.audit.Dispatch(audit.Event{
		BarbershopID: barbershopID,
		UserID:       &userID,
		Action:       action,
		Entity:       "notification",
		Metadata:     map[string]string{"title": msg.Title, "error": failure},
	})
}
