package handlers

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-manager/internal/audit"
	"github.com/BruksfildServices01/barber-manager/internal/billing"
	"github.com/BruksfildServices01/barber-manager/internal/export"
	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/httpresp"
	"github.com/BruksfildServices01/barber-manager/internal/models"
	"github.com/BruksfildServices01/barber-manager/internal/notify"
	"github.com/BruksfildServices01/barber-manager/internal/pagination"
	"github.com/BruksfildServices01/barber-manager/internal/storage"
	"github.com/BruksfildServices01/barber-manager/internal/validators"
)

// ======================================================
// HANDLER
// ======================================================

type SubscriberHandler struct {
	db       *gorm.DB
	store    storage.Store
	pushes   *notify.Dispatcher
	billing  billing.Provider
	audit    *audit.Dispatcher
	currency string
}

// NewSubscriberHandler accepts nil pushes/provider when those integrations
// are not configured; the related endpoints then answer 503.
func NewSubscriberHandler(
	db *gorm.DB,
	store storage.Store,
	pushes *notify.Dispatcher,
	provider billing.Provider,
	audit *audit.Dispatcher,
) *SubscriberHandler {
	return &SubscriberHandler{
		db:       db,
		store:    store,
		pushes:   pushes,
		billing:  provider,
		audit:    audit,
		currency: "BRL",
	}
}

// ======================================================
// REQUESTS
// ======================================================

type SubscriberRequest struct {
	Name        *string  `json:"name"`
	Email       *string  `json:"email"`
	Phone       *string  `json:"phone"`
	DeviceToken *string  `json:"device_token"`
	Plan        *string  `json:"plan"`
	Active      *bool    `json:"active"`
	MonthlyFee  *float64 `json:"monthly_fee"`
}

func (r SubscriberRequest) apply(s *models.Subscriber) {
	if r.Name != nil {
		s.Name = strings.TrimSpace(*r.Name)
	}
	if r.Email != nil {
		s.Email = strings.ToLower(strings.TrimSpace(*r.Email))
	}
	if r.Phone != nil {
		s.Phone = strings.TrimSpace(*r.Phone)
	}
	if r.DeviceToken != nil {
		s.DeviceToken = strings.TrimSpace(*r.DeviceToken)
	}
	if r.Plan != nil {
		s.Plan = strings.TrimSpace(*r.Plan)
	}
	if r.Active != nil {
		s.Active = *r.Active
	}
	if r.MonthlyFee != nil {
		s.MonthlyFee = *r.MonthlyFee
	}
}

func validateSubscriber(s *models.Subscriber) error {
	var errs validators.Errors
	errs.Required("name", s.Name)
	errs.Email("email", s.Email)
	errs.Phone("phone", s.Phone)
	errs.NonNegative("monthly_fee", &s.MonthlyFee)
	return errs.Err()
}

type PushRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// ======================================================
// HELPERS
// ======================================================

func (h *SubscriberHandler) find(c *gin.Context, barbershopID uint) (*models.Subscriber, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.NotFound(c, "subscriber_not_found", "Assinante não encontrado.")
		return nil, false
	}

	var s models.Subscriber
	err = h.db.WithContext(c.Request.Context()).
		Where("id = ? AND barbershop_id = ?", id, barbershopID).
		First(&s).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		httperr.NotFound(c, "subscriber_not_found", "Assinante não encontrado.")
		return nil, false
	}
	if err != nil {
		respondError(c, err, "failed_to_get_subscriber", "Erro ao buscar assinante.")
		return nil, false
	}
	return &s, true
}

func (h *SubscriberHandler) emailTaken(c *gin.Context, s *models.Subscriber) (bool, error) {
	if s.Email == "" {
		return false, nil
	}
	var count int64
	err := h.db.WithContext(c.Request.Context()).
		Model(&models.Subscriber{}).
		Where("barbershop_id = ? AND email = ? AND id <> ?", s.BarbershopID, s.Email, s.ID).
		Count(&count).Error
	return count > 0, err
}

func (h *SubscriberHandler) dispatch(c *gin.Context, action string, s *models.Subscriber, meta any) {
	barbershopID, userID := scope(c)
	h.audit.Dispatch(audit.Event{
		BarbershopID: barbershopID,
		UserID:       &userID,
		Action:       action,
		Entity:       "subscriber",
		EntityID:     s.ID.String(),
		Metadata:     meta,
	})
}

// ======================================================
// CRUD
// ======================================================

func (h *SubscriberHandler) List(c *gin.Context) {
	barbershopID, _ := scope(c)
	p := pagination.FromQuery(c)

	q := h.db.WithContext(c.Request.Context()).
		Model(&models.Subscriber{}).
		Where("barbershop_id = ?", barbershopID)

	if s := c.Query("q"); s != "" {
		like := likeQuery(s)
		q = q.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ?", like, like, like)
	}
	if plan := c.Query("plan"); plan != "" {
		q = q.Where("plan = ?", plan)
	}
	switch c.Query("active") {
	case "true":
		q = q.Where("active = ?", true)
	case "false":
		q = q.Where("active = ?", false)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		respondError(c, err, "failed_to_list_subscribers", "Erro ao listar assinantes.")
		return
	}

	var subs []models.Subscriber
	if err := q.Order("name ASC").Scopes(p.Scope).Find(&subs).Error; err != nil {
		respondError(c, err, "failed_to_list_subscribers", "Erro ao listar assinantes.")
		return
	}

	httpresp.Page(c, subs, p.Page, p.Limit, total)
}

func (h *SubscriberHandler) Get(c *gin.Context) {
	barbershopID, _ := scope(c)

	s, ok := h.find(c, barbershopID)
	if !ok {
		return
	}
	httpresp.OK(c, s)
}

func (h *SubscriberHandler) Create(c *gin.Context) {
	barbershopID, _ := scope(c)

	var req SubscriberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	s := models.Subscriber{BarbershopID: barbershopID, Active: true}
	req.apply(&s)

	if err := validateSubscriber(&s); err != nil {
		respondError(c, err, "", "")
		return
	}
	taken, err := h.emailTaken(c, &s)
	if err != nil {
		respondError(c, err, "failed_to_create_subscriber", "Erro ao cadastrar assinante.")
		return
	}
	if taken {
		httperr.Conflict(c, "subscriber_already_exists", "Já existe um assinante com este e-mail.")
		return
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&s).Error; err != nil {
		respondError(c, err, "failed_to_create_subscriber", "Erro ao cadastrar assinante.")
		return
	}

	h.dispatch(c, "subscriber_created", &s, nil)
	httpresp.Created(c, &s)
}

func (h *SubscriberHandler) Patch(c *gin.Context) {
	barbershopID, _ := scope(c)

	s, ok := h.find(c, barbershopID)
	if !ok {
		return
	}

	var req SubscriberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}
	req.apply(s)

	if err := validateSubscriber(s); err != nil {
		respondError(c, err, "", "")
		return
	}
	taken, err := h.emailTaken(c, s)
	if err != nil {
		respondError(c, err, "failed_to_update_subscriber", "Erro ao salvar assinante.")
		return
	}
	if taken {
		httperr.Conflict(c, "subscriber_already_exists", "Já existe um assinante com este e-mail.")
		return
	}

	if err := h.db.WithContext(c.Request.Context()).Save(s).Error; err != nil {
		respondError(c, err, "failed_to_update_subscriber", "Erro ao salvar assinante.")
		return
	}

	h.dispatch(c, "subscriber_updated", s, nil)
	httpresp.OK(c, s)
}

func (h *SubscriberHandler) Delete(c *gin.Context) {
	barbershopID, _ := scope(c)

	s, ok := h.find(c, barbershopID)
	if !ok {
		return
	}

	if err := h.db.WithContext(c.Request.Context()).Delete(s).Error; err != nil {
		respondError(c, err, "failed_to_delete_subscriber", "Erro ao excluir assinante.")
		return
	}

	h.dispatch(c, "subscriber_deleted", s, nil)
	c.Status(204)
}

func (h *SubscriberHandler) Export(c *gin.Context) {
	barbershopID, _ := scope(c)

	var subs []models.Subscriber
	if err := h.db.WithContext(c.Request.Context()).
		Where("barbershop_id = ?", barbershopID).
		Order("name ASC").
		Find(&subs).Error; err != nil {
		respondError(c, err, "failed_to_export", "Erro ao exportar assinantes.")
		return
	}

	sendCSV(c, h.store, barbershopID, "subscribers", export.SubscriberColumns, subs)
}

// ======================================================
// PUSH
// ======================================================

func (h *SubscriberHandler) Notify(c *gin.Context) {
	barbershopID, _ := scope(c)

	if h.pushes == nil {
		respondError(c, notify.ErrDisabled, "", "")
		return
	}

	s, ok := h.find(c, barbershopID)
	if !ok {
		return
	}

	var req PushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	msg := notify.Message{Token: s.DeviceToken, Title: req.Title, Body: req.Body}
	if strings.TrimSpace(s.DeviceToken) == "" {
		httperr.BadRequest(c, "missing_device_token", "Assinante sem dispositivo cadastrado.")
		return
	}
	if err := msg.Validate(); err != nil {
		respondError(c, err, "", "")
		return
	}

	if !h.pushes.Enqueue(notify.Job{BarbershopID: barbershopID, Recipient: s.ID.String(), Message: msg}) {
		httperr.Unavailable(c, "notification_queue_full", "Fila de notificações cheia. Tente novamente.")
		return
	}

	c.JSON(202, gin.H{"queued": 1})
}

// Broadcast queues the message for every active subscriber with a device.
func (h *SubscriberHandler) Broadcast(c *gin.Context) {
	barbershopID, _ := scope(c)

	if h.pushes == nil {
		respondError(c, notify.ErrDisabled, "", "")
		return
	}

	var req PushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}
	draft := notify.Message{Token: "-", Title: req.Title, Body: req.Body}
	if err := draft.Validate(); err != nil {
		respondError(c, err, "", "")
		return
	}

	var subs []models.Subscriber
	if err := h.db.WithContext(c.Request.Context()).
		Where("barbershop_id = ? AND active = ? AND device_token <> ''", barbershopID, true).
		Find(&subs).Error; err != nil {
		respondError(c, err, "failed_to_list_subscribers", "Erro ao listar assinantes.")
		return
	}

	queued, dropped := 0, 0
	for _, s := range subs {
		job := notify.Job{
			BarbershopID: barbershopID,
			Recipient:    s.ID.String(),
			Message:      notify.Message{Token: s.DeviceToken, Title: req.Title, Body: req.Body},
		}
		if h.pushes.Enqueue(job) {
			queued++
		} else {
			dropped++
		}
	}

	c.JSON(202, gin.H{"queued": queued, "dropped": dropped})
}

// ======================================================
// BILLING
// ======================================================

func (h *SubscriberHandler) StartBilling(c *gin.Context) {
	barbershopID, _ := scope(c)
	ctx := c.Request.Context()

	if h.billing == nil {
		respondError(c, billing.ErrDisabled, "", "")
		return
	}

	s, ok := h.find(c, barbershopID)
	if !ok {
		return
	}

	if s.Email == "" {
		httperr.BadRequest(c, "missing_email", "Assinante precisa de e-mail para cobrança.")
		return
	}
	if s.MonthlyFee <= 0 {
		httperr.BadRequest(c, "invalid_monthly_fee", "Informe a mensalidade do assinante.")
		return
	}

	plan := s.Plan
	if plan == "" {
		plan = "Assinatura"
	}

	sub, err := h.billing.Subscribe(ctx, billing.SubscriptionInput{
		ExternalReference: s.ID.String(),
		PayerEmail:        s.Email,
		Reason:            fmt.Sprintf("%s - %s", plan, s.Name),
		Amount:            s.MonthlyFee,
		Currency:          h.currency,
	})
	if err != nil {
		billingFailed(c, err)
		return
	}

	s.BillingID = sub.ID
	s.BillingStatus = sub.Status
	if err := h.db.WithContext(ctx).Save(s).Error; err != nil {
		respondError(c, err, "failed_to_update_subscriber", "Erro ao salvar assinante.")
		return
	}

	h.dispatch(c, "subscriber_billing_started", s, map[string]string{"billing_id": sub.ID})
	httpresp.Created(c, sub)
}

func (h *SubscriberHandler) CancelBilling(c *gin.Context) {
	barbershopID, _ := scope(c)
	ctx := c.Request.Context()

	if h.billing == nil {
		respondError(c, billing.ErrDisabled, "", "")
		return
	}

	s, ok := h.find(c, barbershopID)
	if !ok {
		return
	}
	if s.BillingID == "" {
		httperr.BadRequest(c, "no_billing", "Assinante sem cobrança recorrente.")
		return
	}

	sub, err := h.billing.Cancel(ctx, s.BillingID)
	if err != nil {
		billingFailed(c, err)
		return
	}

	s.BillingStatus = sub.Status
	if err := h.db.WithContext(ctx).Save(s).Error; err != nil {
		respondError(c, err, "failed_to_update_subscriber", "Erro ao salvar assinante.")
		return
	}

	h.dispatch(c, "subscriber_billing_cancelled", s, map[string]string{"billing_id": s.BillingID})
	httpresp.OK(c, sub)
}

// SyncBilling refreshes the stored status from the provider.
func (h *SubscriberHandler) SyncBilling(c *gin.Context) {
	barbershopID, _ := scope(c)
	ctx := c.Request.Context()

	if h.billing == nil {
		respondError(c, billing.ErrDisabled, "", "")
		return
	}

	s, ok := h.find(c, barbershopID)
	if !ok {
		return
	}
	if s.BillingID == "" {
		httperr.BadRequest(c, "no_billing", "Assinante sem cobrança recorrente.")
		return
	}

	sub, err := h.billing.Status(ctx, s.BillingID)
	if err != nil {
		billingFailed(c, err)
		return
	}

	if sub.Status != s.BillingStatus {
		previous := s.BillingStatus
		s.BillingStatus = sub.Status
		if err := h.db.WithContext(ctx).Model(s).Update("billing_status", sub.Status).Error; err != nil {
			respondError(c, err, "failed_to_update_subscriber", "Erro ao salvar assinante.")
			return
		}
		h.dispatch(c, "subscriber_billing_synced", s, map[string]string{
			"from": previous,
			"to":   sub.Status,
		})
	}

	httpresp.OK(c, sub)
}

func billingFailed(c *gin.Context, err error) {
	log.Printf("billing: %v", err)
	httperr.BadGateway(c, "billing_failed", "Falha na comunicação com o provedor de pagamento.")
}
