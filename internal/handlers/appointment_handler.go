package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domain "github.com/BruksfildServices01/barber-manager/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-manager/internal/export"
	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/httpresp"
	"github.com/BruksfildServices01/barber-manager/internal/pagination"
	"github.com/BruksfildServices01/barber-manager/internal/storage"
	ucAppointment "github.com/BruksfildServices01/barber-manager/internal/usecase/appointment"
)

// ======================================================
// HANDLER
// ======================================================

type AppointmentHandler struct {
	create      *ucAppointment.CreateAppointment
	update      *ucAppointment.UpdateAppointment
	confirm     *ucAppointment.ChangeStatus
	cancel      *ucAppointment.ChangeStatus
	complete    *ucAppointment.ChangeStatus
	get         *ucAppointment.GetAppointment
	list        *ucAppointment.ListAppointments
	listByDate  *ucAppointment.ListAppointmentsByDate
	listByMonth *ucAppointment.ListAppointmentsByMonth
	remove      *ucAppointment.DeleteAppointment
	store       storage.Store
}

type AppointmentUseCases struct {
	Create      *ucAppointment.CreateAppointment
	Update      *ucAppointment.UpdateAppointment
	Confirm     *ucAppointment.ChangeStatus
	Cancel      *ucAppointment.ChangeStatus
	Complete    *ucAppointment.ChangeStatus
	Get         *ucAppointment.GetAppointment
	List        *ucAppointment.ListAppointments
	ListByDate  *ucAppointment.ListAppointmentsByDate
	ListByMonth *ucAppointment.ListAppointmentsByMonth
	Delete      *ucAppointment.DeleteAppointment
}

func NewAppointmentHandler(uc AppointmentUseCases, store storage.Store) *AppointmentHandler {
	return &AppointmentHandler{
		create:      uc.Create,
		update:      uc.Update,
		confirm:     uc.Confirm,
		cancel:      uc.Cancel,
		complete:    uc.Complete,
		get:         uc.Get,
		list:        uc.List,
		listByDate:  uc.ListByDate,
		listByMonth: uc.ListByMonth,
		remove:      uc.Delete,
		store:       store,
	}
}

// ======================================================
// REQUESTS
// ======================================================

type CreateAppointmentRequest struct {
	CustomerName    string `json:"customer_name"`
	CustomerPhone   string `json:"customer_phone"`
	CustomerEmail   string `json:"customer_email"`
	BarberID        string `json:"barber_id"`
	Service         string `json:"service"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	DurationMinutes int    `json:"duration_minutes"`
	Notes           string `json:"notes"`
}

type UpdateAppointmentRequest struct {
	CustomerName    *string `json:"customer_name"`
	CustomerPhone   *string `json:"customer_phone"`
	CustomerEmail   *string `json:"customer_email"`
	BarberID        *string `json:"barber_id"`
	Service         *string `json:"service"`
	Date            *string `json:"date"`
	Time            *string `json:"time"`
	DurationMinutes *int    `json:"duration_minutes"`
	Notes           *string `json:"notes"`
}

func appointmentID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.NotFound(c, "appointment_not_found", "Agendamento não encontrado.")
		return uuid.Nil, false
	}
	return id, true
}

// ======================================================
// CREATE
// ======================================================

func (h *AppointmentHandler) Create(c *gin.Context) {
	barbershopID, userID := scope(c)

	var req CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	ap, err := h.create.Execute(c.Request.Context(), ucAppointment.CreateAppointmentInput{
		BarbershopID:  barbershopID,
		UserID:        userID,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		CustomerEmail: req.CustomerEmail,
		BarberID:      req.BarberID,
		Service:       req.Service,
		Date:          req.Date,
		Time:          req.Time,
		DurationMin:   req.DurationMinutes,
		Notes:         req.Notes,
	})
	if err != nil {
		respondError(c, err, "failed_to_create_appointment", "Erro ao criar agendamento.")
		return
	}

	httpresp.Created(c, ap)
}

// ======================================================
// LIST
// ======================================================

func (h *AppointmentHandler) List(c *gin.Context) {
	barbershopID, _ := scope(c)
	p := pagination.FromQuery(c)

	apps, total, err := h.list.Execute(c.Request.Context(), domain.ListFilter{
		BarbershopID: barbershopID,
		BarberID:     c.Query("barber_id"),
		Status:       c.Query("status"),
		Query:        c.Query("q"),
		Limit:        p.Limit,
		Offset:       p.Offset(),
	})
	if err != nil {
		respondError(c, err, "failed_to_list_appointments", "Erro ao listar agendamentos.")
		return
	}

	httpresp.Page(c, apps, p.Page, p.Limit, total)
}

func (h *AppointmentHandler) ListByDate(c *gin.Context) {
	barbershopID, _ := scope(c)

	dateStr := c.Query("date")
	if dateStr == "" {
		httperr.BadRequest(c, "missing_date", "Data obrigatória.")
		return
	}

	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		httperr.BadRequest(c, "invalid_date", "Data inválida.")
		return
	}

	out, err := h.listByDate.Execute(c.Request.Context(), barbershopID, c.Query("barber_id"), date)
	if err != nil {
		respondError(c, err, "failed_to_list_appointments", "Erro ao listar agendamentos.")
		return
	}

	httpresp.List(c, out)
}

func (h *AppointmentHandler) ListByMonth(c *gin.Context) {
	barbershopID, _ := scope(c)

	yearStr := c.Query("year")
	monthStr := c.Query("month")

	if yearStr == "" || monthStr == "" {
		httperr.BadRequest(c, "missing_year_or_month", "Ano e mês são obrigatórios.")
		return
	}

	year, err := strconv.Atoi(yearStr)
	if err != nil || year < 2000 || year > 2100 {
		httperr.BadRequest(c, "invalid_year", "Ano inválido.")
		return
	}

	month, err := strconv.Atoi(monthStr)
	if err != nil || month < 1 || month > 12 {
		httperr.BadRequest(c, "invalid_month", "Mês inválido.")
		return
	}

	out, err := h.listByMonth.Execute(c.Request.Context(), barbershopID, c.Query("barber_id"), year, month)
	if err != nil {
		respondError(c, err, "failed_to_list_appointments", "Erro ao listar agendamentos.")
		return
	}

	c.JSON(200, gin.H{
		"year":         year,
		"month":        month,
		"appointments": out,
	})
}

// ======================================================
// GET / UPDATE / DELETE
// ======================================================

func (h *AppointmentHandler) Get(c *gin.Context) {
	barbershopID, _ := scope(c)

	id, ok := appointmentID(c)
	if !ok {
		return
	}

	ap, err := h.get.Execute(c.Request.Context(), barbershopID, id)
	if err != nil {
		respondError(c, err, "failed_to_get_appointment", "Erro ao buscar agendamento.")
		return
	}

	httpresp.OK(c, ap)
}

func (h *AppointmentHandler) Update(c *gin.Context) {
	barbershopID, userID := scope(c)

	id, ok := appointmentID(c)
	if !ok {
		return
	}

	var req UpdateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	ap, err := h.update.Execute(c.Request.Context(), ucAppointment.UpdateAppointmentInput{
		BarbershopID:  barbershopID,
		UserID:        userID,
		AppointmentID: id,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		CustomerEmail: req.CustomerEmail,
		Service:       req.Service,
		Notes:         req.Notes,
		BarberID:      req.BarberID,
		Date:          req.Date,
		Time:          req.Time,
		DurationMin:   req.DurationMinutes,
	})
	if err != nil {
		respondError(c, err, "failed_to_update_appointment", "Erro ao salvar agendamento.")
		return
	}

	httpresp.OK(c, ap)
}

func (h *AppointmentHandler) Delete(c *gin.Context) {
	barbershopID, userID := scope(c)

	id, ok := appointmentID(c)
	if !ok {
		return
	}

	if err := h.remove.Execute(c.Request.Context(), barbershopID, userID, id); err != nil {
		respondError(c, err, "failed_to_delete_appointment", "Erro ao excluir agendamento.")
		return
	}

	c.Status(204)
}

// ======================================================
// STATUS
// ======================================================

func (h *AppointmentHandler) Confirm(c *gin.Context) {
	h.changeStatus(c, h.confirm)
}

func (h *AppointmentHandler) Cancel(c *gin.Context) {
	h.changeStatus(c, h.cancel)
}

func (h *AppointmentHandler) Complete(c *gin.Context) {
	h.changeStatus(c, h.complete)
}

func (h *AppointmentHandler) changeStatus(c *gin.Context, uc *ucAppointment.ChangeStatus) {
	barbershopID, userID := scope(c)

	id, ok := appointmentID(c)
	if !ok {
		return
	}

	ap, err := uc.Execute(c.Request.Context(), barbershopID, userID, id)
	if err != nil {
		respondError(c, err, "failed_to_update_appointment", "Erro ao atualizar agendamento.")
		return
	}

	httpresp.OK(c, ap)
}

// ======================================================
// EXPORT
// ======================================================

func (h *AppointmentHandler) Export(c *gin.Context) {
	barbershopID, _ := scope(c)

	apps, _, err := h.list.Execute(c.Request.Context(), domain.ListFilter{
		BarbershopID: barbershopID,
		BarberID:     c.Query("barber_id"),
		Status:       c.Query("status"),
		Limit:        -1,
	})
	if err != nil {
		respondError(c, err, "failed_to_export", "Erro ao exportar agendamentos.")
		return
	}

	sendCSV(c, h.store, barbershopID, "appointments", export.AppointmentColumns, apps)
}
