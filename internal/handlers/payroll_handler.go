package handlers

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-manager/internal/audit"
	"github.com/BruksfildServices01/barber-manager/internal/bizid"
	"github.com/BruksfildServices01/barber-manager/internal/domain/payroll"
	"github.com/BruksfildServices01/barber-manager/internal/export"
	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/httpresp"
	"github.com/BruksfildServices01/barber-manager/internal/infra/repository"
	"github.com/BruksfildServices01/barber-manager/internal/models"
	"github.com/BruksfildServices01/barber-manager/internal/pagination"
	"github.com/BruksfildServices01/barber-manager/internal/storage"
	"github.com/BruksfildServices01/barber-manager/internal/timezone"
	"github.com/BruksfildServices01/barber-manager/internal/validators"
)

// ======================================================
// HANDLER
// ======================================================

type PayrollHandler struct {
	db    *gorm.DB
	ids   *repository.BusinessIDGormRepository
	store storage.Store
	audit *audit.Dispatcher
}

func NewPayrollHandler(
	db *gorm.DB,
	ids *repository.BusinessIDGormRepository,
	store storage.Store,
	audit *audit.Dispatcher,
) *PayrollHandler {
	return &PayrollHandler{db: db, ids: ids, store: store, audit: audit}
}

// ======================================================
// REQUESTS
// ======================================================

type PayrollRequest struct {
	EmployeeID  string   `json:"employee_id"`
	PeriodStart string   `json:"period_start"`
	PeriodEnd   string   `json:"period_end"`
	BasicPay    *float64 `json:"basic_pay"`
	Overtime    *float64 `json:"overtime_pay"`
	Bonus       *float64 `json:"bonus"`
	Deductions  *float64 `json:"deductions"`
}

func (r PayrollRequest) validate() error {
	var errs validators.Errors
	errs.Required("employee_id", r.EmployeeID)
	errs.Required("period_start", r.PeriodStart)
	errs.Required("period_end", r.PeriodEnd)
	errs.Date("period_start", r.PeriodStart)
	errs.Date("period_end", r.PeriodEnd)
	errs.NonNegative("basic_pay", r.BasicPay)
	errs.NonNegative("overtime_pay", r.Overtime)
	errs.NonNegative("bonus", r.Bonus)
	errs.NonNegative("deductions", r.Deductions)
	return errs.Err()
}

// apply copies the request and recomputes the net pay.
func (r PayrollRequest) apply(e *models.PayrollEntry) error {
	start, _ := parseOptionalDate("period_start", r.PeriodStart)
	end, _ := parseOptionalDate("period_end", r.PeriodEnd)

	e.EmployeeID = r.EmployeeID
	e.PeriodStart = *start
	e.PeriodEnd = *end
	e.BasicPay = r.BasicPay
	e.Overtime = r.Overtime
	e.Bonus = r.Bonus
	e.Deductions = r.Deductions

	return payroll.Recalculate(e)
}

type PayrollPatchRequest struct {
	EmployeeID  *string  `json:"employee_id"`
	PeriodStart *string  `json:"period_start"`
	PeriodEnd   *string  `json:"period_end"`
	BasicPay    *float64 `json:"basic_pay"`
	Overtime    *float64 `json:"overtime_pay"`
	Bonus       *float64 `json:"bonus"`
	Deductions  *float64 `json:"deductions"`
}

func (p PayrollPatchRequest) merge(e *models.PayrollEntry) PayrollRequest {
	r := PayrollRequest{
		EmployeeID:  e.EmployeeID,
		PeriodStart: export.Date(e.PeriodStart),
		PeriodEnd:   export.Date(e.PeriodEnd),
		BasicPay:    e.BasicPay,
		Overtime:    e.Overtime,
		Bonus:       e.Bonus,
		Deductions:  e.Deductions,
	}
	if p.EmployeeID != nil {
		r.EmployeeID = *p.EmployeeID
	}
	if p.PeriodStart != nil {
		r.PeriodStart = *p.PeriodStart
	}
	if p.PeriodEnd != nil {
		r.PeriodEnd = *p.PeriodEnd
	}
	if p.BasicPay != nil {
		r.BasicPay = p.BasicPay
	}
	if p.Overtime != nil {
		r.Overtime = p.Overtime
	}
	if p.Bonus != nil {
		r.Bonus = p.Bonus
	}
	if p.Deductions != nil {
		r.Deductions = p.Deductions
	}
	return r
}

// ======================================================
// HELPERS
// ======================================================

func (h *PayrollHandler) find(c *gin.Context, barbershopID uint) (*models.PayrollEntry, bool) {
	var e models.PayrollEntry
	err := h.db.WithContext(c.Request.Context()).
		Where("barbershop_id = ? AND business_id = ?", barbershopID, c.Param("payroll_id")).
		First(&e).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		httperr.NotFound(c, "payroll_not_found", "Folha de pagamento não encontrada.")
		return nil, false
	}
	if err != nil {
		respondError(c, err, "failed_to_get_payroll", "Erro ao buscar folha de pagamento.")
		return nil, false
	}
	return &e, true
}

func (h *PayrollHandler) employeeExists(c *gin.Context, barbershopID uint, employeeID string) bool {
	var count int64
	h.db.WithContext(c.Request.Context()).
		Model(&models.Employee{}).
		Where("barbershop_id = ? AND business_id = ?", barbershopID, employeeID).
		Count(&count)
	return count > 0
}

func (h *PayrollHandler) dispatch(c *gin.Context, action string, e *models.PayrollEntry) {
	barbershopID, userID := scope(c)
	h.audit.Dispatch(audit.Event{
		BarbershopID: barbershopID,
		UserID:       &userID,
		Action:       action,
		Entity:       "payroll",
		EntityID:     e.BusinessID,
		Metadata:     map[string]any{"employee_id": e.EmployeeID, "net_pay": e.NetPay},
	})
}

func (h *PayrollHandler) query(c *gin.Context, barbershopID uint) *gorm.DB {
	q := h.db.WithContext(c.Request.Context()).
		Model(&models.PayrollEntry{}).
		Where("barbershop_id = ?", barbershopID)

	if employeeID := c.Query("employee_id"); employeeID != "" {
		q = q.Where("employee_id = ?", employeeID)
	}
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if from, err := parseOptionalDate("from", c.Query("from")); err == nil && from != nil {
		q = q.Where("period_end >= ?", *from)
	}
	if to, err := parseOptionalDate("to", c.Query("to")); err == nil && to != nil {
		q = q.Where("period_start <= ?", *to)
	}
	return q
}

// ======================================================
// LIST / GET
// ======================================================

func (h *PayrollHandler) List(c *gin.Context) {
	barbershopID, _ := scope(c)
	p := pagination.FromQuery(c)

	q := h.query(c, barbershopID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		respondError(c, err, "failed_to_list_payroll", "Erro ao listar folhas de pagamento.")
		return
	}

	var entries []models.PayrollEntry
	if err := q.Order("period_start DESC, business_id DESC").Scopes(p.Scope).Find(&entries).Error; err != nil {
		respondError(c, err, "failed_to_list_payroll", "Erro ao listar folhas de pagamento.")
		return
	}

	httpresp.Page(c, entries, p.Page, p.Limit, total)
}

func (h *PayrollHandler) Get(c *gin.Context) {
	barbershopID, _ := scope(c)

	e, ok := h.find(c, barbershopID)
	if !ok {
		return
	}
	httpresp.OK(c, e)
}

func (h *PayrollHandler) NextID(c *gin.Context) {
	barbershopID, _ := scope(c)
	ctx := c.Request.Context()

	shop, err := loadShop(ctx, h.db, barbershopID)
	if err != nil {
		respondError(c, err, "failed_to_generate_id", "Erro ao gerar código.")
		return
	}

	id, err := h.ids.Peek(ctx, bizid.EntityPayroll, barbershopID, shopYear(shop))
	if err != nil {
		respondError(c, err, "failed_to_generate_id", "Erro ao gerar código.")
		return
	}

	httpresp.OK(c, gin.H{"payroll_id": id})
}

// ======================================================
// CREATE
// ======================================================

func (h *PayrollHandler) Create(c *gin.Context) {
	barbershopID, _ := scope(c)
	ctx := c.Request.Context()

	var req PayrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}
	req.EmployeeID = strings.TrimSpace(req.EmployeeID)
	if err := req.validate(); err != nil {
		respondError(c, err, "", "")
		return
	}

	if !h.employeeExists(c, barbershopID, req.EmployeeID) {
		httperr.NotFound(c, "employee_not_found", "Funcionário não encontrado.")
		return
	}

	// valida antes de reservar o código
	draft := models.PayrollEntry{Status: models.PayrollDraft}
	if err := req.apply(&draft); err != nil {
		respondError(c, err, "", "")
		return
	}

	shop, err := loadShop(ctx, h.db, barbershopID)
	if err != nil {
		respondError(c, err, "failed_to_create_payroll", "Erro ao criar folha de pagamento.")
		return
	}

	var e models.PayrollEntry
	_, err = h.ids.Create(ctx, bizid.EntityPayroll, barbershopID, shopYear(shop), func(id string) error {
		e = draft
		e.BarbershopID = barbershopID
		e.BusinessID = id
		return h.db.WithContext(ctx).Create(&e).Error
	})
	if err != nil {
		respondError(c, err, "failed_to_create_payroll", "Erro ao criar folha de pagamento.")
		return
	}

	h.dispatch(c, "payroll_created", &e)
	httpresp.Created(c, &e)
}

// ======================================================
// PATCH
// ======================================================

func (h *PayrollHandler) Patch(c *gin.Context) {
	barbershopID, _ := scope(c)

	e, ok := h.find(c, barbershopID)
	if !ok {
		return
	}

	if err := payroll.CanEdit(e); err != nil {
		respondError(c, err, "", "")
		return
	}

	var patch PayrollPatchRequest
	if err := c.ShouldBindJSON(&patch); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	req := patch.merge(e)
	req.EmployeeID = strings.TrimSpace(req.EmployeeID)
	if err := req.validate(); err != nil {
		respondError(c, err, "", "")
		return
	}

	if req.EmployeeID != e.EmployeeID && !h.employeeExists(c, barbershopID, req.EmployeeID) {
		httperr.NotFound(c, "employee_not_found", "Funcionário não encontrado.")
		return
	}

	if err := req.apply(e); err != nil {
		respondError(c, err, "", "")
		return
	}

	if err := h.db.WithContext(c.Request.Context()).Save(e).Error; err != nil {
		respondError(c, err, "failed_to_update_payroll", "Erro ao salvar folha de pagamento.")
		return
	}

	h.dispatch(c, "payroll_updated", e)
	httpresp.OK(c, e)
}

// ======================================================
// PAY
// ======================================================

func (h *PayrollHandler) MarkPaid(c *gin.Context) {
	barbershopID, _ := scope(c)
	ctx := c.Request.Context()

	e, ok := h.find(c, barbershopID)
	if !ok {
		return
	}

	shop, err := loadShop(ctx, h.db, barbershopID)
	if err != nil {
		respondError(c, err, "failed_to_update_payroll", "Erro ao salvar folha de pagamento.")
		return
	}

	if err := payroll.MarkPaid(e, timezone.NowIn(shop.Timezone)); err != nil {
		respondError(c, err, "", "")
		return
	}

	if err := h.db.WithContext(ctx).Save(e).Error; err != nil {
		respondError(c, err, "failed_to_update_payroll", "Erro ao salvar folha de pagamento.")
		return
	}

	h.dispatch(c, "payroll_paid", e)
	httpresp.OK(c, e)
}

// ======================================================
// DELETE / EXPORT
// ======================================================

func (h *PayrollHandler) Delete(c *gin.Context) {
	barbershopID, _ := scope(c)

	e, ok := h.find(c, barbershopID)
	if !ok {
		return
	}

	if err := h.db.WithContext(c.Request.Context()).Delete(e).Error; err != nil {
		respondError(c, err, "failed_to_delete_payroll", "Erro ao excluir folha de pagamento.")
		return
	}

	h.dispatch(c, "payroll_deleted", e)
	c.Status(204)
}

func (h *PayrollHandler) Export(c *gin.Context) {
	barbershopID, _ := scope(c)

	var entries []models.PayrollEntry
	if err := h.query(c, barbershopID).
		Order("period_start ASC, business_id ASC").
		Find(&entries).Error; err != nil {
		respondError(c, err, "failed_to_export", "Erro ao exportar folhas de pagamento.")
		return
	}

	sendCSV(c, h.store, barbershopID, "payroll", export.PayrollColumns, entries)
}
