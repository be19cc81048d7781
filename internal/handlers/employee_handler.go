package handlers

import (
	"errors"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-manager/internal/audit"
	"github.com/BruksfildServices01/barber-manager/internal/bizid"
	"github.com/BruksfildServices01/barber-manager/internal/export"
	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/httpresp"
	"github.com/BruksfildServices01/barber-manager/internal/imaging"
	"github.com/BruksfildServices01/barber-manager/internal/infra/repository"
	"github.com/BruksfildServices01/barber-manager/internal/models"
	"github.com/BruksfildServices01/barber-manager/internal/pagination"
	"github.com/BruksfildServices01/barber-manager/internal/storage"
	"github.com/BruksfildServices01/barber-manager/internal/validators"
)

// ======================================================
// HANDLER
// ======================================================

type EmployeeHandler struct {
	db    *gorm.DB
	ids   *repository.BusinessIDGormRepository
	store storage.Store
	audit *audit.Dispatcher
}

func NewEmployeeHandler(
	db *gorm.DB,
	ids *repository.BusinessIDGormRepository,
	store storage.Store,
	audit *audit.Dispatcher,
) *EmployeeHandler {
	return &EmployeeHandler{db: db, ids: ids, store: store, audit: audit}
}

// ======================================================
// REQUESTS
// ======================================================

type EmployeeRequest struct {
	FirstName  string   `json:"first_name"`
	LastName   string   `json:"last_name"`
	Position   string   `json:"position"`
	Email      string   `json:"email"`
	Phone      string   `json:"phone"`
	Address    string   `json:"address"`
	BirthDate  string   `json:"birth_date"`
	HireDate   string   `json:"hire_date"`
	SalaryRate *float64 `json:"salary_rate"`
	Status     string   `json:"status"`
}

func (r *EmployeeRequest) normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Phone = strings.TrimSpace(r.Phone)
	if r.Status == "" {
		r.Status = models.EmployeeActive
	}
}

func (r EmployeeRequest) validate() error {
	var errs validators.Errors
	errs.Required("first_name", r.FirstName)
	errs.Required("last_name", r.LastName)
	errs.Email("email", r.Email)
	errs.Phone("phone", r.Phone)
	errs.Date("birth_date", r.BirthDate)
	errs.Date("hire_date", r.HireDate)
	errs.NonNegative("salary_rate", r.SalaryRate)
	errs.OneOf("status", r.Status, models.EmployeeActive, models.EmployeeInactive, models.EmployeeOnLeave)
	return errs.Err()
}

func (r EmployeeRequest) apply(emp *models.Employee) {
	emp.FirstName = r.FirstName
	emp.LastName = r.LastName
	emp.Position = strings.TrimSpace(r.Position)
	emp.Email = r.Email
	emp.Phone = r.Phone
	emp.Address = strings.TrimSpace(r.Address)
	emp.BirthDate, _ = parseOptionalDate("birth_date", r.BirthDate)
	emp.HireDate, _ = parseOptionalDate("hire_date", r.HireDate)
	emp.SalaryRate = r.SalaryRate
	emp.Status = r.Status
}

// EmployeePatchRequest updates only the fields present in the body.
type EmployeePatchRequest struct {
	FirstName  *string  `json:"first_name"`
	LastName   *string  `json:"last_name"`
	Position   *string  `json:"position"`
	Email      *string  `json:"email"`
	Phone      *string  `json:"phone"`
	Address    *string  `json:"address"`
	BirthDate  *string  `json:"birth_date"`
	HireDate   *string  `json:"hire_date"`
	SalaryRate *float64 `json:"salary_rate"`
	Status     *string  `json:"status"`
}

func (p EmployeePatchRequest) merge(emp *models.Employee) EmployeeRequest {
	r := EmployeeRequest{
		FirstName:  emp.FirstName,
		LastName:   emp.LastName,
		Position:   emp.Position,
		Email:      emp.Email,
		Phone:      emp.Phone,
		Address:    emp.Address,
		BirthDate:  export.DatePtr(emp.BirthDate),
		HireDate:   export.DatePtr(emp.HireDate),
		SalaryRate: emp.SalaryRate,
		Status:     emp.Status,
	}

	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&r.FirstName, p.FirstName)
	set(&r.LastName, p.LastName)
	set(&r.Position, p.Position)
	set(&r.Email, p.Email)
	set(&r.Phone, p.Phone)
	set(&r.Address, p.Address)
	set(&r.BirthDate, p.BirthDate)
	set(&r.HireDate, p.HireDate)
	set(&r.Status, p.Status)
	if p.SalaryRate != nil {
		r.SalaryRate = p.SalaryRate
	}
	return r
}

// ======================================================
// HELPERS
// ======================================================

func (h *EmployeeHandler) find(c *gin.Context, barbershopID uint) (*models.Employee, bool) {
	var emp models.Employee
	err := h.db.WithContext(c.Request.Context()).
		Where("barbershop_id = ? AND business_id = ?", barbershopID, c.Param("employee_id")).
		First(&emp).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		httperr.NotFound(c, "employee_not_found", "Funcionário não encontrado.")
		return nil, false
	}
	if err != nil {
		respondError(c, err, "failed_to_get_employee", "Erro ao buscar funcionário.")
		return nil, false
	}
	return &emp, true
}

func (h *EmployeeHandler) emailTaken(c *gin.Context, barbershopID uint, email string, exceptID uint) (bool, error) {
	if email == "" {
		return false, nil
	}
	var count int64
	err := h.db.WithContext(c.Request.Context()).
		Model(&models.Employee{}).
		Where("barbershop_id = ? AND email = ? AND id <> ?", barbershopID, email, exceptID).
		Count(&count).Error
	return count > 0, err
}

func (h *EmployeeHandler) withPhoto(emp *models.Employee) *models.Employee {
	if h.store != nil && emp.PhotoKey != "" {
		emp.PhotoURL = h.store.URL(emp.PhotoKey)
	}
	return emp
}

// ======================================================
// LIST
// ======================================================

func (h *EmployeeHandler) List(c *gin.Context) {
	barbershopID, _ := scope(c)
	p := pagination.FromQuery(c)

	q := h.db.WithContext(c.Request.Context()).
		Model(&models.Employee{}).
		Where("barbershop_id = ?", barbershopID)

	if s := c.Query("q"); s != "" {
		like := likeQuery(s)
		q = q.Where(
			"LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(business_id) LIKE ? OR LOWER(email) LIKE ?",
			like, like, like, like,
		)
	}
	if position := c.Query("position"); position != "" {
		q = q.Where("position = ?", position)
	}
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		respondError(c, err, "failed_to_list_employees", "Erro ao listar funcionários.")
		return
	}

	var employees []models.Employee
	if err := q.Order("business_id ASC").Scopes(p.Scope).Find(&employees).Error; err != nil {
		respondError(c, err, "failed_to_list_employees", "Erro ao listar funcionários.")
		return
	}

	for i := range employees {
		h.withPhoto(&employees[i])
	}

	httpresp.Page(c, employees, p.Page, p.Limit, total)
}

// ======================================================
// GET
// ======================================================

func (h *EmployeeHandler) Get(c *gin.Context) {
	barbershopID, _ := scope(c)

	emp, ok := h.find(c, barbershopID)
	if !ok {
		return
	}

	httpresp.OK(c, h.withPhoto(emp))
}

// ======================================================
// NEXT ID (preview para o formulário)
// ======================================================

func (h *EmployeeHandler) NextID(c *gin.Context) {
	barbershopID, _ := scope(c)
	ctx := c.Request.Context()

	shop, err := loadShop(ctx, h.db, barbershopID)
	if err != nil {
		respondError(c, err, "failed_to_generate_id", "Erro ao gerar código.")
		return
	}

	id, err := h.ids.Peek(ctx, bizid.EntityEmployee, barbershopID, shopYear(shop))
	if err != nil {
		respondError(c, err, "failed_to_generate_id", "Erro ao gerar código.")
		return
	}

	httpresp.OK(c, gin.H{"employee_id": id})
}

// ======================================================
// CREATE
// ======================================================

func (h *EmployeeHandler) Create(c *gin.Context) {
	barbershopID, userID := scope(c)
	ctx := c.Request.Context()

	var req EmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}
	req.normalize()
	if err := req.validate(); err != nil {
		respondError(c, err, "", "")
		return
	}

	taken, err := h.emailTaken(c, barbershopID, req.Email, 0)
	if err != nil {
		respondError(c, err, "failed_to_create_employee", "Erro ao cadastrar funcionário.")
		return
	}
	if taken {
		httperr.Conflict(c, "email_already_exists", "Já existe um funcionário com este e-mail.")
		return
	}

	shop, err := loadShop(ctx, h.db, barbershopID)
	if err != nil {
		respondError(c, err, "failed_to_create_employee", "Erro ao cadastrar funcionário.")
		return
	}

	var emp models.Employee
	_, err = h.ids.Create(ctx, bizid.EntityEmployee, barbershopID, shopYear(shop), func(id string) error {
		emp = models.Employee{BarbershopID: barbershopID, BusinessID: id}
		req.apply(&emp)
		return h.db.WithContext(ctx).Create(&emp).Error
	})
	if err != nil {
		respondError(c, err, "failed_to_create_employee", "Erro ao cadastrar funcionário.")
		return
	}

	h.audit.Dispatch(audit.Event{
		BarbershopID: barbershopID,
		UserID:       &userID,
		Action:       "employee_created",
		Entity:       "employee",
		EntityID:     emp.BusinessID,
	})

	httpresp.Created(c, &emp)
}

// ======================================================
// UPDATE (PUT substitui, PATCH mescla)
// ======================================================

func (h *EmployeeHandler) Replace(c *gin.Context) {
	barbershopID, _ := scope(c)

	emp, ok := h.find(c, barbershopID)
	if !ok {
		return
	}

	var req EmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	h.save(c, emp, req)
}

func (h *EmployeeHandler) Patch(c *gin.Context) {
	barbershopID, _ := scope(c)

	emp, ok := h.find(c, barbershopID)
	if !ok {
		return
	}

	var patch EmployeePatchRequest
	if err := c.ShouldBindJSON(&patch); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	h.save(c, emp, patch.merge(emp))
}

func (h *EmployeeHandler) save(c *gin.Context, emp *models.Employee, req EmployeeRequest) {
	barbershopID, userID := scope(c)

	req.normalize()
	if err := req.validate(); err != nil {
		respondError(c, err, "", "")
		return
	}

	taken, err := h.emailTaken(c, barbershopID, req.Email, emp.ID)
	if err != nil {
		respondError(c, err, "failed_to_update_employee", "Erro ao salvar funcionário.")
		return
	}
	if taken {
		httperr.Conflict(c, "email_already_exists", "Já existe um funcionário com este e-mail.")
		return
	}

	req.apply(emp)

	if err := h.db.WithContext(c.Request.Context()).Save(emp).Error; err != nil {
		respondError(c, err, "failed_to_update_employee", "Erro ao salvar funcionário.")
		return
	}

	h.audit.Dispatch(audit.Event{
		BarbershopID: barbershopID,
		UserID:       &userID,
		Action:       "employee_updated",
		Entity:       "employee",
		EntityID:     emp.BusinessID,
	})

	httpresp.OK(c, h.withPhoto(emp))
}

// ======================================================
// DELETE
// ======================================================

func (h *EmployeeHandler) Delete(c *gin.Context) {
	barbershopID, userID := scope(c)
	ctx := c.Request.Context()

	emp, ok := h.find(c, barbershopID)
	if !ok {
		return
	}

	if err := h.db.WithContext(ctx).Delete(emp).Error; err != nil {
		respondError(c, err, "failed_to_delete_employee", "Erro ao excluir funcionário.")
		return
	}

	if h.store != nil && emp.PhotoKey != "" {
		_ = h.store.Delete(ctx, emp.PhotoKey)
	}

	h.audit.Dispatch(audit.Event{
		BarbershopID: barbershopID,
		UserID:       &userID,
		Action:       "employee_deleted",
		Entity:       "employee",
		EntityID:     emp.BusinessID,
	})

	c.Status(204)
}

// ======================================================
// PHOTO
// ======================================================

func (h *EmployeeHandler) UploadPhoto(c *gin.Context) {
	barbershopID, userID := scope(c)
	ctx := c.Request.Context()

	if h.store == nil {
		respondError(c, storage.ErrNotConfigured, "", "")
		return
	}

	emp, ok := h.find(c, barbershopID)
	if !ok {
		return
	}

	fh, err := c.FormFile("photo")
	if err != nil {
		httperr.BadRequest(c, "missing_photo", "Envie a imagem no campo \"photo\".")
		return
	}
	if fh.Size > imaging.MaxUploadBytes {
		respondError(c, imaging.ErrTooLarge, "", "")
		return
	}

	f, err := fh.Open()
	if err != nil {
		respondError(c, err, "failed_to_read_photo", "Erro ao ler a imagem.")
		return
	}
	defer f.Close()

	raw, err := io.ReadAll(io.LimitReader(f, imaging.MaxUploadBytes+1))
	if err != nil {
		respondError(c, err, "failed_to_read_photo", "Erro ao ler a imagem.")
		return
	}

	webp, err := imaging.ToWebP(raw, imaging.DefaultMaxSide)
	if err != nil {
		respondError(c, err, "failed_to_convert_photo", "Erro ao processar a imagem.")
		return
	}

	key := storage.NewKey("employees/"+emp.BusinessID, ".webp", time.Now())
	if _, err := h.store.Put(ctx, key, webp, imaging.ContentType); err != nil {
		respondError(c, err, "failed_to_store_photo", "Erro ao salvar a imagem.")
		return
	}

	previous := emp.PhotoKey
	emp.PhotoKey = key
	if err := h.db.WithContext(ctx).Model(emp).Update("photo_key", key).Error; err != nil {
		_ = h.store.Delete(ctx, key)
		respondError(c, err, "failed_to_update_employee", "Erro ao salvar funcionário.")
		return
	}
	if previous != "" {
		_ = h.store.Delete(ctx, previous)
	}

	h.audit.Dispatch(audit.Event{
		BarbershopID: barbershopID,
		UserID:       &userID,
		Action:       "employee_photo_updated",
		Entity:       "employee",
		EntityID:     emp.BusinessID,
	})

	httpresp.OK(c, h.withPhoto(emp))
}

// ======================================================
// EXPORT
// ======================================================

func (h *EmployeeHandler) Export(c *gin.Context) {
	barbershopID, _ := scope(c)

	var employees []models.Employee
	if err := h.db.WithContext(c.Request.Context()).
		Where("barbershop_id = ?", barbershopID).
		Order("business_id ASC").
		Find(&employees).Error; err != nil {
		respondError(c, err, "failed_to_export", "Erro ao exportar funcionários.")
		return
	}

	sendCSV(c, h.store, barbershopID, "employees", export.EmployeeColumns, employees)
}
