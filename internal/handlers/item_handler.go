package handlers

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BruksfildServices01/barber-manager/internal/audit"
	"github.com/BruksfildServices01/barber-manager/internal/bizid"
	"github.com/BruksfildServices01/barber-manager/internal/domain/inventory"
	"github.com/BruksfildServices01/barber-manager/internal/export"
	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/httpresp"
	"github.com/BruksfildServices01/barber-manager/internal/infra/repository"
	"github.com/BruksfildServices01/barber-manager/internal/models"
	"github.com/BruksfildServices01/barber-manager/internal/pagination"
	"github.com/BruksfildServices01/barber-manager/internal/storage"
	"github.com/BruksfildServices01/barber-manager/internal/validators"
)

type ItemHandler struct {
	db    *gorm.DB
	ids   *repository.BusinessIDGormRepository
	store storage.Store
	audit *audit.Dispatcher
}

func NewItemHandler(
	db *gorm.DB,
	ids *repository.BusinessIDGormRepository,
	store storage.Store,
	audit *audit.Dispatcher,
) *ItemHandler {
	return &ItemHandler{db: db, ids: ids, store: store, audit: audit}
}

// --------- Requests ---------

type ItemRequest struct {
	Name           string   `json:"name"`
	Category       string   `json:"category"`
	Supplier       string   `json:"supplier"`
	Unit           string   `json:"unit"`
	Quantity       int      `json:"quantity"`
	ReorderLevel   int      `json:"reorder_level"`
	UnitPrice      *float64 `json:"unit_price"`
	ExpirationDate string   `json:"expiration_date"`
}

func (r *ItemRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Category = strings.TrimSpace(r.Category)
	r.Supplier = strings.TrimSpace(r.Supplier)
	r.Unit = strings.TrimSpace(r.Unit)
}

func (r ItemRequest) validate() error {
	var errs validators.Errors
	errs.Required("name", r.Name)
	errs.Required("unit", r.Unit)
	errs.NonNegativeInt("quantity", r.Quantity)
	errs.NonNegativeInt("reorder_level", r.ReorderLevel)
	errs.NonNegative("unit_price", r.UnitPrice)
	errs.Date("expiration_date", r.ExpirationDate)
	return errs.Err()
}

func (r ItemRequest) apply(it *models.Item) {
	it.Name = r.Name
	it.Category = r.Category
	it.Supplier = r.Supplier
	it.Unit = r.Unit
	it.Quantity = r.Quantity
	it.ReorderLevel = r.ReorderLevel
	it.UnitPrice = r.UnitPrice
	it.ExpirationDate, _ = parseOptionalDate("expiration_date", r.ExpirationDate)
}

type ItemPatchRequest struct {
	Name           *string  `json:"name"`
	Category       *string  `json:"category"`
	Supplier       *string  `json:"supplier"`
	Unit           *string  `json:"unit"`
	Quantity       *int     `json:"quantity"`
	ReorderLevel   *int     `json:"reorder_level"`
	UnitPrice      *float64 `json:"unit_price"`
	ExpirationDate *string  `json:"expiration_date"`
}

func (p ItemPatchRequest) merge(it *models.Item) ItemRequest {
	r := ItemRequest{
		Name:           it.Name,
		Category:       it.Category,
		Supplier:       it.Supplier,
		Unit:           it.Unit,
		Quantity:       it.Quantity,
		ReorderLevel:   it.ReorderLevel,
		UnitPrice:      it.UnitPrice,
		ExpirationDate: export.DatePtr(it.ExpirationDate),
	}
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.Category != nil {
		r.Category = *p.Category
	}
	if p.Supplier != nil {
		r.Supplier = *p.Supplier
	}
	if p.Unit != nil {
		r.Unit = *p.Unit
	}
	if p.Quantity != nil {
		r.Quantity = *p.Quantity
	}
	if p.ReorderLevel != nil {
		r.ReorderLevel = *p.ReorderLevel
	}
	if p.UnitPrice != nil {
		r.UnitPrice = p.UnitPrice
	}
	if p.ExpirationDate != nil {
		r.ExpirationDate = *p.ExpirationDate
	}
	return r
}

type StockAdjustRequest struct {
	Delta  int    `json:"delta"`
	Reason string `json:"reason"`
}

// --------- Helpers ---------

func (h *ItemHandler) find(c *gin.Context, barbershopID uint) (*models.Item, bool) {
	var it models.Item
	err := h.db.WithContext(c.Request.Context()).
		Where("barbershop_id = ? AND business_id = ?", barbershopID, c.Param("item_id")).
		First(&it).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		httperr.NotFound(c, "item_not_found", "Item não encontrado.")
		return nil, false
	}
	if err != nil {
		respondError(c, err, "failed_to_get_item", "Erro ao buscar item.")
		return nil, false
	}
	return &it, true
}

func (h *ItemHandler) nameTaken(c *gin.Context, barbershopID uint, name string, exceptID uint) (bool, error) {
	var count int64
	err := h.db.WithContext(c.Request.Context()).
		Model(&models.Item{}).
		Where("barbershop_id = ? AND LOWER(name) = ? AND id <> ?", barbershopID, strings.ToLower(name), exceptID).
		Count(&count).Error
	return count > 0, err
}

func (h *ItemHandler) dispatch(c *gin.Context, action string, it *models.Item, meta any) {
	barbershopID, userID := scope(c)
	h.audit.Dispatch(audit.Event{
		BarbershopID: barbershopID,
		UserID:       &userID,
		Action:       action,
		Entity:       "item",
		EntityID:     it.BusinessID,
		Metadata:     meta,
	})
}

// --------- Handlers ---------

func (h *ItemHandler) List(c *gin.Context) {
	barbershopID, _ := scope(c)
	p := pagination.FromQuery(c)

	q := h.db.WithContext(c.Request.Context()).
		Model(&models.Item{}).
		Where("barbershop_id = ?", barbershopID)

	if s := c.Query("q"); s != "" {
		like := likeQuery(s)
		q = q.Where("LOWER(name) LIKE ? OR LOWER(business_id) LIKE ?", like, like)
	}
	if category := c.Query("category"); category != "" {
		q = q.Where("category = ?", category)
	}
	if supplier := c.Query("supplier"); supplier != "" {
		q = q.Where("supplier = ?", supplier)
	}
	if c.Query("low_stock") == "true" {
		q = q.Where("quantity <= reorder_level")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		respondError(c, err, "failed_to_list_items", "Erro ao listar itens.")
		return
	}

	var items []models.Item
	if err := q.Order("business_id ASC").Scopes(p.Scope).Find(&items).Error; err != nil {
		respondError(c, err, "failed_to_list_items", "Erro ao listar itens.")
		return
	}

	httpresp.Page(c, items, p.Page, p.Limit, total)
}

func (h *ItemHandler) Get(c *gin.Context) {
	barbershopID, _ := scope(c)

	it, ok := h.find(c, barbershopID)
	if !ok {
		return
	}
	httpresp.OK(c, it)
}

func (h *ItemHandler) NextID(c *gin.Context) {
	barbershopID, _ := scope(c)
	ctx := c.Request.Context()

	shop, err := loadShop(ctx, h.db, barbershopID)
	if err != nil {
		respondError(c, err, "failed_to_generate_id", "Erro ao gerar código.")
		return
	}

	id, err := h.ids.Peek(ctx, bizid.EntityItem, barbershopID, shopYear(shop))
	if err != nil {
		respondError(c, err, "failed_to_generate_id", "Erro ao gerar código.")
		return
	}

	httpresp.OK(c, gin.H{"item_id": id})
}

func (h *ItemHandler) Create(c *gin.Context) {
	barbershopID, _ := scope(c)
	ctx := c.Request.Context()

	var req ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}
	req.normalize()
	if err := req.validate(); err != nil {
		respondError(c, err, "", "")
		return
	}

	taken, err := h.nameTaken(c, barbershopID, req.Name, 0)
	if err != nil {
		respondError(c, err, "failed_to_create_item", "Erro ao cadastrar item.")
		return
	}
	if taken {
		httperr.Conflict(c, "item_already_exists", "Já existe um item com este nome.")
		return
	}

	shop, err := loadShop(ctx, h.db, barbershopID)
	if err != nil {
		respondError(c, err, "failed_to_create_item", "Erro ao cadastrar item.")
		return
	}

	var it models.Item
	_, err = h.ids.Create(ctx, bizid.EntityItem, barbershopID, shopYear(shop), func(id string) error {
		it = models.Item{BarbershopID: barbershopID, BusinessID: id}
		req.apply(&it)
		return h.db.WithContext(ctx).Create(&it).Error
	})
	if err != nil {
		respondError(c, err, "failed_to_create_item", "Erro ao cadastrar item.")
		return
	}

	h.dispatch(c, "item_created", &it, nil)
	httpresp.Created(c, &it)
}

func (h *ItemHandler) Replace(c *gin.Context) {
	barbershopID, _ := scope(c)

	it, ok := h.find(c, barbershopID)
	if !ok {
		return
	}

	var req ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	h.save(c, it, req)
}

func (h *ItemHandler) Patch(c *gin.Context) {
	barbershopID, _ := scope(c)

	it, ok := h.find(c, barbershopID)
	if !ok {
		return
	}

	var patch ItemPatchRequest
	if err := c.ShouldBindJSON(&patch); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	h.save(c, it, patch.merge(it))
}

func (h *ItemHandler) save(c *gin.Context, it *models.Item, req ItemRequest) {
	barbershopID, _ := scope(c)

	req.normalize()
	if err := req.validate(); err != nil {
		respondError(c, err, "", "")
		return
	}

	taken, err := h.nameTaken(c, barbershopID, req.Name, it.ID)
	if err != nil {
		respondError(c, err, "failed_to_update_item", "Erro ao salvar item.")
		return
	}
	if taken {
		httperr.Conflict(c, "item_already_exists", "Já existe um item com este nome.")
		return
	}

	req.apply(it)

	if err := h.db.WithContext(c.Request.Context()).Save(it).Error; err != nil {
		respondError(c, err, "failed_to_update_item", "Erro ao salvar item.")
		return
	}

	h.dispatch(c, "item_updated", it, nil)
	httpresp.OK(c, it)
}

// AdjustStock applies a signed delta under a row lock.
func (h *ItemHandler) AdjustStock(c *gin.Context) {
	barbershopID, _ := scope(c)

	var req StockAdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	var it models.Item
	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("barbershop_id = ? AND business_id = ?", barbershopID, c.Param("item_id")).
			First(&it).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httperr.ErrBusiness("item_not_found")
		}
		if err != nil {
			return err
		}

		if err := inventory.Adjust(&it, req.Delta); err != nil {
			return err
		}

		return tx.Model(&it).Update("quantity", it.Quantity).Error
	})
	if err != nil {
		respondError(c, err, "failed_to_adjust_stock", "Erro ao ajustar estoque.")
		return
	}

	h.dispatch(c, "item_stock_adjusted", &it, map[string]any{
		"delta":    req.Delta,
		"reason":   strings.TrimSpace(req.Reason),
		"quantity": it.Quantity,
	})

	httpresp.OK(c, gin.H{
		"item":      it,
		"low_stock": it.LowStock(),
	})
}

func (h *ItemHandler) Delete(c *gin.Context) {
	barbershopID, _ := scope(c)

	it, ok := h.find(c, barbershopID)
	if !ok {
		return
	}

	if err := h.db.WithContext(c.Request.Context()).Delete(it).Error; err != nil {
		respondError(c, err, "failed_to_delete_item", "Erro ao excluir item.")
		return
	}

	h.dispatch(c, "item_deleted", it, nil)
	c.Status(204)
}

func (h *ItemHandler) Export(c *gin.Context) {
	barbershopID, _ := scope(c)

	var items []models.Item
	if err := h.db.WithContext(c.Request.Context()).
		Where("barbershop_id = ?", barbershopID).
		Order("business_id ASC").
		Find(&items).Error; err != nil {
		respondError(c, err, "failed_to_export", "Erro ao exportar itens.")
		return
	}

	sendCSV(c, h.store, barbershopID, "items", export.ItemColumns, items)
}
