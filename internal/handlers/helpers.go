package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-manager/internal/export"
	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/httpresp"
	"github.com/BruksfildServices01/barber-manager/internal/middleware"
	"github.com/BruksfildServices01/barber-manager/internal/models"
	"github.com/BruksfildServices01/barber-manager/internal/storage"
	"github.com/BruksfildServices01/barber-manager/internal/timezone"
)

// --------------------------------------------------
// Contexto da requisição
// --------------------------------------------------

func scope(c *gin.Context) (barbershopID uint, userID uint) {
	return c.MustGet(middleware.ContextBarbershopID).(uint),
		c.MustGet(middleware.ContextUserID).(uint)
}

func loadShop(ctx context.Context, db *gorm.DB, id uint) (*models.Barbershop, error) {
	var shop models.Barbershop
	err := db.WithContext(ctx).First(&shop, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, httperr.ErrBusiness("barbershop_not_found")
	}
	if err != nil {
		return nil, err
	}
	return &shop, nil
}

// shopYear is the calendar year used in business IDs (MSB-<year>-NNNN).
func shopYear(shop *models.Barbershop) int {
	return timezone.NowIn(shop.Timezone).Year()
}

// --------------------------------------------------
// Datas
// --------------------------------------------------

func parseDateInShop(shop *models.Barbershop, s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, timezone.Location(shop.Timezone))
}

// parseOptionalDate treats "" as no value.
func parseOptionalDate(field, s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return &t, nil
}

func likeQuery(q string) string {
	return "%" + strings.ToLower(strings.TrimSpace(q)) + "%"
}

// --------------------------------------------------
// Exportação CSV
// --------------------------------------------------

// sendCSV streams rows as an attachment, or with ?store=true uploads the
// file to object storage and returns the stored object.
func sendCSV[T any](
	c *gin.Context,
	store storage.Store,
	barbershopID uint,
	entity string,
	columns []export.Column[T],
	rows []T,
) {
	data, err := export.Bytes(columns, rows)
	if err != nil {
		respondError(c, err, "export_failed", "Erro ao gerar o arquivo.")
		return
	}

	now := time.Now()
	filename := export.Filename(entity, now)

	if c.Query("store") != "true" {
		c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
		c.Data(200, export.ContentType, data)
		return
	}

	if store == nil {
		respondError(c, storage.ErrNotConfigured, "export_failed", "")
		return
	}

	key := storage.NewKey(fmt.Sprintf("exports/%d/%s", barbershopID, entity), ".csv", now)
	obj, err := store.Put(c.Request.Context(), key, data, export.ContentType)
	if err != nil {
		respondError(c, err, "export_upload_failed", "Erro ao enviar o arquivo.")
		return
	}

	httpresp.Created(c, obj)
}
