package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-manager/internal/bizid"
	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/lock"
	"github.com/BruksfildServices01/barber-manager/internal/models"
)

// IsBusinessIDConflict matches only the (barbershop_id, business_id)
// unique indexes, so other unique hits are not retried.
func IsBusinessIDConflict(err error) bool {
	return httperr.IsUniqueViolation(err) &&
		strings.Contains(httperr.ConstraintName(err), "business_id")
}

type BusinessIDGormRepository struct {
	db      *gorm.DB
	alloc   *bizid.Allocator
	catalog bizid.Catalog
}

func NewBusinessIDGormRepository(
	db *gorm.DB,
	locker lock.Locker,
	catalog bizid.Catalog,
) *BusinessIDGormRepository {
	return &BusinessIDGormRepository{
		db:      db,
		alloc:   bizid.NewAllocator(locker, IsBusinessIDConflict),
		catalog: catalog,
	}
}

func modelFor(entity string) (any, error) {
	switch entity {
	case bizid.EntityEmployee:
		return &models.Employee{}, nil
	case bizid.EntityItem:
		return &models.Item{}, nil
	case bizid.EntityPayroll:
		return &models.PayrollEntry{}, nil
	}
	return nil, fmt.Errorf("no business id table for %q", entity)
}

func (r *BusinessIDGormRepository) source(entity string, barbershopID uint) (bizid.Source, error) {
	model, err := modelFor(entity)
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context, pattern string) ([]string, error) {
		var ids []string
		err := r.db.WithContext(ctx).
			Model(model).
			Where("barbershop_id = ? AND business_id LIKE ?", barbershopID, pattern+"%").
			Pluck("business_id", &ids).Error
		return ids, err
	}, nil
}

// --------------------------------------------------
// Preview
// --------------------------------------------------

func (r *BusinessIDGormRepository) Peek(
	ctx context.Context,
	entity string,
	barbershopID uint,
	year int,
) (string, error) {

	scheme, err := r.catalog.Scheme(entity)
	if err != nil {
		return "", err
	}
	src, err := r.source(entity, barbershopID)
	if err != nil {
		return "", err
	}
	return r.alloc.Peek(ctx, scheme, year, src)
}

// --------------------------------------------------
// Allocation
// --------------------------------------------------

// Create reserves the next ID and hands it to create, which must insert
// the row. create may be called again with a fresh ID on a collision.
func (r *BusinessIDGormRepository) Create(
	ctx context.Context,
	entity string,
	barbershopID uint,
	year int,
	create func(id string) error,
) (string, error) {

	scheme, err := r.catalog.Scheme(entity)
	if err != nil {
		return "", err
	}
	src, err := r.source(entity, barbershopID)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("bizid:%s:%d", entity, barbershopID)
	return r.alloc.Allocate(ctx, key, scheme, year, src, create)
}
