package appointment

import (
	"context"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/barber-manager/internal/audit"
	domain "github.com/BruksfildServices01/barber-manager/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/models"
	"github.com/BruksfildServices01/barber-manager/internal/timezone"
)

// --------------------------------------------------
// Paged list
// --------------------------------------------------

type ListAppointments struct {
	repo domain.Repository
}

func NewListAppointments(repo domain.Repository) *ListAppointments {
	return &ListAppointments{repo: repo}
}

func (uc *ListAppointments) Execute(
	ctx context.Context,
	filter domain.ListFilter,
) ([]models.Appointment, int64, error) {

	if filter.Status != "" && !domain.Status(filter.Status).Valid() {
		return nil, 0, httperr.ErrBusiness("invalid_status")
	}

	shop, err := uc.repo.GetBarbershopByID(ctx, filter.BarbershopID)
	if err != nil {
		return nil, 0, err
	}

	apps, total, err := uc.repo.ListAppointments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	domain.InLocation(apps, timezone.Location(shop.Timezone))

	return apps, total, nil
}

// --------------------------------------------------
// Get
// --------------------------------------------------

type GetAppointment struct {
	repo domain.Repository
}

func NewGetAppointment(repo domain.Repository) *GetAppointment {
	return &GetAppointment{repo: repo}
}

func (uc *GetAppointment) Execute(
	ctx context.Context,
	barbershopID uint,
	id uuid.UUID,
) (*models.Appointment, error) {
	return uc.repo.GetAppointment(ctx, barbershopID, id)
}

// --------------------------------------------------
// Delete
// --------------------------------------------------

type DeleteAppointment struct {
	repo  domain.Repository
	audit *audit.Dispatcher
}

func NewDeleteAppointment(repo domain.Repository, audit *audit.Dispatcher) *DeleteAppointment {
	return &DeleteAppointment{repo: repo, audit: audit}
}

func (uc *DeleteAppointment) Execute(
	ctx context.Context,
	barbershopID uint,
	userID uint,
	id uuid.UUID,
) error {

	if err := uc.repo.DeleteAppointment(ctx, barbershopID, id); err != nil {
		return err
	}

	uc.audit.Dispatch(audit.Event{
		BarbershopID: barbershopID,
		UserID:       &userID,
		Action:       "appointment_deleted",
		Entity:       "appointment",
		EntityID:     id.String(),
	})

	return nil
}
