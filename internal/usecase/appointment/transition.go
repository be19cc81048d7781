package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/barber-manager/internal/audit"
	domain "github.com/BruksfildServices01/barber-manager/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-manager/internal/models"
	"github.com/BruksfildServices01/barber-manager/internal/timezone"
)

// ChangeStatus applies one state-machine step (confirm, cancel or
// complete) and records it in the audit trail.
type ChangeStatus struct {
	repo   domain.Repository
	audit  *audit.Dispatcher
	apply  func(*models.Appointment, time.Time) error
	action string
}

func NewConfirmAppointment(repo domain.Repository, audit *audit.Dispatcher) *ChangeStatus {
	return &ChangeStatus{repo: repo, audit: audit, apply: domain.Confirm, action: "appointment_confirmed"}
}

func NewCancelAppointment(repo domain.Repository, audit *audit.Dispatcher) *ChangeStatus {
	return &ChangeStatus{repo: repo, audit: audit, apply: domain.Cancel, action: "appointment_cancelled"}
}

func NewCompleteAppointment(repo domain.Repository, audit *audit.Dispatcher) *ChangeStatus {
	return &ChangeStatus{repo: repo, audit: audit, apply: domain.Complete, action: "appointment_completed"}
}

func (uc *ChangeStatus) Execute(
	ctx context.Context,
	barbershopID uint,
	userID uint,
	appointmentID uuid.UUID,
) (*models.Appointment, error) {

	shop, err := uc.repo.GetBarbershopByID(ctx, barbershopID)
	if err != nil {
		return nil, err
	}

	ap, err := uc.repo.GetAppointment(ctx, barbershopID, appointmentID)
	if err != nil {
		return nil, err
	}

	from := ap.Status

	if err := uc.apply(ap, timezone.NowIn(shop.Timezone)); err != nil {
		return nil, err
	}

	if err := uc.repo.UpdateAppointment(ctx, ap); err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		BarbershopID: barbershopID,
		UserID:       &userID,
		Action:       uc.action,
		Entity:       "appointment",
		EntityID:     ap.ID.String(),
		Metadata: map[string]string{
			"from": from,
			"to":   ap.Status,
		},
	})

	return ap, nil
}
