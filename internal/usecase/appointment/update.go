package appointment

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/barber-manager/internal/audit"
	domain "github.com/BruksfildServices01/barber-manager/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-manager/internal/lock"
	"github.com/BruksfildServices01/barber-manager/internal/models"
	"github.com/BruksfildServices01/barber-manager/internal/timezone"
	"github.com/BruksfildServices01/barber-manager/internal/validators"
)

// UpdateAppointmentInput carries a partial update; nil fields are kept.
// Changing Date, Time, DurationMin or BarberID reschedules the slot.
type UpdateAppointmentInput struct {
	BarbershopID  uint
	UserID        uint
	AppointmentID uuid.UUID

	CustomerName  *string
	CustomerPhone *string
	CustomerEmail *string
	Service       *string
	Notes         *string

	BarberID    *string
	Date        *string
	Time        *string
	DurationMin *int
}

func (in UpdateAppointmentInput) reschedules() bool {
	return in.BarberID != nil || in.Date != nil || in.Time != nil || in.DurationMin != nil
}

func (in UpdateAppointmentInput) validate() error {
	var errs validators.Errors
	if in.CustomerName != nil {
		errs.Required("customer_name", *in.CustomerName)
	}
	if in.CustomerPhone != nil {
		errs.Required("customer_phone", *in.CustomerPhone)
		errs.Phone("customer_phone", *in.CustomerPhone)
	}
	if in.CustomerEmail != nil {
		errs.Email("customer_email", *in.CustomerEmail)
	}
	if in.BarberID != nil {
		errs.Required("barber_id", *in.BarberID)
	}
	if in.Time != nil {
		errs.HourMinute("time", *in.Time)
	}
	if in.DurationMin != nil {
		errs.NonNegativeInt("duration_minutes", *in.DurationMin)
	}
	return errs.Err()
}

type UpdateAppointment struct {
	repo   domain.Repository
	locker lock.Locker
	audit  *audit.Dispatcher
}

func NewUpdateAppointment(
	repo domain.Repository,
	locker lock.Locker,
	audit *audit.Dispatcher,
) *UpdateAppointment {
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	return &UpdateAppointment{
		repo:   repo,
		locker: locker,
		audit:  audit,
	}
}

func (uc *UpdateAppointment) Execute(
	ctx context.Context,
	in UpdateAppointmentInput,
) (*models.Appointment, error) {

	if err := in.validate(); err != nil {
		return nil, err
	}

	shop, err := uc.repo.GetBarbershopByID(ctx, in.BarbershopID)
	if err != nil {
		return nil, err
	}

	ap, err := uc.repo.GetAppointment(ctx, in.BarbershopID, in.AppointmentID)
	if err != nil {
		return nil, err
	}

	if in.CustomerName != nil {
		ap.CustomerName = strings.TrimSpace(*in.CustomerName)
	}
	if in.CustomerPhone != nil {
		ap.CustomerPhone = strings.TrimSpace(*in.CustomerPhone)
	}
	if in.CustomerEmail != nil {
		ap.CustomerEmail = strings.TrimSpace(*in.CustomerEmail)
	}
	if in.Service != nil {
		ap.Service = strings.TrimSpace(*in.Service)
	}
	if in.Notes != nil {
		ap.Notes = *in.Notes
	}

	if !in.reschedules() {
		if err := uc.repo.UpdateAppointment(ctx, ap); err != nil {
			return nil, err
		}
		uc.dispatch(in, ap, "appointment_updated")
		return ap, nil
	}

	// --------------------------------------------------
	// Reagendamento
	// --------------------------------------------------
	if err := domain.CanReschedule(domain.Status(ap.Status)); err != nil {
		return nil, err
	}

	local := ap.StartTime.In(timezone.Location(shop.Timezone))
	date := local.Format("2006-01-02")
	hour := local.Format("15:04")
	duration := int(ap.EndTime.Sub(ap.StartTime).Minutes())
	barberID := ap.BarberID

	if in.Date != nil {
		date = *in.Date
	}
	if in.Time != nil {
		hour = *in.Time
	}
	if in.DurationMin != nil {
		duration = *in.DurationMin
	}
	if in.BarberID != nil {
		barberID = strings.TrimSpace(*in.BarberID)
	}

	start, end, err := parseSlot(shop, date, hour, duration)
	if err != nil {
		return nil, err
	}
	if err := checkAdvance(shop, start); err != nil {
		return nil, err
	}

	if barberID != ap.BarberID {
		if _, err := uc.repo.GetBarber(ctx, in.BarbershopID, barberID); err != nil {
			return nil, err
		}
	}

	unlock, err := uc.locker.Lock(ctx, barberLockKey(in.BarbershopID, barberID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := uc.repo.AssertNoTimeConflict(
		ctx,
		in.BarbershopID,
		barberID,
		start,
		end,
		ap.ID,
	); err != nil {
		return nil, err
	}

	ap.BarberID = barberID
	ap.StartTime = start
	ap.EndTime = end

	if err := uc.repo.UpdateAppointment(ctx, ap); err != nil {
		return nil, err
	}

	uc.dispatch(in, ap, "appointment_rescheduled")
	return ap, nil
}

func (uc *UpdateAppointment) dispatch(in UpdateAppointmentInput, ap *models.Appointment, action string) {
	uc.audit.Dispatch(audit.Event{
		BarbershopID: in.BarbershopID,
		UserID:       &in.UserID,
		Action:       action,
		Entity:       "appointment",
		EntityID:     ap.ID.String(),
	})
}
