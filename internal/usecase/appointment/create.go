package appointment

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/barber-manager/internal/audit"
	domain "github.com/BruksfildServices01/barber-manager/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-manager/internal/lock"
	"github.com/BruksfildServices01/barber-manager/internal/models"
	"github.com/BruksfildServices01/barber-manager/internal/validators"
)

// ======================================================
// INPUT
// ======================================================

type CreateAppointmentInput struct {
	BarbershopID uint
	UserID       uint

	CustomerName  string
	CustomerPhone string
	CustomerEmail string

	BarberID    string
	Service     string
	Date        string
	Time        string
	DurationMin int
	Notes       string
}

func (in CreateAppointmentInput) validate() error {
	var errs validators.Errors
	errs.Required("customer_name", in.CustomerName)
	errs.Required("customer_phone", in.CustomerPhone)
	errs.Phone("customer_phone", in.CustomerPhone)
	errs.Email("customer_email", in.CustomerEmail)
	errs.Required("barber_id", in.BarberID)
	errs.Required("date", in.Date)
	errs.Required("time", in.Time)
	errs.HourMinute("time", in.Time)
	errs.NonNegativeInt("duration_minutes", in.DurationMin)
	return errs.Err()
}

// ======================================================
// USE CASE
// ======================================================

type CreateAppointment struct {
	repo   domain.Repository
	locker lock.Locker
	audit  *audit.Dispatcher
}

func NewCreateAppointment(
	repo domain.Repository,
	locker lock.Locker,
	audit *audit.Dispatcher,
) *CreateAppointment {
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	return &CreateAppointment{
		repo:   repo,
		locker: locker,
		audit:  audit,
	}
}

// ======================================================
// EXECUTE
// ======================================================

func (uc *CreateAppointment) Execute(
	ctx context.Context,
	in CreateAppointmentInput,
) (*models.Appointment, error) {

	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerPhone = strings.TrimSpace(in.CustomerPhone)
	in.CustomerEmail = strings.TrimSpace(in.CustomerEmail)
	in.BarberID = strings.TrimSpace(in.BarberID)

	if err := in.validate(); err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// 1️⃣ Barbearia
	// --------------------------------------------------
	shop, err := uc.repo.GetBarbershopByID(ctx, in.BarbershopID)
	if err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// 2️⃣ Data / hora no timezone da barbearia
	// --------------------------------------------------
	start, end, err := parseSlot(shop, in.Date, in.Time, in.DurationMin)
	if err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// 3️⃣ Antecedência mínima
	// --------------------------------------------------
	if err := checkAdvance(shop, start); err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// 4️⃣ Barbeiro
	// --------------------------------------------------
	if _, err := uc.repo.GetBarber(ctx, in.BarbershopID, in.BarberID); err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// 5️⃣ Conflito de horário + criação (sob lock do barbeiro)
	// --------------------------------------------------
	unlock, err := uc.locker.Lock(ctx, barberLockKey(in.BarbershopID, in.BarberID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := uc.repo.AssertNoTimeConflict(
		ctx,
		in.BarbershopID,
		in.BarberID,
		start,
		end,
		uuid.Nil,
	); err != nil {
		return nil, err
	}

	ap := &models.Appointment{
		BarbershopID:  in.BarbershopID,
		CustomerName:  in.CustomerName,
		CustomerPhone: in.CustomerPhone,
		CustomerEmail: in.CustomerEmail,
		BarberID:      in.BarberID,
		Service:       strings.TrimSpace(in.Service),
		StartTime:     start,
		EndTime:       end,
		Status:        string(domain.InitialStatus()),
		Notes:         in.Notes,
	}

	if err := uc.repo.CreateAppointment(ctx, ap); err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// 6️⃣ Auditoria
	// --------------------------------------------------
	uc.audit.Dispatch(audit.Event{
		BarbershopID: in.BarbershopID,
		UserID:       &in.UserID,
		Action:       "appointment_created",
		Entity:       "appointment",
		EntityID:     ap.ID.String(),
	})

	return ap, nil
}
