package appointment

import (
	"context"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/barber-manager/internal/audit"
	domain "github.com/BruksfildServices01/barber-manager/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-manager/internal/export"
	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/models"
	"github.com/BruksfildServices01/barber-manager/internal/validators"
)

// ======================================================
// In-memory repository
// ======================================================

type memRepo struct {
	mu      sync.Mutex
	shop    models.Barbershop
	barbers map[string]bool
	apps    map[uuid.UUID]models.Appointment
}

func newMemRepo() *memRepo {
	return &memRepo{
		shop:    models.Barbershop{ID: 1, Name: "Navalha", Timezone: "UTC"},
		barbers: map[string]bool{"MSB-2025-0001": true, "MSB-2025-0002": true},
		apps:    map[uuid.UUID]models.Appointment{},
	}
}

func (r *memRepo) GetBarbershopByID(_ context.Context, id uint) (*models.Barbershop, error) {
	if id != r.shop.ID {
		return nil, httperr.ErrBusiness("barbershop_not_found")
	}
	shop := r.shop
	return &shop, nil
}

func (r *memRepo) GetBarber(_ context.Context, _ uint, barberID string) (*models.Employee, error) {
	if !r.barbers[barberID] {
		return nil, httperr.ErrBusiness("barber_not_found")
	}
	return &models.Employee{BusinessID: barberID}, nil
}

func (r *memRepo) CreateAppointment(_ context.Context, ap *models.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ap.ID = uuid.New()
	r.apps[ap.ID] = *ap
	return nil
}

func (r *memRepo) AssertNoTimeConflict(
	_ context.Context,
	_ uint,
	barberID string,
	start, end time.Time,
	exclude uuid.UUID,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, ap := range r.apps {
		if id == exclude || ap.BarberID != barberID || !domain.Status(ap.Status).Open() {
			continue
		}
		if domain.Overlaps(start, end, ap.StartTime, ap.EndTime) {
			return httperr.ErrBusiness("time_conflict")
		}
	}
	return nil
}

func (r *memRepo) GetAppointment(_ context.Context, _ uint, id uuid.UUID) (*models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ap, ok := r.apps[id]
	if !ok {
		return nil, httperr.ErrBusiness("appointment_not_found")
	}
	return &ap, nil
}

func (r *memRepo) UpdateAppointment(_ context.Context, ap *models.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.apps[ap.ID] = *ap
	return nil
}

func (r *memRepo) DeleteAppointment(_ context.Context, _ uint, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.apps[id]; !ok {
		return httperr.ErrBusiness("appointment_not_found")
	}
	delete(r.apps, id)
	return nil
}

func (r *memRepo) ListAppointmentsForPeriod(
	_ context.Context,
	_ uint,
	barberID string,
	start, end time.Time,
) ([]models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Appointment
	for _, ap := range r.apps {
		if barberID != "" && ap.BarberID != barberID {
			continue
		}
		if !ap.StartTime.Before(start) && ap.StartTime.Before(end) {
			out = append(out, ap)
		}
	}
	return out, nil
}

func (r *memRepo) ListAppointments(_ context.Context, f domain.ListFilter) ([]models.Appointment, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Appointment
	for _, ap := range r.apps {
		if f.Status == "" || ap.Status == f.Status {
			out = append(out, ap)
		}
	}
	return out, int64(len(out)), nil
}

type nopSink struct{}

func (nopSink) Log(audit.Event) error { return nil }

func newAudit(t *testing.T) *audit.Dispatcher {
	d := audit.NewDispatcher(nopSink{})
	t.Cleanup(d.Close)
	return d
}

func booking(hour string) CreateAppointmentInput {
	return CreateAppointmentInput{
		BarbershopID:  1,
		UserID:        7,
		CustomerName:  "João Silva",
		CustomerPhone: "+55 11 98888-7777",
		BarberID:      "MSB-2025-0001",
		Service:       "Corte",
		Date:          "2099-03-10",
		Time:          hour,
	}
}

// ======================================================
// Create
// ======================================================

func TestCreateAppointmentDefaults(t *testing.T) {
	uc := NewCreateAppointment(newMemRepo(), nil, newAudit(t))

	ap, err := uc.Execute(context.Background(), booking("10:00"))
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, ap.ID)
	assert.Equal(t, string(domain.StatusPending), ap.Status)
	assert.Equal(t, time.Date(2099, 3, 10, 10, 0, 0, 0, time.UTC), ap.StartTime.UTC())
	assert.Equal(t, DefaultDurationMinutes*time.Minute, ap.EndTime.Sub(ap.StartTime))
}

func TestCreateAppointmentValidation(t *testing.T) {
	uc := NewCreateAppointment(newMemRepo(), nil, newAudit(t))

	in := booking("10:00")
	in.CustomerName = " "
	in.CustomerPhone = "abc"
	in.Time = "25:00"

	_, err := uc.Execute(context.Background(), in)

	var verrs validators.Errors
	require.ErrorAs(t, err, &verrs)

	fields := map[string]bool{}
	for _, fe := range verrs {
		fields[fe.Field] = true
	}
	assert.True(t, fields["customer_name"])
	assert.True(t, fields["customer_phone"])
	assert.True(t, fields["time"])
}

func TestCreateAppointmentRejects(t *testing.T) {
	tests := []struct {
		name string
		edit func(*CreateAppointmentInput)
		code string
	}{
		{"unknown barber", func(in *CreateAppointmentInput) { in.BarberID = "MSB-2025-0099" }, "barber_not_found"},
		{"bad date", func(in *CreateAppointmentInput) { in.Date = "10/03/2099" }, "invalid_date_or_time"},
		{"in the past", func(in *CreateAppointmentInput) { in.Date = "2001-01-01" }, "too_soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := NewCreateAppointment(newMemRepo(), nil, newAudit(t))
			in := booking("10:00")
			tt.edit(&in)

			_, err := uc.Execute(context.Background(), in)
			assert.True(t, httperr.IsBusiness(err, tt.code), "got %v", err)
		})
	}
}

func TestCreateAppointmentConflicts(t *testing.T) {
	repo := newMemRepo()
	uc := NewCreateAppointment(repo, nil, newAudit(t))
	ctx := context.Background()

	_, err := uc.Execute(ctx, booking("10:00"))
	require.NoError(t, err)

	_, err = uc.Execute(ctx, booking("10:15"))
	assert.True(t, httperr.IsBusiness(err, "time_conflict"))

	// back-to-back is fine
	_, err = uc.Execute(ctx, booking("10:30"))
	assert.NoError(t, err)

	// another barber is not affected
	other := booking("10:00")
	other.BarberID = "MSB-2025-0002"
	_, err = uc.Execute(ctx, other)
	assert.NoError(t, err)
}

func TestCreateAppointmentSerializesSameSlot(t *testing.T) {
	repo := newMemRepo()
	uc := NewCreateAppointment(repo, nil, newAudit(t))

	const n = 12
	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := uc.Execute(context.Background(), booking("14:00")); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Len(t, repo.apps, 1)
}

// ======================================================
// Status changes
// ======================================================

func TestStatusTransitions(t *testing.T) {
	repo := newMemRepo()
	aud := newAudit(t)
	ctx := context.Background()

	ap, err := NewCreateAppointment(repo, nil, aud).Execute(ctx, booking("09:00"))
	require.NoError(t, err)

	confirmed, err := NewConfirmAppointment(repo, aud).Execute(ctx, 1, 7, ap.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusConfirmed), confirmed.Status)
	assert.NotNil(t, confirmed.ConfirmedAt)

	completed, err := NewCompleteAppointment(repo, aud).Execute(ctx, 1, 7, ap.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCompleted), completed.Status)

	_, err = NewCancelAppointment(repo, aud).Execute(ctx, 1, 7, ap.ID)
	assert.True(t, httperr.IsBusiness(err, "invalid_state"))

	_, err = NewConfirmAppointment(repo, aud).Execute(ctx, 1, 7, uuid.New())
	assert.True(t, httperr.IsBusiness(err, "appointment_not_found"))
}

func TestCancelledSlotCanBeRebooked(t *testing.T) {
	repo := newMemRepo()
	aud := newAudit(t)
	ctx := context.Background()

	ap, err := NewCreateAppointment(repo, nil, aud).Execute(ctx, booking("11:00"))
	require.NoError(t, err)

	_, err = NewCancelAppointment(repo, aud).Execute(ctx, 1, 7, ap.ID)
	require.NoError(t, err)

	_, err = NewCreateAppointment(repo, nil, aud).Execute(ctx, booking("11:00"))
	assert.NoError(t, err)
}

// ======================================================
// Update / reschedule
// ======================================================

func TestUpdateAppointmentReschedule(t *testing.T) {
	repo := newMemRepo()
	aud := newAudit(t)
	ctx := context.Background()
	create := NewCreateAppointment(repo, nil, aud)
	update := NewUpdateAppointment(repo, nil, aud)

	first, err := create.Execute(ctx, booking("10:00"))
	require.NoError(t, err)
	_, err = create.Execute(ctx, booking("11:00"))
	require.NoError(t, err)

	// overlapping itself only is allowed
	hour := "10:10"
	moved, err := update.Execute(ctx, UpdateAppointmentInput{
		BarbershopID: 1, UserID: 7, AppointmentID: first.ID, Time: &hour,
	})
	require.NoError(t, err)
	assert.Equal(t, 10, moved.StartTime.Hour())
	assert.Equal(t, 10, moved.StartTime.Minute())
	assert.Equal(t, 30*time.Minute, moved.EndTime.Sub(moved.StartTime))

	hour = "10:45"
	_, err = update.Execute(ctx, UpdateAppointmentInput{
		BarbershopID: 1, UserID: 7, AppointmentID: first.ID, Time: &hour,
	})
	assert.True(t, httperr.IsBusiness(err, "time_conflict"))

	notes := "cliente prefere máquina 2"
	noted, err := update.Execute(ctx, UpdateAppointmentInput{
		BarbershopID: 1, UserID: 7, AppointmentID: first.ID, Notes: &notes,
	})
	require.NoError(t, err)
	assert.Equal(t, notes, noted.Notes)
}

func TestUpdateClosedAppointmentCannotMove(t *testing.T) {
	repo := newMemRepo()
	aud := newAudit(t)
	ctx := context.Background()

	ap, err := NewCreateAppointment(repo, nil, aud).Execute(ctx, booking("15:00"))
	require.NoError(t, err)
	_, err = NewCancelAppointment(repo, aud).Execute(ctx, 1, 7, ap.ID)
	require.NoError(t, err)

	date := "2099-03-11"
	_, err = NewUpdateAppointment(repo, nil, aud).Execute(ctx, UpdateAppointmentInput{
		BarbershopID: 1, AppointmentID: ap.ID, Date: &date,
	})
	assert.True(t, httperr.IsBusiness(err, "invalid_state"))
}

// ======================================================
// Listing
// ======================================================

func TestListByDateAndMonth(t *testing.T) {
	repo := newMemRepo()
	aud := newAudit(t)
	ctx := context.Background()
	create := NewCreateAppointment(repo, nil, aud)

	_, err := create.Execute(ctx, booking("09:00"))
	require.NoError(t, err)
	next := booking("09:00")
	next.Date = "2099-03-11"
	_, err = create.Execute(ctx, next)
	require.NoError(t, err)
	april := booking("09:00")
	april.Date = "2099-04-01"
	_, err = create.Execute(ctx, april)
	require.NoError(t, err)

	day, err := NewListAppointmentsByDate(repo).Execute(ctx, 1, "", time.Date(2099, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, day, 1)

	month, err := NewListAppointmentsByMonth(repo).Execute(ctx, 1, "MSB-2025-0001", 2099, 3)
	require.NoError(t, err)
	assert.Len(t, month, 2)

	_, err = NewListAppointmentsByMonth(repo).Execute(ctx, 1, "", 2099, 13)
	assert.True(t, httperr.IsBusiness(err, "invalid_period"))

	_, _, err = NewListAppointments(repo).Execute(ctx, domain.ListFilter{BarbershopID: 1, Status: "lost"})
	assert.True(t, httperr.IsBusiness(err, "invalid_status"))
}

func TestListAppointmentsUsesShopTimezone(t *testing.T) {
	repo := newMemRepo()
	repo.shop.Timezone = "America/Sao_Paulo"
	aud := newAudit(t)
	ctx := context.Background()

	ap, err := NewCreateAppointment(repo, nil, aud).Execute(ctx, booking("14:00"))
	require.NoError(t, err)

	// gravado como o driver devolve: UTC
	stored := repo.apps[ap.ID]
	stored.StartTime = stored.StartTime.UTC()
	stored.EndTime = stored.EndTime.UTC()
	repo.apps[ap.ID] = stored
	assert.Equal(t, 17, stored.StartTime.Hour())

	apps, _, err := NewListAppointments(repo).Execute(ctx, domain.ListFilter{BarbershopID: 1, Limit: -1})
	require.NoError(t, err)
	require.Len(t, apps, 1)

	csv, err := export.Bytes(export.AppointmentColumns, apps)
	require.NoError(t, err)
	assert.Contains(t, string(csv), "2099-03-10 14:00,2099-03-10 14:30")
}

func TestDeleteAppointment(t *testing.T) {
	repo := newMemRepo()
	aud := newAudit(t)
	ctx := context.Background()

	ap, err := NewCreateAppointment(repo, nil, aud).Execute(ctx, booking("16:00"))
	require.NoError(t, err)

	require.NoError(t, NewDeleteAppointment(repo, aud).Execute(ctx, 1, 7, ap.ID))

	err = NewDeleteAppointment(repo, aud).Execute(ctx, 1, 7, ap.ID)
	assert.True(t, httperr.IsBusiness(err, "appointment_not_found"))
}
