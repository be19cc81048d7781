package appointment

import (
	"fmt"
	"time"

	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/models"
	"github.com/BruksfildServices01/barber-manager/internal/timezone"
)

const DefaultDurationMinutes = 30

func barberLockKey(barbershopID uint, barberID string) string {
	return fmt.Sprintf("appointment:%d:%s", barbershopID, barberID)
}

// parseSlot interprets date (YYYY-MM-DD) and hour (HH:MM) in the shop zone.
func parseSlot(shop *models.Barbershop, date, hour string, durationMin int) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(
		"2006-01-02 15:04",
		date+" "+hour,
		timezone.Location(shop.Timezone),
	)
	if err != nil {
		return time.Time{}, time.Time{}, httperr.ErrBusiness("invalid_date_or_time")
	}

	if durationMin == 0 {
		durationMin = DefaultDurationMinutes
	}
	if durationMin < 0 {
		return time.Time{}, time.Time{}, httperr.ErrBusiness("invalid_duration")
	}

	return start, start.Add(time.Duration(durationMin) * time.Minute), nil
}

func checkAdvance(shop *models.Barbershop, start time.Time) error {
	now := timezone.NowIn(shop.Timezone)
	if start.Before(now.Add(time.Duration(shop.MinAdvanceMinutes) * time.Minute)) {
		return httperr.ErrBusiness("too_soon")
	}
	return nil
}
