package appointment

import (
	"time"

	"github.com/BruksfildServices01/barber-manager/internal/models"
)

// ===============================
// Domain Actions
// ===============================

func Confirm(ap *models.Appointment, now time.Time) error {
	if err := CanConfirm(Status(ap.Status)); err != nil {
		return err
	}

	ap.Status = string(StatusConfirmed)
	ap.ConfirmedAt = &now
	return nil
}

func Cancel(ap *models.Appointment, now time.Time) error {
	if err := CanCancel(Status(ap.Status)); err != nil {
		return err
	}

	ap.Status = string(StatusCancelled)
	ap.CancelledAt = &now
	return nil
}

func Complete(ap *models.Appointment, now time.Time) error {
	if err := CanComplete(Status(ap.Status)); err != nil {
		return err
	}

	ap.Status = string(StatusCompleted)
	ap.CompletedAt = &now
	return nil
}

// Overlaps uses half-open intervals: back-to-back slots do not collide.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// InLocation rewrites start/end into loc. The driver hands times back in
// UTC, while the shop reads them in its own zone.
func InLocation(apps []models.Appointment, loc *time.Location) {
	for i := range apps {
		apps[i].StartTime = apps[i].StartTime.In(loc)
		apps[i].EndTime = apps[i].EndTime.In(loc)
	}
}
