package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/barber-manager/internal/models"
)

type AppointmentListDTO struct {
	ID            uuid.UUID `json:"id"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	Status        string    `json:"status"`
	CustomerName  string    `json:"customer_name"`
	CustomerPhone string    `json:"customer_phone"`
	BarberID      string    `json:"barber_id"`
	Service       string    `json:"service"`
}

func NewAppointmentList(apps []models.Appointment) []AppointmentListDTO {
	out := make([]AppointmentListDTO, 0, len(apps))
	for _, ap := range apps {
		out = append(out, AppointmentListDTO{
			ID:            ap.ID,
			StartTime:     ap.StartTime,
			EndTime:       ap.EndTime,
			Status:        ap.Status,
			CustomerName:  ap.CustomerName,
			CustomerPhone: ap.CustomerPhone,
			BarberID:      ap.BarberID,
			Service:       ap.Service,
		})
	}
	return out
}
