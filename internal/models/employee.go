package models

import "time"

const (
	EmployeeActive   = "active"
	EmployeeInactive = "inactive"
	EmployeeOnLeave  = "on_leave"
)

// Employee é o cadastro de funcionários; BusinessID é o código exibido
// (MSB-2025-0001), distinto da chave primária.
type Employee struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	BarbershopID uint   `gorm:"uniqueIndex:idx_employees_shop_business_id;not null" json:"barbershop_id"`
	BusinessID   string `gorm:"size:32;uniqueIndex:idx_employees_shop_business_id;not null" json:"employee_id"`

	FirstName string `gorm:"size:100;not null" json:"first_name"`
	LastName  string `gorm:"size:100;not null" json:"last_name"`
	Position  string `gorm:"size:50" json:"position"`
	Email     string `gorm:"size:100;index" json:"email"`
	Phone     string `gorm:"size:20" json:"phone"`
	Address   string `gorm:"size:255" json:"address"`

	BirthDate  *time.Time `gorm:"type:date" json:"birth_date"`
	HireDate   *time.Time `gorm:"type:date" json:"hire_date"`
	SalaryRate *float64   `gorm:"type:numeric(12,2)" json:"salary_rate"`

	Status   string `gorm:"size:20;default:'active'" json:"status"`
	PhotoKey string `gorm:"size:255" json:"photo_key"`
	PhotoURL string `gorm:"-" json:"photo_url,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
