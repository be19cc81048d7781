package models

import "time"

const (
	PayrollDraft = "draft"
	PayrollPaid  = "paid"
)

type PayrollEntry struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	BarbershopID uint   `gorm:"uniqueIndex:idx_payroll_shop_business_id;not null" json:"barbershop_id"`
	BusinessID   string `gorm:"size:32;uniqueIndex:idx_payroll_shop_business_id;not null" json:"payroll_id"`

	// EmployeeID guarda o código do funcionário (Employee.BusinessID)
	EmployeeID string `gorm:"size:32;index;not null" json:"employee_id"`

	PeriodStart time.Time `gorm:"type:date" json:"period_start"`
	PeriodEnd   time.Time `gorm:"type:date" json:"period_end"`

	BasicPay   *float64 `gorm:"type:numeric(12,2)" json:"basic_pay"`
	Overtime   *float64 `gorm:"type:numeric(12,2)" json:"overtime_pay"`
	Bonus      *float64 `gorm:"type:numeric(12,2)" json:"bonus"`
	Deductions *float64 `gorm:"type:numeric(12,2)" json:"deductions"`
	NetPay     float64  `gorm:"type:numeric(12,2)" json:"net_pay"`

	Status string     `gorm:"size:20;default:'draft'" json:"status"`
	PaidAt *time.Time `json:"paid_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
