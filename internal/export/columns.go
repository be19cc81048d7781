package export

import (
	"github.com/BruksfildServices01/barber-manager/internal/models"
)

var EmployeeColumns = []Column[models.Employee]{
	{"Employee ID", func(e models.Employee) string { return e.BusinessID }},
	{"First Name", func(e models.Employee) string { return e.FirstName }},
	{"Last Name", func(e models.Employee) string { return e.LastName }},
	{"Position", func(e models.Employee) string { return e.Position }},
	{"Email", func(e models.Employee) string { return e.Email }},
	{"Phone", func(e models.Employee) string { return e.Phone }},
	{"Address", func(e models.Employee) string { return e.Address }},
	{"Birth Date", func(e models.Employee) string { return DatePtr(e.BirthDate) }},
	{"Hire Date", func(e models.Employee) string { return DatePtr(e.HireDate) }},
	{"Salary Rate", func(e models.Employee) string { return MoneyPtr(e.SalaryRate) }},
	{"Status", func(e models.Employee) string { return e.Status }},
}

var ItemColumns = []Column[models.Item]{
	{"Item ID", func(i models.Item) string { return i.BusinessID }},
	{"Name", func(i models.Item) string { return i.Name }},
	{"Category", func(i models.Item) string { return i.Category }},
	{"Supplier", func(i models.Item) string { return i.Supplier }},
	{"Quantity", func(i models.Item) string { return Int(i.Quantity) }},
	{"Unit", func(i models.Item) string { return i.Unit }},
	{"Unit Price", func(i models.Item) string { return MoneyPtr(i.UnitPrice) }},
	{"Reorder Level", func(i models.Item) string { return Int(i.ReorderLevel) }},
	{"Expiration Date", func(i models.Item) string { return DatePtr(i.ExpirationDate) }},
}

var AppointmentColumns = []Column[models.Appointment]{
	{"Appointment ID", func(a models.Appointment) string { return a.ID.String() }},
	{"Customer", func(a models.Appointment) string { return a.CustomerName }},
	{"Phone", func(a models.Appointment) string { return a.CustomerPhone }},
	{"Email", func(a models.Appointment) string { return a.CustomerEmail }},
	{"Barber ID", func(a models.Appointment) string { return a.BarberID }},
	{"Service", func(a models.Appointment) string { return a.Service }},
	{"Start", func(a models.Appointment) string { return DateTime(a.StartTime) }},
	{"End", func(a models.Appointment) string { return DateTime(a.EndTime) }},
	{"Status", func(a models.Appointment) string { return a.Status }},
	{"Notes", func(a models.Appointment) string { return a.Notes }},
}

var SubscriberColumns = []Column[models.Subscriber]{
	{"Subscriber ID", func(s models.Subscriber) string { return s.ID.String() }},
	{"Name", func(s models.Subscriber) string { return s.Name }},
	{"Email", func(s models.Subscriber) string { return s.Email }},
	{"Phone", func(s models.Subscriber) string { return s.Phone }},
	{"Plan", func(s models.Subscriber) string { return s.Plan }},
	{"Monthly Fee", func(s models.Subscriber) string { return Money(s.MonthlyFee) }},
	{"Active", func(s models.Subscriber) string { return Bool(s.Active) }},
	{"Billing Status", func(s models.Subscriber) string { return s.BillingStatus }},
	{"Subscribed At", func(s models.Subscriber) string { return Date(s.SubscribedAt) }},
}

var PayrollColumns = []Column[models.PayrollEntry]{
	{"Payroll ID", func(p models.PayrollEntry) string { return p.BusinessID }},
	{"Employee ID", func(p models.PayrollEntry) string { return p.EmployeeID }},
	{"Period Start", func(p models.PayrollEntry) string { return Date(p.PeriodStart) }},
	{"Period End", func(p models.PayrollEntry) string { return Date(p.PeriodEnd) }},
	{"Basic Pay", func(p models.PayrollEntry) string { return MoneyPtr(p.BasicPay) }},
	{"Overtime", func(p models.PayrollEntry) string { return MoneyPtr(p.Overtime) }},
	{"Bonus", func(p models.PayrollEntry) string { return MoneyPtr(p.Bonus) }},
	{"Deductions", func(p models.PayrollEntry) string { return MoneyPtr(p.Deductions) }},
	{"Net Pay", func(p models.PayrollEntry) string { return Money(p.NetPay) }},
	{"Status", func(p models.PayrollEntry) string { return p.Status }},
	{"Paid At", func(p models.PayrollEntry) string { return DatePtr(p.PaidAt) }},
}
