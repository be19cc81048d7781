package payroll

import (
	"math"
	"time"

	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/models"
)

func val(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// NetPay = basic + overtime + bonus - deductions, nil components count as zero.
func NetPay(e *models.PayrollEntry) (float64, error) {
	net := round2(val(e.BasicPay) + val(e.Overtime) + val(e.Bonus) - val(e.Deductions))
	if net < 0 {
		return 0, httperr.ErrBusiness("negative_net_pay")
	}
	return net, nil
}

// Recalculate validates the period and refreshes NetPay in place.
func Recalculate(e *models.PayrollEntry) error {
	if e.PeriodEnd.Before(e.PeriodStart) {
		return httperr.ErrBusiness("invalid_period")
	}

	net, err := NetPay(e)
	if err != nil {
		return err
	}
	e.NetPay = net
	return nil
}

func MarkPaid(e *models.PayrollEntry, now time.Time) error {
	if e.Status == models.PayrollPaid {
		return httperr.ErrBusiness("already_paid")
	}
	e.Status = models.PayrollPaid
	e.PaidAt = &now
	return nil
}

// CanEdit blocks changes to entries already paid out.
func CanEdit(e *models.PayrollEntry) error {
	if e.Status == models.PayrollPaid {
		return httperr.ErrBusiness("already_paid")
	}
	return nil
}
