package inventory

import (
	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/models"
)

// Adjust applies a signed quantity change. Stock never goes below zero.
func Adjust(item *models.Item, delta int) error {
	if delta == 0 {
		return httperr.ErrBusiness("invalid_delta")
	}
	if item.Quantity+delta < 0 {
		return httperr.ErrBusiness("insufficient_stock")
	}
	item.Quantity += delta
	return nil
}
