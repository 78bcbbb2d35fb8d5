package domain

import "github.com/shopspring/decimal"

// ItemType is a catalog entry. The catalog is read-only to this service.
type ItemType struct {
	ID        int32           `json:"id"`
	Name      string          `json:"name"`
	Unit      string          `json:"unit"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}
