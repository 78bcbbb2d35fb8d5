package domain

import (
	"fmt"
	"time"
)

// InventoryKey identifies one ledger row: a material stocked at a location.
type InventoryKey struct {
	MaterialID int32 `json:"material_id"`
	LocationID int32 `json:"location_id"`
}

func (k InventoryKey) String() string {
	return fmt.Sprintf("material %d @ location %d", k.MaterialID, k.LocationID)
}

// Less orders keys by material then location. Locks are always taken in this order.
func (k InventoryKey) Less(other InventoryKey) bool {
	if k.MaterialID != other.MaterialID {
		return k.MaterialID < other.MaterialID
	}
	return k.LocationID < other.LocationID
}

// InventoryRecord holds the quantities for one key.
// OnHand counts units physically in the warehouse; loaned units leave OnHand and are tracked in OnLoan.
type InventoryRecord struct {
	MaterialID int32     `json:"material_id"`
	LocationID int32     `json:"location_id"`
	OnHand     int32     `json:"on_hand"`
	Reserved   int32     `json:"reserved"`
	OnLoan     int32     `json:"on_loan"`
	Version    int32     `json:"version"`
	UpdatedOn  time.Time `json:"updated_on"`
}

func (r *InventoryRecord) Key() InventoryKey {
	return InventoryKey{MaterialID: r.MaterialID, LocationID: r.LocationID}
}

// Available is the quantity that can still be reserved.
func (r *InventoryRecord) Available() int32 {
	return r.OnHand - r.Reserved
}

func (r *InventoryRecord) Reserve(qty int32) error {
	if err := checkQuantity(qty); err != nil {
		return err
	}
	if r.Available() < qty {
		return &StockError{Key: r.Key(), Available: r.Available(), Requested: qty, Kind: ErrInsufficientStock}
	}
	r.Reserved += qty
	return nil
}

// Commit converts reserved units into loaned units.
func (r *InventoryRecord) Commit(qty int32) error {
	if err := checkQuantity(qty); err != nil {
		return err
	}
	if qty > r.Reserved {
		return &StockError{Key: r.Key(), Available: r.Reserved, Requested: qty, Kind: ErrReservationMismatch}
	}
	r.Reserved -= qty
	r.OnLoan += qty
	r.OnHand -= qty
	return nil
}

// Release drops a reservation (fromReserved) or takes loaned units back into stock.
func (r *InventoryRecord) Release(qty int32, fromReserved bool) error {
	if err := checkQuantity(qty); err != nil {
		return err
	}
	if fromReserved {
		if qty > r.Reserved {
			return &StockError{Key: r.Key(), Available: r.Reserved, Requested: qty, Kind: ErrReservationMismatch}
		}
		r.Reserved -= qty
		return nil
	}
	if qty > r.OnLoan {
		return &StockError{Key: r.Key(), Available: r.OnLoan, Requested: qty, Kind: ErrReservationMismatch}
	}
	r.OnLoan -= qty
	r.OnHand += qty
	return nil
}

// Receive adds newly stocked units.
func (r *InventoryRecord) Receive(qty int32) error {
	if err := checkQuantity(qty); err != nil {
		return err
	}
	r.OnHand += qty
	return nil
}

// Validate reports whether the record satisfies the ledger invariants.
func (r *InventoryRecord) Validate() error {
	if r.OnHand < 0 || r.Reserved < 0 || r.OnLoan < 0 {
		return fmt.Errorf("%s: negative quantity (on_hand=%d reserved=%d on_loan=%d): %w",
			r.Key(), r.OnHand, r.Reserved, r.OnLoan, ErrValidation)
	}
	if r.Reserved > r.OnHand {
		return fmt.Errorf("%s: reserved %d exceeds on hand %d: %w", r.Key(), r.Reserved, r.OnHand, ErrValidation)
	}
	return nil
}

func checkQuantity(qty int32) error {
	if qty < 0 {
		return NewValidationError("quantity", fmt.Sprintf("must not be negative, got %d", qty))
	}
	return nil
}
