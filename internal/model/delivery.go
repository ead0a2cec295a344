package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Delivery status constants. Pending is initial; completed and
// cancelled are terminal. Cancelled is declared but no operation
// currently produces it.
const (
	DeliveryStatusPending    = "pending"
	DeliveryStatusInProgress = "in_progress"
	DeliveryStatusPickedUp   = "picked_up"
	DeliveryStatusCompleted  = "completed"
	DeliveryStatusCancelled  = "cancelled"
)

// Location is a structured route endpoint. Lat/Lon are carried as
// strings on the wire, matching the mobile clients.
type Location struct {
	Address string `json:"address" validate:"required"`
	Lat     string `json:"lat" validate:"required"`
	Lon     string `json:"lon" validate:"required"`
}

// Value implements driver.Valuer so locations persist as JSONB
func (l Location) Value() (driver.Value, error) {
	return json.Marshal(l)
}

// Scan implements sql.Scanner
func (l *Location) Scan(src interface{}) error {
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("unsupported location column type %T", src)
	}
	return json.Unmarshal(b, l)
}

// Delivery represents a blood delivery job. QRCode is globally unique
// and immutable after creation.
type Delivery struct {
	Base
	StaffID         *uuid.UUID `json:"delivery_staff" db:"staff_id"`
	PickupLocation  Location   `json:"pickup_location" db:"pickup_location"`
	DropoffLocation Location   `json:"dropoff_location" db:"dropoff_location"`
	PickupTime      time.Time  `json:"pickup_time" db:"pickup_time"`
	BloodType       string     `json:"blood_type" db:"blood_type"`
	BloodUnits      int        `json:"blood_units" db:"blood_units"`
	Status          string     `json:"status" db:"status"`
	QRCode          string     `json:"qr_code" db:"qr_code"`
}

// CreateDeliveryRequest represents delivery creation parameters.
// Jobs are always created unassigned and pending.
type CreateDeliveryRequest struct {
	PickupLocation  Location  `json:"pickup_location" binding:"required"`
	DropoffLocation Location  `json:"dropoff_location" binding:"required"`
	PickupTime      time.Time `json:"pickup_time" binding:"required"`
	BloodType       string    `json:"blood_type" binding:"required"`
	BloodUnits      int       `json:"blood_units"`
	QRCode          string    `json:"qr_code" binding:"required"`
}

// LocationPatch carries a partial location update; supplied sub-fields
// are merged over the stored value.
type LocationPatch struct {
	Address *string `json:"address"`
	Lat     *string `json:"lat"`
	Lon     *string `json:"lon"`
}

// Apply merges the patch into loc field by field
func (p *LocationPatch) Apply(loc Location) Location {
	if p.Address != nil {
		loc.Address = *p.Address
	}
	if p.Lat != nil {
		loc.Lat = *p.Lat
	}
	if p.Lon != nil {
		loc.Lon = *p.Lon
	}
	return loc
}

// UpdateDeliveryRequest represents a partial update of non-state
// fields. Status, assignment and qr_code are never patchable.
type UpdateDeliveryRequest struct {
	PickupLocation  *LocationPatch `json:"pickup_location"`
	DropoffLocation *LocationPatch `json:"dropoff_location"`
	PickupTime      *time.Time     `json:"pickup_time"`
	BloodType       *string        `json:"blood_type"`
	BloodUnits      *int           `json:"blood_units"`
}

// ScanQRRequest carries the scanned code for pickup confirmation
type ScanQRRequest struct {
	QRData string `json:"qr_data" binding:"required"`
}
