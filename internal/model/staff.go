package model

import (
	"time"
)

// Staff gender constants
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// StaffMember represents a delivery staff account. Email is the
// primary lookup key and unique across all staff members.
type StaffMember struct {
	Base
	Email             string     `json:"email" db:"email"`
	PasswordHash      string     `json:"-" db:"password_hash"`
	FirstName         string     `json:"first_name" db:"first_name"`
	LastName          string     `json:"last_name" db:"last_name"`
	PhoneNumber       string     `json:"phone_number" db:"phone_number"`
	Address           string     `json:"address" db:"address"`
	Gender            string     `json:"gender" db:"gender"`
	LicenseNumber     string     `json:"license_number" db:"license_number"`
	VehicleType       string     `json:"vehicle_type" db:"vehicle_type"`
	VehicleNumber     string     `json:"vehicle_number" db:"vehicle_number"`
	DOB               *time.Time `json:"dob" db:"dob"`
	EmailConfirmed    bool       `json:"email_confirmed" db:"email_confirmed"`
	ConfirmationToken *string    `json:"-" db:"confirmation_token"`
	ResetToken        *string    `json:"-" db:"reset_token"`
	IsActive          bool       `json:"is_active" db:"is_active"`
}

// RegisterStaffRequest represents registration parameters
type RegisterStaffRequest struct {
	Email         string `json:"email" binding:"required,email"`
	Password      string `json:"password" binding:"required,min=8"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	PhoneNumber   string `json:"phone_number"`
	Address       string `json:"address"`
	Gender        string `json:"gender" binding:"omitempty,oneof=male female other"`
	LicenseNumber string `json:"license_number"`
	VehicleType   string `json:"vehicle_type"`
	VehicleNumber string `json:"vehicle_number"`
	DOB           string `json:"dob"`
}

// UpdateStaffRequest represents a partial self-profile update. Email,
// activation flags and credentials are not client-writable here.
type UpdateStaffRequest struct {
	FirstName     *string `json:"first_name"`
	LastName      *string `json:"last_name"`
	PhoneNumber   *string `json:"phone_number"`
	Address       *string `json:"address"`
	Gender        *string `json:"gender" binding:"omitempty,oneof=male female other"`
	LicenseNumber *string `json:"license_number"`
	VehicleType   *string `json:"vehicle_type"`
	VehicleNumber *string `json:"vehicle_number"`
	DOB           *string `json:"dob"`
}
