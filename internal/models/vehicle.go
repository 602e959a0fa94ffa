package models

import "time"

// VehicleStatus mirrors the vehicle_state enum in the database.
type VehicleStatus string

const (
	VehicleDisponivel VehicleStatus = "disponivel"
	VehicleEmUso      VehicleStatus = "em_uso"
	VehicleBloqueado  VehicleStatus = "bloqueado"
	VehicleAgendado   VehicleStatus = "agendado"
)

// Vehicle is one physical fleet asset. The plate is the natural key used
// everywhere a trip needs to reference a vehicle.
type Vehicle struct {
	ID                string        `json:"id" db:"id"`
	InternalID        *string       `json:"internal_id,omitempty" db:"internal_id"`
	Plate             string        `json:"plate" db:"plate"`
	Renavam           *string       `json:"renavam,omitempty" db:"renavam"`
	Chassis           *string       `json:"chassis,omitempty" db:"chassis"`
	Brand             string        `json:"brand" db:"brand"`
	Model             string        `json:"model" db:"model"`
	Version           *string       `json:"version,omitempty" db:"version"`
	ManufacturingYear *int          `json:"manufacturing_year,omitempty" db:"manufacturing_year"`
	ModelYear         *int          `json:"model_year,omitempty" db:"model_year"`
	VehicleType       string        `json:"vehicle_type" db:"vehicle_type"`
	Color             *string       `json:"color,omitempty" db:"color"`
	Category          string        `json:"category" db:"category"`
	Status            VehicleStatus `json:"status" db:"status"`
	ImageURL          *string       `json:"image_url,omitempty" db:"image_url"`
	CreatedAt         time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at" db:"updated_at"`
}

// DisplayName is the human name used on fleet records ("Fiat Strada").
func (v *Vehicle) DisplayName() string {
	return v.Brand + " " + v.Model
}

// Exclusive reports whether the vehicle cannot accept a new trip.
func (s VehicleStatus) Exclusive() bool {
	return s == VehicleEmUso || s == VehicleBloqueado
}
