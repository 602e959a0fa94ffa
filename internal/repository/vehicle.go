package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vhugonogueira-beep/frota-ls/internal/models"
)

// VehicleRepository persists fleet vehicles.
type VehicleRepository struct {
	db *DB
}

// NewVehicleRepository creates the repository.
func NewVehicleRepository(db *DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

const vehicleColumns = `id, internal_id, plate, renavam, chassis, brand, model, version,
	manufacturing_year, model_year, vehicle_type, color, category, status, image_url,
	created_at, updated_at`

func scanVehicle(row pgx.Row) (*models.Vehicle, error) {
	v := &models.Vehicle{}
	err := row.Scan(
		&v.ID,
		&v.InternalID,
		&v.Plate,
		&v.Renavam,
		&v.Chassis,
		&v.Brand,
		&v.Model,
		&v.Version,
		&v.ManufacturingYear,
		&v.ModelYear,
		&v.VehicleType,
		&v.Color,
		&v.Category,
		&v.Status,
		&v.ImageURL,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// FindByIdentifier resolves a vehicle in preference order: exact internal
// ID, exact plate, fuzzy name. The name match runs against "brand model"
// so that both a bare model ("strada") and the display name a fleet record
// carries ("Fiat Strada") resolve. A miss on every identifier returns
// (nil, nil) so callers can tolerate unregistered vehicles.
func (r *VehicleRepository) FindByIdentifier(ctx context.Context, internalID, plate, name string) (*models.Vehicle, error) {
	queries := []struct {
		arg string
		sql string
	}{
		{internalID, `SELECT ` + vehicleColumns + ` FROM vehicles WHERE internal_id = $1 LIMIT 1`},
		{plate, `SELECT ` + vehicleColumns + ` FROM vehicles WHERE plate = $1 LIMIT 1`},
		{name, `SELECT ` + vehicleColumns + ` FROM vehicles WHERE brand || ' ' || model ILIKE '%' || $1 || '%' ORDER BY plate LIMIT 1`},
	}

	for _, q := range queries {
		if q.arg == "" {
			continue
		}
		v, err := scanVehicle(r.db.Pool.QueryRow(ctx, q.sql, q.arg))
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("find vehicle: %w", err)
		}
		return v, nil
	}
	return nil, nil
}

// GetByPlate returns the vehicle with the given plate, or (nil, nil).
func (r *VehicleRepository) GetByPlate(ctx context.Context, plate string) (*models.Vehicle, error) {
	v, err := scanVehicle(r.db.Pool.QueryRow(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles WHERE plate = $1`, plate))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get vehicle by plate: %w", err)
	}
	return v, nil
}

// List returns every vehicle ordered by plate.
func (r *VehicleRepository) List(ctx context.Context) ([]*models.Vehicle, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles ORDER BY plate`)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []*models.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan vehicle: %w", err)
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}

// Create registers a new vehicle.
func (r *VehicleRepository) Create(ctx context.Context, v *models.Vehicle) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.Status == "" {
		v.Status = models.VehicleDisponivel
	}
	now := time.Now()
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO vehicles (id, internal_id, plate, renavam, chassis, brand, model, version,
			manufacturing_year, model_year, vehicle_type, color, category, status, image_url,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		v.ID, v.InternalID, v.Plate, v.Renavam, v.Chassis, v.Brand, v.Model, v.Version,
		v.ManufacturingYear, v.ModelYear, v.VehicleType, v.Color, v.Category, v.Status, v.ImageURL,
		now, now,
	)
	if err != nil {
		return fmt.Errorf("insert vehicle: %w", err)
	}
	v.CreatedAt = now
	v.UpdatedAt = now
	return nil
}

// SetStatus updates the vehicle status by plate. An unknown plate is a
// no-op: unregistered vehicles referenced in messages have no row to touch.
func (r *VehicleRepository) SetStatus(ctx context.Context, plate string, status models.VehicleStatus) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE vehicles SET status = $1, updated_at = NOW() WHERE plate = $2`,
		status, plate,
	)
	if err != nil {
		return fmt.Errorf("set vehicle status: %w", err)
	}
	return nil
}
