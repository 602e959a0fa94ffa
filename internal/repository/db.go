package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps the connection pool.
type DB struct {
	Pool *pgxpool.Pool
}

// New connects to Postgres.
func New(ctx context.Context, databaseURL string) (*DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close shuts the pool down.
func (db *DB) Close() {
	db.Pool.Close()
}

// Migrate runs the idempotent schema migrations.
func (db *DB) Migrate(ctx context.Context) error {
	migrations := []string{
		migrationCreateVehicles,
		migrationCreateFleetRecords,
		migrationCreateFleetAudit,
	}

	for _, m := range migrations {
		if _, err := db.Pool.Exec(ctx, m); err != nil {
			return fmt.Errorf("execute migration: %w", err)
		}
	}

	return nil
}

const migrationCreateVehicles = `
CREATE TABLE IF NOT EXISTS vehicles (
    id UUID PRIMARY KEY,
    internal_id VARCHAR(50),
    plate VARCHAR(20) NOT NULL UNIQUE,
    renavam VARCHAR(30),
    chassis VARCHAR(30),
    brand VARCHAR(100) NOT NULL,
    model VARCHAR(100) NOT NULL,
    version VARCHAR(100),
    manufacturing_year INT,
    model_year INT,
    vehicle_type VARCHAR(50) NOT NULL,
    color VARCHAR(50),
    category VARCHAR(50) NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'disponivel',
    image_url TEXT,
    created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_vehicles_internal_id ON vehicles(internal_id);
CREATE INDEX IF NOT EXISTS idx_vehicles_status ON vehicles(status);
`

const migrationCreateFleetRecords = `
CREATE TABLE IF NOT EXISTS fleet_records (
    id UUID PRIMARY KEY,
    veiculo VARCHAR(255) NOT NULL,
    data_inicial VARCHAR(10) NOT NULL DEFAULT '',
    horario_inicial VARCHAR(5) NOT NULL DEFAULT '',
    data_final VARCHAR(10) NOT NULL DEFAULT '',
    horario_final VARCHAR(5) NOT NULL DEFAULT '',
    destino TEXT NOT NULL DEFAULT '',
    km_inicial DOUBLE PRECISION NOT NULL DEFAULT 0,
    km_final DOUBLE PRECISION,
    responsavel VARCHAR(255) NOT NULL DEFAULT '',
    atividade TEXT NOT NULL DEFAULT '',
    lavagem VARCHAR(20) NOT NULL DEFAULT 'realizada',
    tanque VARCHAR(30) NOT NULL DEFAULT 'cheio',
    andar_estacionado VARCHAR(50) NOT NULL DEFAULT 'P',
    status VARCHAR(20) NOT NULL,
    source VARCHAR(100) NOT NULL DEFAULT 'whatsapp',
    raw_message TEXT,
    foto_painel_inicial_url TEXT,
    foto_painel_final_url TEXT,
    comprovante_abastecimento_url TEXT,
    created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_fleet_records_veiculo ON fleet_records(veiculo);
CREATE INDEX IF NOT EXISTS idx_fleet_records_status ON fleet_records(status);
CREATE INDEX IF NOT EXISTS idx_fleet_records_created_at ON fleet_records(created_at);
`

const migrationCreateFleetAudit = `
CREATE TABLE IF NOT EXISTS fleet_audit (
    id UUID PRIMARY KEY,
    record_id UUID NOT NULL,
    actor VARCHAR(255) NOT NULL,
    action VARCHAR(50) NOT NULL,
    changed_fields JSONB NOT NULL DEFAULT '[]',
    created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_fleet_audit_record_id ON fleet_audit(record_id);
`
