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

// TripRepository persists fleet records (one checkout episode each).
type TripRepository struct {
	db *DB
}

// NewTripRepository creates the repository.
func NewTripRepository(db *DB) *TripRepository {
	return &TripRepository{db: db}
}

const recordColumns = `id, veiculo, data_inicial, horario_inicial, data_final, horario_final,
	destino, km_inicial, km_final, responsavel, atividade, lavagem, tanque,
	andar_estacionado, status, source, raw_message, foto_painel_inicial_url,
	foto_painel_final_url, comprovante_abastecimento_url, created_at, updated_at`

func scanRecord(row pgx.Row) (*models.FleetRecord, error) {
	r := &models.FleetRecord{}
	err := row.Scan(
		&r.ID,
		&r.Veiculo,
		&r.DataInicial,
		&r.HorarioInicial,
		&r.DataFinal,
		&r.HorarioFinal,
		&r.Destino,
		&r.KmInicial,
		&r.KmFinal,
		&r.Responsavel,
		&r.Atividade,
		&r.Lavagem,
		&r.Tanque,
		&r.AndarEstacionado,
		&r.Status,
		&r.Source,
		&r.RawMessage,
		&r.FotoPainelInicialURL,
		&r.FotoPainelFinalURL,
		&r.ComprovanteAbastecimentoURL,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Insert creates a record, generating its ID.
func (r *TripRepository) Insert(ctx context.Context, record *models.FleetRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now()
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO fleet_records (id, veiculo, data_inicial, horario_inicial, data_final,
			horario_final, destino, km_inicial, km_final, responsavel, atividade, lavagem,
			tanque, andar_estacionado, status, source, raw_message, foto_painel_inicial_url,
			foto_painel_final_url, comprovante_abastecimento_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
			$18, $19, $20, $21, $22)`,
		record.ID, record.Veiculo, record.DataInicial, record.HorarioInicial, record.DataFinal,
		record.HorarioFinal, record.Destino, record.KmInicial, record.KmFinal, record.Responsavel,
		record.Atividade, record.Lavagem, record.Tanque, record.AndarEstacionado, record.Status,
		record.Source, record.RawMessage, record.FotoPainelInicialURL,
		record.FotoPainelFinalURL, record.ComprovanteAbastecimentoURL, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert fleet record: %w", err)
	}
	record.CreatedAt = now
	record.UpdatedAt = now
	return nil
}

// Update rewrites a record's mutable fields.
func (r *TripRepository) Update(ctx context.Context, record *models.FleetRecord) error {
	record.UpdatedAt = time.Now()
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE fleet_records SET veiculo = $1, data_inicial = $2, horario_inicial = $3,
			data_final = $4, horario_final = $5, destino = $6, km_inicial = $7, km_final = $8,
			responsavel = $9, atividade = $10, lavagem = $11, tanque = $12,
			andar_estacionado = $13, status = $14, source = $15, raw_message = $16,
			foto_painel_inicial_url = $17, foto_painel_final_url = $18,
			comprovante_abastecimento_url = $19, updated_at = $20
		WHERE id = $21`,
		record.Veiculo, record.DataInicial, record.HorarioInicial, record.DataFinal,
		record.HorarioFinal, record.Destino, record.KmInicial, record.KmFinal,
		record.Responsavel, record.Atividade, record.Lavagem, record.Tanque,
		record.AndarEstacionado, record.Status, record.Source, record.RawMessage,
		record.FotoPainelInicialURL, record.FotoPainelFinalURL,
		record.ComprovanteAbastecimentoURL, record.UpdatedAt, record.ID,
	)
	if err != nil {
		return fmt.Errorf("update fleet record: %w", err)
	}
	return nil
}

// FindMostRecent returns the newest record for the vehicle among the given
// statuses, or (nil, nil). Older matches are never touched: recency is the
// deterministic tie-break.
func (r *TripRepository) FindMostRecent(ctx context.Context, veiculo string, statusIn []models.RecordStatus) (*models.FleetRecord, error) {
	statuses := make([]string, len(statusIn))
	for i, s := range statusIn {
		statuses[i] = string(s)
	}

	record, err := scanRecord(r.db.Pool.QueryRow(ctx, `
		SELECT `+recordColumns+` FROM fleet_records
		WHERE veiculo = $1 AND status = ANY($2)
		ORDER BY created_at DESC
		LIMIT 1`,
		veiculo, statuses,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find most recent record: %w", err)
	}
	return record, nil
}

// GetByID returns one record, or (nil, nil).
func (r *TripRepository) GetByID(ctx context.Context, id string) (*models.FleetRecord, error) {
	record, err := scanRecord(r.db.Pool.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM fleet_records WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get fleet record: %w", err)
	}
	return record, nil
}

// Delete removes a record.
func (r *TripRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Pool.Exec(ctx, `DELETE FROM fleet_records WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete fleet record: %w", err)
	}
	return nil
}

// List returns records newest first.
func (r *TripRepository) List(ctx context.Context, limit, offset int) ([]*models.FleetRecord, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+recordColumns+` FROM fleet_records
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list fleet records: %w", err)
	}
	defer rows.Close()

	var records []*models.FleetRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fleet record: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Count returns the total number of records.
func (r *TripRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM fleet_records`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count fleet records: %w", err)
	}
	return count, nil
}

// Stats aggregates the dashboard counters in one round trip.
func (r *TripRepository) Stats(ctx context.Context) (*models.FleetStats, error) {
	stats := &models.FleetStats{}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(GREATEST(km_final - km_inicial, 0)) FILTER (WHERE km_final IS NOT NULL), 0),
			COUNT(DISTINCT veiculo) FILTER (WHERE status IN ('agendado', 'em_andamento')),
			COUNT(*) FILTER (WHERE lavagem = 'realizada' AND status = 'finalizado')
		FROM fleet_records`,
	).Scan(&stats.TotalViagens, &stats.TotalKm, &stats.VeiculosAtivos, &stats.LavagensRealizadas)
	if err != nil {
		return nil, fmt.Errorf("fleet stats: %w", err)
	}
	return stats, nil
}
