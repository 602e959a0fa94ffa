package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vhugonogueira-beep/frota-ls/internal/models"
	"github.com/vhugonogueira-beep/frota-ls/internal/parser"
	"github.com/vhugonogueira-beep/frota-ls/internal/state"
)

// RecordUpdate is a partial edit of a fleet record. Nil means "leave as
// is"; the audit entry records only the fields that actually changed.
type RecordUpdate struct {
	Veiculo                     *string               `json:"veiculo,omitempty"`
	DataInicial                 *string               `json:"data_inicial,omitempty"`
	HorarioInicial              *string               `json:"horario_inicial,omitempty"`
	DataFinal                   *string               `json:"data_final,omitempty"`
	HorarioFinal                *string               `json:"horario_final,omitempty"`
	Destino                     *string               `json:"destino,omitempty"`
	KmInicial                   *float64              `json:"km_inicial,omitempty"`
	KmFinal                     *float64              `json:"km_final,omitempty"`
	Responsavel                 *string               `json:"responsavel,omitempty"`
	Atividade                   *string               `json:"atividade,omitempty"`
	Lavagem                     *models.LavagemStatus `json:"lavagem,omitempty"`
	Tanque                      *models.TanqueStatus  `json:"tanque,omitempty"`
	AndarEstacionado            *string               `json:"andar_estacionado,omitempty"`
	Source                      *string               `json:"source,omitempty"`
	FotoPainelInicialURL        *string               `json:"foto_painel_inicial_url,omitempty"`
	FotoPainelFinalURL          *string               `json:"foto_painel_final_url,omitempty"`
	ComprovanteAbastecimentoURL *string               `json:"comprovante_abastecimento_url,omitempty"`
}

// CreateRecord inserts a manually entered trip and occupies the vehicle.
func (s *FleetService) CreateRecord(ctx context.Context, record *models.FleetRecord) (*models.FleetRecord, error) {
	if record.KmFinal != nil && *record.KmFinal != 0 && *record.KmFinal < record.KmInicial {
		return nil, validationf("O KM final não pode ser menor que o KM inicial.")
	}
	if record.Status != models.RecordAgendado && record.Status != models.RecordEmAndamento {
		return nil, validationf("Status inválido para criação: %s", record.Status)
	}

	unlock := s.lockPlate(record.Veiculo)
	defer unlock()

	vehicle, err := s.vehicles.FindByIdentifier(ctx, "", record.Veiculo, record.Veiculo)
	if err != nil {
		return nil, fmt.Errorf("find vehicle: %w", err)
	}
	if vehicle != nil && vehicle.Status.Exclusive() {
		return nil, validationf("Veículo %s não está disponível (status atual: %s).", record.Veiculo, vehicle.Status)
	}

	if err := s.trips.Insert(ctx, record); err != nil {
		return nil, fmt.Errorf("insert trip: %w", err)
	}

	if vehicle != nil {
		next := models.VehicleEmUso
		if record.Status == models.RecordAgendado {
			next = models.VehicleAgendado
		}
		if err := s.vehicles.SetStatus(ctx, vehicle.Plate, next); err != nil {
			return nil, fmt.Errorf("update vehicle status: %w", err)
		}
	}
	return record, nil
}

// UpdateRecord applies a partial edit, records the before/after of every
// changed field as an audit entry, and hands the vehicle reservation over
// when an active record switches vehicles.
func (s *FleetService) UpdateRecord(ctx context.Context, id, actor string, update *RecordUpdate) (*models.FleetRecord, error) {
	record, err := s.trips.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, validationf("Registro %s não encontrado.", id)
	}

	previousVeiculo := record.Veiculo
	changes := applyUpdate(record, update)
	if len(changes) == 0 {
		return record, nil
	}

	if record.KmFinal != nil && *record.KmFinal != 0 && *record.KmFinal < record.KmInicial {
		return nil, validationf("O KM final não pode ser menor que o KM inicial.")
	}

	if err := s.trips.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("update trip: %w", err)
	}

	s.appendAudit(ctx, record.ID, actor, "update", changes)

	// Vehicle hand-off when an active record is moved to another vehicle.
	if record.Veiculo != previousVeiculo && !record.Status.Terminal() {
		s.setVehicleStatusByRef(ctx, previousVeiculo, models.VehicleDisponivel)
		next := models.VehicleEmUso
		if record.Status == models.RecordAgendado {
			next = models.VehicleAgendado
		}
		s.setVehicleStatusByRef(ctx, record.Veiculo, next)
	}
	return record, nil
}

// setVehicleStatusByRef resolves a record's vehicle reference, which may be
// a plate or a display name depending on how the record entered the system,
// and applies the status. Unknown vehicles are skipped; failures are logged
// and never abort the edit.
func (s *FleetService) setVehicleStatusByRef(ctx context.Context, ref string, status models.VehicleStatus) {
	vehicle, err := s.vehicles.FindByIdentifier(ctx, "", ref, ref)
	if err != nil {
		s.logger.Error("vehicle lookup failed during hand-off", zap.String("ref", ref), zap.Error(err))
		return
	}
	if vehicle == nil {
		return
	}
	if err := s.vehicles.SetStatus(ctx, vehicle.Plate, status); err != nil {
		s.logger.Error("vehicle status update failed during hand-off", zap.String("plate", vehicle.Plate), zap.Error(err))
	}
}

// StartRecord promotes a scheduled record to in progress.
func (s *FleetService) StartRecord(ctx context.Context, id, plate string) (*models.FleetRecord, error) {
	record, err := s.trips.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, validationf("Registro %s não encontrado.", id)
	}
	if record.Status != models.RecordAgendado {
		return nil, validationf("Apenas viagens agendadas podem ser iniciadas (status atual: %s).", record.Status)
	}

	if err := state.Transition(ctx, record, models.RecordEmAndamento); err != nil {
		return nil, validationf("%s", err.Error())
	}
	if err := s.trips.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("update trip: %w", err)
	}
	if err := s.vehicles.SetStatus(ctx, plate, models.VehicleEmUso); err != nil {
		return nil, fmt.Errorf("update vehicle status: %w", err)
	}
	return record, nil
}

// FinishRecord closes a trip from the UI path, optionally attaching the
// final odometer and photo evidence, and blocks the vehicle when the
// closing checklist left pendencies.
func (s *FleetService) FinishRecord(ctx context.Context, id, plate string, finalKm *float64, fotoPainelURL, comprovanteURL *string) (*models.FleetRecord, error) {
	record, err := s.trips.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, validationf("Registro %s não encontrado.", id)
	}
	if finalKm != nil && *finalKm != 0 && *finalKm < record.KmInicial {
		return nil, validationf("O KM final não pode ser menor que o KM inicial.")
	}

	if err := state.Transition(ctx, record, models.RecordFinalizado); err != nil {
		return nil, validationf("%s", err.Error())
	}
	if finalKm != nil && *finalKm != 0 {
		record.KmFinal = finalKm
	}
	if fotoPainelURL != nil {
		record.FotoPainelFinalURL = fotoPainelURL
	}
	if comprovanteURL != nil {
		record.ComprovanteAbastecimentoURL = comprovanteURL
	}
	if err := s.trips.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("update trip: %w", err)
	}

	next := models.VehicleDisponivel
	if record.PendingMaintenance() {
		next = models.VehicleBloqueado
	}
	if err := s.vehicles.SetStatus(ctx, plate, next); err != nil {
		return nil, fmt.Errorf("update vehicle status: %w", err)
	}
	return record, nil
}

// CancelRecord voids a trip from the UI path and frees the vehicle.
func (s *FleetService) CancelRecord(ctx context.Context, id, plate string) (*models.FleetRecord, error) {
	record, err := s.trips.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, validationf("Registro %s não encontrado.", id)
	}

	if err := state.Transition(ctx, record, models.RecordCancelado); err != nil {
		return nil, validationf("%s", err.Error())
	}
	if err := s.trips.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("update trip: %w", err)
	}
	if err := s.vehicles.SetStatus(ctx, plate, models.VehicleDisponivel); err != nil {
		return nil, fmt.Errorf("update vehicle status: %w", err)
	}
	return record, nil
}

// DeleteRecord removes a record outright, freeing the vehicle when the
// deleted record was still holding it.
func (s *FleetService) DeleteRecord(ctx context.Context, id, plate string) error {
	record, err := s.trips.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if record == nil {
		return validationf("Registro %s não encontrado.", id)
	}

	if err := s.trips.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete trip: %w", err)
	}

	if !record.Status.Terminal() {
		if err := s.vehicles.SetStatus(ctx, plate, models.VehicleDisponivel); err != nil {
			return fmt.Errorf("update vehicle status: %w", err)
		}
	}
	return nil
}

// Stats aggregates the dashboard counters.
func (s *FleetService) Stats(ctx context.Context) (*models.FleetStats, error) {
	return s.trips.Stats(ctx)
}

// appendAudit writes an audit entry, log-and-continue on failure.
func (s *FleetService) appendAudit(ctx context.Context, recordID, actor, action string, changes models.FieldChanges) {
	entry := &models.AuditEntry{
		ID:            uuid.NewString(),
		RecordID:      recordID,
		Actor:         actor,
		Action:        action,
		ChangedFields: changes,
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.Error("audit append failed",
			zap.String("record_id", recordID),
			zap.String("action", action),
			zap.Error(err),
		)
	}
}

// applyUpdate mutates the record with the non-nil fields of the update and
// returns the before/after diff of what changed.
func applyUpdate(record *models.FleetRecord, update *RecordUpdate) models.FieldChanges {
	var changes models.FieldChanges

	setString := func(field string, dst *string, src *string) {
		if src == nil || *dst == *src {
			return
		}
		changes = append(changes, models.FieldChange{Field: field, Before: *dst, After: *src})
		*dst = *src
	}
	setFloat := func(field string, dst *float64, src *float64) {
		if src == nil || *dst == *src {
			return
		}
		changes = append(changes, models.FieldChange{
			Field:  field,
			Before: parser.FormatOdometer(*dst),
			After:  parser.FormatOdometer(*src),
		})
		*dst = *src
	}

	setString("veiculo", &record.Veiculo, update.Veiculo)
	setString("data_inicial", &record.DataInicial, update.DataInicial)
	setString("horario_inicial", &record.HorarioInicial, update.HorarioInicial)
	setString("data_final", &record.DataFinal, update.DataFinal)
	setString("horario_final", &record.HorarioFinal, update.HorarioFinal)
	setString("destino", &record.Destino, update.Destino)
	setFloat("km_inicial", &record.KmInicial, update.KmInicial)
	setString("responsavel", &record.Responsavel, update.Responsavel)
	setString("atividade", &record.Atividade, update.Atividade)
	setString("andar_estacionado", &record.AndarEstacionado, update.AndarEstacionado)
	setString("source", &record.Source, update.Source)

	if update.KmFinal != nil {
		before := ""
		if record.KmFinal != nil {
			before = parser.FormatOdometer(*record.KmFinal)
		}
		if record.KmFinal == nil || *record.KmFinal != *update.KmFinal {
			changes = append(changes, models.FieldChange{Field: "km_final", Before: before, After: parser.FormatOdometer(*update.KmFinal)})
			record.KmFinal = update.KmFinal
		}
	}
	if update.Lavagem != nil && record.Lavagem != *update.Lavagem {
		changes = append(changes, models.FieldChange{Field: "lavagem", Before: string(record.Lavagem), After: string(*update.Lavagem)})
		record.Lavagem = *update.Lavagem
	}
	if update.Tanque != nil && record.Tanque != *update.Tanque {
		changes = append(changes, models.FieldChange{Field: "tanque", Before: string(record.Tanque), After: string(*update.Tanque)})
		record.Tanque = *update.Tanque
	}

	setOptURL := func(field string, dst **string, src *string) {
		if src == nil {
			return
		}
		before := ""
		if *dst != nil {
			before = **dst
		}
		if before == *src {
			return
		}
		changes = append(changes, models.FieldChange{Field: field, Before: before, After: *src})
		*dst = src
	}
	setOptURL("foto_painel_inicial_url", &record.FotoPainelInicialURL, update.FotoPainelInicialURL)
	setOptURL("foto_painel_final_url", &record.FotoPainelFinalURL, update.FotoPainelFinalURL)
	setOptURL("comprovante_abastecimento_url", &record.ComprovanteAbastecimentoURL, update.ComprovanteAbastecimentoURL)

	return changes
}
