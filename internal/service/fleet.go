package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/vhugonogueira-beep/frota-ls/internal/models"
	"github.com/vhugonogueira-beep/frota-ls/internal/parser"
	"github.com/vhugonogueira-beep/frota-ls/internal/state"
)

// VehicleStore is the vehicle collaborator contract. FindByIdentifier
// resolves in preference order: exact internal ID, exact plate, fuzzy
// (case-insensitive substring) match on "brand model". A miss is
// (nil, nil), not an error. SetStatus on an unknown plate is a no-op.
type VehicleStore interface {
	FindByIdentifier(ctx context.Context, internalID, plate, name string) (*models.Vehicle, error)
	SetStatus(ctx context.Context, plate string, status models.VehicleStatus) error
}

// TripStore is the fleet-record collaborator contract. FindMostRecent
// returns the most recently created record for the vehicle among the given
// statuses, or (nil, nil).
type TripStore interface {
	FindMostRecent(ctx context.Context, veiculo string, statusIn []models.RecordStatus) (*models.FleetRecord, error)
	GetByID(ctx context.Context, id string) (*models.FleetRecord, error)
	Insert(ctx context.Context, record *models.FleetRecord) error
	Update(ctx context.Context, record *models.FleetRecord) error
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (*models.FleetStats, error)
}

// AuditStore appends immutable edit entries. Failures are logged by the
// caller and never abort the primary mutation.
type AuditStore interface {
	Append(ctx context.Context, entry *models.AuditEntry) error
}

// ValidationError is a user-facing rejection (vehicle unavailable, no open
// trip, odometer out of order). Anything else out of the service is an
// infrastructure fault.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func validationf(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a user-facing validation rejection.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// Result is the acknowledgement for one processed intent.
type Result struct {
	Record      *models.FleetRecord `json:"record"`
	Vehicle     *models.Vehicle     `json:"vehicle,omitempty"`
	VehicleName string              `json:"vehicle_name"`
	Message     string              `json:"message"`
}

// FleetService drives the trip state machine against the stores. Every
// invocation re-reads the state it needs; the per-plate lock serializes the
// read-decide-write sequence so two near-simultaneous messages for the same
// vehicle cannot both observe "no open trip".
type FleetService struct {
	logger   *zap.Logger
	vehicles VehicleStore
	trips    TripStore
	audit    AuditStore

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewFleetService creates the service.
func NewFleetService(logger *zap.Logger, vehicles VehicleStore, trips TripStore, audit AuditStore) *FleetService {
	return &FleetService{
		logger:   logger,
		vehicles: vehicles,
		trips:    trips,
		audit:    audit,
		locks:    make(map[string]*sync.Mutex),
	}
}

// lockPlate serializes operations per vehicle key.
func (s *FleetService) lockPlate(key string) func() {
	s.mu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// intentContext carries the resolved environment one intent operates on.
type intentContext struct {
	intent  *parser.Intent
	vehicle *models.Vehicle // nil when unregistered
	plate   string          // resolved plate, or raw plate, or ""
	name    string          // display name used on fleet records
}

// Process applies one parsed intent, dispatching through the transition
// table. Returns a *ValidationError for user-level conflicts.
func (s *FleetService) Process(ctx context.Context, intent *parser.Intent) (*Result, error) {
	// First resolution only settles the lock key.
	ic, err := s.resolve(ctx, intent)
	if err != nil {
		return nil, err
	}

	unlock := s.lockPlate(ic.lockKey())
	defer unlock()

	// Re-read under the lock so the availability checks see whatever a
	// near-simultaneous message for the same vehicle just wrote.
	ic, err = s.resolve(ctx, intent)
	if err != nil {
		return nil, err
	}

	handler, ok := transitions[intent.Status]
	if !ok {
		return nil, validationf("Status inválido: %s", intent.Status)
	}

	result, err := handler(s, ctx, ic)
	if err != nil {
		return nil, err
	}

	result.Vehicle = ic.vehicle
	result.VehicleName = ic.name
	result.Message = fmt.Sprintf("Controle de frota processado com sucesso. Veículo: %s, Status: %s", ic.name, intent.Status)

	s.logger.Info("intent processed",
		zap.String("status", string(intent.Status)),
		zap.String("veiculo", ic.name),
		zap.String("record_id", result.Record.ID),
	)
	return result, nil
}

// transitions is the intent-status dispatch table. Each entry owns one row
// of the transition matrix: precondition, trip effect, vehicle effect.
var transitions = map[parser.Status]func(*FleetService, context.Context, *intentContext) (*Result, error){
	parser.StatusAgendamento: (*FleetService).applyAgendamento,
	parser.StatusEmUso:       (*FleetService).applyEmUso,
	parser.StatusFinalizado:  (*FleetService).applyFinalizado,
	parser.StatusCancelado:   (*FleetService).applyCancelado,
}

// resolve looks the vehicle up and settles the plate/display name the rest
// of the flow operates on. Unknown vehicles are tolerated: the record is
// kept under the raw identifier and no vehicle status is touched.
func (s *FleetService) resolve(ctx context.Context, intent *parser.Intent) (*intentContext, error) {
	vehicle, err := s.vehicles.FindByIdentifier(ctx, intent.ID, intent.Placa, intent.Veiculo)
	if err != nil {
		return nil, fmt.Errorf("find vehicle: %w", err)
	}

	ic := &intentContext{intent: intent, vehicle: vehicle}
	if vehicle != nil {
		ic.plate = vehicle.Plate
		ic.name = vehicle.DisplayName()
	} else {
		ic.plate = intent.Placa
		ic.name = firstNonEmpty(intent.Veiculo, intent.Placa, intent.ID, "Desconhecido")
	}
	return ic, nil
}

func (ic *intentContext) lockKey() string {
	if ic.plate != "" {
		return ic.plate
	}
	return ic.name
}

// applyAgendamento inserts a scheduled trip and reserves the vehicle. At
// most one open trip may exist per vehicle, so a vehicle with a trip still
// in agendado or em_andamento rejects a new scheduling message.
func (s *FleetService) applyAgendamento(ctx context.Context, ic *intentContext) (*Result, error) {
	if ic.vehicle != nil && ic.vehicle.Status.Exclusive() {
		return nil, validationf("Veículo %s não está disponível (status atual: %s).", ic.name, ic.vehicle.Status)
	}

	open, err := s.trips.FindMostRecent(ctx, ic.name, openStatuses)
	if err != nil {
		return nil, fmt.Errorf("find open trip: %w", err)
	}
	if open != nil {
		return nil, validationf("Já existe uma viagem em aberto para %s.", ic.name)
	}

	record := s.recordFromIntent(ic, models.RecordAgendado)
	if err := s.trips.Insert(ctx, record); err != nil {
		return nil, fmt.Errorf("insert trip: %w", err)
	}

	if err := s.setVehicleStatus(ctx, ic, models.VehicleAgendado); err != nil {
		return nil, err
	}
	return &Result{Record: record}, nil
}

// applyEmUso promotes the vehicle's scheduled trip in place, or inserts a
// fresh in-progress trip when no open one exists (tolerates a missed
// scheduling message).
func (s *FleetService) applyEmUso(ctx context.Context, ic *intentContext) (*Result, error) {
	open, err := s.trips.FindMostRecent(ctx, ic.name, openStatuses)
	if err != nil {
		return nil, fmt.Errorf("find open trip: %w", err)
	}

	var record *models.FleetRecord
	switch {
	case open != nil:
		// Promotion: same row, new values.
		if err := state.Transition(ctx, open, models.RecordEmAndamento); err != nil {
			return nil, fmt.Errorf("promote trip %s: %w", open.ID, err)
		}
		s.overlayIntent(open, ic)
		if err := s.trips.Update(ctx, open); err != nil {
			return nil, fmt.Errorf("update trip: %w", err)
		}
		record = open

	default:
		if ic.vehicle != nil && ic.vehicle.Status.Exclusive() {
			return nil, validationf("Veículo %s não está disponível (status atual: %s).", ic.name, ic.vehicle.Status)
		}
		record = s.recordFromIntent(ic, models.RecordEmAndamento)
		if err := s.trips.Insert(ctx, record); err != nil {
			return nil, fmt.Errorf("insert trip: %w", err)
		}
	}

	if err := s.setVehicleStatus(ctx, ic, models.VehicleEmUso); err != nil {
		return nil, err
	}
	return &Result{Record: record}, nil
}

// applyFinalizado closes the most recent open trip and releases or blocks
// the vehicle depending on the closing checklist.
func (s *FleetService) applyFinalizado(ctx context.Context, ic *intentContext) (*Result, error) {
	open, err := s.trips.FindMostRecent(ctx, ic.name, openStatuses)
	if err != nil {
		return nil, fmt.Errorf("find open trip: %w", err)
	}
	if open == nil {
		return nil, validationf("Nenhuma viagem em aberto encontrada para %s.", ic.name)
	}

	intent := ic.intent
	if intent.KmFinal != nil && *intent.KmFinal != 0 && *intent.KmFinal < open.KmInicial {
		return nil, validationf("O KM final não pode ser menor que o KM inicial.")
	}

	if err := state.Transition(ctx, open, models.RecordFinalizado); err != nil {
		return nil, fmt.Errorf("finish trip %s: %w", open.ID, err)
	}

	if intent.KmFinal != nil && *intent.KmFinal != 0 {
		open.KmFinal = intent.KmFinal
	}
	if intent.DataFinal != "" {
		open.DataFinal = intent.DataFinal
	} else if open.DataFinal == "" {
		open.DataFinal = open.DataInicial
	}
	if intent.HorarioFinal != "" {
		open.HorarioFinal = intent.HorarioFinal
	}
	if intent.TanqueDevolucao != "" || intent.NecessarioAbastecer != nil {
		open.Tanque = parser.MapTanque(intent.TanqueDevolucao, intent.NecessarioAbastecer != nil && *intent.NecessarioAbastecer)
	}
	open.Lavagem = lavagemFromIntent(intent, open.Lavagem)
	if intent.Estacionado != "" {
		open.AndarEstacionado = intent.Estacionado
	}
	open.RawMessage = &intent.RawMessage

	if err := s.trips.Update(ctx, open); err != nil {
		return nil, fmt.Errorf("update trip: %w", err)
	}

	next := models.VehicleDisponivel
	if open.PendingMaintenance() {
		next = models.VehicleBloqueado
	}
	if err := s.setVehicleStatus(ctx, ic, next); err != nil {
		return nil, err
	}
	return &Result{Record: open}, nil
}

// applyCancelado voids the most recent open trip and frees the vehicle.
func (s *FleetService) applyCancelado(ctx context.Context, ic *intentContext) (*Result, error) {
	open, err := s.trips.FindMostRecent(ctx, ic.name, openStatuses)
	if err != nil {
		return nil, fmt.Errorf("find open trip: %w", err)
	}
	if open == nil {
		return nil, validationf("Nenhuma viagem em aberto encontrada para %s.", ic.name)
	}

	if err := state.Transition(ctx, open, models.RecordCancelado); err != nil {
		return nil, fmt.Errorf("cancel trip %s: %w", open.ID, err)
	}
	open.RawMessage = &ic.intent.RawMessage
	if err := s.trips.Update(ctx, open); err != nil {
		return nil, fmt.Errorf("update trip: %w", err)
	}

	if err := s.setVehicleStatus(ctx, ic, models.VehicleDisponivel); err != nil {
		return nil, err
	}
	return &Result{Record: open}, nil
}

var openStatuses = []models.RecordStatus{models.RecordAgendado, models.RecordEmAndamento}

// setVehicleStatus applies the vehicle side of a transition. Unregistered
// vehicles are skipped. A failure here leaves the trip write standing: it
// is reported, never retried, and never rolled back.
func (s *FleetService) setVehicleStatus(ctx context.Context, ic *intentContext, status models.VehicleStatus) error {
	if ic.vehicle == nil {
		return nil
	}
	if err := s.vehicles.SetStatus(ctx, ic.vehicle.Plate, status); err != nil {
		s.logger.Error("trip written but vehicle status update failed",
			zap.String("plate", ic.vehicle.Plate),
			zap.String("status", string(status)),
			zap.Error(err),
		)
		return fmt.Errorf("update vehicle status: %w", err)
	}
	return nil
}

// recordFromIntent builds a fresh fleet record from the intent, applying
// the same defaults the manual entry form would.
func (s *FleetService) recordFromIntent(ic *intentContext, status models.RecordStatus) *models.FleetRecord {
	intent := ic.intent

	record := &models.FleetRecord{
		Veiculo:          ic.name,
		Responsavel:      intent.Responsavel,
		DataInicial:      intent.DataInicial,
		HorarioInicial:   intent.HorarioInicial,
		DataFinal:        firstNonEmpty(intent.DataFinal, intent.DataInicial),
		HorarioFinal:     firstNonEmpty(intent.HorarioFinal, "00:00"),
		Destino:          intent.Destino,
		Atividade:        firstNonEmpty(intent.Atividade, "Não informada"),
		Lavagem:          lavagemFromIntent(intent, models.LavagemRealizada),
		Tanque:           parser.MapTanque(intent.TanqueDevolucao, intent.NecessarioAbastecer != nil && *intent.NecessarioAbastecer),
		AndarEstacionado: firstNonEmpty(intent.Estacionado, "P"),
		Status:           status,
		Source:           firstNonEmpty(intent.Area, "whatsapp"),
	}
	if intent.KmInicial != nil {
		record.KmInicial = *intent.KmInicial
	}
	if intent.KmFinal != nil && *intent.KmFinal != 0 {
		record.KmFinal = intent.KmFinal
	}
	raw := intent.RawMessage
	record.RawMessage = &raw
	return record
}

// overlayIntent overwrites the promotable fields of an existing record with
// the values a new EM USO message carries. Empty fields keep the scheduled
// values.
func (s *FleetService) overlayIntent(record *models.FleetRecord, ic *intentContext) {
	intent := ic.intent

	record.Veiculo = ic.name
	if intent.Responsavel != "" {
		record.Responsavel = intent.Responsavel
	}
	if intent.DataInicial != "" {
		record.DataInicial = intent.DataInicial
	}
	if intent.HorarioInicial != "" {
		record.HorarioInicial = intent.HorarioInicial
	}
	if intent.Destino != "" {
		record.Destino = intent.Destino
	}
	if intent.KmInicial != nil {
		record.KmInicial = *intent.KmInicial
	}
	if intent.Atividade != "" {
		record.Atividade = intent.Atividade
	}
	if intent.Area != "" {
		record.Source = intent.Area
	}
	if intent.Estacionado != "" {
		record.AndarEstacionado = intent.Estacionado
	}
	raw := intent.RawMessage
	record.RawMessage = &raw
}

// lavagemFromIntent settles the wash status from whichever checklist answer
// the message carries, keeping the previous value when it carries none.
func lavagemFromIntent(intent *parser.Intent, fallback models.LavagemStatus) models.LavagemStatus {
	if intent.LavagemRealizada != nil {
		if *intent.LavagemRealizada {
			return models.LavagemRealizada
		}
		return models.LavagemPendente
	}
	if intent.NecessarioLavagem != nil {
		if *intent.NecessarioLavagem {
			return models.LavagemPendente
		}
		return models.LavagemRealizada
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
