// Package state models the trip lifecycle as an explicit state machine:
// agendado -> em_andamento -> finalizado, with cancelamento possible from
// any open status. Finalizado and cancelado are terminal.
package state

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"

	"github.com/vhugonogueira-beep/frota-ls/internal/models"
)

// Lifecycle events.
const (
	EventIniciar   = "iniciar"   // agendado -> em_andamento (promotion)
	EventFinalizar = "finalizar" // open trip -> finalizado
	EventCancelar  = "cancelar"  // open trip -> cancelado
)

// eventFor maps a target status to the event that reaches it.
var eventFor = map[models.RecordStatus]string{
	models.RecordEmAndamento: EventIniciar,
	models.RecordFinalizado:  EventFinalizar,
	models.RecordCancelado:   EventCancelar,
}

// Machine wraps the trip FSM for one record.
type Machine struct {
	fsm *fsm.FSM
}

// NewMachine creates a machine positioned at the record's current status.
func NewMachine(current models.RecordStatus) *Machine {
	return &Machine{
		fsm: fsm.NewFSM(
			string(current),
			fsm.Events{
				{Name: EventIniciar, Src: []string{string(models.RecordAgendado)}, Dst: string(models.RecordEmAndamento)},
				{Name: EventFinalizar, Src: []string{string(models.RecordAgendado), string(models.RecordEmAndamento)}, Dst: string(models.RecordFinalizado)},
				{Name: EventCancelar, Src: []string{string(models.RecordAgendado), string(models.RecordEmAndamento)}, Dst: string(models.RecordCancelado)},
			},
			fsm.Callbacks{},
		),
	}
}

// Current returns the machine's status.
func (m *Machine) Current() models.RecordStatus {
	return models.RecordStatus(m.fsm.Current())
}

// Fire triggers an event.
func (m *Machine) Fire(ctx context.Context, event string) error {
	if err := m.fsm.Event(ctx, event); err != nil {
		return fmt.Errorf("trigger event %s: %w", event, err)
	}
	return nil
}

// Can reports whether the event may fire from the current status.
func (m *Machine) Can(event string) bool {
	return m.fsm.Can(event)
}

// CanTransition reports whether a record may move from one status to
// another. Same-status is a no-op and always allowed.
func CanTransition(from, to models.RecordStatus) bool {
	if from == to {
		return true
	}
	event, ok := eventFor[to]
	if !ok {
		return false
	}
	return NewMachine(from).Can(event)
}

// Transition moves a record to the target status, refusing anything the
// lifecycle graph does not permit (terminal statuses never move again).
func Transition(ctx context.Context, record *models.FleetRecord, to models.RecordStatus) error {
	if record.Status == to {
		return nil
	}
	event, ok := eventFor[to]
	if !ok {
		return fmt.Errorf("no transition reaches status %s", to)
	}
	m := NewMachine(record.Status)
	if err := m.Fire(ctx, event); err != nil {
		return fmt.Errorf("transition %s -> %s: %w", record.Status, to, err)
	}
	record.Status = m.Current()
	return nil
}
