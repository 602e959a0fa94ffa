package state

import (
	"context"
	"testing"

	"github.com/vhugonogueira-beep/frota-ls/internal/models"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to models.RecordStatus }{
		{models.RecordAgendado, models.RecordEmAndamento},
		{models.RecordAgendado, models.RecordFinalizado},
		{models.RecordAgendado, models.RecordCancelado},
		{models.RecordEmAndamento, models.RecordFinalizado},
		{models.RecordEmAndamento, models.RecordCancelado},
	}
	for _, tc := range allowed {
		if !CanTransition(tc.from, tc.to) {
			t.Fatalf("expected %s -> %s allowed", tc.from, tc.to)
		}
	}

	denied := []struct{ from, to models.RecordStatus }{
		{models.RecordFinalizado, models.RecordEmAndamento},
		{models.RecordFinalizado, models.RecordCancelado},
		{models.RecordCancelado, models.RecordEmAndamento},
		{models.RecordCancelado, models.RecordFinalizado},
		{models.RecordEmAndamento, models.RecordAgendado},
	}
	for _, tc := range denied {
		if CanTransition(tc.from, tc.to) {
			t.Fatalf("expected %s -> %s denied", tc.from, tc.to)
		}
	}
}

func TestTransitionMutatesRecord(t *testing.T) {
	rec := &models.FleetRecord{Status: models.RecordAgendado}
	if err := Transition(context.Background(), rec, models.RecordEmAndamento); err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if rec.Status != models.RecordEmAndamento {
		t.Fatalf("got %s", rec.Status)
	}

	if err := Transition(context.Background(), rec, models.RecordFinalizado); err != nil {
		t.Fatalf("Transition: %v", err)
	}

	// Terminal statuses never move again.
	if err := Transition(context.Background(), rec, models.RecordCancelado); err == nil {
		t.Fatal("expected terminal status to refuse transition")
	}
	if rec.Status != models.RecordFinalizado {
		t.Fatalf("record mutated on refused transition: %s", rec.Status)
	}
}

func TestTransitionSameStatusIsNoop(t *testing.T) {
	rec := &models.FleetRecord{Status: models.RecordEmAndamento}
	if err := Transition(context.Background(), rec, models.RecordEmAndamento); err != nil {
		t.Fatalf("Transition: %v", err)
	}
}
