package service

import (
	"context"
	"testing"

	"github.com/vhugonogueira-beep/frota-ls/internal/models"
)

func seedRecord(t *testing.T, svc *FleetService, status models.RecordStatus) *models.FleetRecord {
	t.Helper()
	record := &models.FleetRecord{
		Veiculo:          "Strada",
		DataInicial:      "2024-07-01",
		HorarioInicial:   "08:00",
		DataFinal:        "2024-07-01",
		HorarioFinal:     "00:00",
		KmInicial:        400,
		Responsavel:      "João",
		Atividade:        "Entrega",
		Lavagem:          models.LavagemRealizada,
		Tanque:           models.TanqueCheio,
		AndarEstacionado: "P",
		Status:           status,
		Source:           "web",
	}
	created, err := svc.CreateRecord(context.Background(), record)
	if err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}
	return created
}

func TestCreateRecordOccupiesVehicle(t *testing.T) {
	svc, fv, ft, _ := newTestService(testVehicle("ABC1D23", models.VehicleDisponivel))

	record := seedRecord(t, svc, models.RecordEmAndamento)
	if record.ID == "" {
		t.Fatal("expected an ID to be assigned")
	}
	if ft.inserts != 1 {
		t.Fatalf("inserts: %d", ft.inserts)
	}
	if got := fv.statusCalls["ABC1D23"]; got != models.VehicleEmUso {
		t.Fatalf("vehicle status: %s", got)
	}
}

func TestCreateRecordScheduledReservesVehicle(t *testing.T) {
	svc, fv, _, _ := newTestService(testVehicle("ABC1D23", models.VehicleDisponivel))

	seedRecord(t, svc, models.RecordAgendado)
	if got := fv.statusCalls["ABC1D23"]; got != models.VehicleAgendado {
		t.Fatalf("vehicle status: %s", got)
	}
}

func TestCreateRecordRejectedWhenVehicleBlocked(t *testing.T) {
	svc, _, ft, _ := newTestService(testVehicle("ABC1D23", models.VehicleBloqueado))

	_, err := svc.CreateRecord(context.Background(), &models.FleetRecord{
		Veiculo:        "Strada",
		DataInicial:    "2024-07-01",
		HorarioInicial: "08:00",
		Responsavel:    "João",
		Status:         models.RecordAgendado,
	})
	if !IsValidation(err) {
		t.Fatalf("expected validation rejection, got %v", err)
	}
	if ft.inserts != 0 {
		t.Fatal("rejection must leave no partial writes")
	}
}

func TestCreateRecordRejectsTerminalStatus(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.CreateRecord(context.Background(), &models.FleetRecord{
		Veiculo: "Strada",
		Status:  models.RecordFinalizado,
	})
	if !IsValidation(err) {
		t.Fatalf("expected validation rejection, got %v", err)
	}
}

func TestUpdateRecordWritesAuditDiff(t *testing.T) {
	svc, _, _, fa := newTestService(testVehicle("ABC1D23", models.VehicleDisponivel))
	record := seedRecord(t, svc, models.RecordEmAndamento)

	destino := "Obra Norte"
	km := 420.0
	updated, err := svc.UpdateRecord(context.Background(), record.ID, "maria", &RecordUpdate{
		Destino:   &destino,
		KmInicial: &km,
	})
	if err != nil {
		t.Fatalf("UpdateRecord: %v", err)
	}
	if updated.Destino != "Obra Norte" || updated.KmInicial != 420 {
		t.Fatalf("update not applied: %+v", updated)
	}

	if len(fa.entries) != 1 {
		t.Fatalf("audit entries: %d", len(fa.entries))
	}
	entry := fa.entries[0]
	if entry.Actor != "maria" || entry.Action != "update" {
		t.Fatalf("audit entry: %+v", entry)
	}
	if len(entry.ChangedFields) != 2 {
		t.Fatalf("changed fields: %+v", entry.ChangedFields)
	}
	for _, ch := range entry.ChangedFields {
		if ch.Field == "km_inicial" && (ch.Before != "400" || ch.After != "420") {
			t.Fatalf("km diff: %+v", ch)
		}
	}
}

func TestUpdateRecordNoChangesWritesNoAudit(t *testing.T) {
	svc, _, _, fa := newTestService(testVehicle("ABC1D23", models.VehicleDisponivel))
	record := seedRecord(t, svc, models.RecordEmAndamento)

	same := record.Destino
	if _, err := svc.UpdateRecord(context.Background(), record.ID, "maria", &RecordUpdate{Destino: &same}); err != nil {
		t.Fatalf("UpdateRecord: %v", err)
	}
	if len(fa.entries) != 0 {
		t.Fatalf("audit entries: %d", len(fa.entries))
	}
}

func TestUpdateRecordAuditFailureDoesNotBlock(t *testing.T) {
	svc, _, _, fa := newTestService(testVehicle("ABC1D23", models.VehicleDisponivel))
	fa.fail = true
	record := seedRecord(t, svc, models.RecordEmAndamento)

	destino := "Obra Sul"
	updated, err := svc.UpdateRecord(context.Background(), record.ID, "maria", &RecordUpdate{Destino: &destino})
	if err != nil {
		t.Fatalf("UpdateRecord must survive audit failure: %v", err)
	}
	if updated.Destino != "Obra Sul" {
		t.Fatalf("update not applied: %+v", updated)
	}
}

func TestUpdateRecordHandsVehicleOver(t *testing.T) {
	kombi := &models.Vehicle{
		ID:     "veh-2",
		Plate:  "XYZ9A88",
		Brand:  "Volkswagen",
		Model:  "Kombi",
		Status: models.VehicleDisponivel,
	}
	svc, fv, _, _ := newTestService(testVehicle("ABC1D23", models.VehicleDisponivel), kombi)
	record := seedRecord(t, svc, models.RecordEmAndamento)

	novo := "Kombi"
	if _, err := svc.UpdateRecord(context.Background(), record.ID, "maria", &RecordUpdate{Veiculo: &novo}); err != nil {
		t.Fatalf("UpdateRecord: %v", err)
	}
	if got := fv.statusCalls["ABC1D23"]; got != models.VehicleDisponivel {
		t.Fatalf("previous vehicle not freed: %v", fv.statusCalls)
	}
	if got := fv.statusCalls["XYZ9A88"]; got != models.VehicleEmUso {
		t.Fatalf("new vehicle not occupied: %v", fv.statusCalls)
	}
}

func TestUpdateRecordHandsVehicleOverByDisplayName(t *testing.T) {
	kombi := &models.Vehicle{
		ID:     "veh-2",
		Plate:  "XYZ9A88",
		Brand:  "Volkswagen",
		Model:  "Kombi",
		Status: models.VehicleDisponivel,
	}
	svc, fv, _, _ := newTestService(testVehicle("ABC1D23", models.VehicleDisponivel), kombi)

	// Message-originated records carry the display name, not the plate.
	inUse := mustParse(t, `CONTROLE DE FROTA
Status: EM USO
Placa: ABC1D23
Responsável: Maria`)
	result, err := svc.Process(context.Background(), inUse)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.Record.Veiculo != "Fiat Strada" {
		t.Fatalf("record veiculo: %s", result.Record.Veiculo)
	}

	novo := "Volkswagen Kombi"
	if _, err := svc.UpdateRecord(context.Background(), result.Record.ID, "maria", &RecordUpdate{Veiculo: &novo}); err != nil {
		t.Fatalf("UpdateRecord: %v", err)
	}
	if got := fv.statusCalls["ABC1D23"]; got != models.VehicleDisponivel {
		t.Fatalf("previous vehicle not freed: %v", fv.statusCalls)
	}
	if got := fv.statusCalls["XYZ9A88"]; got != models.VehicleEmUso {
		t.Fatalf("new vehicle not occupied: %v", fv.statusCalls)
	}
}

func TestUpdateRecordUnknownIDRejected(t *testing.T) {
	svc, _, _, _ := newTestService()

	destino := "x"
	_, err := svc.UpdateRecord(context.Background(), "missing", "maria", &RecordUpdate{Destino: &destino})
	if !IsValidation(err) {
		t.Fatalf("expected validation rejection, got %v", err)
	}
}

func TestStartRecordPromotesScheduledTrip(t *testing.T) {
	svc, fv, _, _ := newTestService(testVehicle("ABC1D23", models.VehicleDisponivel))
	record := seedRecord(t, svc, models.RecordAgendado)

	started, err := svc.StartRecord(context.Background(), record.ID, "ABC1D23")
	if err != nil {
		t.Fatalf("StartRecord: %v", err)
	}
	if started.Status != models.RecordEmAndamento {
		t.Fatalf("record status: %s", started.Status)
	}
	if got := fv.statusCalls["ABC1D23"]; got != models.VehicleEmUso {
		t.Fatalf("vehicle status: %s", got)
	}
}

func TestStartRecordRejectsNonScheduled(t *testing.T) {
	svc, _, _, _ := newTestService(testVehicle("ABC1D23", models.VehicleDisponivel))
	record := seedRecord(t, svc, models.RecordEmAndamento)

	_, err := svc.StartRecord(context.Background(), record.ID, "ABC1D23")
	if !IsValidation(err) {
		t.Fatalf("expected validation rejection, got %v", err)
	}
}

func TestFinishRecordWithPendencyBlocksVehicle(t *testing.T) {
	svc, fv, _, _ := newTestService(testVehicle("ABC1D23", models.VehicleDisponivel))
	record := seedRecord(t, svc, models.RecordEmAndamento)
	record.Tanque = models.TanqueAbastecer

	km := 500.0
	finished, err := svc.FinishRecord(context.Background(), record.ID, "ABC1D23", &km, nil, nil)
	if err != nil {
		t.Fatalf("FinishRecord: %v", err)
	}
	if finished.Status != models.RecordFinalizado {
		t.Fatalf("record status: %s", finished.Status)
	}
	if got := fv.statusCalls["ABC1D23"]; got != models.VehicleBloqueado {
		t.Fatalf("vehicle status: %s", got)
	}
}

func TestFinishRecordRejectsOdometerBelowStart(t *testing.T) {
	svc, _, _, _ := newTestService(testVehicle("ABC1D23", models.VehicleDisponivel))
	record := seedRecord(t, svc, models.RecordEmAndamento)

	km := 399.0
	_, err := svc.FinishRecord(context.Background(), record.ID, "ABC1D23", &km, nil, nil)
	if !IsValidation(err) {
		t.Fatalf("expected validation rejection, got %v", err)
	}
}

func TestFinishRecordAttachesPhotoURLs(t *testing.T) {
	svc, _, _, _ := newTestService(testVehicle("ABC1D23", models.VehicleDisponivel))
	record := seedRecord(t, svc, models.RecordEmAndamento)

	km := 500.0
	foto := "https://store/painel.jpg"
	comprovante := "https://store/recibo.jpg"
	finished, err := svc.FinishRecord(context.Background(), record.ID, "ABC1D23", &km, &foto, &comprovante)
	if err != nil {
		t.Fatalf("FinishRecord: %v", err)
	}
	if finished.FotoPainelFinalURL == nil || *finished.FotoPainelFinalURL != foto {
		t.Fatalf("foto painel: %v", finished.FotoPainelFinalURL)
	}
	if finished.ComprovanteAbastecimentoURL == nil || *finished.ComprovanteAbastecimentoURL != comprovante {
		t.Fatalf("comprovante: %v", finished.ComprovanteAbastecimentoURL)
	}
}

func TestCancelRecordFreesVehicle(t *testing.T) {
	svc, fv, _, _ := newTestService(testVehicle("ABC1D23", models.VehicleDisponivel))
	record := seedRecord(t, svc, models.RecordAgendado)

	cancelled, err := svc.CancelRecord(context.Background(), record.ID, "ABC1D23")
	if err != nil {
		t.Fatalf("CancelRecord: %v", err)
	}
	if cancelled.Status != models.RecordCancelado {
		t.Fatalf("record status: %s", cancelled.Status)
	}
	if got := fv.statusCalls["ABC1D23"]; got != models.VehicleDisponivel {
		t.Fatalf("vehicle status: %s", got)
	}
}

func TestDeleteActiveRecordFreesVehicle(t *testing.T) {
	svc, fv, ft, _ := newTestService(testVehicle("ABC1D23", models.VehicleDisponivel))
	record := seedRecord(t, svc, models.RecordEmAndamento)

	if err := svc.DeleteRecord(context.Background(), record.ID, "ABC1D23"); err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}
	if len(ft.records) != 0 {
		t.Fatalf("records: %d", len(ft.records))
	}
	if got := fv.statusCalls["ABC1D23"]; got != models.VehicleDisponivel {
		t.Fatalf("vehicle status: %s", got)
	}
}

func TestDeleteFinishedRecordLeavesVehicleAlone(t *testing.T) {
	svc, fv, ft, _ := newTestService(testVehicle("ABC1D23", models.VehicleDisponivel))
	record := seedRecord(t, svc, models.RecordEmAndamento)

	km := 500.0
	if _, err := svc.FinishRecord(context.Background(), record.ID, "ABC1D23", &km, nil, nil); err != nil {
		t.Fatalf("FinishRecord: %v", err)
	}
	delete(fv.statusCalls, "ABC1D23")

	if err := svc.DeleteRecord(context.Background(), record.ID, "ABC1D23"); err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}
	if len(ft.records) != 0 {
		t.Fatalf("records: %d", len(ft.records))
	}
	if _, touched := fv.statusCalls["ABC1D23"]; touched {
		t.Fatal("terminal record deletion must not touch the vehicle")
	}
}
