package parser

import (
	"strings"
	"testing"
)

const validFinishMsg = `CONTROLE DE FROTA
Status: FINALIZADO
Placa: ABC1D23
Data Final: 10/06/2024
Horário Final: 17h30
KM Final: 45.230,5
Tanque na Devolução: 3/4
Necessário Lavagem?: SIM
Estacionado: P2`

func TestParseFinishMessage(t *testing.T) {
	intent, err := Parse(validFinishMsg)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if intent.Status != StatusFinalizado {
		t.Fatalf("expected FINALIZADO, got %s", intent.Status)
	}
	if intent.Placa != "ABC1D23" {
		t.Fatalf("plate: got %q", intent.Placa)
	}
	if intent.DataFinal != "2024-06-10" {
		t.Fatalf("data final: got %q", intent.DataFinal)
	}
	if intent.HorarioFinal != "17:30" {
		t.Fatalf("horário final: got %q", intent.HorarioFinal)
	}
	if intent.KmFinal == nil || *intent.KmFinal != 45230.5 {
		t.Fatalf("km final: got %v", intent.KmFinal)
	}
	if intent.TanqueDevolucao != "3/4" {
		t.Fatalf("tanque: got %q", intent.TanqueDevolucao)
	}
	if intent.NecessarioLavagem == nil || !*intent.NecessarioLavagem {
		t.Fatalf("necessário lavagem: got %v", intent.NecessarioLavagem)
	}
	if intent.RawMessage != validFinishMsg {
		t.Fatal("raw message must be kept untouched")
	}
}

func TestParseRejectsMissingHeader(t *testing.T) {
	_, err := Parse("Status: EM USO\nPlaca: ABC1D23")
	perr := asParseError(t, err)
	if perr.Field != "CABEÇALHO" {
		t.Fatalf("expected header rejection, got %v", perr)
	}
}

func TestParseHeaderToleratesEmphasisAndCase(t *testing.T) {
	msg := "*controle de frota*\nStatus: EM USO\nPlaca: ABC1D23"
	if _, err := Parse(msg); err != nil {
		t.Fatalf("Parse: %v", err)
	}
}

func TestParseRejectsMissingStatus(t *testing.T) {
	_, err := Parse("CONTROLE DE FROTA\nPlaca: ABC1D23")
	perr := asParseError(t, err)
	if perr.Field != "STATUS" {
		t.Fatalf("expected STATUS rejection, got %v", perr)
	}
	if !strings.Contains(perr.Reason, "STATUS") {
		t.Fatalf("reason must name the field: %s", perr.Reason)
	}
}

func TestParseRejectsUnknownStatusNamingToken(t *testing.T) {
	_, err := Parse("CONTROLE DE FROTA\nStatus: EMPRESTADO\nPlaca: ABC1D23")
	perr := asParseError(t, err)
	if !strings.Contains(perr.Reason, "EMPRESTADO") {
		t.Fatalf("rejection must name the offending token: %s", perr.Reason)
	}
}

func TestParseRejectsMissingIdentifier(t *testing.T) {
	_, err := Parse("CONTROLE DE FROTA\nStatus: EM USO\nDestino: Obra Norte")
	perr := asParseError(t, err)
	if !strings.Contains(perr.Reason, "ID, PLACA ou VEÍCULO") {
		t.Fatalf("got %s", perr.Reason)
	}
}

func TestParseSchedulingEnumeratesEveryMissingField(t *testing.T) {
	_, err := Parse("CONTROLE DE FROTA\nStatus: AGENDAMENTO\nPlaca: ABC1D23")
	perr := asParseError(t, err)
	for _, want := range []string{"DATA INICIAL", "HORÁRIO INICIAL", "RESPONSÁVEL"} {
		if !strings.Contains(perr.Reason, want) {
			t.Fatalf("missing %s in %s", want, perr.Reason)
		}
	}

	// With the date informed, only the other two remain.
	_, err = Parse("CONTROLE DE FROTA\nStatus: AGENDAMENTO\nPlaca: ABC1D23\nData Inicial: 01/07/2024")
	perr = asParseError(t, err)
	if strings.Contains(perr.Reason, "DATA INICIAL") {
		t.Fatalf("DATA INICIAL is present, must not be listed: %s", perr.Reason)
	}
}

func TestParseValidScheduling(t *testing.T) {
	msg := `CONTROLE DE FROTA
Status: agendamento
Veículo: Strada
Data Inicial: 01/07/2024
Horário Inicial: 8
Motorista: João Pedro
Área: logística`
	intent, err := Parse(msg)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if intent.Status != StatusAgendamento {
		t.Fatalf("status: got %s", intent.Status)
	}
	if intent.HorarioInicial != "08:00" {
		t.Fatalf("horário: got %q", intent.HorarioInicial)
	}
	// MOTORISTA is an alias for RESPONSÁVEL.
	if intent.Responsavel != "João Pedro" {
		t.Fatalf("responsável: got %q", intent.Responsavel)
	}
	if intent.Area != "Logística" {
		t.Fatalf("área: got %q", intent.Area)
	}
}

func TestParseKeyAliasesAndEmphasis(t *testing.T) {
	msg := "CONTROLE DE FROTA\nStatus: EM USO\n*RESPONSAVEL*: Maria\nVEICULO: Fiat Toro"
	intent, err := Parse(msg)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if intent.Responsavel != "Maria" || intent.Veiculo != "Fiat Toro" {
		t.Fatalf("got %+v", intent)
	}
}

func TestParseIgnoresNoiseLines(t *testing.T) {
	msg := strings.Join([]string{
		"CONTROLE DE FROTA",
		"Status: EM USO",
		"Placa: ABC1D23",
		"bom dia pessoal",        // no colon
		"Cor Favorita: azul",     // unknown key
		"Destino:",               // empty value
	}, "\n")
	intent, err := Parse(msg)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if intent.Destino != "" {
		t.Fatalf("empty value must stay unset, got %q", intent.Destino)
	}
}

func TestParseValueMayContainColons(t *testing.T) {
	msg := "CONTROLE DE FROTA\nStatus: EM USO\nPlaca: ABC1D23\nHorário Inicial: 09:15"
	intent, err := Parse(msg)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if intent.HorarioInicial != "09:15" {
		t.Fatalf("got %q", intent.HorarioInicial)
	}
}

func TestParseRejectsBadDate(t *testing.T) {
	msg := "CONTROLE DE FROTA\nStatus: EM USO\nPlaca: ABC1D23\nData Inicial: 2024-07-01"
	_, err := Parse(msg)
	perr := asParseError(t, err)
	if perr.Field != "DATA INICIAL" {
		t.Fatalf("got %v", perr)
	}
}

func asParseError(t *testing.T, err error) *ParseError {
	t.Helper()
	if err == nil {
		t.Fatal("expected a parse error")
	}
	perr, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("expected *ParseError, got %T: %v", err, err)
	}
	return perr
}
