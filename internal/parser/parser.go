// Package parser turns one raw WhatsApp fleet-control message into a
// validated Intent, or rejects it with the exact reason. The grammar is a
// fixed header followed by newline-separated "Chave: Valor" lines; keys
// are matched case- and accent-insensitively after stripping the * marks
// WhatsApp uses for emphasis. Unknown keys and malformed lines are
// skipped; only missing required data is fatal.
package parser

import "strings"

// Header every valid message must start with.
const Header = "CONTROLE DE FROTA"

// Status is the transition a message asks for.
type Status string

const (
	StatusAgendamento Status = "AGENDAMENTO"
	StatusEmUso       Status = "EM USO"
	StatusCancelado   Status = "CANCELADO"
	StatusFinalizado  Status = "FINALIZADO"
)

var validStatuses = map[string]Status{
	"AGENDAMENTO": StatusAgendamento,
	"EM USO":      StatusEmUso,
	"CANCELADO":   StatusCancelado,
	"FINALIZADO":  StatusFinalizado,
}

// Intent is the structured projection of one message. Dates arrive
// normalized to YYYY-MM-DD, times to HH:MM, odometer values parsed.
type Intent struct {
	Status Status

	// Vehicle identifiers, in resolution preference order.
	ID      string
	Placa   string
	Veiculo string

	DataInicial    string
	HorarioInicial string
	DataFinal      string
	HorarioFinal   string

	Destino     string
	KmInicial   *float64
	KmFinal     *float64
	Responsavel string
	Area        string
	Atividade   string
	Projeto     string

	// Checklist.
	NecessarioLavagem   *bool
	LavagemRealizada    *bool
	TanqueDevolucao     string // 1/4, 1/2, 3/4, CHEIO
	HouveAbastecimento  string
	NecessarioAbastecer *bool
	Estacionado         string

	// Untouched source text, kept for audit and display.
	RawMessage string
}

// ParseError is a rejection with the offending field and an operator-facing
// reason in the operators' language.
type ParseError struct {
	Field  string
	Reason string
}

func (e *ParseError) Error() string { return e.Reason }

// HasIdentifier reports whether at least one vehicle identifier is present.
func (i *Intent) HasIdentifier() bool {
	return i.ID != "" || i.Placa != "" || i.Veiculo != ""
}

// Parse validates one raw message blob against the strict grammar.
func Parse(raw string) (*Intent, error) {
	var lines []string
	for _, l := range strings.Split(raw, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}

	if len(lines) == 0 || normalizeKey(lines[0]) != Header {
		return nil, &ParseError{
			Field:  "CABEÇALHO",
			Reason: `Cabeçalho inválido. Mensagem deve começar com "CONTROLE DE FROTA".`,
		}
	}

	intent := &Intent{RawMessage: raw}

	for _, line := range lines[1:] {
		clean := strings.TrimSpace(strings.ReplaceAll(line, "*", ""))
		parts := strings.SplitN(clean, ":", 2)
		if len(parts) < 2 {
			continue // not a Key: Value line
		}
		key := normalizeKey(parts[0])
		value := strings.TrimSpace(parts[1])
		if value == "" {
			continue // empty values mean "not informed"
		}
		if err := intent.set(key, value); err != nil {
			return nil, err
		}
	}

	if err := intent.validate(); err != nil {
		return nil, err
	}
	return intent, nil
}

// normalizeKey uppercases, strips emphasis marks and folds accents so that
// "Responsável", "RESPONSAVEL" and "*responsavel*" all match.
func normalizeKey(s string) string {
	s = strings.ReplaceAll(s, "*", "")
	return deaccent(strings.ToUpper(strings.TrimSpace(s)))
}

func (i *Intent) set(key, value string) error {
	var err error
	switch key {
	case "STATUS":
		status, ok := validStatuses[deaccent(strings.ToUpper(value))]
		if !ok {
			return &ParseError{Field: "STATUS", Reason: "Status inválido: " + value}
		}
		i.Status = status

	case "ID":
		i.ID = value
	case "PLACA":
		i.Placa = value
	case "VEICULO":
		i.Veiculo = value

	case "DATA INICIAL":
		if i.DataInicial, err = NormalizeDate(value); err != nil {
			return &ParseError{Field: "DATA INICIAL", Reason: "DATA INICIAL: " + err.Error()}
		}
	case "HORARIO INICIAL":
		if i.HorarioInicial, err = NormalizeTime(value); err != nil {
			return &ParseError{Field: "HORÁRIO INICIAL", Reason: "HORÁRIO INICIAL: " + err.Error()}
		}
	case "DATA FINAL":
		if i.DataFinal, err = NormalizeDate(value); err != nil {
			return &ParseError{Field: "DATA FINAL", Reason: "DATA FINAL: " + err.Error()}
		}
	case "HORARIO FINAL":
		if i.HorarioFinal, err = NormalizeTime(value); err != nil {
			return &ParseError{Field: "HORÁRIO FINAL", Reason: "HORÁRIO FINAL: " + err.Error()}
		}

	case "DESTINO":
		i.Destino = value
	case "KM INICIAL":
		km, kmErr := ParseOdometer(value)
		if kmErr != nil {
			return &ParseError{Field: "KM INICIAL", Reason: "KM INICIAL: " + kmErr.Error()}
		}
		i.KmInicial = &km
	case "KM FINAL":
		km, kmErr := ParseOdometer(value)
		if kmErr != nil {
			return &ParseError{Field: "KM FINAL", Reason: "KM FINAL: " + kmErr.Error()}
		}
		i.KmFinal = &km

	case "RESPONSAVEL", "MOTORISTA":
		i.Responsavel = value
	case "AREA":
		i.Area = TitleCase(value)
	case "ATIVIDADE":
		i.Atividade = value
	case "PROJETO":
		i.Projeto = value

	case "NECESSARIO LAVAGEM?", "NECESSARIO LAVAGEM":
		b := isSim(value)
		i.NecessarioLavagem = &b
	case "LAVAGEM REALIZADA":
		b := isSim(value)
		i.LavagemRealizada = &b
	case "TANQUE NA DEVOLUCAO":
		v := strings.ToUpper(value)
		if v == "1/4" || v == "1/2" || v == "3/4" || v == "CHEIO" {
			i.TanqueDevolucao = v
		}
	case "HOUVE ABASTECIMENTO":
		i.HouveAbastecimento = value
	case "NECESSARIO ABASTECER":
		b := isSim(value)
		i.NecessarioAbastecer = &b

	case "ESTACIONADO":
		i.Estacionado = value
	}
	// Unrecognized keys fall through untouched: forward compatible.
	return nil
}

func (i *Intent) validate() error {
	if i.Status == "" {
		return &ParseError{Field: "STATUS", Reason: "Campo STATUS é obrigatório."}
	}
	if !i.HasIdentifier() {
		return &ParseError{Field: "VEÍCULO", Reason: "É necessário informar ID, PLACA ou VEÍCULO."}
	}

	if i.Status == StatusAgendamento {
		var missing []string
		if i.DataInicial == "" {
			missing = append(missing, "DATA INICIAL")
		}
		if i.HorarioInicial == "" {
			missing = append(missing, "HORÁRIO INICIAL")
		}
		if i.Responsavel == "" {
			missing = append(missing, "RESPONSÁVEL")
		}
		if len(missing) > 0 {
			return &ParseError{
				Field:  strings.Join(missing, ", "),
				Reason: "Campos obrigatórios para AGENDAMENTO: " + strings.Join(missing, ", "),
			}
		}
	}
	return nil
}

func isSim(value string) bool {
	return deaccent(strings.ToUpper(strings.TrimSpace(value))) == "SIM"
}
