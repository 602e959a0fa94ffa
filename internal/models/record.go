package models

import "time"

// RecordStatus mirrors the trip_status enum in the database.
type RecordStatus string

const (
	RecordAgendado    RecordStatus = "agendado"
	RecordEmAndamento RecordStatus = "em_andamento"
	RecordFinalizado  RecordStatus = "finalizado"
	RecordCancelado   RecordStatus = "cancelado"
)

// Terminal reports whether the status accepts no further transitions.
func (s RecordStatus) Terminal() bool {
	return s == RecordFinalizado || s == RecordCancelado
}

// LavagemStatus mirrors the lavagem_status enum.
type LavagemStatus string

const (
	LavagemRealizada LavagemStatus = "realizada"
	LavagemPendente  LavagemStatus = "pendente"
)

// TanqueStatus mirrors the tanque_status enum.
type TanqueStatus string

const (
	TanqueCheio     TanqueStatus = "cheio"
	TanqueMeio      TanqueStatus = "meio_tanque"
	TanqueAbastecer TanqueStatus = "necessario_abastecer"
)

// FleetRecord is one checkout-to-return episode for a vehicle.
// Dates are stored as YYYY-MM-DD, times as HH:MM, distances in km.
type FleetRecord struct {
	ID                          string        `json:"id" db:"id"`
	Veiculo                     string        `json:"veiculo" db:"veiculo"`
	DataInicial                 string        `json:"data_inicial" db:"data_inicial"`
	HorarioInicial              string        `json:"horario_inicial" db:"horario_inicial"`
	DataFinal                   string        `json:"data_final" db:"data_final"`
	HorarioFinal                string        `json:"horario_final" db:"horario_final"`
	Destino                     string        `json:"destino" db:"destino"`
	KmInicial                   float64       `json:"km_inicial" db:"km_inicial"`
	KmFinal                     *float64      `json:"km_final,omitempty" db:"km_final"`
	Responsavel                 string        `json:"responsavel" db:"responsavel"`
	Atividade                   string        `json:"atividade" db:"atividade"`
	Lavagem                     LavagemStatus `json:"lavagem" db:"lavagem"`
	Tanque                      TanqueStatus  `json:"tanque" db:"tanque"`
	AndarEstacionado            string        `json:"andar_estacionado" db:"andar_estacionado"`
	Status                      RecordStatus  `json:"status" db:"status"`
	Source                      string        `json:"source" db:"source"`
	RawMessage                  *string       `json:"raw_message,omitempty" db:"raw_message"`
	FotoPainelInicialURL        *string       `json:"foto_painel_inicial_url,omitempty" db:"foto_painel_inicial_url"`
	FotoPainelFinalURL          *string       `json:"foto_painel_final_url,omitempty" db:"foto_painel_final_url"`
	ComprovanteAbastecimentoURL *string       `json:"comprovante_abastecimento_url,omitempty" db:"comprovante_abastecimento_url"`
	CreatedAt                   time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt                   time.Time     `json:"updated_at" db:"updated_at"`
}

// PendingMaintenance reports whether the closing checklist leaves the
// vehicle blocked: tank flagged for refill or wash still pending.
func (r *FleetRecord) PendingMaintenance() bool {
	return r.Tanque == TanqueAbastecer || r.Lavagem == LavagemPendente
}

// FleetStats aggregates the dashboard counters.
type FleetStats struct {
	TotalViagens       int     `json:"total_viagens"`
	TotalKm            float64 `json:"total_km"`
	VeiculosAtivos     int     `json:"veiculos_ativos"`
	LavagensRealizadas int     `json:"lavagens_realizadas"`
}
