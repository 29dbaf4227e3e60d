package election

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Níveis da hierarquia DICO.
const (
	LevelDistrito  = 1
	LevelConcelho  = 2
	LevelFreguesia = 3
)

// DicoCode representa uma unidade geográfica (distrito, concelho ou freguesia).
type DicoCode struct {
	Code       string  `json:"code"`
	Level      int     `json:"level"`
	Name       string  `json:"name"`
	ParentCode *string `json:"parent_code"`
}

// DicoDetail é o código acompanhado dos filhos diretos.
type DicoDetail struct {
	DicoCode
	Children []DicoCode `json:"children"`
}

// DicoFilter restringe a listagem; campos nil não filtram.
type DicoFilter struct {
	Level  *int
	Parent *string
}

// Election descreve um ato eleitoral.
type Election struct {
	ElectionID string  `json:"election_id"`
	Name       string  `json:"name"`
	Date       Date    `json:"date"`
	Type       *string `json:"type"`
}

// Result é a votação de um partido numa geografia para uma eleição.
type Result struct {
	ElectionID string    `json:"election_id"`
	DicoCode   string    `json:"dico_code"`
	PartyCode  string    `json:"party_code"`
	Votes      int64     `json:"votes"`
	Percentage *Percent  `json:"percentage"`
	CreatedAt  time.Time `json:"-"`
	UpdatedAt  time.Time `json:"-"`
}

// SummaryRow é uma linha do resumo por geografia.
type SummaryRow struct {
	PartyCode  string  `json:"party_code"`
	Votes      int64   `json:"votes"`
	Percentage Percent `json:"percentage"`
}

// Summary agrega os resultados de uma geografia.
type Summary struct {
	ElectionID string       `json:"election_id"`
	DicoCode   string       `json:"dico_code"`
	TotalVotes int64        `json:"total_votes"`
	Results    []SummaryRow `json:"results"`
}

// Stats resume uma eleição inteira.
type Stats struct {
	ElectionID      string `json:"election_id"`
	Name            string `json:"name"`
	TotalVotes      int64  `json:"total_votes"`
	TotalResults    int    `json:"total_results"`
	UniqueParties   int    `json:"unique_parties"`
	UniqueLocations int    `json:"unique_locations"`
}

// Date serializa como data ISO-8601 (AAAA-MM-DD).
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("data inválida: %s", s)
	}
	t, err := time.Parse(dateLayout, s[1:len(s)-1])
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// Percent é um percentual em ponto fixo, serializado como número com duas casas.
type Percent struct {
	decimal.Decimal
}

// NewPercent arredonda d para duas casas.
func NewPercent(d decimal.Decimal) Percent {
	return Percent{Decimal: d.Round(2)}
}

func (p Percent) MarshalJSON() ([]byte, error) {
	return []byte(p.StringFixed(2)), nil
}

func (p *Percent) UnmarshalJSON(b []byte) error {
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return fmt.Errorf("percentual inválido: %w", err)
	}
	p.Decimal = d
	return nil
}
