package election

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// SharePercent calcula votes/total*100 com duas casas; total zero devolve zero.
func SharePercent(votes, total int64) Percent {
	if total == 0 {
		return Percent{Decimal: decimal.Zero}
	}
	return NewPercent(decimal.NewFromInt(votes).Mul(hundred).Div(decimal.NewFromInt(total)))
}

// BuildSummary ordena por votos (decrescente) e resolve o percentual de cada linha.
// Empates mantêm a ordem de entrada.
func BuildSummary(electionID, dicoCode string, rows []Result) Summary {
	var total int64
	for _, r := range rows {
		total += r.Votes
	}

	sorted := slices.Clone(rows)
	slices.SortStableFunc(sorted, func(a, b Result) int {
		return cmp.Compare(b.Votes, a.Votes)
	})

	out := make([]SummaryRow, 0, len(sorted))
	for _, r := range sorted {
		pct := SharePercent(r.Votes, total)
		if r.Percentage != nil {
			pct = *r.Percentage
		}
		out = append(out, SummaryRow{PartyCode: r.PartyCode, Votes: r.Votes, Percentage: pct})
	}

	return Summary{
		ElectionID: electionID,
		DicoCode:   dicoCode,
		TotalVotes: total,
		Results:    out,
	}
}

// BuildStats soma votos e conta partidos e locais distintos.
func BuildStats(e Election, rows []Result) Stats {
	parties := make(map[string]struct{})
	locations := make(map[string]struct{})

	stats := Stats{ElectionID: e.ElectionID, Name: e.Name, TotalResults: len(rows)}
	for _, r := range rows {
		stats.TotalVotes += r.Votes
		parties[r.PartyCode] = struct{}{}
		locations[r.DicoCode] = struct{}{}
	}
	stats.UniqueParties = len(parties)
	stats.UniqueLocations = len(locations)

	return stats
}
