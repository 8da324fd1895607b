package models

import (
	"sort"
	"time"
)

// ProximaDose is an upcoming scheduled dose
type ProximaDose struct {
	Vacina       string `json:"vacina"`
	Dose         int    `json:"dose"`
	DataPrevista string `json:"data_prevista"`
}

// Estatisticas summarises a user's vaccination history for the dashboard cards
type Estatisticas struct {
	TotalDoses         int           `json:"total_doses"`
	DosesAplicadas     int           `json:"doses_aplicadas"`
	DosesPendentes     int           `json:"doses_pendentes"`
	DosesAtrasadas     int           `json:"doses_atrasadas"`
	DosesCanceladas    int           `json:"doses_canceladas"`
	VacinasCompletas   int           `json:"vacinas_completas"`
	VacinasIncompletas int           `json:"vacinas_incompletas"`
	ProximasDoses      []ProximaDose `json:"proximas_doses"`
}

// maxProximasDoses bounds the upcoming doses list
const maxProximasDoses = 5

// ComputeEstatisticas derives the statistics of a user's records.
// A vaccine is complete when the number of distinct applied doses reaches its schedule;
// vaccines missing from the catalogue count as complete once any dose is applied.
// Pending doses due before the calendar day of now (in now's zone) count as overdue.
func ComputeEstatisticas(records []*HistoricoVacinal, vacinas []*Vacina, now time.Time) *Estatisticas {
	stats := &Estatisticas{ProximasDoses: []ProximaDose{}}

	schedule := make(map[int]int, len(vacinas))
	for _, v := range vacinas {
		schedule[v.ID] = v.Doses
	}

	applied := make(map[int]map[int]bool)
	seen := make(map[int]bool)
	today := calendarDay(now)

	for _, rec := range records {
		stats.TotalDoses++
		seen[rec.VacinaID] = true

		switch rec.Status {
		case StatusAplicada:
			stats.DosesAplicadas++
			if applied[rec.VacinaID] == nil {
				applied[rec.VacinaID] = make(map[int]bool)
			}
			applied[rec.VacinaID][rec.NumeroDose] = true
		case StatusCancelada:
			stats.DosesCanceladas++
		case StatusAtrasada:
			stats.DosesAtrasadas++
		case StatusPendente:
			due, ok := dueDate(rec)
			if ok && calendarDay(due).Before(today) {
				stats.DosesAtrasadas++
				continue
			}
			stats.DosesPendentes++
			if ok {
				stats.ProximasDoses = append(stats.ProximasDoses, ProximaDose{
					Vacina:       rec.VacinaNome,
					Dose:         rec.NumeroDose,
					DataPrevista: due.Format(DateLayout),
				})
			}
		}
	}

	for vacinaID := range seen {
		doses, known := schedule[vacinaID]
		count := len(applied[vacinaID])
		if (known && count >= doses) || (!known && count > 0) {
			stats.VacinasCompletas++
		} else {
			stats.VacinasIncompletas++
		}
	}

	sort.Slice(stats.ProximasDoses, func(i, j int) bool {
		return stats.ProximasDoses[i].DataPrevista < stats.ProximasDoses[j].DataPrevista
	})
	if len(stats.ProximasDoses) > maxProximasDoses {
		stats.ProximasDoses = stats.ProximasDoses[:maxProximasDoses]
	}

	return stats
}

func dueDate(rec *HistoricoVacinal) (time.Time, bool) {
	if rec.DataPrevista == nil || *rec.DataPrevista == "" {
		return time.Time{}, false
	}
	return ParseDate(*rec.DataPrevista)
}

// calendarDay keeps only the date of t as seen in its own zone, as a UTC midnight,
// so it compares with dates read by ParseDate
func calendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
