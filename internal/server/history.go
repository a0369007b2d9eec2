package server

import (
	"context"
	"sort"
	"time"

	"github.com/franckalain/ecoscan/internal/footprint"
	"github.com/franckalain/ecoscan/internal/models"
)

// HistoryLimit is the number of scans returned by get_history
const HistoryLimit = 20

// Total is the summed footprint of one unit
type Total struct {
	Unit  string  `json:"unit"`
	Value float64 `json:"value"`
}

// History is the payload of a history message
type History struct {
	Items     []*models.ScanRecord `json:"items"`
	DayTotal  []Total              `json:"day_total"`
	WeekTotal []Total              `json:"week_total"`
}

// historyWindows returns local midnight of now and the start of the seven calendar
// days ending today
func historyWindows(now time.Time) (day, week time.Time) {
	day = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return day, day.AddDate(0, 0, -6)
}

// loadHistory returns the latest scans of a user. Totals cover every scan in each
// window, not only the listed ones.
func (s *Server) loadHistory(ctx context.Context, userID string, now time.Time) (History, error) {
	records, err := s.db.GetRecentScans(ctx, userID, HistoryLimit)
	if err != nil {
		return History{}, err
	}
	dayStart, weekStart := historyWindows(now)
	day, err := s.db.SumFootprintSince(ctx, userID, dayStart)
	if err != nil {
		return History{}, err
	}
	week, err := s.db.SumFootprintSince(ctx, userID, weekStart)
	if err != nil {
		return History{}, err
	}

	if records == nil {
		records = []*models.ScanRecord{}
	}
	return History{
		Items:     records,
		DayTotal:  totals(day),
		WeekTotal: totals(week),
	}, nil
}

// totals sorts by unit; a missing unit counts as grams
func totals(byUnit map[string]float64) []Total {
	merged := make(map[string]float64, len(byUnit))
	for unit, v := range byUnit {
		if unit == "" {
			unit = models.UnitGramsCO2
		}
		merged[unit] += v
	}

	out := make([]Total, 0, len(merged))
	for unit, v := range merged {
		out = append(out, Total{Unit: unit, Value: footprint.Round2(v)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Unit < out[j].Unit })
	return out
}
