package domain

import "sort"

// Goal status values.
const (
	StatusNotStarted = "nog niet begonnen"
	StatusInProgress = "bezig"
	StatusDone       = "klaar"
)

// Recurring agreement methods.
const (
	MethodYesNo  = "nee/ja"
	MethodResult = "resultaat"
)

// Goal is a goal agreement. ParentID is set on sub-goals; nesting is one level deep.
type Goal struct {
	ID                        string `json:"id"`
	ParticipantID             string `json:"participantId"`
	CoachID                   string `json:"coachId"`
	ParentID                  string `json:"parentId,omitempty"`
	Omschrijving              string `json:"omschrijving"`
	Streefdatum               string `json:"streefdatum"`
	Rapportagefrequentie      string `json:"rapportagefrequentie"`
	Status                    string `json:"status"`
	ConsequentieVanToepassing string `json:"consequentieVanToepassing"`
	Consequentie              string `json:"consequentie"`
	OrganizationID            string `json:"organizationId,omitempty"`
}

// RecurringAgreement is a habit tracked per day.
type RecurringAgreement struct {
	ID                        string `json:"id"`
	ParticipantID             string `json:"participantId"`
	CoachID                   string `json:"coachId"`
	Rubriek                   string `json:"rubriek"`
	Afspraakdoel              string `json:"afspraakdoel"`
	Afspraakactie             string `json:"afspraakactie"`
	Afspraaknotitie           string `json:"afspraaknotitie"`
	Afspraakfrequentie        string `json:"afspraakfrequentie"`
	Afspraakmethode           string `json:"afspraakmethode"`
	ConsequentieVanToepassing string `json:"consequentieVanToepassing"`
	Consequentie              string `json:"consequentie"`
	OrganizationID            string `json:"organizationId,omitempty"`
}

// UsesResults reports whether the agreement records numeric values per day.
func (r RecurringAgreement) UsesResults() bool {
	return r.Afspraakmethode == MethodResult
}

// RecurringReport is one calendar month of a recurring agreement. Yes/no
// agreements fill CompletedDays; result agreements fill Values.
type RecurringReport struct {
	ID             string          `json:"id"`
	RecurringID    string          `json:"recurringId"`
	ParticipantID  string          `json:"participantId"`
	Month          string          `json:"month"` // YYYY-MM
	CompletedDays  []int           `json:"completedDays"`
	Values         map[int]float64 `json:"values"`
	OrganizationID string          `json:"organizationId,omitempty"`
}

// Total sums the recorded values. Derived on read, never stored.
func (r RecurringReport) Total() float64 {
	var total float64
	for _, v := range r.Values {
		total += v
	}
	return total
}

// Average divides the total by the number of days that have a value, not by
// the days in the month. 0 when nothing was recorded.
func (r RecurringReport) Average() float64 {
	if len(r.Values) == 0 {
		return 0
	}
	return r.Total() / float64(len(r.Values))
}

// CompletedCount is the number of distinct completed days.
func (r RecurringReport) CompletedCount() int {
	seen := map[int]bool{}
	for _, d := range r.CompletedDays {
		seen[d] = true
	}
	return len(seen)
}

// ToggleDay flips day in CompletedDays, keeping the list sorted.
func (r *RecurringReport) ToggleDay(day int) {
	kept := r.CompletedDays[:0:0]
	removed := false
	for _, d := range r.CompletedDays {
		if d == day {
			removed = true
			continue
		}
		kept = append(kept, d)
	}
	if !removed {
		kept = append(kept, day)
	}
	sort.Ints(kept)
	r.CompletedDays = kept
}

// SetValue records value for day, or clears the day when value is nil.
func (r *RecurringReport) SetValue(day int, value *float64) {
	if r.Values == nil {
		r.Values = map[int]float64{}
	}
	if value == nil {
		delete(r.Values, day)
		return
	}
	r.Values[day] = *value
}

// Summary is the derived monthly view of a recurring report.
type Summary struct {
	RecurringID    string  `json:"recurringId"`
	Month          string  `json:"month"`
	CompletedCount int     `json:"completedCount"`
	Entries        int     `json:"entries"`
	Total          float64 `json:"total"`
	Average        float64 `json:"average"`
}

// Summarize derives the monthly summary.
func (r RecurringReport) Summarize() Summary {
	return Summary{
		RecurringID:    r.RecurringID,
		Month:          r.Month,
		CompletedCount: r.CompletedCount(),
		Entries:        len(r.Values),
		Total:          r.Total(),
		Average:        r.Average(),
	}
}
