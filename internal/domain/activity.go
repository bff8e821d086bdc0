package domain

// Meeting types.
const (
	MeetingInPerson = "fysiek"
	MeetingOnline   = "online"
)

// Report is a free-text progress report on a goal.
type Report struct {
	ID             string `json:"id"`
	GoalID         string `json:"goalId"`
	ParticipantID  string `json:"participantId"`
	Tekst          string `json:"tekst"`
	Datum          string `json:"datum"`
	OrganizationID string `json:"organizationId,omitempty"`
}

// Note is a comment on a goal or recurring agreement.
type Note struct {
	ID             string `json:"id"`
	UserID         string `json:"userId"`
	GoalID         string `json:"goalId,omitempty"`
	RecurringID    string `json:"recurringId,omitempty"`
	Text           string `json:"text"`
	Timestamp      string `json:"timestamp"`
	IsCoachNote    bool   `json:"isCoachNote"`
	OrganizationID string `json:"organizationId,omitempty"`
}

// Meeting is a scheduled coaching session.
type Meeting struct {
	ID             string `json:"id"`
	ParticipantID  string `json:"participantId"`
	CoachID        string `json:"coachId"`
	Datum          string `json:"datum"`
	Tijdstip       string `json:"tijdstip"`
	Type           string `json:"type"`
	Adres          string `json:"adres"`
	Link           string `json:"link"`
	Plan           string `json:"plan"`
	Verslag        string `json:"verslag"`
	OrganizationID string `json:"organizationId,omitempty"`
}
