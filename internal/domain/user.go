package domain

import "time"

// User is a manager-created account inside one organization.
type User struct {
	ID             string `json:"id"`
	Nickname       string `json:"nickname"`
	Password       string `json:"password,omitempty"` // bcrypt hash once stored
	Voornaam       string `json:"voornaam"`
	Achternaam     string `json:"achternaam"`
	Emailadres     string `json:"emailadres"`
	Mobiel         string `json:"mobiel"`
	Geslacht       string `json:"geslacht"`
	Leeftijd       int    `json:"leeftijd"`
	Geboortedatum  string `json:"geboortedatum"` // YYYY-MM-DD
	Foto           string `json:"foto"`
	Role           Role   `json:"role"`
	OrganizationID string `json:"organizationId,omitempty"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	switch {
	case u.Voornaam == "":
		return u.Achternaam
	case u.Achternaam == "":
		return u.Voornaam
	}
	return u.Voornaam + " " + u.Achternaam
}

// Assignment pairs one coach with one participant.
type Assignment struct {
	ID             string `json:"id"`
	CoachID        string `json:"coachId"`
	ParticipantID  string `json:"participantId"`
	OrganizationID string `json:"organizationId,omitempty"`
}

// CalculateAge returns whole years between birthDate (YYYY-MM-DD) and now,
// 0 when the date is empty, invalid or in the future.
func CalculateAge(birthDate string, now time.Time) int {
	if birthDate == "" {
		return 0
	}
	birth, err := time.Parse("2006-01-02", birthDate)
	if err != nil {
		return 0
	}
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}
