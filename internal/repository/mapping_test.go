package repository

import (
	"reflect"
	"testing"

	"github.com/aryan0dhankhar/coachsync/internal/store"
)

func TestMappingRoundTrip(t *testing.T) {
	cases := []struct {
		name  string
		row   store.Row
		round func(store.Row) store.Row
	}{
		{"user", store.Row{
			"id": "u1", "nickname": "jan", "password": "$2a$hash", "voornaam": "Jan", "achternaam": "Jansen",
			"emailadres": "jan@example.com", "mobiel": "0612345678", "geslacht": "man", "leeftijd": 34,
			"geboortedatum": "1990-07-15", "foto": "", "role": "coach", "organization_id": "org-1",
		}, func(r store.Row) store.Row { return userToRow(userFromRow(r)) }},
		{"assignment", store.Row{
			"id": "a1", "coach_id": "c1", "participant_id": "p1", "organization_id": "org-1",
		}, func(r store.Row) store.Row { return assignmentToRow(assignmentFromRow(r)) }},
		{"goal", store.Row{
			"id": "g1", "participant_id": "p1", "coach_id": "c1", "parent_id": nil, "omschrijving": "10 km",
			"streefdatum": "2025-12-31", "rapportagefrequentie": "wekelijks", "status": "bezig",
			"consequentie_van_toepassing": "ja", "consequentie": "taart", "organization_id": "org-1",
		}, func(r store.Row) store.Row { return goalToRow(goalFromRow(r)) }},
		{"recurring", store.Row{
			"id": "r1", "participant_id": "p1", "coach_id": "c1", "rubriek": "Gezondheid", "afspraakdoel": "fit",
			"afspraakactie": "wandelen", "afspraaknotitie": "", "afspraakfrequentie": "dagelijks",
			"afspraakmethode": "resultaat", "consequentie_van_toepassing": "nee", "consequentie": "",
			"organization_id": "org-1",
		}, func(r store.Row) store.Row { return recurringToRow(recurringFromRow(r)) }},
		{"recurring report", store.Row{
			"id": "rr1", "recurring_id": "r1", "participant_id": "p1", "month": "2025-03",
			"completed_days": []int{1, 2}, "values": map[string]float64{"1": 2, "3": 4}, "organization_id": "org-1",
		}, func(r store.Row) store.Row { return recurringReportToRow(recurringReportFromRow(r)) }},
		{"report", store.Row{
			"id": "rp1", "goal_id": "g1", "participant_id": "p1", "tekst": "Goed bezig", "datum": "2025-03-01",
			"organization_id": "org-1",
		}, func(r store.Row) store.Row { return reportToRow(reportFromRow(r)) }},
		{"note", store.Row{
			"id": "n1", "user_id": "c1", "goal_id": "g1", "recurring_id": nil, "text": "Top",
			"timestamp": "2025-03-01T10:00:00Z", "is_coach_note": true, "organization_id": "org-1",
		}, func(r store.Row) store.Row { return noteToRow(noteFromRow(r)) }},
		{"meeting", store.Row{
			"id": "m1", "participant_id": "p1", "coach_id": "c1", "datum": "2025-03-01", "tijdstip": "10:00",
			"type": "online", "adres": "", "link": "https://meet.example.com", "plan": "", "verslag": "",
			"organization_id": "org-1",
		}, func(r store.Row) store.Row { return meetingToRow(meetingFromRow(r)) }},
		{"email settings", store.Row{
			"id": "e1", "sender_email": "info@demo.com", "sender_name": "Demo", "smtp_host": "smtp.demo.com",
			"smtp_port": 465, "username": "u", "password": "p", "use_tls": false, "enabled": true,
			"organization_id": "org-1",
		}, func(r store.Row) store.Row { return emailSettingsToRow(emailSettingsFromRow(r)) }},
		{"email log", store.Row{
			"id": "l1", "timestamp": "2025-03-01T10:00:00Z", "type": "test", "to_email": "a@b.nl", "subject": "Hoi",
			"success": false, "error": "EmailJS not configured", "message_id": nil, "organization_id": "org-1",
		}, func(r store.Row) store.Row { return emailLogToRow(emailLogFromRow(r)) }},
		{"organization", store.Row{
			"id": "o1", "name": "Demo", "domain": "demo.nl", "contact": "info@demo.nl", "plan": "Professional",
			"status": "Actief", "users": 3, "coaches": 1, "participants": 2, "manager_name": "M",
			"manager_email": "m@demo.nl", "manager_password": "$2a$hash",
			"created_at": "2025-03-01T10:00:00Z", "updated_at": "2025-03-02T10:00:00Z",
		}, func(r store.Row) store.Row { return organizationToRow(organizationFromRow(r)) }},
		{"plan", store.Row{
			"id": "pl1", "name": "Starter", "price_monthly": 19.0, "price_yearly": 190.0,
			"features": []string{"Tot 5 gebruikers"}, "popular": false,
			"created_at": "2025-03-01T10:00:00Z", "updated_at": "2025-03-01T10:00:00Z",
		}, func(r store.Row) store.Row { return planToRow(planFromRow(r)) }},
		{"payment", store.Row{
			"id": "pay1", "organization_id": "o1", "organization_name": "Demo", "amount": 79.0, "status": "Betaald",
			"date": "2025-03-01", "plan": "Professional", "created_at": "2025-03-01T10:00:00Z",
		}, func(r store.Row) store.Row { return paymentToRow(paymentFromRow(r)) }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.round(tc.row); !reflect.DeepEqual(got, tc.row) {
				t.Fatalf("round trip mismatch\n got: %#v\nwant: %#v", got, tc.row)
			}
		})
	}
}

func TestThemeRoundTripKeepsTenantAndDefaults(t *testing.T) {
	row := themeToRow(themeFromRow(store.Row{"id": "t1", "organization_id": "org-1"}, "Coaching App"))
	if row["app_name"] != "Coaching App" || row["button_background_color"] != "#33a370" || row["use_max_width"] != true {
		t.Fatalf("defaults not applied: %#v", row)
	}
	again := themeToRow(themeFromRow(row, "Coaching App"))
	if !reflect.DeepEqual(again, row) {
		t.Fatalf("theme round trip mismatch")
	}
}

func TestGoalDefaultsOnNull(t *testing.T) {
	g := goalFromRow(store.Row{"id": "g", "status": nil})
	if g.Status != "nog niet begonnen" || g.ConsequentieVanToepassing != "nee" {
		t.Fatalf("unexpected defaults: %+v", g)
	}
}
