package repository

import (
	"github.com/aryan0dhankhar/coachsync/internal/domain"
	"github.com/aryan0dhankhar/coachsync/internal/store"
)

func userFromRow(r store.Row) domain.User {
	return domain.User{
		ID:             r.String("id"),
		Nickname:       r.String("nickname"),
		Password:       r.String("password"),
		Voornaam:       r.String("voornaam"),
		Achternaam:     r.String("achternaam"),
		Emailadres:     r.String("emailadres"),
		Mobiel:         r.String("mobiel"),
		Geslacht:       r.String("geslacht"),
		Leeftijd:       r.Int("leeftijd"),
		Geboortedatum:  r.String("geboortedatum"),
		Foto:           r.String("foto"),
		Role:           domain.UserRole(r.String("role")),
		OrganizationID: r.String("organization_id"),
	}
}

func userToRow(u domain.User) store.Row {
	return store.Row{
		"id":              u.ID,
		"nickname":        u.Nickname,
		"password":        u.Password,
		"voornaam":        u.Voornaam,
		"achternaam":      u.Achternaam,
		"emailadres":      u.Emailadres,
		"mobiel":          u.Mobiel,
		"geslacht":        u.Geslacht,
		"leeftijd":        u.Leeftijd,
		"geboortedatum":   u.Geboortedatum,
		"foto":            u.Foto,
		"role":            string(domain.UserRole(string(u.Role))),
		"organization_id": store.Nullable(u.OrganizationID),
	}
}

func assignmentFromRow(r store.Row) domain.Assignment {
	return domain.Assignment{
		ID:             r.String("id"),
		CoachID:        r.String("coach_id"),
		ParticipantID:  r.String("participant_id"),
		OrganizationID: r.String("organization_id"),
	}
}

func assignmentToRow(a domain.Assignment) store.Row {
	return store.Row{
		"id":              a.ID,
		"coach_id":        a.CoachID,
		"participant_id":  a.ParticipantID,
		"organization_id": store.Nullable(a.OrganizationID),
	}
}

func goalFromRow(r store.Row) domain.Goal {
	return domain.Goal{
		ID:                        r.String("id"),
		ParticipantID:             r.String("participant_id"),
		CoachID:                   r.String("coach_id"),
		ParentID:                  r.String("parent_id"),
		Omschrijving:              r.String("omschrijving"),
		Streefdatum:               r.String("streefdatum"),
		Rapportagefrequentie:      r.String("rapportagefrequentie"),
		Status:                    r.StringOr("status", domain.StatusNotStarted),
		ConsequentieVanToepassing: r.StringOr("consequentie_van_toepassing", "nee"),
		Consequentie:              r.String("consequentie"),
		OrganizationID:            r.String("organization_id"),
	}
}

func goalToRow(g domain.Goal) store.Row {
	return store.Row{
		"id":                          g.ID,
		"participant_id":              g.ParticipantID,
		"coach_id":                    g.CoachID,
		"parent_id":                   store.Nullable(g.ParentID),
		"omschrijving":                g.Omschrijving,
		"streefdatum":                 g.Streefdatum,
		"rapportagefrequentie":        g.Rapportagefrequentie,
		"status":                      or(g.Status, domain.StatusNotStarted),
		"consequentie_van_toepassing": or(g.ConsequentieVanToepassing, "nee"),
		"consequentie":                g.Consequentie,
		"organization_id":             store.Nullable(g.OrganizationID),
	}
}

func recurringFromRow(r store.Row) domain.RecurringAgreement {
	return domain.RecurringAgreement{
		ID:                        r.String("id"),
		ParticipantID:             r.String("participant_id"),
		CoachID:                   r.String("coach_id"),
		Rubriek:                   r.String("rubriek"),
		Afspraakdoel:              r.String("afspraakdoel"),
		Afspraakactie:             r.String("afspraakactie"),
		Afspraaknotitie:           r.String("afspraaknotitie"),
		Afspraakfrequentie:        r.String("afspraakfrequentie"),
		Afspraakmethode:           r.StringOr("afspraakmethode", domain.MethodYesNo),
		ConsequentieVanToepassing: r.StringOr("consequentie_van_toepassing", "nee"),
		Consequentie:              r.String("consequentie"),
		OrganizationID:            r.String("organization_id"),
	}
}

func recurringToRow(a domain.RecurringAgreement) store.Row {
	return store.Row{
		"id":                          a.ID,
		"participant_id":              a.ParticipantID,
		"coach_id":                    a.CoachID,
		"rubriek":                     a.Rubriek,
		"afspraakdoel":                a.Afspraakdoel,
		"afspraakactie":               a.Afspraakactie,
		"afspraaknotitie":             a.Afspraaknotitie,
		"afspraakfrequentie":          a.Afspraakfrequentie,
		"afspraakmethode":             or(a.Afspraakmethode, domain.MethodYesNo),
		"consequentie_van_toepassing": or(a.ConsequentieVanToepassing, "nee"),
		"consequentie":                a.Consequentie,
		"organization_id":             store.Nullable(a.OrganizationID),
	}
}

func recurringReportFromRow(r store.Row) domain.RecurringReport {
	return domain.RecurringReport{
		ID:             r.String("id"),
		RecurringID:    r.String("recurring_id"),
		ParticipantID:  r.String("participant_id"),
		Month:          r.String("month"),
		CompletedDays:  r.IntSlice("completed_days"),
		Values:         r.FloatMap("values"),
		OrganizationID: r.String("organization_id"),
	}
}

func recurringReportToRow(rr domain.RecurringReport) store.Row {
	days := append([]int{}, rr.CompletedDays...)
	return store.Row{
		"id":              rr.ID,
		"recurring_id":    rr.RecurringID,
		"participant_id":  rr.ParticipantID,
		"month":           rr.Month,
		"completed_days":  days,
		"values":          store.DayMap(rr.Values),
		"organization_id": store.Nullable(rr.OrganizationID),
	}
}

func reportFromRow(r store.Row) domain.Report {
	return domain.Report{
		ID:             r.String("id"),
		GoalID:         r.String("goal_id"),
		ParticipantID:  r.String("participant_id"),
		Tekst:          r.String("tekst"),
		Datum:          r.String("datum"),
		OrganizationID: r.String("organization_id"),
	}
}

func reportToRow(rp domain.Report) store.Row {
	return store.Row{
		"id":              rp.ID,
		"goal_id":         rp.GoalID,
		"participant_id":  rp.ParticipantID,
		"tekst":           rp.Tekst,
		"datum":           rp.Datum,
		"organization_id": store.Nullable(rp.OrganizationID),
	}
}

func noteFromRow(r store.Row) domain.Note {
	return domain.Note{
		ID:             r.String("id"),
		UserID:         r.String("user_id"),
		GoalID:         r.String("goal_id"),
		RecurringID:    r.String("recurring_id"),
		Text:           r.String("text"),
		Timestamp:      r.String("timestamp"),
		IsCoachNote:    r.BoolOr("is_coach_note", false),
		OrganizationID: r.String("organization_id"),
	}
}

func noteToRow(n domain.Note) store.Row {
	return store.Row{
		"id":              n.ID,
		"user_id":         n.UserID,
		"goal_id":         store.Nullable(n.GoalID),
		"recurring_id":    store.Nullable(n.RecurringID),
		"text":            n.Text,
		"timestamp":       n.Timestamp,
		"is_coach_note":   n.IsCoachNote,
		"organization_id": store.Nullable(n.OrganizationID),
	}
}

func meetingFromRow(r store.Row) domain.Meeting {
	return domain.Meeting{
		ID:             r.String("id"),
		ParticipantID:  r.String("participant_id"),
		CoachID:        r.String("coach_id"),
		Datum:          r.String("datum"),
		Tijdstip:       r.String("tijdstip"),
		Type:           r.StringOr("type", domain.MeetingInPerson),
		Adres:          r.String("adres"),
		Link:           r.String("link"),
		Plan:           r.String("plan"),
		Verslag:        r.String("verslag"),
		OrganizationID: r.String("organization_id"),
	}
}

func meetingToRow(m domain.Meeting) store.Row {
	return store.Row{
		"id":              m.ID,
		"participant_id":  m.ParticipantID,
		"coach_id":        m.CoachID,
		"datum":           m.Datum,
		"tijdstip":        m.Tijdstip,
		"type":            or(m.Type, domain.MeetingInPerson),
		"adres":           m.Adres,
		"link":            m.Link,
		"plan":            m.Plan,
		"verslag":         m.Verslag,
		"organization_id": store.Nullable(m.OrganizationID),
	}
}

func emailSettingsFromRow(r store.Row) domain.EmailSettings {
	return domain.EmailSettings{
		ID:             r.String("id"),
		SenderEmail:    r.String("sender_email"),
		SenderName:     r.String("sender_name"),
		SMTPHost:       r.String("smtp_host"),
		SMTPPort:       r.IntOr("smtp_port", 587),
		Username:       r.String("username"),
		Password:       r.String("password"),
		UseTLS:         r.BoolOr("use_tls", true),
		Enabled:        r.BoolOr("enabled", false),
		OrganizationID: r.String("organization_id"),
	}
}

func emailSettingsToRow(s domain.EmailSettings) store.Row {
	return store.Row{
		"id":              s.ID,
		"sender_email":    s.SenderEmail,
		"sender_name":     s.SenderName,
		"smtp_host":       s.SMTPHost,
		"smtp_port":       s.SMTPPort,
		"username":        s.Username,
		"password":        s.Password,
		"use_tls":         s.UseTLS,
		"enabled":         s.Enabled,
		"organization_id": store.Nullable(s.OrganizationID),
	}
}

func themeFromRow(r store.Row, appName string) domain.ThemeSettings {
	d := domain.DefaultTheme(appName)
	return domain.ThemeSettings{
		ID:                       r.String("id"),
		AppName:                  r.StringOr("app_name", d.AppName),
		LogoURL:                  r.String("logo_url"),
		ContainerMaxWidth:        r.StringOr("container_max_width", d.ContainerMaxWidth),
		UseMaxWidth:              r.BoolOr("use_max_width", d.UseMaxWidth),
		BackgroundColorOuter:     r.StringOr("background_color_outer", d.BackgroundColorOuter),
		BackgroundColorContainer: r.StringOr("background_color_container", d.BackgroundColorContainer),
		BackgroundColorCards:     r.StringOr("background_color_cards", d.BackgroundColorCards),
		InputBackgroundColor:     r.StringOr("input_background_color", d.InputBackgroundColor),
		ButtonBackgroundColor:    r.StringOr("button_background_color", d.ButtonBackgroundColor),
		ButtonHoverColor:         r.StringOr("button_hover_color", d.ButtonHoverColor),
		ButtonTextColor:          r.StringOr("button_text_color", d.ButtonTextColor),
		HeaderBackgroundColor:    r.StringOr("header_background_color", d.HeaderBackgroundColor),
		PrimaryIconColor:         r.StringOr("primary_icon_color", d.PrimaryIconColor),
		SecondaryIconColor:       r.StringOr("secondary_icon_color", d.SecondaryIconColor),
		OrganizationID:           r.String("organization_id"),
	}
}

// themeColumns is shared by tenant and global themes; neither carries the
// tenant column here.
func themeColumns(t domain.ThemeSettings) store.Row {
	return store.Row{
		"id":                         t.ID,
		"app_name":                   t.AppName,
		"logo_url":                   t.LogoURL,
		"container_max_width":        t.ContainerMaxWidth,
		"use_max_width":              t.UseMaxWidth,
		"background_color_outer":     t.BackgroundColorOuter,
		"background_color_container": t.BackgroundColorContainer,
		"background_color_cards":     t.BackgroundColorCards,
		"input_background_color":     t.InputBackgroundColor,
		"button_background_color":    t.ButtonBackgroundColor,
		"button_hover_color":         t.ButtonHoverColor,
		"button_text_color":          t.ButtonTextColor,
		"header_background_color":    t.HeaderBackgroundColor,
		"primary_icon_color":         t.PrimaryIconColor,
		"secondary_icon_color":       t.SecondaryIconColor,
	}
}

func themeToRow(t domain.ThemeSettings) store.Row {
	row := themeColumns(t)
	row["organization_id"] = store.Nullable(t.OrganizationID)
	return row
}

func globalThemeFromRow(r store.Row) domain.GlobalTheme {
	theme := themeFromRow(r, "Coaching Platform")
	theme.OrganizationID = ""
	return domain.GlobalTheme{ThemeSettings: theme, UpdatedAt: r.Time("updated_at")}
}

func globalThemeToRow(g domain.GlobalTheme) store.Row {
	row := themeColumns(g.ThemeSettings)
	row["updated_at"] = store.Stamp(g.UpdatedAt)
	return row
}

func emailLogFromRow(r store.Row) domain.EmailLog {
	return domain.EmailLog{
		ID:             r.String("id"),
		Timestamp:      r.String("timestamp"),
		Type:           r.String("type"),
		ToEmail:        r.String("to_email"),
		Subject:        r.String("subject"),
		Success:        r.BoolOr("success", false),
		Error:          r.String("error"),
		MessageID:      r.String("message_id"),
		OrganizationID: r.String("organization_id"),
	}
}

func emailLogToRow(l domain.EmailLog) store.Row {
	return store.Row{
		"id":              l.ID,
		"timestamp":       l.Timestamp,
		"type":            l.Type,
		"to_email":        l.ToEmail,
		"subject":         l.Subject,
		"success":         l.Success,
		"error":           store.Nullable(l.Error),
		"message_id":      store.Nullable(l.MessageID),
		"organization_id": store.Nullable(l.OrganizationID),
	}
}

func organizationFromRow(r store.Row) domain.Organization {
	return domain.Organization{
		ID:              r.String("id"),
		Name:            r.String("name"),
		Domain:          r.String("domain"),
		Contact:         r.String("contact"),
		Plan:            r.StringOr("plan", "Basic"),
		Status:          r.StringOr("status", "Actief"),
		Users:           r.Int("users"),
		Coaches:         r.Int("coaches"),
		Participants:    r.Int("participants"),
		ManagerName:     r.String("manager_name"),
		ManagerEmail:    r.String("manager_email"),
		ManagerPassword: r.String("manager_password"),
		CreatedAt:       r.Time("created_at"),
		UpdatedAt:       r.Time("updated_at"),
	}
}

func organizationToRow(o domain.Organization) store.Row {
	return store.Row{
		"id":               o.ID,
		"name":             o.Name,
		"domain":           o.Domain,
		"contact":          o.Contact,
		"plan":             or(o.Plan, "Basic"),
		"status":           or(o.Status, "Actief"),
		"users":            o.Users,
		"coaches":          o.Coaches,
		"participants":     o.Participants,
		"manager_name":     o.ManagerName,
		"manager_email":    o.ManagerEmail,
		"manager_password": o.ManagerPassword,
		"created_at":       store.Stamp(o.CreatedAt),
		"updated_at":       store.Stamp(o.UpdatedAt),
	}
}

func planFromRow(r store.Row) domain.SubscriptionPlan {
	return domain.SubscriptionPlan{
		ID:           r.String("id"),
		Name:         r.String("name"),
		PriceMonthly: r.Float("price_monthly"),
		PriceYearly:  r.Float("price_yearly"),
		Features:     r.StringSlice("features"),
		Popular:      r.BoolOr("popular", false),
		CreatedAt:    r.Time("created_at"),
		UpdatedAt:    r.Time("updated_at"),
	}
}

func planToRow(p domain.SubscriptionPlan) store.Row {
	return store.Row{
		"id":            p.ID,
		"name":          p.Name,
		"price_monthly": p.PriceMonthly,
		"price_yearly":  p.PriceYearly,
		"features":      append([]string{}, p.Features...),
		"popular":       p.Popular,
		"created_at":    store.Stamp(p.CreatedAt),
		"updated_at":    store.Stamp(p.UpdatedAt),
	}
}

func paymentFromRow(r store.Row) domain.Payment {
	return domain.Payment{
		ID:               r.String("id"),
		OrganizationID:   r.String("organization_id"),
		OrganizationName: r.String("organization_name"),
		Amount:           r.Float("amount"),
		Status:           r.String("status"),
		Date:             r.String("date"),
		Plan:             r.String("plan"),
		CreatedAt:        r.Time("created_at"),
	}
}

func paymentToRow(p domain.Payment) store.Row {
	return store.Row{
		"id":                p.ID,
		"organization_id":   store.Nullable(p.OrganizationID),
		"organization_name": p.OrganizationName,
		"amount":            p.Amount,
		"status":            p.Status,
		"date":              p.Date,
		"plan":              p.Plan,
		"created_at":        store.Stamp(p.CreatedAt),
	}
}

func or(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
