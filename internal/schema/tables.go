package schema

func id() Column { return Column{Name: "id", Type: Text, PrimaryKey: true} }
func text(name string) Column { return Column{Name: name, Type: Text} }
func textOr(name, lit string) Column { return Column{Name: name, Type: Text, Default: lit} }
func required(name string) Column { return Column{Name: name, Type: Text, NotNull: true} }
func integer(name string) Column { return Column{Name: name, Type: Integer, Default: "0"} }
func numeric(name string) Column { return Column{Name: name, Type: Numeric, Default: "0"} }
func flag(name string, on bool) Column { return Column{Name: name, Type: Boolean, Default: boolLit(on)} }
func jsonCol(name, lit string) Column { return Column{Name: name, Type: JSON, Default: lit} }
func stamp(name string) Column { return Column{Name: name, Type: Timestamp, DefaultNow: true} }
func tenantCol() Column { return Column{Name: TenantColumn, Type: Text} }

func boolLit(on bool) string {
	if on {
		return "TRUE"
	}
	return "FALSE"
}

// themeColumns are shared by the tenant theme and the global theme.
func themeColumns(appName string) []Column {
	return []Column{
		textOr("app_name", "'"+appName+"'"),
		text("logo_url"),
		textOr("container_max_width", "'1290px'"),
		flag("use_max_width", true),
		textOr("background_color_outer", "'#8a1708'"),
		textOr("background_color_container", "'#f7e6d9'"),
		textOr("background_color_cards", "'#edede6'"),
		textOr("input_background_color", "'#ffffff'"),
		textOr("button_background_color", "'#33a370'"),
		textOr("button_hover_color", "'#8a1708'"),
		textOr("button_text_color", "'#ffffff'"),
		textOr("header_background_color", "'#edede6'"),
		textOr("primary_icon_color", "'#3B82F6'"),
		textOr("secondary_icon_color", "'#6B7280'"),
	}
}

func tenantTable(name string, cols ...Column) Table {
	all := append([]Column{id()}, cols...)
	return Table{Name: name, Columns: append(all, tenantCol()), Tenant: true}
}

var (
	Users = tenantTable("users_coaching",
		text("nickname"),
		text("password"),
		text("voornaam"),
		text("achternaam"),
		text("emailadres"),
		text("mobiel"),
		text("geslacht"),
		integer("leeftijd"),
		text("geboortedatum"),
		text("foto"),
		textOr("role", "'participant'"),
	)

	Assignments = tenantTable("assignments_coaching",
		text("coach_id"),
		text("participant_id"),
	)

	Goals = tenantTable("goal_agreements_coaching",
		text("participant_id"),
		text("coach_id"),
		text("parent_id"),
		text("omschrijving"),
		text("streefdatum"),
		text("rapportagefrequentie"),
		textOr("status", "'nog niet begonnen'"),
		textOr("consequentie_van_toepassing", "'nee'"),
		text("consequentie"),
	)

	Recurring = tenantTable("recurring_agreements_coaching",
		text("participant_id"),
		text("coach_id"),
		text("rubriek"),
		text("afspraakdoel"),
		text("afspraakactie"),
		text("afspraaknotitie"),
		text("afspraakfrequentie"),
		textOr("afspraakmethode", "'nee/ja'"),
		textOr("consequentie_van_toepassing", "'nee'"),
		text("consequentie"),
	)

	Reports = tenantTable("reports_coaching",
		text("goal_id"),
		text("participant_id"),
		text("tekst"),
		text("datum"),
	)

	Notes = tenantTable("notes_coaching",
		text("user_id"),
		text("goal_id"),
		text("recurring_id"),
		text("text"),
		text("timestamp"),
		flag("is_coach_note", false),
	)

	RecurringReports = tenantTable("recurring_reports_coaching",
		text("recurring_id"),
		text("participant_id"),
		text("month"),
		jsonCol("completed_days", "'[]'"),
		jsonCol("values", "'{}'"),
	)

	Meetings = tenantTable("meetings_coaching",
		text("participant_id"),
		text("coach_id"),
		text("datum"),
		text("tijdstip"),
		text("type"),
		text("adres"),
		text("link"),
		text("plan"),
		text("verslag"),
	)

	EmailSettings = tenantTable("email_settings_coaching",
		text("sender_email"),
		text("sender_name"),
		text("smtp_host"),
		Column{Name: "smtp_port", Type: Integer, Default: "587"},
		text("username"),
		text("password"),
		flag("use_tls", true),
		flag("enabled", false),
	)

	Theme = tenantTable("theme_settings_coaching", themeColumns("Coaching App")...)

	EmailLogs = tenantTable("email_logs_coaching",
		text("timestamp"),
		text("type"),
		text("to_email"),
		text("subject"),
		flag("success", false),
		text("error"),
		text("message_id"),
	)

	Organizations = Table{Name: "organizations_admin", Columns: []Column{
		id(),
		required("name"),
		required("domain"),
		required("contact"),
		textOr("plan", "'Basic'"),
		textOr("status", "'Actief'"),
		integer("users"),
		integer("coaches"),
		integer("participants"),
		required("manager_name"),
		{Name: "manager_email", Type: Text, NotNull: true, Unique: true},
		required("manager_password"),
		stamp("created_at"),
		stamp("updated_at"),
	}}

	Plans = Table{Name: "subscription_plans_admin", Columns: []Column{
		id(),
		required("name"),
		numeric("price_monthly"),
		numeric("price_yearly"),
		jsonCol("features", "'[]'"),
		flag("popular", false),
		stamp("created_at"),
		stamp("updated_at"),
	}}

	Payments = Table{Name: "payments_admin", Columns: []Column{
		id(),
		text("organization_id"),
		required("organization_name"),
		numeric("amount"),
		required("status"),
		required("date"),
		required("plan"),
		stamp("created_at"),
	}}

	GlobalTheme = Table{Name: "global_theme_settings_admin", Columns: append(append([]Column{id()},
		themeColumns("Coaching Platform")...), stamp("updated_at"))}
)

// Coaching returns every tenant-scoped table.
func Coaching() []Table {
	return []Table{Users, Assignments, Goals, Recurring, Reports, Notes, RecurringReports, Meetings, EmailSettings, Theme, EmailLogs}
}

// Admin returns the platform-level tables.
func Admin() []Table {
	return []Table{Organizations, Plans, Payments, GlobalTheme}
}

// All returns admin tables first so tenant rows can reference organizations.
func All() []Table {
	return append(Admin(), Coaching()...)
}

// Lookup finds a table definition by relation name.
func Lookup(name string) (Table, bool) {
	for _, t := range All() {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}
