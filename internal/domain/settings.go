package domain

// EmailSettings configures outgoing mail for one organization.
type EmailSettings struct {
	ID             string `json:"id"`
	SenderEmail    string `json:"senderEmail"`
	SenderName     string `json:"senderName"`
	SMTPHost       string `json:"smtpHost"`
	SMTPPort       int    `json:"smtpPort"`
	Username       string `json:"username"`
	Password       string `json:"password,omitempty"`
	UseTLS         bool   `json:"useTls"`
	Enabled        bool   `json:"enabled"`
	OrganizationID string `json:"organizationId,omitempty"`
}

// DefaultEmailSettings are used until an organization saves its own.
func DefaultEmailSettings() EmailSettings {
	return EmailSettings{SMTPPort: 587, UseTLS: true}
}

// ThemeSettings are the visual settings of one organization, or of the
// platform when stored as the global theme.
type ThemeSettings struct {
	ID                       string `json:"id"`
	AppName                  string `json:"appName"`
	LogoURL                  string `json:"logoUrl"`
	ContainerMaxWidth        string `json:"containerMaxWidth"`
	UseMaxWidth              bool   `json:"useMaxWidth"`
	BackgroundColorOuter     string `json:"backgroundColorOuter"`
	BackgroundColorContainer string `json:"backgroundColorContainer"`
	BackgroundColorCards     string `json:"backgroundColorCards"`
	InputBackgroundColor     string `json:"inputBackgroundColor"`
	ButtonBackgroundColor    string `json:"buttonBackgroundColor"`
	ButtonHoverColor         string `json:"buttonHoverColor"`
	ButtonTextColor          string `json:"buttonTextColor"`
	HeaderBackgroundColor    string `json:"headerBackgroundColor"`
	PrimaryIconColor         string `json:"primaryIconColor"`
	SecondaryIconColor       string `json:"secondaryIconColor"`
	OrganizationID           string `json:"organizationId,omitempty"`
}

// DefaultTheme returns the stock palette under the given app name.
func DefaultTheme(appName string) ThemeSettings {
	return ThemeSettings{
		AppName:                  appName,
		ContainerMaxWidth:        "1290px",
		UseMaxWidth:              true,
		BackgroundColorOuter:     "#8a1708",
		BackgroundColorContainer: "#f7e6d9",
		BackgroundColorCards:     "#edede6",
		InputBackgroundColor:     "#ffffff",
		ButtonBackgroundColor:    "#33a370",
		ButtonHoverColor:         "#8a1708",
		ButtonTextColor:          "#ffffff",
		HeaderBackgroundColor:    "#edede6",
		PrimaryIconColor:         "#3B82F6",
		SecondaryIconColor:       "#6B7280",
	}
}

// EmailLog records one delivery attempt. Logs are append-only.
type EmailLog struct {
	ID             string `json:"id"`
	Timestamp      string `json:"timestamp"`
	Type           string `json:"type"`
	ToEmail        string `json:"toEmail"`
	Subject        string `json:"subject"`
	Success        bool   `json:"success"`
	Error          string `json:"error,omitempty"`
	MessageID      string `json:"messageId,omitempty"`
	OrganizationID string `json:"organizationId,omitempty"`
}
