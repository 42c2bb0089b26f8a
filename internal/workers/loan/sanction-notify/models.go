// internal/workers/loan/sanction-notify/models.go
package sanctionnotify

type Input struct {
	ApplicationID string  `json:"applicationId"`
	ApplicantName string  `json:"applicantName"`
	Email         string  `json:"email,omitempty"`
	Phone         string  `json:"phone,omitempty"`
	SanctionRef   string  `json:"sanctionRef"`
	Amount        int64   `json:"amount"`
	TenureMonths  int     `json:"tenureMonths"`
	AnnualRate    float64 `json:"annualRate"`
	EMI           float64 `json:"emi"`
}

type Output struct {
	NotificationID string   `json:"notificationId"`
	Status         string   `json:"notificationStatus"` // "sent", "disabled"
	Channels       []string `json:"channels"`
	SentAt         string   `json:"sentAt"`
}

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)
