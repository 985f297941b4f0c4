package domain

// Plan is the user's subscription tier.
type Plan string

const (
	PlanFree    Plan = "free"
	PlanMonthly Plan = "monthly"
	PlanYearly  Plan = "yearly"
)

// Paid reports whether the plan removes the free-tier daily quotas.
func (p Plan) Paid() bool {
	return p == PlanMonthly || p == PlanYearly
}

// ContactItem is an address-book entry. Contacts are unique by phone.
type ContactItem struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// UsageStats holds the free-tier daily counters. LastResetDate is the
// device-local calendar date (YYYY-MM-DD) of the last counter reset.
type UsageStats struct {
	DeepfakeScans int    `json:"deepfake_scans"`
	MessageScans  int    `json:"message_scans"`
	CallLookups   int    `json:"call_lookups"`
	LastResetDate string `json:"last_reset_date"`
}

// User is the single mutable profile aggregate. Every mutation is a full
// read-modify-persist cycle; last writer wins.
type User struct {
	ID                 string         `json:"id"`
	Name               string         `json:"name"`
	Phone              string         `json:"phone"`
	Contacts           []ContactItem  `json:"contacts"`
	BlockedNumbers     []string       `json:"blocked_numbers"`
	AutoHangupHighRisk bool           `json:"auto_hangup_high_risk"`
	RiskThreshold      int            `json:"risk_threshold"` // 50-95, display-only
	Plan               Plan           `json:"plan"`
	Usage              UsageStats     `json:"usage"`
	CallHistory        []*CallLogItem `json:"call_history"`
}

// ContactName returns the saved name for a phone number, or "" when the
// number is not in the user's contacts.
func (u *User) ContactName(phone string) string {
	if u == nil {
		return ""
	}
	for _, c := range u.Contacts {
		if c.Phone == phone {
			return c.Name
		}
	}
	return ""
}

// IsBlocked reports whether the number is in the user's blocked set.
func (u *User) IsBlocked(phone string) bool {
	if u == nil {
		return false
	}
	for _, n := range u.BlockedNumbers {
		if n == phone {
			return true
		}
	}
	return false
}

// BlockNumber adds the number to the blocked set. Idempotent.
func (u *User) BlockNumber(phone string) {
	if u == nil || u.IsBlocked(phone) {
		return
	}
	u.BlockedNumbers = append(u.BlockedNumbers, phone)
}

// UnblockNumber removes the number from the blocked set.
func (u *User) UnblockNumber(phone string) {
	if u == nil {
		return
	}
	for i, n := range u.BlockedNumbers {
		if n == phone {
			u.BlockedNumbers = append(u.BlockedNumbers[:i], u.BlockedNumbers[i+1:]...)
			return
		}
	}
}

// AddContact inserts a contact, keeping the list unique by phone. An
// existing entry for the same phone is updated in place.
func (u *User) AddContact(c ContactItem) {
	if u == nil {
		return
	}
	if c.ID == "" {
		c.ID = c.Phone
	}
	for i, existing := range u.Contacts {
		if existing.Phone == c.Phone {
			u.Contacts[i] = c
			return
		}
	}
	u.Contacts = append(u.Contacts, c)
}

// AppendCallHistory prepends a finished call so the collection stays
// newest-first for display.
func (u *User) AppendCallHistory(item *CallLogItem) {
	if u == nil || item == nil {
		return
	}
	u.CallHistory = append([]*CallLogItem{item}, u.CallHistory...)
}
