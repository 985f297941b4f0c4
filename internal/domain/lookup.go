package domain

// Tag is a community-sourced annotation on a phone number.
type Tag string

const (
	TagScam     Tag = "scam"
	TagSpam     Tag = "spam"
	TagSafe     Tag = "safe"
	TagDelivery Tag = "delivery"
	TagBusiness Tag = "business"
)

// PhoneLookupResult is the community/carrier reputation record for a number.
// This struct maps to the 'lookups' table in ScyllaDB.
type PhoneLookupResult struct {
	PhoneNumber     string `json:"phone_number" db:"phone_number"`
	Carrier         string `json:"carrier" db:"carrier"`
	Tags            []Tag  `json:"tags" db:"tags"`
	ReportCount     int    `json:"report_count" db:"report_count"`
	ReputationScore int    `json:"reputation_score" db:"reputation_score"` // 100 = fully trusted
	CommunityLabel  string `json:"community_label" db:"community_label"`
}

// HasTag reports whether the community tagged this number with t.
func (r *PhoneLookupResult) HasTag(t Tag) bool {
	if r == nil {
		return false
	}
	for _, tag := range r.Tags {
		if tag == t {
			return true
		}
	}
	return false
}
