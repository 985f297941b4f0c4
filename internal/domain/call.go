package domain

import (
	"strconv"
	"time"
)

// CallDirection distinguishes incoming from outgoing calls.
type CallDirection string

const (
	DirectionIncoming CallDirection = "incoming"
	DirectionOutgoing CallDirection = "outgoing"
)

// CallStatus is the lifecycle state of a single call instance.
type CallStatus string

const (
	CallRinging   CallStatus = "ringing"
	CallConnected CallStatus = "connected"
	CallEnded     CallStatus = "ended"
	CallAutoEnded CallStatus = "auto_ended"
	CallBlocked   CallStatus = "blocked"
)

// Terminal reports whether no further transition is possible for the call.
func (s CallStatus) Terminal() bool {
	switch s {
	case CallEnded, CallAutoEnded, CallBlocked:
		return true
	}
	return false
}

// RiskStatus is an explicit risk label attached to a call, primarily by
// demo/simulation triggers. It short-circuits database-driven classification.
type RiskStatus string

const (
	RiskSafe       RiskStatus = "safe"
	RiskSuspicious RiskStatus = "suspicious"
	RiskScam       RiskStatus = "scam"
)

// Tier is the classification outcome for an incoming call.
type Tier string

const (
	TierSafe       Tier = "safe"
	TierSuspicious Tier = "suspicious"
	TierDangerous  Tier = "dangerous"
)

// CallLogItem is a single call event. Duration is only meaningful after the
// call reaches a terminal state.
type CallLogItem struct {
	ID           string             `json:"id"`
	PhoneNumber  string             `json:"phone_number"`
	ContactName  string             `json:"contact_name,omitempty"`
	Direction    CallDirection      `json:"direction"`
	Timestamp    time.Time          `json:"timestamp"`
	Duration     int                `json:"duration"` // seconds
	RiskStatus   RiskStatus         `json:"risk_status,omitempty"`
	HasRecording bool               `json:"has_recording,omitempty"`
	AIAnalysis   *AIAnalysis        `json:"ai_analysis,omitempty"`
	Community    *PhoneLookupResult `json:"community_info,omitempty"`
}

// NewIncomingCall creates a ringing call record with a time-derived ID.
func NewIncomingCall(phoneNumber string) *CallLogItem {
	now := time.Now()
	return &CallLogItem{
		ID:          strconv.FormatInt(now.UnixMilli(), 10),
		PhoneNumber: phoneNumber,
		Direction:   DirectionIncoming,
		Timestamp:   now,
	}
}
