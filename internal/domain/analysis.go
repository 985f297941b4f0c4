package domain

import "time"

// AIAnalysis is the post-call risk assessment attached to a history entry.
// Once set it is not overwritten except by an explicit re-analysis request.
type AIAnalysis struct {
	RiskScore   int       `json:"risk_score"` // 0-100, higher = more dangerous
	Explanation string    `json:"explanation"`
	Timestamp   time.Time `json:"timestamp"`
}

// MessageVerdict is the outcome of classifying a text message.
type MessageVerdict struct {
	Result      RiskStatus `json:"result"`
	Explanation string     `json:"explanation"`
}

// MediaType selects the forensic mode for deepfake analysis.
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaAudio MediaType = "audio"
	MediaVideo MediaType = "video"
)

// DeepfakeDetails breaks the forensic verdict into sub-scores. AudioSync is
// nil for still images, where lip-sync analysis does not apply.
type DeepfakeDetails struct {
	BiologicalScore      int  `json:"biological_score"`
	VisualIntegrityScore int  `json:"visual_integrity_score"`
	AudioSyncScore       *int `json:"audio_sync_score"`
}

// DeepfakeResult is the outcome of forensic media analysis.
// ConfidenceScore runs 0-100 where 100 means definitely fake.
type DeepfakeResult struct {
	IsDeepfake      bool            `json:"is_deepfake"`
	ConfidenceScore int             `json:"confidence_score"`
	Explanation     string          `json:"explanation"`
	Details         DeepfakeDetails `json:"details"`
	Artifacts       []string        `json:"artifacts"`
}

// FallbackDeepfakeResult is returned when forensic analysis cannot run at
// all. It indicates failure without claiming the media is genuine.
func FallbackDeepfakeResult() DeepfakeResult {
	return DeepfakeResult{
		IsDeepfake:      false,
		ConfidenceScore: 0,
		Explanation:     "Không thể thực hiện phân tích pháp y do lỗi kết nối hoặc định dạng file không hỗ trợ.",
		Details: DeepfakeDetails{
			BiologicalScore:      50,
			VisualIntegrityScore: 50,
		},
		Artifacts: []string{"Lỗi kết nối máy chủ AI"},
	}
}
