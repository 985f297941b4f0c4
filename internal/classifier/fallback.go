package classifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/truthshield/callguard/internal/domain"
)

// messageKeywords is the ordered list of scam-topic keywords scanned by the
// offline message fallback. The first match wins, so more specific phrases
// come before generic ones.
var messageKeywords = []struct {
	keyword     string
	explanation string
}{
	{"công an", "Giả danh công an/cơ quan điều tra. Công an không làm việc qua điện thoại."},
	{"điều tra", "Đe dọa liên quan điều tra là chiêu thao túng tâm lý phổ biến."},
	{"tài khoản tạm giữ", "Không có 'tài khoản tạm giữ' nào của cơ quan nhà nước. Đây là lừa đảo."},
	{"chuyển tiền", "Yêu cầu chuyển tiền gấp là dấu hiệu lừa đảo điển hình."},
	{"chuyển khoản", "Yêu cầu chuyển khoản gấp là dấu hiệu lừa đảo điển hình."},
	{"mật khẩu", "Không ai được phép hỏi mật khẩu của bạn, kể cả ngân hàng."},
	{"mã otp", "Tuyệt đối không cung cấp mã OTP cho bất kỳ ai."},
	{"otp", "Tuyệt đối không cung cấp mã OTP cho bất kỳ ai."},
	{"trúng thưởng", "Thông báo trúng thưởng kèm yêu cầu đóng phí là lừa đảo."},
	{"nâng cấp sim", "Chiêu 'nâng cấp SIM' nhằm chiếm đoạt SIM và mã OTP của bạn."},
	{"khóa tài khoản", "Đe dọa khóa tài khoản để gây hoảng loạn là chiêu lừa đảo."},
	{"việc nhẹ lương cao", "Tuyển dụng 'việc nhẹ lương cao' thường là bẫy lừa cộng tác viên."},
	{"cấp cứu", "Báo người thân cấp cứu cần tiền gấp: hãy gọi xác minh trực tiếp."},
}

// FallbackMessage classifies a text message using only local keyword rules.
// It is used when the AI collaborator is unreachable or times out. It never
// returns scam on its own: without the AI it cannot assess nuance, so the
// strongest verdict it claims is suspicious.
func FallbackMessage(text string) domain.MessageVerdict {
	lower := strings.ToLower(text)
	for _, entry := range messageKeywords {
		if strings.Contains(lower, entry.keyword) {
			return domain.MessageVerdict{
				Result: domain.RiskSuspicious,
				Explanation: fmt.Sprintf("Hệ thống ngoại tuyến: Phát hiện từ khóa nhạy cảm %q. %s",
					entry.keyword, entry.explanation),
			}
		}
	}
	return domain.MessageVerdict{
		Result:      domain.RiskSafe,
		Explanation: "Không phát hiện từ khóa nguy hiểm (Chế độ Offline).",
	}
}

// Duration thresholds for the offline call heuristic, in seconds.
const (
	pingCallMax   = 10  // below this an unknown call looks like a ping/flash call
	stagedCallMin = 300 // above this an unknown call may be a staged scam
)

// FallbackCall scores a finished call using contact presence and duration
// only. It runs after the call ends, unlike Classify which runs while the
// phone is still ringing.
func FallbackCall(contactName string, duration int) domain.AIAnalysis {
	a := domain.AIAnalysis{Timestamp: time.Now()}

	if contactName != "" {
		a.RiskScore = 5
		a.Explanation = "Người quen trong danh bạ."
		return a
	}

	switch {
	case duration < pingCallMax:
		a.RiskScore = 75
		a.Explanation = "Số lạ, gọi quá ngắn (Nháy máy)."
	case duration >= stagedCallMin:
		a.RiskScore = 65
		a.Explanation = "Số lạ, gọi rất lâu. Cần cảnh giác lừa đảo dàn dựng."
	default:
		a.RiskScore = 40
		a.Explanation = "Số lạ, cần xác minh."
	}
	return a
}
