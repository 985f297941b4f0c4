package classifier

import "strings"

// Keyword weights for live-conversation scoring. Risk words raise the score,
// safe words (delivery chatter) lower it.
var riskWords = []struct {
	word   string
	weight int
}{
	{"công an", 20},
	{"điều tra", 20},
	{"tài khoản", 15},
	{"chuyển tiền", 25},
	{"chuyển khoản", 25},
	{"rửa tiền", 30},
	{"bí mật", 15},
	{"tạm giữ", 20},
	{"nâng cấp sim", 25},
	{"khóa", 10},
	{"mã otp", 30},
	{"mật khẩu", 30},
}

var safeWords = []struct {
	word   string
	weight int
}{
	{"shipper", -10},
	{"giao hàng", -10},
	{"đơn hàng", -5},
	{"shopee", -5},
	{"lazada", -5},
	{"tiki", -5},
	{"lấy hàng", -5},
}

// ContextScore scores a single transcribed sentence from an ongoing call.
// It returns the score delta to apply and the risk keywords that matched.
// For known contacts the impact is dampened by 80%, and the delta is floored
// at -10 so safe chatter cannot erase accumulated risk.
func ContextScore(text string, knownContact bool) (int, []string) {
	lower := strings.ToLower(text)

	score := 0
	var found []string

	for _, entry := range riskWords {
		if strings.Contains(lower, entry.word) {
			score += entry.weight
			found = append(found, entry.word)
		}
	}
	for _, entry := range safeWords {
		if strings.Contains(lower, entry.word) {
			score += entry.weight
		}
	}

	if knownContact {
		score = score * 20 / 100
	}
	if score < -10 {
		score = -10
	}
	return score, found
}
