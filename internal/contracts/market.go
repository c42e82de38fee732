package contracts

// MarketStatus describes whether the US regular session is active,
// as seen from the reference timezone (KST).
// ⭐ SSOT: 시장 상태 전달은 이 타입으로만
type MarketStatus struct {
	IsOpen  bool   `json:"is_open"`
	Time    string `json:"time"`    // HH:MM:SS in KST
	Weekday string `json:"weekday"` // Mon, Tue, ...
}
