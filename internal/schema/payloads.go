package schema

import "github.com/yanun0323/decimal"

// TradeOpen is the payload for EventTradeOpen.
type TradeOpen struct {
	OrderID uint64          `json:"orderId"`
	Symbol  string          `json:"symbol"`
	Side    string          `json:"side"`
	Price   decimal.Decimal `json:"price"`
	Qty     decimal.Decimal `json:"qty"`
}

// TradeOutcome is the payload for EventTradeClose. RealizedPnL is signed;
// Equity is the account equity after the close.
type TradeOutcome struct {
	OrderID     uint64          `json:"orderId"`
	Symbol      string          `json:"symbol"`
	Side        string          `json:"side"`
	RealizedPnL decimal.Decimal `json:"realizedPnl"`
	Equity      decimal.Decimal `json:"equity"`
}

// RiskTrip is the payload for EventRiskTrip.
type RiskTrip struct {
	Reason      string          `json:"reason"`
	RollingLoss float64         `json:"rollingLoss"`
	Equity      decimal.Decimal `json:"equity"`
	// Until is the epoch-millisecond time the cooldown expires.
	Until int64 `json:"until"`
}

// RiskRelease is the payload for EventRiskRelease.
type RiskRelease struct {
	// TrippedForMs is how long trading was blocked.
	TrippedForMs int64 `json:"trippedForMs"`
}

// ExecutionOutcome is the payload for EventExecSample and the unit the
// execution metrics collector persists to its own store.
type ExecutionOutcome struct {
	OrderID     uint64 `json:"orderId"`
	LatencyMs   int64  `json:"latencyMs"`
	SlippageBps int64  `json:"slippageBps"`
	Success     bool   `json:"success"`
}

// Heartbeat is the payload for EventHeartbeat.
type Heartbeat struct {
	Component string `json:"component"`
	UptimeMs  int64  `json:"uptimeMs"`
}
