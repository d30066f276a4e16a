package schema

// Event type tags appended to the journal. The journal itself treats types
// as opaque strings; these constants only keep producers and consumers in
// agreement.
const (
	EventTradeOpen   = "trade.open"
	EventTradeClose  = "trade.close"
	EventRiskTrip    = "risk.trip"
	EventRiskRelease = "risk.release"
	EventExecSample  = "exec.sample"
	EventHeartbeat   = "heartbeat"
)
