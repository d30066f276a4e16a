package eventlog

import (
	"bytes"
	"encoding/json"
)

// Record is a single journal entry. Payload is stored verbatim and never
// interpreted by the log.
type Record struct {
	Seq     uint64          `json:"seq"`
	Ts      int64           `json:"ts"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// encodeRecord serializes a record as one newline-terminated JSON line.
// json.Marshal compacts the payload, so the line never embeds a newline.
func encodeRecord(rec Record) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// decodeRecord parses one journal line. A record must carry a positive
// sequence to count as valid; anything else is a truncated or foreign line
// and is skipped by callers, never raised as an error.
func decodeRecord(line []byte) (Record, bool) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return Record{}, false
	}
	var rec Record
	if err := json.Unmarshal(line, &rec); err != nil {
		return Record{}, false
	}
	if rec.Seq == 0 {
		return Record{}, false
	}
	return rec, true
}
