package eventlog

import "bytes"

// recoverLastSeq restores the highest surviving sequence from the raw file
// contents. Lines are scanned from the end toward the start: with a single
// writer only the final append can be cut short by a crash, so the first
// decodable line from the tail holds the last assigned sequence.
func recoverLastSeq(data []byte) uint64 {
	lines := bytes.Split(data, []byte{'\n'})
	for i := len(lines) - 1; i >= 0; i-- {
		if rec, ok := decodeRecord(lines[i]); ok {
			return rec.Seq
		}
	}
	return 0
}
