package eventlog

// Archiver mirrors successfully appended records into a secondary store.
// Archive runs on the append path after listener fan-out; failures are
// logged and never surfaced to the appender.
type Archiver interface {
	Archive(Record) error
}

// SetArchiver installs (or, with nil, removes) the archiver hook.
func (l *Log) SetArchiver(a Archiver) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.archiver = a
}
