/*
Eventlog is the durable system-of-record for platform events.

# Module
  - record: one-line JSON codec, tolerant of truncated tails
  - recover: backward scan restoring the last sequence on open
  - read: forward scan with cursor, type filter and limit
  - subscribe: synchronous fan-out to global and per-type listeners

# Source
  - trade outcomes from execution
  - trips and releases from risk
  - execution samples from the collector
  - heartbeats from the daemon

# Produce
  - none

# Sharded
  - none
*/
package eventlog
