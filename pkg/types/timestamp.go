// Package types is the shared vocabulary for the terminal: timestamps,
// intervals, candles, symbols, and order primitives. It has no dependency
// on any internal package so any layer can import it.
package types

import (
	"fmt"
	"time"
)

// Timestamp is an opaque count of seconds since the Unix epoch. It is
// ordered and equatable via plain integer comparison.
type Timestamp int64

// Now returns the current wall-clock time truncated to the second.
func Now() Timestamp {
	return Timestamp(time.Now().Unix())
}

// FromSeconds builds a Timestamp from a seconds-since-epoch value.
func FromSeconds(s int64) Timestamp {
	return Timestamp(s)
}

// FromMillis builds a Timestamp from a milliseconds-since-epoch value,
// truncating toward zero to the second.
func FromMillis(ms int64) Timestamp {
	return Timestamp(ms / 1000)
}

// Seconds returns the underlying seconds-since-epoch value.
func (t Timestamp) Seconds() int64 {
	return int64(t)
}

// Millis returns the millisecond form, for venues whose wire protocol wants it.
func (t Timestamp) Millis() int64 {
	return int64(t) * 1000
}

// Time converts to a standard library time.Time in UTC.
func (t Timestamp) Time() time.Time {
	return time.Unix(int64(t), 0).UTC()
}

// UTCString formats the timestamp as "2006-01-02 15:04:05 UTC".
func (t Timestamp) UTCString() string {
	return t.Time().Format("2006-01-02 15:04:05 UTC")
}

// String implements fmt.Stringer.
func (t Timestamp) String() string {
	return fmt.Sprintf("%d", int64(t))
}

// Before reports whether t is strictly earlier than o.
func (t Timestamp) Before(o Timestamp) bool { return t < o }

// After reports whether t is strictly later than o.
func (t Timestamp) After(o Timestamp) bool { return t > o }
