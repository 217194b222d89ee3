package domain

import "time"

// Clock is the time source used by validation and the service
type Clock interface {
	Now() time.Time
}

// SystemClock reads wall clock time in UTC
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// ClockFunc adapts a function to Clock
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }
