package cache

import "time"

// Clock supplies the current time. Tests swap it for a manual clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads the wall clock
var SystemClock Clock = systemClock{}

func millis(t time.Time) int64 {
	return t.UnixMilli()
}
