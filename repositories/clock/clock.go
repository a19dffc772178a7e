package clock

import "time"

// Clock is injected wherever the current date changes a result, such as the age
// derived from a date of birth or the expiry of a signed url.
type Clock interface {
	Now() time.Time
}

type utcClock struct{}

func (utcClock) Now() time.Time {
	return time.Now().UTC()
}

func New() Clock {
	return utcClock{}
}

// Mock is a frozen clock for tests.
type Mock struct {
	now time.Time
}

func NewMock(now time.Time) *Mock {
	return &Mock{now: now.UTC()}
}

func (m *Mock) Now() time.Time {
	return m.now
}
