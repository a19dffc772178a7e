package usecases

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

func isUuid(str string) bool {
	_, err := uuid.Parse(str)
	return err == nil
}

// anyUuid matches a freshly generated id argument.
func anyUuid() any {
	return mock.MatchedBy(isUuid)
}

// recordingMetrics keeps what the usecases report, for assertions.
type recordingMetrics struct {
	mu                 sync.Mutex
	transitions        []string
	upstreamCalls      map[string]int
	upstreamErrors     map[string]int
	sideEffectFailures []string
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		upstreamCalls:  map[string]int{},
		upstreamErrors: map[string]int{},
	}
}

func (m *recordingMetrics) TransitionRecorded(from, to string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions = append(m.transitions, from+"->"+to)
}

func (m *recordingMetrics) UpstreamCallDone(service string, start time.Time, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upstreamCalls[service]++
	if err != nil {
		m.upstreamErrors[service]++
	}
}

func (m *recordingMetrics) SideEffectFailed(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sideEffectFailures = append(m.sideEffectFailures, name)
}
