package audit

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type memSink struct {
	mu     sync.Mutex
	events []Event
	fail   bool
}

func (m *memSink) Log(ev Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("db down")
	}
	m.events = append(m.events, ev)
	return nil
}

func TestDispatcherDeliversInOrder(t *testing.T) {
	sink := &memSink{}
	d := NewDispatcher(sink)

	d.Dispatch(Event{Action: "employee_created", EntityID: "MSB-2025-0001"})
	d.Dispatch(Event{Action: "employee_updated", EntityID: "MSB-2025-0001"})
	d.Close()

	assert.Len(t, sink.events, 2)
	assert.Equal(t, "employee_created", sink.events[0].Action)
	assert.Equal(t, "employee_updated", sink.events[1].Action)
}

func TestDispatcherSurvivesSinkErrors(t *testing.T) {
	sink := &memSink{fail: true}
	d := NewDispatcher(sink)

	d.Dispatch(Event{Action: "item_deleted"})
	d.Close()
	d.Close()

	assert.Empty(t, sink.events)
}

func TestDispatchAfterCloseIsDropped(t *testing.T) {
	sink := &memSink{}
	d := NewDispatcher(sink)
	d.Close()

	assert.NotPanics(t, func() {
		d.Dispatch(Event{Action: "employee_deleted"})
	})
	assert.Empty(t, sink.events)
}
