package session

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hokusei/nippo/internal/domain/entity"
)

// SlotValues holds the raw field input of one slot, exactly as entered.
type SlotValues struct {
	Customer      string `json:"customer"`
	CustomerOther string `json:"customer_other"`
	JobType       string `json:"job_type"`
	JobNumber     string `json:"job_number"`
	HoursText     string `json:"hours"`
}

// Session is the per-human form context: shared date and worker, the visible
// slots with their entered values, and the lifecycle state. Each session is
// independent; there is no cross-session coordination.
type Session struct {
	mu sync.Mutex

	ID         string
	Department entity.Department

	date    string
	worker  string
	phase   Phase
	state   *State
	slots   map[int]SlotValues
	failure string
}

// New creates a session for the given department with one visible slot and
// the work date preset to today.
func New(dept entity.Department) *Session {
	return &Session{
		ID:         uuid.NewString(),
		Department: dept,
		date:       time.Now().Format("2006-01-02"),
		phase:      PhaseCollecting,
		state:      NewState(dept.SlotCap),
		slots:      make(map[int]SlotValues),
	}
}

// SetDate stores the shared work date.
func (s *Session) SetDate(date string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.date = date
}

// SetWorker stores the shared worker name. Only a catalogued worker (or the
// sentinel) is accepted; the slots stay hidden until a real name is chosen.
func (s *Session) SetWorker(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name != entity.SentinelChoose && name != "" && !s.Department.IsWorker(name) {
		return fmt.Errorf("unknown worker %q for department %s", name, s.Department.Code)
	}
	s.worker = name
	return nil
}

// Date returns the shared work date.
func (s *Session) Date() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.date
}

// Worker returns the chosen worker name, or "" when still on the sentinel.
func (s *Session) Worker() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.worker == entity.SentinelChoose {
		return ""
	}
	return s.worker
}

// SetSlot stores the field values of one slot. Slots outside the visible
// range are rejected.
func (s *Session) SetSlot(index int, values SlotValues) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 1 || index > s.state.SlotCount {
		return fmt.Errorf("slot %d out of range (1..%d)", index, s.state.SlotCount)
	}
	s.slots[index] = values
	return nil
}

// Slot returns the stored values of one slot, zero values if untouched.
func (s *Session) Slot(index int) SlotValues {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slots[index]
}

// SlotCount returns the number of visible slots.
func (s *Session) SlotCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.SlotCount
}

// AddSlot grows the visible slot count, a no-op at the cap.
func (s *Session) AddSlot() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.AddSlot()
}

// BeginSubmit takes the submission lock and moves the session into the
// validating phase. It reports false when a submission is already in flight.
func (s *Session) BeginSubmit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.BeginSubmit() {
		return false
	}
	next, err := s.phase.Transition(PhaseValidating)
	if err != nil {
		s.state.EndSubmit(false)
		return false
	}
	s.phase = next
	return true
}

// MarkSubmitting records that the validated batch is being written.
func (s *Session) MarkSubmitting() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := s.phase.Transition(PhaseSubmitting)
	if err != nil {
		return err
	}
	s.phase = next
	return nil
}

// EndSubmit releases the submission lock and resolves the phase. On success
// the slot values are cleared and the slot count resets; on failure every
// entered value is preserved for a retry.
func (s *Session) EndSubmit(success bool, failure string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resolved := PhaseResolvedFailure
	if success {
		resolved = PhaseResolvedSuccess
	}
	if next, err := s.phase.Transition(resolved); err == nil {
		s.phase = next
	}

	s.state.EndSubmit(success)
	s.failure = failure
	if success {
		s.slots = make(map[int]SlotValues)
	}

	// Resolved phases immediately yield back to input collection.
	if next, err := s.phase.Transition(PhaseCollecting); err == nil {
		s.phase = next
	}
}

// AbortSubmit backs out of a submission that never reached the store, e.g.
// when no record is complete. Entered values stay untouched.
func (s *Session) AbortSubmit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if next, err := s.phase.Transition(PhaseCollecting); err == nil {
		s.phase = next
	}
	s.state.EndSubmit(false)
}

// Phase returns the current lifecycle phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Submitting reports whether a submission is in flight.
func (s *Session) Submitting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Submitting
}

// ConsumeJustSubmitted reads and clears the one-shot success flag.
func (s *Session) ConsumeJustSubmitted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.ConsumeJustSubmitted()
}

// Failure returns the last submission failure message, "" when none.
func (s *Session) Failure() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failure
}

// Select returns the stored value for key when it is one of the options,
// otherwise the sentinel first option. Implements the field provider
// contract used by the form service.
func (s *Session) Select(label string, options []string, key string) string {
	v := s.value(key)
	for _, opt := range options {
		if opt == v {
			return v
		}
	}
	if len(options) > 0 {
		return options[0]
	}
	return ""
}

// Text returns the stored value for key, or def when nothing was entered.
func (s *Session) Text(label, key, def string) string {
	if v := s.value(key); v != "" {
		return v
	}
	return def
}

// value resolves a slot-namespaced field key such as "customer_3".
func (s *Session) value(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := strings.LastIndex(key, "_")
	if i < 0 {
		return ""
	}
	index, err := strconv.Atoi(key[i+1:])
	if err != nil || index < 1 {
		return ""
	}
	accessor, ok := fieldAccessors[key[:i]]
	if !ok {
		return ""
	}
	return accessor(s.slots[index])
}

// Field keys mirror the slot-namespaced widget keys of the form layer.
var fieldAccessors = map[string]func(SlotValues) string{
	"customer":     func(v SlotValues) string { return v.Customer },
	"new_customer": func(v SlotValues) string { return v.CustomerOther },
	"genre":        func(v SlotValues) string { return v.JobType },
	"number":       func(v SlotValues) string { return v.JobNumber },
	"time":         func(v SlotValues) string { return v.HoursText },
}
