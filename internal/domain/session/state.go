package session

// DefaultSlotCap is the maximum number of record slots per session.
const DefaultSlotCap = 10

// State tracks the interactive session counters and flags. It is owned by a
// single session and guarded by the session's lock; transitions follow the
// original advisory-lock semantics.
type State struct {
	SlotCount     int  `json:"slot_count"`
	SlotCap       int  `json:"slot_cap"`
	Submitting    bool `json:"submitting"`
	JustSubmitted bool `json:"just_submitted"`
}

// NewState returns a state with one visible slot.
func NewState(cap int) *State {
	if cap <= 0 {
		cap = DefaultSlotCap
	}
	return &State{SlotCount: 1, SlotCap: cap}
}

// AddSlot grows the visible slot count. At the cap it is a no-op and reports
// false.
func (s *State) AddSlot() bool {
	if s.SlotCount >= s.SlotCap {
		return false
	}
	s.SlotCount++
	return true
}

// BeginSubmit takes the submission lock. It reports false when a submission
// is already in flight, guarding against duplicate submit triggers from the
// same session.
func (s *State) BeginSubmit() bool {
	if s.Submitting {
		return false
	}
	s.Submitting = true
	return true
}

// EndSubmit releases the submission lock. On success the slot count resets to
// one and the one-shot acknowledgment flag is raised.
func (s *State) EndSubmit(success bool) {
	s.Submitting = false
	if success {
		s.JustSubmitted = true
		s.SlotCount = 1
	}
}

// ConsumeJustSubmitted reads and clears the one-shot acknowledgment flag so a
// success message shows exactly once.
func (s *State) ConsumeJustSubmitted() bool {
	v := s.JustSubmitted
	s.JustSubmitted = false
	return v
}
