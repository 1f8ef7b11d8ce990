// Package dragdrop tracks a single drag of a top-level question. Reordering
// is committed on every hover, so dropping never moves anything by itself.
package dragdrop

import (
	"errors"
	"fmt"
)

// State is the phase of the drag operation.
type State int

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var ErrInvalidTransition = errors.New("invalid drag transition")

// Mover commits a top-level reorder. It is called once per effective hover.
type Mover func(from, to int) error

// Counter reports how many top-level items there are right now.
type Counter func() int

// Session is the drag state of one client. It is not safe for concurrent use.
type Session struct {
	state State
	index int
	move  Mover
	count Counter
}

// NewSession creates an idle session that reorders through move and checks
// grabbed positions against count.
func NewSession(move Mover, count Counter) *Session {
	return &Session{state: Idle, move: move, count: count}
}

// State returns the current phase.
func (s *Session) State() State { return s.state }

// Index returns the tracked position of the dragged item. It is only
// meaningful while dragging.
func (s *Session) Index() int { return s.index }

// Begin grabs the top-level item at index.
func (s *Session) Begin(index int) error {
	if s.state != Idle {
		return fmt.Errorf("%w: begin while %s", ErrInvalidTransition, s.state)
	}
	if n := s.count(); index < 0 || index >= n {
		return fmt.Errorf("%w: index %d outside %d items", ErrInvalidTransition, index, n)
	}
	s.state = Dragging
	s.index = index
	return nil
}

// Hover moves the dragged item onto target right away. Hovering over the
// item's own position does nothing. It reports whether a move happened.
func (s *Session) Hover(target int) (moved bool, from int, err error) {
	if s.state != Dragging {
		return false, 0, fmt.Errorf("%w: hover while %s", ErrInvalidTransition, s.state)
	}
	if target == s.index {
		return false, s.index, nil
	}
	from = s.index
	if err := s.move(from, target); err != nil {
		return false, from, err
	}
	s.index = target
	return true, from, nil
}

// Drop ends the drag. The final position was already committed by Hover.
func (s *Session) Drop() {
	s.state = Idle
	s.index = 0
}

// Cancel ends the drag the same way as Drop; moves already made stay.
func (s *Session) Cancel() {
	s.Drop()
}
