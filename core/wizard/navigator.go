package wizard

import "github.com/trezcool/tutordesk/core"

// Navigator tracks the current step of a wizard. It only moves one step at a time.
type Navigator struct {
	steps   []Step
	current int
}

func NewNavigator(steps []Step) Navigator {
	return Navigator{steps: steps}
}

func (n *Navigator) Current() int { return n.current }
func (n *Navigator) Len() int     { return len(n.steps) }
func (n *Navigator) Step() Step   { return n.steps[n.current] }

func (n *Navigator) IsTerminal() bool { return n.current == len(n.steps)-1 }

// Next advances when check reports no error for the current step; it stays on the last step.
func (n *Navigator) Next(check func(Step) []core.FieldError) []core.FieldError {
	if errs := check(n.steps[n.current]); len(errs) > 0 {
		return errs
	}
	if n.current < len(n.steps)-1 {
		n.current++
	}
	return nil
}

// Back never validates.
func (n *Navigator) Back() {
	if n.current > 0 {
		n.current--
	}
}

func (n *Navigator) Reset() { n.current = 0 }

func (n *Navigator) StepIDs() []string {
	ids := make([]string, 0, len(n.steps))
	for _, s := range n.steps {
		ids = append(ids, s.ID)
	}
	return ids
}
