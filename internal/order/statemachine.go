package order

var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
	StatusDelivered:  nil,
	StatusCancelled:  nil,
}

func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates moving from current to target. Requesting the
// current state is a no-op: it returns changed=false and no error.
func Transition(current, target Status) (next Status, changed bool, err error) {
	if !target.IsValid() {
		return current, false, &TransitionError{From: current, To: target}
	}
	if current == target {
		return current, false, nil
	}
	if !CanTransition(current, target) {
		return current, false, &TransitionError{From: current, To: target}
	}
	return target, true, nil
}

func IsTerminal(s Status) bool {
	return s.IsValid() && len(transitions[s]) == 0
}

// Notifies reports whether entering s sends the customer an email.
func Notifies(s Status) bool {
	switch s {
	case StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}
