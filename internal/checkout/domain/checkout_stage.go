package domain

type Stage string

const (
	StageCart         Stage = "CART"
	StageShipping     Stage = "SHIPPING"
	StagePayment      Stage = "PAYMENT"
	StageConfirmation Stage = "CONFIRMATION"
)

var transitions = map[Stage][]Stage{
	StageCart:         {StageShipping},
	StageShipping:     {StagePayment, StageCart},
	StagePayment:      {StageConfirmation, StageShipping},
	StageConfirmation: {StageCart},
}

func (s Stage) CanTransitionTo(next Stage) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether only an explicit reset leaves the stage.
func (s Stage) IsTerminal() bool {
	return s == StageConfirmation
}

func (s Stage) String() string {
	return string(s)
}
