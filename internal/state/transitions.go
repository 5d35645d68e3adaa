package state

// validTransitions contains the permitted transitions besides staying put and returning to idle.
var validTransitions = map[State][]State{
	StateIdle: {
		StateAwaitingCategory,
		StateAwaitingCurrency,
		StateAwaitingReportType,
	},
	StateAwaitingCategory: {
		StateAwaitingCurrency,
		StateAwaitingNewCategory,
	},
	StateAwaitingNewCategory: {
		StateAwaitingCategory,
	},
	StateAwaitingCurrency: {
		StateAwaitingAmount,
		StateAwaitingNewCurrency,
	},
	StateAwaitingNewCurrency: {
		StateAwaitingCurrency,
	},
	StateAwaitingAmount: {
		StateAwaitingCommit,
	},
	StateAwaitingReportType: {
		StateAwaitingGrouping,
		StateAwaitingDate,
	},
	StateAwaitingGrouping: {
		StateAwaitingDate,
	},
	StateAwaitingCommit: {},
	StateAwaitingDate:   {},
}

// IsTransitionAllowed reports whether moving from one state to another is valid.
func IsTransitionAllowed(from, to State) bool {
	if to == StateIdle {
		return true
	}

	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	if from == to {
		return true
	}

	for _, state := range allowed {
		if state == to {
			return true
		}
	}

	return false
}
