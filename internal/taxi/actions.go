package taxi

import (
	"fmt"
	"strconv"
	"strings"
)

type Action int

const (
	ActionSouth Action = iota
	ActionNorth
	ActionEast
	ActionWest
	ActionPickup
	ActionDropoff
)

const NumActions = 6

var actionNames = [NumActions]string{"South", "North", "East", "West", "Pickup", "Dropoff"}

func (a Action) String() string {
	if a < 0 || int(a) >= NumActions {
		return fmt.Sprintf("Action(%d)", int(a))
	}
	return actionNames[a]
}

// IsMove reports whether a changes the taxi position.
func (a Action) IsMove() bool {
	return a >= ActionSouth && a <= ActionWest
}

// Actions returns every action in index order.
func Actions() []Action {
	out := make([]Action, NumActions)
	for i := range out {
		out[i] = Action(i)
	}
	return out
}

// ParseAction accepts an action name (case-insensitive) or its index.
func ParseAction(name string) (Action, error) {
	trimmed := strings.TrimSpace(name)
	for i, n := range actionNames {
		if strings.EqualFold(n, trimmed) {
			return Action(i), nil
		}
	}
	if idx, err := strconv.Atoi(trimmed); err == nil && idx >= 0 && idx < NumActions {
		return Action(idx), nil
	}
	return 0, fmt.Errorf("%q: %w", name, ErrUnknownAction)
}
