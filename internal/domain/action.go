package domain

// Action represents the type of trading action to be performed.
type Action int

const (
	ActionOpenLong Action = iota
	ActionCloseLong
)

// String returns the string representation of the action.
func (a Action) String() string {
	switch a {
	case ActionOpenLong:
		return "open_long"
	case ActionCloseLong:
		return "close_long"
	default:
		return "unknown"
	}
}
