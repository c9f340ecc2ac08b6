package notify

// Level is the severity tag of a notification.
type Level int

const (
	// LevelInfo is a neutral message. It is the zero value.
	LevelInfo Level = iota
	// LevelSuccess reports a finished action.
	LevelSuccess
	// LevelError reports a failed action.
	LevelError
)

// String returns the lower-case level name.
func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}
