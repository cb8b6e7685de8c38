package types

// Outcome represents the terminal state of a single address resolution
type Outcome int

const (
	Inactive Outcome = iota
	Active
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Active:
		return "Active"
	case Inactive:
		return "Inactive"
	case Failed:
		return "Failed"
	default:
		return "unknown"
	}
}
