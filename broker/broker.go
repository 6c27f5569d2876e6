package broker

// Direction of an order or trade. The numeric values double as the position
// sign, so signed volume is direction * volume.
type Direction int8

const (
	Long  Direction = +1
	Short Direction = -1
)

func (d Direction) Sign() float64 { return float64(d) }

func (d Direction) String() string {
	switch d {
	case Long:
		return "long"
	case Short:
		return "short"
	}
	return "unknown"
}

// Offset records whether a trade opens or closes a position. It is carried
// through to the ledger but never enforced by matching.
type Offset uint8

const (
	Open Offset = iota
	Close
)

func (o Offset) String() string {
	if o == Close {
		return "close"
	}
	return "open"
}

// Status is the order lifecycle state:
//
//	Submitting → NotTraded → {AllTraded | Cancelled}
//
// Exactly one terminal state is reachable; terminal orders are immutable.
type Status uint8

const (
	Submitting Status = iota
	NotTraded
	AllTraded
	Cancelled
)

// Active reports whether the order can still trade or be cancelled.
func (s Status) Active() bool {
	return s == Submitting || s == NotTraded
}

func (s Status) String() string {
	switch s {
	case Submitting:
		return "submitting"
	case NotTraded:
		return "not_traded"
	case AllTraded:
		return "all_traded"
	case Cancelled:
		return "cancelled"
	}
	return "unknown"
}
