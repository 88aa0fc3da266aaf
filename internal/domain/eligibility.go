package domain

// Eligibility is the tagged result of a can-this-user-book-this-trip check.
type Eligibility int

const (
	CanBook Eligibility = iota
	CannotBookOwnTrip
	NoSeatsAvailable
	TripNotAvailable
)

func (e Eligibility) String() string {
	switch e {
	case CanBook:
		return "CAN_BOOK"
	case CannotBookOwnTrip:
		return "CANNOT_BOOK_OWN_TRIP"
	case NoSeatsAvailable:
		return "NO_SEATS_AVAILABLE"
	case TripNotAvailable:
		return "TRIP_NOT_AVAILABLE"
	default:
		return "UNKNOWN"
	}
}

func (e Eligibility) OK() bool { return e == CanBook }
