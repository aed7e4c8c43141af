package session

type Status int

const (
	Booting Status = iota
	Unauthenticated
	Authenticated
)

func (s Status) String() string {
	switch s {
	case Booting:
		return "booting"
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}
