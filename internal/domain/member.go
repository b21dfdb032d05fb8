package domain

// LookupState is the outcome of resolving a connection's room.
type LookupState int

const (
	NotJoined LookupState = iota
	Found
	LookupFailed
)

func (s LookupState) String() string {
	switch s {
	case Found:
		return "found"
	case LookupFailed:
		return "lookup_failed"
	default:
		return "not_joined"
	}
}

// Lookup is the membership of a connection as seen by the store.
// Room is only meaningful when State is Found.
type Lookup struct {
	State LookupState
	Room  RoomID
}

func FoundRoom(room RoomID) Lookup { return Lookup{State: Found, Room: room} }

func (l Lookup) Ok() bool { return l.State == Found }
