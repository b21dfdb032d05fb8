package domain

type RoomID string

// ParseRoomID accepts any non-empty id up to MaxRoomIDLen bytes, verbatim.
func ParseRoomID(id string) (RoomID, error) {
	if id == "" {
		return "", ErrRoomIDEmpty
	}
	if len(id) > MaxRoomIDLen {
		return "", ErrRoomIDTooLong
	}
	return RoomID(id), nil
}

// VisibilityKey is the store key of the room's visibility flag.
func (r RoomID) VisibilityKey() string {
	return string(r) + ":visibility"
}
