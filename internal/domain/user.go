// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"

	"github.com/google/uuid"
)

const MaxRoomIDLen = 64

var (
	ErrRoomIDEmpty   = errors.New("room id empty")
	ErrRoomIDTooLong = errors.New("room id too long")
)

// ConnID identifies one live transport connection. A browser tab that
// reconnects gets a new one.
type ConnID string

func NewConnID() ConnID {
	return ConnID(uuid.NewString())
}
