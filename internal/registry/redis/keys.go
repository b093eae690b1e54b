package redis

import (
	"fmt"

	"github.com/ravenkeep/townsquare/internal/model"
)

// Key prefix for all registry data
const keyPrefix = "tsq"

// hostKey returns the Redis key for the room -> host connection mapping
func hostKey(code model.RoomCode) string {
	return fmt.Sprintf("%s:host:%s", keyPrefix, code)
}

// namesKey returns the Redis key for the hash of active names in a room
func namesKey(code model.RoomCode) string {
	return fmt.Sprintf("%s:names:%s", keyPrefix, code)
}

// hostedByKey returns the Redis key for the connection -> hosted room index
func hostedByKey(conn model.ConnID) string {
	return fmt.Sprintf("%s:idx:hosted_by:%s", keyPrefix, conn)
}

// bindingKey returns the Redis key for the connection -> (room, name) index
func bindingKey(conn model.ConnID) string {
	return fmt.Sprintf("%s:idx:binding:%s", keyPrefix, conn)
}
