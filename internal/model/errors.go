package model

import "errors"

// Common errors used across the application
var (
	// Room errors
	ErrRoomNotFound      = errors.New("room not found")
	ErrHostAlreadyExists = errors.New("host already exists for this room")

	// Identity errors
	ErrNameTaken    = errors.New("username already taken")
	ErrNotInRoom    = errors.New("username is not active in this room")
	ErrAlreadyBound = errors.New("connection is already active in a room")

	// Content errors
	ErrEditionNotFound  = errors.New("edition not found")
	ErrContentNotLoaded = errors.New("edition content not loaded")

	// Host session errors
	ErrSnapshotNotFound = errors.New("no session snapshot for this room")
	ErrEmptyRolePool    = errors.New("role pool is empty")
	ErrNightComplete    = errors.New("night order complete")
)
