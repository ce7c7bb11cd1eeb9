package model

import "errors"

// Common errors used across the application
var (
	// Authentication errors
	ErrUnauthenticated = errors.New("caller is not authenticated")

	// Validation errors
	ErrInvalidArgument = errors.New("missing or invalid argument")

	// User / identity errors
	ErrUserNotFound  = errors.New("user not found")
	ErrNoDisplayName = errors.New("user has no display name configured")

	// Room errors
	ErrRoomNotFound   = errors.New("room not found")
	ErrRoomFull       = errors.New("room is full")
	ErrRoomNotWaiting = errors.New("room is not accepting players")
	ErrRoomStarted    = errors.New("room has already started")
	ErrAlreadyInRoom  = errors.New("player is already in room")
	ErrPlayerNotFound = errors.New("player not found in room")
	ErrNotHost        = errors.New("player is not the host")

	// Ledger errors
	ErrSenderNotFound    = errors.New("sender not found in room")
	ErrReceiverNotFound  = errors.New("receiver not found in room")
	ErrInsufficientFunds = errors.New("insufficient funds")
)
