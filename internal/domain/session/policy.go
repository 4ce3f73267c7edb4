package session

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned when no live session has the requested ID.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExists is returned when registering an ID that is already live
	// and the collision policy is CollisionReject.
	ErrSessionExists = errors.New("session already registered")
)

// CollisionPolicy decides what registering a duplicate session ID does.
type CollisionPolicy string

const (
	// CollisionReject refuses the new registration and keeps the live one.
	CollisionReject CollisionPolicy = "reject"
	// CollisionReplace closes the live session and registers the new one.
	CollisionReplace CollisionPolicy = "replace"
)

// ParseCollisionPolicy converts a config value to a CollisionPolicy.
// An empty string yields CollisionReject.
func ParseCollisionPolicy(s string) (CollisionPolicy, error) {
	switch CollisionPolicy(s) {
	case "", CollisionReject:
		return CollisionReject, nil
	case CollisionReplace:
		return CollisionReplace, nil
	default:
		return "", fmt.Errorf("unknown session collision policy %q", s)
	}
}
