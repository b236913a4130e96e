package pipe

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingKey is returned by Require when a mandatory key is absent.
	ErrMissingKey = errors.New("pipe: missing context key")

	// ErrAlreadyLinked is returned when a node's successor is set twice.
	ErrAlreadyLinked = errors.New("pipe: middleware already linked")

	// ErrBuild wraps every failure raised while assembling a chain.
	ErrBuild = errors.New("pipe: build failed")

	// ErrUnknownMiddleware is returned when a builder step names a key that
	// is not registered.
	ErrUnknownMiddleware = errors.New("pipe: unknown middleware")

	// ErrUnknownService is returned by a Resolver for unregistered names.
	ErrUnknownService = errors.New("pipe: unknown service")
)

func missingKey(key string) error {
	return fmt.Errorf("%w: %q", ErrMissingKey, key)
}
