package endpoint

import (
	"errors"
	"fmt"
)

var (
	ErrNoSuchProvider = errors.New("no provider with the given name")
	ErrNoOptions      = errors.New("options provided but none accepted")
)

type NoSuchProviderError struct {
	Name string
}

func (e *NoSuchProviderError) Error() string {
	return fmt.Sprintf("provider %q: %s", e.Name, ErrNoSuchProvider)
}

func (e *NoSuchProviderError) Is(target error) bool {
	return target == ErrNoSuchProvider
}

type OptionError struct {
	Option  string
	Message string
}

func (oe *OptionError) Error() string {
	return fmt.Sprintf("option %q: %s", oe.Option, oe.Message)
}
