package store

import (
	"fmt"

	"github.com/goliatone/go-store/internal/hydrate"
)

// Arg returns args[i] as T. Values already of type T are returned as is;
// maps (including State) are decoded into T through their JSON form, so
// callers may pass either typed values or plain payload maps.
func Arg[T any](args []any, i int) (T, error) {
	return decodeArg[T](args, i)
}

// StrictArg behaves like Arg but rejects map keys that T does not declare.
func StrictArg[T any](args []any, i int) (T, error) {
	return decodeArg(args, i, hydrate.WithDisallowUnknownFields[T]())
}

// ArgWith behaves like Arg and then runs validate on the decoded value.
func ArgWith[T any](args []any, i int, validate func(*T) error) (T, error) {
	if validate == nil {
		return decodeArg[T](args, i)
	}
	return decodeArg(args, i, hydrate.WithPostHook(func(_ hydrate.Context, value *T) error {
		return validate(value)
	}))
}

func decodeArg[T any](args []any, i int, opts ...hydrate.DecoderOption[T]) (T, error) {
	var zero T
	if i < 0 || i >= len(args) {
		return zero, fmt.Errorf("%w: index %d of %d", ErrMissingArgument, i, len(args))
	}

	raw := args[i]
	if typed, ok := raw.(T); ok && len(opts) == 0 {
		return typed, nil
	}

	var payload any
	switch value := raw.(type) {
	case T:
		payload = value
	case State:
		payload = map[string]any(value)
	case map[string]any:
		payload = value
	default:
		return zero, fmt.Errorf("%w: index %d: want %T, got %T", ErrInvalidArgument, i, zero, raw)
	}

	out, err := hydrate.NewDecoder(opts...).Decode(hydrate.Context{Index: i}, payload)
	if err != nil {
		return zero, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return out, nil
}
