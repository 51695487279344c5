package urlparser

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

var ErrWrongFormat = errors.New("wrong url format")

type PathParams struct {
	ID     string
	Action string
}

// ParseProductPath accepts /products/{productId} and
// /products/{productId}/{action}.
func ParseProductPath(path string) (PathParams, error) {
	parts := split(path)

	params := PathParams{}

	switch len(parts) {
	case 2, 3:
		if parts[0] != "products" {
			return params, errors.New("invalid path, expected /products/{productId}")
		}
		if err := validateID(parts[1]); err != nil {
			return params, errors.New("invalid productId, must be uuid")
		}
		params.ID = parts[1]
		if len(parts) == 3 {
			params.Action = parts[2]
		}
		return params, nil
	default:
		return params, ErrWrongFormat
	}
}

// ParseBookingPath accepts /bookings/{bookingId}/{action}.
func ParseBookingPath(path string) (PathParams, error) {
	parts := split(path)

	params := PathParams{}

	if len(parts) != 3 || parts[0] != "bookings" {
		return params, errors.New("invalid path, expected /bookings/{bookingId}/{action}")
	}
	if err := validateID(parts[1]); err != nil {
		return params, errors.New("invalid bookingId, must be uuid")
	}
	params.ID = parts[1]
	params.Action = parts[2]
	return params, nil
}

// ParseCartItemPath accepts /cart/items/{itemId}.
func ParseCartItemPath(path string) (PathParams, error) {
	parts := split(path)

	params := PathParams{}

	if len(parts) != 3 || parts[0] != "cart" || parts[1] != "items" {
		return params, errors.New("invalid path, expected /cart/items/{itemId}")
	}
	if parts[2] == "" {
		return params, errors.New("invalid itemId, must not be empty")
	}
	params.ID = parts[2]
	return params, nil
}

// ParseStoragePath splits /storage/{bucket}/{object...} into the bucket and
// the object path. Relative segments are rejected.
func ParseStoragePath(path string) (bucket, object string, err error) {
	parts := split(path)
	if len(parts) < 3 || parts[0] != "storage" {
		return "", "", errors.New("invalid path, expected /storage/{bucket}/{object}")
	}
	for _, p := range parts[1:] {
		if p == "" || p == "." || p == ".." {
			return "", "", ErrWrongFormat
		}
	}
	return parts[1], strings.Join(parts[2:], "/"), nil
}

func split(path string) []string {
	return strings.Split(strings.Trim(path, "/"), "/")
}

func validateID(s string) error {
	_, err := uuid.Parse(s)
	return err
}
