// Package snowflake validates Discord identifiers and extracts the creation
// time encoded in them.
package snowflake

import (
	"fmt"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/wasilibs/go-re2"
)

// Snowflakes are 17 to 20 ASCII digits.
var formatPattern = re2.MustCompile(`^[0-9]{17,20}$`)

// Valid reports whether id has the snowflake format.
func Valid(id string) bool {
	return formatPattern.MatchString(id)
}

// Validate возвращает ошибку, если id не похож на snowflake
func Validate(id, fieldName string) error {
	if id == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	if !Valid(id) {
		return fmt.Errorf("%s has invalid format (expected 17-20 digits, got %q)", fieldName, id)
	}
	return nil
}

// CreatedAt returns the creation time encoded in a snowflake.
func CreatedAt(id string) (time.Time, error) {
	if !Valid(id) {
		return time.Time{}, fmt.Errorf("invalid snowflake: %q", id)
	}
	parsed, err := snowflake.Parse(id)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse snowflake %q: %w", id, err)
	}
	return parsed.Time(), nil
}

// Newer reports whether a was created after b. Both must be valid snowflakes;
// invalid input compares as not newer.
func Newer(a, b string) bool {
	pa, errA := snowflake.Parse(a)
	pb, errB := snowflake.Parse(b)
	if errA != nil || errB != nil {
		return false
	}
	return pa > pb
}
