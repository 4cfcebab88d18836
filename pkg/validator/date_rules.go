package validator

import (
	"fmt"
	"time"
)

func FutureDate(field string, value time.Time) Rule {
	return Rule{
		Check: func() bool {
			return value.After(time.Now())
		},
		Error: ValidationError{
			Field:   field,
			Message: "date must be in the future",
		},
	}
}

func DateAfter(field string, value time.Time, after time.Time) Rule {
	return Rule{
		Check: func() bool {
			return value.After(after)
		},
		Error: ValidationError{
			Field:   field,
			Message: fmt.Sprintf("date must be after %s", after.Format(time.RFC3339)),
		},
	}
}
