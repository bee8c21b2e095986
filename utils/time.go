package utils

import "time"

// Now returns the current time truncated to whole seconds in UTC, matching
// the precision of DATETIME columns.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
