package service

import "time"

// SetClock replaces the clock s uses for reset token expiry.
func SetClock(s *UserService, now func() time.Time) {
	s.now = now
}
