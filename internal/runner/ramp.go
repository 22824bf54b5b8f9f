package runner

import "time"

// TargetUsers returns how many simulated users should be active once elapsed
// time has passed since the run started. The population grows linearly across
// the ramp-up window and stays at users afterwards. A non-positive rampUp
// starts the full population immediately.
func TargetUsers(elapsed time.Duration, users int, rampUp time.Duration) int {
	if rampUp <= 0 || elapsed >= rampUp {
		return users
	}
	if elapsed < 0 {
		return 0
	}
	return int(float64(users) * (float64(elapsed) / float64(rampUp)))
}
