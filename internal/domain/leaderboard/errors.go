package leaderboard

import "errors"

// ErrUnavailable is returned when no snapshot has ever been built and the
// current rebuild failed (cold start).
var ErrUnavailable = errors.New("leaderboard unavailable")
