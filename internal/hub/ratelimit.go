package hub

import "time"

// RateLimiter is a per-user fixed-window counter gating message sends.
// A user gets a fresh window once more than the window duration has elapsed
// since the window started, so a burst of up to twice the limit can straddle
// a window boundary. Not a sliding log.
type rateState struct {
	count       int
	windowStart int64
}

type RateLimiter struct {
	limit  int
	window int64 // seconds
	states map[string]*rateState
	now    func() time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:  limit,
		window: int64(window / time.Second),
		states: make(map[string]*rateState),
		now:    time.Now,
	}
}

// Allow reports whether the user may send another message, incrementing the
// window counter when it does. State is created lazily on first send and is
// bounded by the user population.
func (l *RateLimiter) Allow(userID string) bool {
	now := l.now().Unix()
	st, ok := l.states[userID]
	if !ok {
		st = &rateState{windowStart: now}
		l.states[userID] = st
	}

	if now-st.windowStart > l.window {
		st.count = 0
		st.windowStart = now
	}

	if st.count >= l.limit {
		return false
	}

	st.count++
	return true
}
