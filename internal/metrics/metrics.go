package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	signups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warbler_signups_total",
		Help: "Number of signup attempts grouped by status.",
	}, []string{"status"})

	logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warbler_login_attempts_total",
		Help: "Number of login attempts grouped by status.",
	}, []string{"status"})

	messagesPosted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "warbler_messages_posted_total",
		Help: "Number of messages posted.",
	})

	follows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warbler_follow_actions_total",
		Help: "Follow and unfollow actions grouped by action.",
	}, []string{"action"})

	likes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warbler_like_actions_total",
		Help: "Like and unlike actions grouped by action.",
	}, []string{"action"})
)

// IncSignup increments the signup counter.
func IncSignup(status string) {
	signups.WithLabelValues(status).Inc()
}

// IncLogin increments the login counter.
func IncLogin(status string) {
	logins.WithLabelValues(status).Inc()
}

// IncMessagePosted increments the posted-message counter.
func IncMessagePosted() {
	messagesPosted.Inc()
}

// IncFollow increments the follow-action counter.
func IncFollow(action string) {
	follows.WithLabelValues(action).Inc()
}

// IncLike increments the like-action counter.
func IncLike(action string) {
	likes.WithLabelValues(action).Inc()
}
