package service

import (
	"errors"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	apperrors "github.com/tusharag6/homestead-api/pkg/errors"
)

// Auth events counted by auth_events_total.
const (
	eventRegister       = "register"
	eventLogin          = "login"
	eventLogout         = "logout"
	eventRefresh        = "refresh"
	eventResolve        = "resolve"
	eventChangePassword = "change_password"
)

const outcomeSuccess = "success"

var authEvents = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "auth_events_total",
		Help: "Authentication lifecycle events by outcome",
	},
	[]string{"event", "outcome"},
)

// recordAuth counts one auth event. Failures are labelled with the lower-cased
// error code so dashboards can tell bad passwords from replayed tokens.
func recordAuth(event string, err error) {
	authEvents.WithLabelValues(event, outcome(err)).Inc()
}

func outcome(err error) string {
	if err == nil {
		return outcomeSuccess
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return strings.ToLower(appErr.Code)
	}
	return "error"
}
