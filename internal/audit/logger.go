package audit

import (
	"context"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type EventType string

const (
	EventRegister        EventType = "register"
	EventAuthFailure     EventType = "auth_failure"
	EventPasswordChange  EventType = "password_change"
	EventPasswordFailure EventType = "password_change_failure"
	EventProfileUpdate   EventType = "profile_update"
	EventAccountDelete   EventType = "account_delete"
	EventShadowCreate    EventType = "shadow_account_create"
	EventTutorLink       EventType = "tutor_link"
	EventRateLimitExceed EventType = "rate_limit_exceeded"
	EventBookingConfirm  EventType = "booking_confirm"
	EventBookingCancel   EventType = "booking_cancel"
)

type Event struct {
	Type      EventType
	PersonID  string
	TargetID  string
	IP        string
	UserAgent string
	Details   map[string]interface{}
}

// Logger is where audit events are written. Tests may swap it.
var Logger = &log.Logger

func Log(ctx context.Context, event Event) {
	logger := Logger.With().
		Str("audit", "security").
		Str("event_type", string(event.Type)).
		Time("timestamp", time.Now()).
		Logger()

	if reqID := chimiddleware.GetReqID(ctx); reqID != "" {
		logger = logger.With().Str("request_id", reqID).Logger()
	}
	if event.PersonID != "" {
		logger = logger.With().Str("person_id", event.PersonID).Logger()
	}
	if event.TargetID != "" {
		logger = logger.With().Str("target_id", event.TargetID).Logger()
	}
	if event.IP != "" {
		logger = logger.With().Str("ip", event.IP).Logger()
	}
	if event.UserAgent != "" {
		logger = logger.With().Str("user_agent", event.UserAgent).Logger()
	}

	logEvent := logger.Info()
	for k, v := range event.Details {
		logEvent = addField(logEvent, k, v)
	}
	logEvent.Msg("security audit event")
}

func addField(e *zerolog.Event, key string, value interface{}) *zerolog.Event {
	switch v := value.(type) {
	case string:
		return e.Str(key, v)
	case int:
		return e.Int(key, v)
	case int64:
		return e.Int64(key, v)
	case bool:
		return e.Bool(key, v)
	default:
		return e.Interface(key, v)
	}
}

// LogFromRequest fills in the client address and user agent. RemoteAddr is
// already rewritten by the RealIP middleware.
func LogFromRequest(r *http.Request, event Event) {
	event.IP = r.RemoteAddr
	event.UserAgent = r.UserAgent()
	Log(r.Context(), event)
}
