package logger

import "log/slog"

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// CompanyID records the tenant company identifier under the key "company_id".
// If id is nil, it returns an empty Attr.
func CompanyID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("company_id", id)
}

// UserID records the user identifier under the key "user_id".
// If id is nil, it returns an empty Attr.
func UserID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("user_id", id)
}

// EventType records a billing event type under the key "event_type".
func EventType(eventType string) slog.Attr {
	return slog.String("event_type", eventType)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Plan records a subscription plan identifier under the key "plan".
func Plan(plan string) slog.Attr {
	return slog.String("plan", plan)
}

// SubscriptionStatus records a subscription status under the key "subscription_status".
func SubscriptionStatus(status string) slog.Attr {
	return slog.String("subscription_status", status)
}
