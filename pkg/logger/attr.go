package logger

import (
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Errors groups the non-nil errors under "errors". Returns an empty Attr when all are nil.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error records err under "error". Returns an empty Attr for nil.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// RequestID records the request identifier under "request_id".
func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

// MessageID records a provider message id under "message_id".
func MessageID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("message_id", id)
}

// Provider records the email provider name.
func Provider(name string) slog.Attr {
	return slog.String("provider", name)
}

// Email records a recipient address with the local part masked,
// so logs never carry full subscriber addresses.
func Email(addr string) slog.Attr {
	return slog.String("email", RedactEmail(addr))
}

// RedactEmail keeps the first two characters of the local part and the domain:
// "john@example.com" becomes "jo***@example.com".
func RedactEmail(addr string) string {
	at := strings.LastIndexByte(addr, '@')
	if at < 0 {
		if addr == "" {
			return ""
		}
		return "***"
	}
	local, domain := addr[:at], addr[at:]
	if len(local) > 2 {
		local = local[:2]
	}
	return local + "***" + domain
}

// Status records a lifecycle status.
func Status(s string) slog.Attr {
	return slog.String("status", s)
}

// Count records a numeric total under key.
func Count(key string, n int) slog.Attr {
	return slog.Int(key, n)
}

// RetryCount records the retry count under "retry_count".
func RetryCount(count int) slog.Attr {
	return slog.Int("retry_count", count)
}

func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Component records the component name under "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Event records the event name under "event".
func Event(name string) slog.Attr {
	return slog.String("event", name)
}
