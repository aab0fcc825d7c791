package logger

import (
	"log/slog"
	"strconv"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Errors groups multiple non-nil errors under the key "errors".
// If all errors are nil, it returns an empty Attr.
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

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// UserID records the account identifier under the key "user_id".
// If id is nil, it returns an empty Attr.
func UserID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("user_id", id)
}

// Flow records the auth flow kind (login, register, change_password) under the key "flow".
func Flow(kind string) slog.Attr {
	return slog.String("flow", kind)
}

// FlowState records a flow state machine state under the key "flow_state".
func FlowState(state string) slog.Attr {
	return slog.String("flow_state", state)
}

// StorageMode records a credential store mode under the key "storage_mode".
// Accepts any fmt.Stringer-like value.
func StorageMode(mode any) slog.Attr {
	return slog.Any("storage_mode", mode)
}

// ProtocolVersion records a protocol version tag under the key "protocol_version".
func ProtocolVersion(v string) slog.Attr {
	return slog.String("protocol_version", v)
}

// ContentType records a record content type under the key "content_type".
func ContentType(ct string) slog.Attr {
	return slog.String("content_type", ct)
}

// StorageKey records a credential store item key under the key "storage_key".
func StorageKey(key string) slog.Attr {
	return slog.String("storage_key", key)
}

// Duration records a duration under the key "duration".
func Duration(d any) slog.Attr {
	return slog.Any("duration", d)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Event records the event name under the key "event".
func Event(name string) slog.Attr {
	return slog.String("event", name)
}
