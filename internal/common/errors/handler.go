package errors

// ErrorHandler logs failures in a uniform shape and turns them into the message shown
// to the scout. It never escalates: the worst outcome is a logged error and a generic
// message.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle logs err for the named operation and returns the user-facing message.
func (h *ErrorHandler) Handle(operation string, err error) string {
	if err == nil {
		return ""
	}
	stdErr := Normalize(err)

	fields := map[string]interface{}{
		"operation": operation,
		"errorCode": stdErr.Code,
		"kind":      stdErr.Kind,
		"retryable": stdErr.Retryable,
	}
	if stdErr.Details != "" {
		fields["details"] = stdErr.Details
	}

	// auth and permission failures are expected user-level outcomes
	switch stdErr.Kind {
	case KindAuth, KindPermission, KindValidation:
		h.logger.Warn(stdErr.Message, fields)
	default:
		h.logger.Error(stdErr.Message, fields)
	}

	return UserMessage(stdErr)
}
