package logger

// Field names of every log entry.
const (
	KeyService   = "service"
	KeyHostname  = "hostname"
	KeyRequestID = "request_id"
	KeyAction    = "action"
	KeyDetails   = "details"
	KeyError     = "error"
)
