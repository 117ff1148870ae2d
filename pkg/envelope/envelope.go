package envelope

// Envelope is the uniform response body every handler returns, success
// or failure. Failure is signaled both by Success=false and by the HTTP
// status code; clients that only look at the body keep working.
type Envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	User    any    `json:"user,omitempty"`
	Session any    `json:"session,omitempty"`
}

func OK(data any) Envelope {
	return Envelope{Success: true, Data: data}
}

func OKMessage(message string, data any) Envelope {
	return Envelope{Success: true, Message: message, Data: data}
}

// Auth carries the login/register/refresh payload, which puts user and
// session at the top level instead of under data.
func Auth(message string, user, session any) Envelope {
	return Envelope{Success: true, Message: message, User: user, Session: session}
}

func Fail(msg string) Envelope {
	return Envelope{Success: false, Error: msg}
}
