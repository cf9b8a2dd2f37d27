package rtsp

// ConnectionOpened is emitted when a session handler starts on an accepted connection
type ConnectionOpened struct {
	ConnId     string
	RemoteAddr string
}

// ConnectionClosed is emitted when a session handler exits
type ConnectionClosed struct {
	ConnId string
}

// RequestHandled is emitted after a response has been written
type RequestHandled struct {
	ConnId     string
	Method     string
	StatusCode int
}

// SessionCreated is emitted when SETUP allocates a session id
type SessionCreated struct {
	ConnId    string
	SessionId string
}

// SessionStateChanged represents a state machine transition
type SessionStateChanged struct {
	ConnId string
	From   string
	To     string
}

// SessionTerminated is emitted when a session is destroyed by TEARDOWN or connection close
type SessionTerminated struct {
	ConnId    string
	SessionId string
}
