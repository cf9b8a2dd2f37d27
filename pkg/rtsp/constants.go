package rtsp

// Method is an RTSP request method understood by the session handler
type Method int

const (
	MethodUnknown Method = iota
	MethodOptions
	MethodDescribe
	MethodSetup
	MethodPlay
	MethodTeardown
)

// RTSP method names
const (
	MethodNameOptions  = "OPTIONS"
	MethodNameDescribe = "DESCRIBE"
	MethodNameSetup    = "SETUP"
	MethodNamePlay     = "PLAY"
	MethodNameTeardown = "TEARDOWN"
)

// ParseMethod matches name case-sensitively against the supported methods
func ParseMethod(name string) Method {
	switch name {
	case MethodNameOptions:
		return MethodOptions
	case MethodNameDescribe:
		return MethodDescribe
	case MethodNameSetup:
		return MethodSetup
	case MethodNamePlay:
		return MethodPlay
	case MethodNameTeardown:
		return MethodTeardown
	default:
		return MethodUnknown
	}
}

func (m Method) String() string {
	switch m {
	case MethodOptions:
		return MethodNameOptions
	case MethodDescribe:
		return MethodNameDescribe
	case MethodSetup:
		return MethodNameSetup
	case MethodPlay:
		return MethodNamePlay
	case MethodTeardown:
		return MethodNameTeardown
	default:
		return "UNKNOWN"
	}
}

// PublicMethods is advertised in the Public header of OPTIONS responses
const PublicMethods = "OPTIONS, DESCRIBE, SETUP, PLAY, TEARDOWN"

// RTSP Status Codes
const (
	StatusOK                        = 200
	StatusBadRequest                = 400
	StatusNotFound                  = 404
	StatusMethodNotAllowed          = 405
	StatusSessionNotFound           = 454
	StatusMethodNotValidInThisState = 455
	StatusUnsupportedTransport      = 461
	StatusInternalServerError       = 500
	StatusNotImplemented            = 501
	StatusRTSPVersionNotSupported   = 505
)

// RTSP Headers
const (
	HeaderContentBase   = "Content-Base"
	HeaderContentLength = "Content-Length"
	HeaderContentType   = "Content-Type"
	HeaderCSeq          = "CSeq"
	HeaderPublic        = "Public"
	HeaderSession       = "Session"
	HeaderTransport     = "Transport"
)

// Transport
const (
	TransportProtocolTCP = "TCP"
	TransportInterleaved = "RTP/AVP/TCP;unicast;interleaved=0-1"
)

const (
	RTSPVersion = "RTSP/1.0"

	DefaultCSeq        = "0"
	DefaultRTSPPort    = 8554
	DefaultContentBase = "rtsp://127.0.0.1/"
	ContentTypeSDP     = "application/sdp"
)
