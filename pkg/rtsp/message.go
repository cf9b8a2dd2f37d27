package rtsp

import (
	"fmt"
	"strconv"
	"strings"
)

// Header maps normalized (lower-cased) header names to their last seen value
type Header map[string]string

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// Set stores value under key, replacing any earlier value
func (h Header) Set(key, value string) {
	h[normalizeKey(key)] = value
}

// Get looks up key case-insensitively
func (h Header) Get(key string) string {
	return h[normalizeKey(key)]
}

// Has reports whether key was supplied
func (h Header) Has(key string) bool {
	_, ok := h[normalizeKey(key)]
	return ok
}

// Request represents an RTSP request
type Request struct {
	Method     Method
	MethodName string
	URI        string
	Version    string
	Header     Header
	Body       []byte
	CSeq       string
}

func newRequest(methodName, uri, version string) *Request {
	return &Request{
		Method:     ParseMethod(methodName),
		MethodName: methodName,
		URI:        uri,
		Version:    version,
		Header:     make(Header),
		CSeq:       DefaultCSeq,
	}
}

type headerField struct {
	name  string
	value string
}

// Response represents an RTSP response. CSeq is always written right after the status line.
type Response struct {
	StatusCode int
	StatusText string
	CSeq       string
	Body       []byte
	fields     []headerField
}

// NewResponse creates a new RTSP response
func NewResponse(statusCode int, cseq string) *Response {
	return &Response{
		StatusCode: statusCode,
		StatusText: getStatusText(statusCode),
		CSeq:       cseq,
	}
}

// SetHeader sets a header value, keeping the position of an existing header
func (r *Response) SetHeader(key, value string) {
	for i := range r.fields {
		if strings.EqualFold(r.fields[i].name, key) {
			r.fields[i].value = value
			return
		}
	}
	r.fields = append(r.fields, headerField{name: key, value: value})
}

// GetHeader gets a header value
func (r *Response) GetHeader(key string) string {
	for _, f := range r.fields {
		if strings.EqualFold(f.name, key) {
			return f.value
		}
	}
	return ""
}

// SetBody sets the body along with its Content-Type and Content-Length
func (r *Response) SetBody(contentType string, body []byte) {
	r.Body = body
	r.SetHeader(HeaderContentType, contentType)
	r.SetHeader(HeaderContentLength, strconv.Itoa(len(body)))
}

// String returns the wire representation of the response
func (r *Response) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s %d %s\r\n", RTSPVersion, r.StatusCode, r.StatusText)
	fmt.Fprintf(&sb, "%s: %s\r\n", HeaderCSeq, r.CSeq)

	for _, f := range r.fields {
		fmt.Fprintf(&sb, "%s: %s\r\n", f.name, f.value)
	}

	sb.WriteString("\r\n")

	if len(r.Body) > 0 {
		sb.Write(r.Body)
	}

	return sb.String()
}

// Bytes returns the byte representation of the response
func (r *Response) Bytes() []byte {
	return []byte(r.String())
}

// getStatusText returns the standard status text for a status code
func getStatusText(statusCode int) string {
	switch statusCode {
	case StatusOK:
		return "OK"
	case StatusBadRequest:
		return "Bad Request"
	case StatusNotFound:
		return "Not Found"
	case StatusMethodNotAllowed:
		return "Method Not Allowed"
	case StatusSessionNotFound:
		return "Session Not Found"
	case StatusMethodNotValidInThisState:
		return "Method Not Valid in This State"
	case StatusUnsupportedTransport:
		return "Unsupported Transport"
	case StatusInternalServerError:
		return "Internal Server Error"
	case StatusNotImplemented:
		return "Not Implemented"
	case StatusRTSPVersionNotSupported:
		return "RTSP Version not supported"
	default:
		return "Unknown"
	}
}
