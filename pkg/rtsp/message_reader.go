package rtsp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const maxBodySize = 1 << 20

var (
	// ErrConnectionClosed is returned when the stream ends or can no longer be read before a request line
	ErrConnectionClosed = errors.New("rtsp: connection closed")
	// ErrMalformedRequest is returned for request lines with fewer than three tokens
	ErrMalformedRequest = errors.New("rtsp: malformed request")
)

// MessageReader handles RTSP message parsing
type MessageReader struct {
	reader *bufio.Reader
}

// NewMessageReader creates a new RTSP message reader
func NewMessageReader(r io.Reader) *MessageReader {
	return &MessageReader{
		reader: bufio.NewReader(r),
	}
}

// ReadRequest reads and parses an RTSP request.
// Blank lines before the request line are skipped.
func (mr *MessageReader) ReadRequest() (*Request, error) {
	var line string
	for {
		l, err := mr.readLine()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConnectionClosed, err)
		}
		if l != "" {
			line = l
			break
		}
	}

	parts := strings.Split(line, " ")
	if len(parts) < 3 {
		return nil, fmt.Errorf("%w: %q", ErrMalformedRequest, line)
	}

	request := newRequest(parts[0], parts[1], parts[2])

	complete := mr.readHeaders(request.Header)

	if cseq := request.Header.Get(HeaderCSeq); cseq != "" {
		request.CSeq = cseq
	}

	if !complete {
		return request, nil
	}

	// Consume a body so the next request line is framed correctly
	if contentLength, err := strconv.Atoi(request.Header.Get(HeaderContentLength)); err == nil && contentLength > 0 {
		if contentLength > maxBodySize {
			return nil, fmt.Errorf("%w: content length %d too large", ErrMalformedRequest, contentLength)
		}
		request.Body = make([]byte, contentLength)
		if _, err := io.ReadFull(mr.reader, request.Body); err != nil {
			return nil, fmt.Errorf("%w: failed to read body: %w", ErrConnectionClosed, err)
		}
	}

	return request, nil
}

// readLine reads a line from the reader (removes \r\n).
// A final unterminated line is returned without error; the error surfaces on the next call.
func (mr *MessageReader) readLine() (string, error) {
	line, err := mr.reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}

	line = strings.TrimRight(line, "\r\n")
	return line, nil
}

// readHeaders reads headers until an empty line or the end of the stream.
// It reports whether the header block was terminated by an empty line.
func (mr *MessageReader) readHeaders(headers Header) bool {
	for {
		line, err := mr.readLine()
		if err != nil {
			return false
		}

		if line == "" {
			return true
		}

		colonIndex := strings.Index(line, ":")
		if colonIndex <= 0 {
			continue
		}

		key := strings.TrimSpace(line[:colonIndex])
		value := strings.TrimSpace(line[colonIndex+1:])
		headers.Set(key, value)
	}
}
