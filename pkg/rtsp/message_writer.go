package rtsp

import (
	"bufio"
	"io"
)

// MessageWriter handles RTSP message writing
type MessageWriter struct {
	writer *bufio.Writer
}

// NewMessageWriter creates a new RTSP message writer
func NewMessageWriter(w io.Writer) *MessageWriter {
	return &MessageWriter{
		writer: bufio.NewWriter(w),
	}
}

// WriteResponse writes an RTSP response
func (mw *MessageWriter) WriteResponse(resp *Response) error {
	if _, err := mw.writer.Write(resp.Bytes()); err != nil {
		return err
	}
	return mw.writer.Flush()
}
