package rtsp

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseCSeqFollowsStatusLine(t *testing.T) {
	resp := NewResponse(StatusOK, "7")
	resp.SetHeader(HeaderSession, "12")
	resp.SetHeader(HeaderTransport, TransportInterleaved)

	expected := "RTSP/1.0 200 OK\r\n" +
		"CSeq: 7\r\n" +
		"Session: 12\r\n" +
		"Transport: RTP/AVP/TCP;unicast;interleaved=0-1\r\n" +
		"\r\n"
	assert.Equal(t, expected, resp.String())
}

func TestResponseSetHeaderReplaces(t *testing.T) {
	resp := NewResponse(StatusOK, "1")
	resp.SetHeader(HeaderPublic, "a")
	resp.SetHeader("public", "b")

	assert.Equal(t, "b", resp.GetHeader(HeaderPublic))
	assert.Equal(t, "RTSP/1.0 200 OK\r\nCSeq: 1\r\nPublic: b\r\n\r\n", resp.String())
}

func TestResponseSetBody(t *testing.T) {
	resp := NewResponse(StatusOK, "2")
	resp.SetBody(ContentTypeSDP, []byte("v=0\r\n"))

	assert.Equal(t, "5", resp.GetHeader(HeaderContentLength))
	assert.True(t, bytes.HasSuffix(resp.Bytes(), []byte("\r\n\r\nv=0\r\n")))
}

func TestResponseStatusText(t *testing.T) {
	tests := map[int]string{
		StatusOK:                   "RTSP/1.0 200 OK\r\n",
		StatusMethodNotAllowed:     "RTSP/1.0 405 Method Not Allowed\r\n",
		StatusUnsupportedTransport: "RTSP/1.0 461 Unsupported Transport\r\n",
	}
	for code, statusLine := range tests {
		assert.Equal(t, statusLine+"CSeq: 0\r\n\r\n", NewResponse(code, DefaultCSeq).String())
	}
}

func TestMessageWriterFlushes(t *testing.T) {
	var buf bytes.Buffer
	mw := NewMessageWriter(&buf)

	require.NoError(t, mw.WriteResponse(NewResponse(StatusOK, "9")))
	assert.Equal(t, "RTSP/1.0 200 OK\r\nCSeq: 9\r\n\r\n", buf.String())
}

func TestPlaceholderSDP(t *testing.T) {
	body, err := placeholderSDP()
	require.NoError(t, err)

	sdp := string(body)
	assert.Equal(t, "v=0\r\n", sdp[:5])
	assert.Contains(t, sdp, "o=- 0 0 IN IP4 127.0.0.1\r\n")
	assert.Contains(t, sdp, "m=video 0 RTP/AVP 96\r\n")
	assert.Contains(t, sdp, "a=control:streamid=0\r\n")
	assert.Contains(t, sdp, "a=rtpmap:96 H264/90000\r\n")
}

func TestParseMethod(t *testing.T) {
	for _, m := range []Method{MethodOptions, MethodDescribe, MethodSetup, MethodPlay, MethodTeardown} {
		assert.Equal(t, m, ParseMethod(m.String()))
	}
	assert.Equal(t, MethodUnknown, ParseMethod("Setup"))
}
