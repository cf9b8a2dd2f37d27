package rtsp

import (
	"bufio"
	"io"
	"net"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type counterAllocator struct {
	n atomic.Uint64
}

func (a *counterAllocator) NextSessionID() string {
	return strconv.FormatUint(a.n.Add(1), 10)
}

type testResponse struct {
	StatusCode int
	StatusLine string
	Lines      []string // header lines in wire order
	Body       string
}

func (r *testResponse) Header(name string) (string, bool) {
	for _, line := range r.Lines {
		key, value, ok := strings.Cut(line, ":")
		if ok && strings.EqualFold(strings.TrimSpace(key), name) {
			return strings.TrimSpace(value), true
		}
	}
	return "", false
}

type testClient struct {
	t      *testing.T
	conn   net.Conn
	reader *bufio.Reader
}

func newTestClient(t *testing.T, conn net.Conn) *testClient {
	t.Helper()
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))
	return &testClient{t: t, conn: conn, reader: bufio.NewReader(conn)}
}

func (c *testClient) send(raw string) {
	c.t.Helper()
	_, err := io.WriteString(c.conn, raw)
	require.NoError(c.t, err)
}

// request sends method with the given header lines and reads one response
func (c *testClient) request(method string, headers ...string) *testResponse {
	c.t.Helper()
	var sb strings.Builder
	sb.WriteString(method + " rtsp://localhost/stream RTSP/1.0\r\n")
	for _, h := range headers {
		sb.WriteString(h + "\r\n")
	}
	sb.WriteString("\r\n")
	c.send(sb.String())
	return c.readResponse()
}

func (c *testClient) readLine() string {
	c.t.Helper()
	line, err := c.reader.ReadString('\n')
	require.NoError(c.t, err)
	require.True(c.t, strings.HasSuffix(line, "\r\n"), "line not CRLF terminated: %q", line)
	return strings.TrimSuffix(line, "\r\n")
}

func (c *testClient) readResponse() *testResponse {
	c.t.Helper()
	resp := &testResponse{StatusLine: c.readLine()}

	parts := strings.SplitN(resp.StatusLine, " ", 3)
	require.Len(c.t, parts, 3, "status line %q", resp.StatusLine)
	require.Equal(c.t, RTSPVersion, parts[0])
	code, err := strconv.Atoi(parts[1])
	require.NoError(c.t, err)
	resp.StatusCode = code

	for {
		line := c.readLine()
		if line == "" {
			break
		}
		resp.Lines = append(resp.Lines, line)
	}

	if cl, ok := resp.Header(HeaderContentLength); ok {
		n, err := strconv.Atoi(cl)
		require.NoError(c.t, err)
		body := make([]byte, n)
		_, err = io.ReadFull(c.reader, body)
		require.NoError(c.t, err)
		resp.Body = string(body)
	}

	return resp
}

// expectClosed asserts the peer closed the connection without sending anything
func (c *testClient) expectClosed() {
	c.t.Helper()
	_, err := c.reader.ReadByte()
	require.ErrorIs(c.t, err, io.EOF)
}
