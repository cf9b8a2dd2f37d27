package rtsp

import (
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTestServer(t *testing.T, config RTSPConfig) *Server {
	t.Helper()
	config.Address = "127.0.0.1"
	server := NewServer(config)
	require.NoError(t, server.Start())
	t.Cleanup(server.Stop)
	return server
}

func dialTestServer(t *testing.T, server *Server) *testClient {
	t.Helper()
	conn, err := net.Dial("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(server.Port())))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return newTestClient(t, conn)
}

func stopWithin(t *testing.T, server *Server, d time.Duration) {
	t.Helper()
	stopped := make(chan struct{})
	go func() {
		server.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(d):
		t.Fatal("server did not stop in time")
	}
}

func TestServerBasicFlow(t *testing.T) {
	server := startTestServer(t, RTSPConfig{})
	client := dialTestServer(t, server)

	resp := client.request("OPTIONS", "CSeq: 1")
	assert.Contains(t, resp.StatusLine, "200")
	assert.Contains(t, resp.Lines, "Public: OPTIONS, DESCRIBE, SETUP, PLAY, TEARDOWN")

	resp = client.request("DESCRIBE", "CSeq: 2", "Accept: application/sdp")
	assert.Contains(t, resp.Lines, "Content-Type: application/sdp")
	assert.Regexp(t, `^v=0`, resp.Body)

	resp = client.request("SETUP", "CSeq: 3", transportTCP)
	assert.Equal(t, "RTSP/1.0 200 OK", resp.StatusLine)
	sessionId, _ := resp.Header(HeaderSession)
	require.NotEmpty(t, sessionId)

	resp = client.request("PLAY", "CSeq: 4", "Session: "+sessionId)
	assert.Equal(t, "RTSP/1.0 200 OK", resp.StatusLine)
	playSession, _ := resp.Header(HeaderSession)
	assert.Equal(t, sessionId, playSession)

	resp = client.request("TEARDOWN", "CSeq: 5", "Session: "+sessionId)
	assert.Equal(t, "RTSP/1.0 200 OK", resp.StatusLine)
	client.expectClosed()
}

func TestServerUnsupportedTransport(t *testing.T) {
	server := startTestServer(t, RTSPConfig{})
	client := dialTestServer(t, server)

	resp := client.request("SETUP", "CSeq: 3", "Transport: RTP/AVP/UDP")
	assert.Equal(t, StatusUnsupportedTransport, resp.StatusCode)
}

func TestServerUnknownMethodKeepsConnection(t *testing.T) {
	server := startTestServer(t, RTSPConfig{})
	client := dialTestServer(t, server)

	resp := client.request("FOO", "CSeq: 9")
	assert.Equal(t, StatusMethodNotAllowed, resp.StatusCode)

	resp = client.request("OPTIONS", "CSeq: 10")
	assert.Equal(t, StatusOK, resp.StatusCode)
}

func TestServerPortZero(t *testing.T) {
	server := NewServer(RTSPConfig{Address: "127.0.0.1"})
	assert.Equal(t, 0, server.Port())

	require.NoError(t, server.Start())
	defer server.Stop()
	assert.NotZero(t, server.Port())
}

func TestServerStartTwice(t *testing.T) {
	server := startTestServer(t, RTSPConfig{})
	assert.ErrorIs(t, server.Start(), ErrServerStarted)
}

func TestServerStartAfterStop(t *testing.T) {
	server := NewServer(RTSPConfig{Address: "127.0.0.1"})
	server.Stop()
	assert.ErrorIs(t, server.Start(), ErrServerClosed)
}

func TestServerStartListenError(t *testing.T) {
	first := startTestServer(t, RTSPConfig{})

	second := NewServer(RTSPConfig{Address: "127.0.0.1", Port: first.Port()})
	assert.Error(t, second.Start())
	second.Stop()
}

func TestServerConcurrentSessionIdsAreDistinct(t *testing.T) {
	server := startTestServer(t, RTSPConfig{})

	const clients = 16
	ids := make([]string, clients)
	var wg sync.WaitGroup
	for i := 0; i < clients; i++ {
		client := dialTestServer(t, server)
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			first := client.request("SETUP", "CSeq: 1", transportTCP)
			second := client.request("SETUP", "CSeq: 2", transportTCP)
			id1, _ := first.Header(HeaderSession)
			id2, _ := second.Header(HeaderSession)
			assert.Equal(t, id1, id2)
			ids[i] = id1
		}(i)
	}
	wg.Wait()

	seen := make(map[string]struct{}, clients)
	for _, id := range ids {
		require.NotEmpty(t, id)
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, clients)
}

func TestServerNextSessionIDMonotonic(t *testing.T) {
	server := NewServer(RTSPConfig{})

	assert.Equal(t, "1", server.NextSessionID())
	assert.Equal(t, "2", server.NextSessionID())

	const n = 100
	results := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- server.NextSessionID()
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[string]struct{}, n)
	for id := range results {
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, n)
	assert.Equal(t, strconv.Itoa(n+3), server.NextSessionID())
}

func TestServerStopClosesLiveConnections(t *testing.T) {
	server := NewServer(RTSPConfig{Address: "127.0.0.1"})
	require.NoError(t, server.Start())

	clients := []*testClient{dialTestServer(t, server), dialTestServer(t, server)}
	for _, c := range clients {
		resp := c.request("OPTIONS", "CSeq: 1")
		require.Equal(t, StatusOK, resp.StatusCode)
	}
	assert.Equal(t, 2, server.ActiveSessions())

	stopWithin(t, server, 5*time.Second)

	for _, c := range clients {
		c.expectClosed()
	}
	assert.Equal(t, 0, server.ActiveSessions())

	_, err := net.DialTimeout("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(server.Port())), time.Second)
	assert.Error(t, err)

	// second call is a no-op
	stopWithin(t, server, time.Second)
}

func TestServerStopBeforeStart(t *testing.T) {
	server := NewServer(RTSPConfig{})
	stopWithin(t, server, time.Second)
}

func TestServerReadTimeout(t *testing.T) {
	server := startTestServer(t, RTSPConfig{ReadTimeout: 100 * time.Millisecond})
	client := dialTestServer(t, server)

	client.expectClosed()
}

func TestServerEvents(t *testing.T) {
	events := make(chan interface{}, 64)
	server := startTestServer(t, RTSPConfig{Events: events})
	client := dialTestServer(t, server)

	client.request("SETUP", "CSeq: 1", transportTCP)
	client.request("TEARDOWN", "CSeq: 2")
	client.expectClosed()
	stopWithin(t, server, 5*time.Second)

	var opened, created, closed int
	for len(events) > 0 {
		switch (<-events).(type) {
		case ConnectionOpened:
			opened++
		case SessionCreated:
			created++
		case ConnectionClosed:
			closed++
		}
	}
	assert.Equal(t, 1, opened)
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, closed)
}
