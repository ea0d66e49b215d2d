package live

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/antchfx/xmlquery"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"reloverlay/internal/overlay"
	"reloverlay/internal/relation"
	"reloverlay/internal/scene"
)

const sample = `
region "rect" "a" {
  x      = 0
  y      = 0
  width  = 50
  height = 20
  label  = "A"
}

region "rect" "b" {
  x      = 200
  y      = 0
  width  = 50
  height = 20
}

relation "ab" {
  start     = "a"
  end       = "b"
  direction = "right"
}
`

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type harness struct {
	scene *scene.Scene
	url   string
}

func start(t *testing.T) harness {
	t.Helper()
	sc, err := scene.Parse([]byte(sample), "sample.hcl")
	require.NoError(t, err)

	srv := NewServer(sc, discard(), overlay.WithRelationOptions(relation.WithDebounce(5*time.Millisecond)))
	ctx, cancel := context.WithCancel(context.Background())
	go srv.Run(ctx)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		cancel()
		ts.Close()
	})
	return harness{scene: sc, url: ts.URL}
}

func dial(t *testing.T, h harness) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(h.url, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn, wait time.Duration) (Frame, error) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(wait))
	_, data, err := conn.ReadMessage()
	if err != nil {
		return Frame{}, err
	}
	var f Frame
	require.NoError(t, json.Unmarshal(data, &f))
	return f, nil
}

func send(t *testing.T, conn *websocket.Conn, cmd Command) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(cmd))
}

func connectorPath(t *testing.T, f Frame) string {
	t.Helper()
	doc, err := xmlquery.Parse(strings.NewReader(f.Overlay))
	require.NoError(t, err)
	p := xmlquery.FindOne(doc, "//svg/g/path[@stroke-width='2']")
	require.NotNil(t, p)
	return p.SelectAttr("d")
}

func TestClientReceivesCurrentFrame(t *testing.T) {
	h := start(t)
	conn := dial(t, h)

	f, err := read(t, conn, 2*time.Second)
	require.NoError(t, err)
	require.Equal(t, "frame", f.Type)
	require.Equal(t, "M 25 -3 25 -13 a 5 5 0 0 1 5 -5 L 220 -18 a 5 5 0 0 1 5 5 L 225 -3", connectorPath(t, f))

	doc, err := xmlquery.Parse(strings.NewReader(f.Regions))
	require.NoError(t, err)
	require.NotNil(t, xmlquery.FindOne(doc, "//g[@id='region-a']/rect"))
	require.Equal(t, "A", xmlquery.FindOne(doc, "//g[@id='region-a']/text").InnerText())
}

func TestMoveReroutesConnector(t *testing.T) {
	h := start(t)
	conn := dial(t, h)
	first, err := read(t, conn, 2*time.Second)
	require.NoError(t, err)

	send(t, conn, Command{Op: "move", ID: "b", DY: 100})

	// The region layer updates at once and the connector follows after the
	// debounce; wait for the rerouted frame.
	deadline := time.Now().Add(2 * time.Second)
	for {
		f, err := read(t, conn, time.Until(deadline))
		require.NoError(t, err)
		if connectorPath(t, f) != connectorPath(t, first) {
			break
		}
	}
	b, _ := h.scene.Region("b")
	require.Equal(t, 100.0, b.BoundingBox().Y)
}

func TestIdenticalFramesAreDropped(t *testing.T) {
	h := start(t)
	conn := dial(t, h)
	_, err := read(t, conn, 2*time.Second)
	require.NoError(t, err)

	send(t, conn, Command{Op: "move", ID: "a"})
	_, err = read(t, conn, 200*time.Millisecond)
	require.Error(t, err, "a zero move must not produce a frame")
}

func TestRejectedCommandsReplyWithError(t *testing.T) {
	h := start(t)
	conn := dial(t, h)
	_, err := read(t, conn, 2*time.Second)
	require.NoError(t, err)

	tests := []struct {
		msg  string
		want string
	}{
		{`{"op":"move","id":"nope","dx":1}`, "unknown region"},
		{`{"op":"spin"}`, "unknown op"},
		{`not json`, "decode command"},
	}
	for _, tt := range tests {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(tt.msg)))
		f, err := read(t, conn, 2*time.Second)
		require.NoError(t, err)
		require.Equal(t, "error", f.Type)
		require.Contains(t, f.Error, tt.want)
	}
}

func TestHighlightAndVisibility(t *testing.T) {
	h := start(t)
	conn := dial(t, h)
	_, err := read(t, conn, 2*time.Second)
	require.NoError(t, err)

	send(t, conn, Command{Op: "highlight", ID: "ab"})
	f, err := read(t, conn, 2*time.Second)
	require.NoError(t, err)
	doc, err := xmlquery.Parse(strings.NewReader(f.Overlay))
	require.NoError(t, err)
	require.Len(t, xmlquery.Find(doc, "//svg/g/path"), 2)

	send(t, conn, Command{Op: "visible", Visible: false})
	f, err = read(t, conn, 2*time.Second)
	require.NoError(t, err)
	require.Contains(t, f.Overlay, "visibility:hidden")
	require.False(t, h.scene.Visible())
}

func TestBroadcastReachesEveryClient(t *testing.T) {
	h := start(t)
	a, b := dial(t, h), dial(t, h)
	for _, c := range []*websocket.Conn{a, b} {
		_, err := read(t, c, 2*time.Second)
		require.NoError(t, err)
	}

	send(t, a, Command{Op: "resize", ID: "a", DX: 10})
	f, err := read(t, b, 2*time.Second)
	require.NoError(t, err)
	require.Equal(t, "frame", f.Type)
}

func TestPublishDedupes(t *testing.T) {
	hub := NewHub(discard(), nil)
	require.True(t, hub.Publish(Frame{Type: "frame", Overlay: "<svg/>"}))
	require.False(t, hub.Publish(Frame{Type: "frame", Overlay: "<svg/>"}))
	require.True(t, hub.Publish(Frame{Type: "frame", Overlay: "<svg></svg>"}))
	require.True(t, hub.Publish(Frame{Type: "frame", Overlay: "<svg/>"}))
}

func TestShutdownClosesClients(t *testing.T) {
	sc, err := scene.Parse([]byte(sample), "sample.hcl")
	require.NoError(t, err)
	srv := NewServer(sc, discard())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		srv.Run(ctx)
		close(done)
	}()
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dial(t, harness{url: ts.URL})
	_, err = read(t, conn, 2*time.Second)
	require.NoError(t, err)

	cancel()
	<-done
	_, err = read(t, conn, 2*time.Second)
	require.Error(t, err)
	require.Empty(t, srv.overlay.Snapshot())
}

func TestPages(t *testing.T) {
	h := start(t)

	resp, err := http.Get(h.url + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), "new WebSocket")

	resp, err = http.Get(h.url + "/overlay.svg")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	require.Contains(t, string(body), "arrow-ab")
}
