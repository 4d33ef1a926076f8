package ws_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/shakerwatch/shakerwatch/internal/api"
	"github.com/shakerwatch/shakerwatch/internal/compute"
	"github.com/shakerwatch/shakerwatch/internal/store"
	"github.com/shakerwatch/shakerwatch/internal/telemetry"
	wsHub "github.com/shakerwatch/shakerwatch/internal/ws"
)

const testInterval = 20 * time.Millisecond

// --- helpers ----------------------------------------------------------------

func newSource(datasets ...string) *api.Handler {
	st := store.New(time.Hour)
	for _, id := range datasets {
		st.Put(&store.Entry{
			ID:   id,
			Name: id + ".csv",
			Series: telemetry.Series{
				Schema: telemetry.Schema{HasWeightOnBit: true, HasFlowRate: true},
				Readings: []telemetry.Reading{
					{Date: "2024-01-01", Load: 50, WeightOnBit: 10, FlowRate: 200},
				},
			},
		})
	}
	return api.New(st, api.Defaults{
		MeshType:             compute.MeshAPI100,
		UtilizationThreshold: 80,
		ChartPointLimit:      1000,
	}, 1<<20)
}

// startHub starts a test HTTP server with the hub as its handler.
// The hub's Run loop is started with a cancellable context.
func startHub(t *testing.T, source wsHub.OverviewSource) (wsURL string, hub *wsHub.Hub, cancel func()) {
	t.Helper()

	hub = wsHub.New(source, testInterval)
	ctx, cancelFn := context.WithCancel(context.Background())

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeHTTP))
	go hub.Run(ctx)

	wsURL = "ws" + strings.TrimPrefix(srv.URL, "http")
	return wsURL, hub, func() {
		cancelFn()
		srv.Close()
	}
}

func dial(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) wsHub.Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read message: %v", err)
	}
	var msg wsHub.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal message: %v (raw: %s)", err, data)
	}
	return msg
}

// --- tests ------------------------------------------------------------------

func TestConnect_ReceivesOverviewImmediately(t *testing.T) {
	wsURL, _, cancel := startHub(t, newSource("ds-1"))
	defer cancel()

	conn := dial(t, wsURL)
	defer conn.Close()

	msg := readMessage(t, conn)
	if msg.Event != "overview" {
		t.Errorf("Event: got %q, want overview", msg.Event)
	}
	if len(msg.Data.Datasets) != 1 {
		t.Fatalf("Datasets: got %d, want 1", len(msg.Data.Datasets))
	}
	if msg.Data.Datasets[0].Dataset.ID != "ds-1" {
		t.Errorf("ID: got %q, want ds-1", msg.Data.Datasets[0].Dataset.ID)
	}
	if msg.Data.Datasets[0].Summary.Status != compute.StatusNormal {
		t.Errorf("Status: got %q, want normal", msg.Data.Datasets[0].Summary.Status)
	}
}

func TestBroadcast_TickerDelivers(t *testing.T) {
	wsURL, _, cancel := startHub(t, newSource("ds-1"))
	defer cancel()

	conn := dial(t, wsURL)
	defer conn.Close()

	// Seed message plus at least one ticker broadcast.
	_ = readMessage(t, conn)
	msg := readMessage(t, conn)
	if msg.Event != "overview" {
		t.Errorf("Event: got %q, want overview", msg.Event)
	}
}

func TestPoke_TriggersImmediateBroadcast(t *testing.T) {
	// Long interval so only Poke can explain a prompt second message.
	source := newSource("ds-1")
	hub := wsHub.New(source, time.Hour)
	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeHTTP))
	defer srv.Close()
	go hub.Run(ctx)

	conn := dial(t, "ws"+strings.TrimPrefix(srv.URL, "http"))
	defer conn.Close()

	_ = readMessage(t, conn) // seed
	hub.Poke()
	msg := readMessage(t, conn)
	if msg.Event != "overview" {
		t.Errorf("Event: got %q, want overview", msg.Event)
	}
}

// Clients dropping out while broadcasts are in flight must not take down the
// hub: a send racing a channel close would panic the Run goroutine and fail
// this test hard.
func TestBroadcast_SurvivesDisconnectChurn(t *testing.T) {
	source := newSource("ds-1")
	hub := wsHub.New(source, time.Millisecond)
	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeHTTP))
	defer srv.Close()
	go hub.Run(ctx)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	for i := 0; i < 25; i++ {
		conn := dial(t, wsURL)
		hub.Poke()
		conn.Close()
	}

	waitFor(t, func() bool { return hub.Count() == 0 })

	// The hub is still serving after the churn.
	conn := dial(t, wsURL)
	defer conn.Close()
	msg := readMessage(t, conn)
	if msg.Event != "overview" {
		t.Errorf("Event: got %q, want overview", msg.Event)
	}
}

func TestCount(t *testing.T) {
	wsURL, hub, cancel := startHub(t, newSource())
	defer cancel()

	if hub.Count() != 0 {
		t.Fatalf("Count before connect: got %d, want 0", hub.Count())
	}

	conn := dial(t, wsURL)
	defer conn.Close()

	waitFor(t, func() bool { return hub.Count() == 1 })

	conn.Close()
	waitFor(t, func() bool { return hub.Count() == 0 })
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
