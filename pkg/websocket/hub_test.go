package websocket

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	upgrader := NewUpgrader([]string{"*"})
	router := gin.New()
	router.GET("/ws", func(c *gin.Context) {
		_, _ = Serve(c, hub, upgrader)
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return hub, "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestHubRoutesMessagesToHandlers(t *testing.T) {
	hub, url := startHub(t)
	hub.RegisterHandler("ping", func(c *Client, msg *Message) {
		c.SendData("pong", map[string]string{"session": msg.SessionID})
	})

	conn := dial(t, url)
	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))

	msg := readMessage(t, conn)
	assert.Equal(t, "pong", msg.Type)
	assert.NotEmpty(t, msg.SessionID)
	assert.Contains(t, string(msg.Data), msg.SessionID)
}

func TestHubRepliesToUnknownType(t *testing.T) {
	_, url := startHub(t)
	conn := dial(t, url)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "teleport"}))

	msg := readMessage(t, conn)
	assert.Equal(t, TypeError, msg.Type)
	assert.Contains(t, string(msg.Data), "unknown message type: teleport")
}

func TestHubConnectAndDisconnectHooks(t *testing.T) {
	hub, url := startHub(t)

	connected := make(chan string, 1)
	disconnected := make(chan string, 1)
	hub.OnConnect(func(c *Client) { connected <- c.ID })
	hub.OnDisconnect(func(c *Client) { disconnected <- c.ID })

	conn := dial(t, url)

	var id string
	select {
	case id = <-connected:
	case <-time.After(2 * time.Second):
		t.Fatal("connect hook not called")
	}
	require.Eventually(t, func() bool { return hub.GetClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	_, ok := hub.GetClient(id)
	assert.True(t, ok)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")))

	select {
	case got := <-disconnected:
		assert.Equal(t, id, got)
	case <-time.After(2 * time.Second):
		t.Fatal("disconnect hook not called")
	}
	assert.Equal(t, 0, hub.GetClientCount())
}

func TestHubSendToClientAndAll(t *testing.T) {
	hub, url := startHub(t)

	ids := make(chan string, 2)
	hub.OnConnect(func(c *Client) { ids <- c.ID })

	first := dial(t, url)
	firstID := <-ids
	second := dial(t, url)
	<-ids
	require.Eventually(t, func() bool { return hub.GetClientCount() == 2 }, 2*time.Second, 10*time.Millisecond)

	direct, err := NewMessage("direct", firstID, nil)
	require.NoError(t, err)
	hub.SendToClient(firstID, direct)
	assert.Equal(t, "direct", readMessage(t, first).Type)

	all, err := NewMessage("announcement", "", nil)
	require.NoError(t, err)
	hub.SendToAll(all)
	assert.Equal(t, "announcement", readMessage(t, first).Type)
	assert.Equal(t, "announcement", readMessage(t, second).Type)
}

func TestHubShutdownClosesClients(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	disconnected := make(chan struct{}, 1)
	hub.OnDisconnect(func(*Client) { disconnected <- struct{}{} })

	client := NewClient(context.Background(), "session-1", nil, hub)
	hub.Register(client)
	require.Eventually(t, func() bool { return hub.GetClientCount() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	<-stopped
	<-disconnected

	assert.True(t, client.Closed())
	hub.Unregister(client)

	late := NewClient(context.Background(), "session-2", nil, hub)
	hub.Register(late)
	assert.True(t, late.Closed())
}

func TestWithIdleTimeout(t *testing.T) {
	assert.Equal(t, defaultIdleTimeout, NewHub().idleTimeout)
	assert.Equal(t, 5*time.Second, NewHub(WithIdleTimeout(5*time.Second)).idleTimeout)
	assert.Equal(t, defaultIdleTimeout, NewHub(WithIdleTimeout(0)).idleTimeout)
}
