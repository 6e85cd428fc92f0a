package manager

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dialTestConn 建立一对真实的 WebSocket 连接，返回服务端侧与客户端侧。
func dialTestConn(t *testing.T) (serverConn, clientConn *websocket.Conn) {
	t.Helper()

	upgrader := websocket.Upgrader{}
	connCh := make(chan *websocket.Conn, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		connCh <- conn
	}))
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	clientConn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = clientConn.Close() })

	serverConn = <-connCh
	return serverConn, clientConn
}

func TestSendToUserBroadcast(t *testing.T) {
	m := NewConnectionManager()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server1, peer1 := dialTestConn(t)
	server2, peer2 := dialTestConn(t)
	server3, peer3 := dialTestConn(t)

	c1 := NewClient(server1, "u1", "conn-1")
	c2 := NewClient(server2, "u1", "conn-2")
	c3 := NewClient(server3, "u2", "conn-3")

	for _, c := range []*Client{c1, c2, c3} {
		_, ok := m.Register(c)
		require.True(t, ok)
		go c.Run(ctx, nil)
	}
	defer func() {
		c1.Close()
		c2.Close()
		c3.Close()
	}()

	require.Equal(t, 3, m.Count())

	sent := m.SendToUser("u1", []byte(`{"type":"conversation.message"}`))
	assert.Equal(t, 2, sent)

	// u1 的两条连接都应收到事件
	for _, peer := range []*websocket.Conn{peer1, peer2} {
		require.NoError(t, peer.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, payload, err := peer.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, `{"type":"conversation.message"}`, string(payload))
	}

	// u2 不应收到任何东西
	require.NoError(t, peer3.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := peer3.ReadMessage()
	assert.Error(t, err)

	assert.Equal(t, 0, m.SendToUser("nobody", []byte("x")))
}

func TestUnregisterRemovesConnection(t *testing.T) {
	m := NewConnectionManager()

	server1, _ := dialTestConn(t)
	server2, _ := dialTestConn(t)

	c1 := NewClient(server1, "u1", "conn-1")
	c2 := NewClient(server2, "u1", "conn-2")

	_, ok := m.Register(c1)
	require.True(t, ok)
	_, ok = m.Register(c2)
	require.True(t, ok)
	defer c1.Close()
	defer c2.Close()

	m.Unregister(c1)
	assert.Equal(t, 1, m.Count())
	assert.Equal(t, 1, m.SendToUser("u1", []byte("x")))

	// 重复注销是无害的
	m.Unregister(c1)
	assert.Equal(t, 1, m.Count())
}

func TestShutdownClosesAllAndRejectsNew(t *testing.T) {
	m := NewConnectionManager()

	server1, peer1 := dialTestConn(t)
	c1 := NewClient(server1, "u1", "conn-1")
	_, ok := m.Register(c1)
	require.True(t, ok)

	m.Shutdown()

	assert.Equal(t, 0, m.Count())
	select {
	case <-c1.Done():
	case <-time.After(time.Second):
		t.Fatal("连接在停机后没有关闭")
	}

	// 对端应观察到连接关闭
	require.NoError(t, peer1.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := peer1.ReadMessage()
	assert.Error(t, err)

	// 停机后拒绝新注册
	server2, _ := dialTestConn(t)
	c2 := NewClient(server2, "u2", "conn-2")
	_, ok = m.Register(c2)
	assert.False(t, ok)
	c2.Close()
}

func TestEnqueueAfterCloseFails(t *testing.T) {
	server1, _ := dialTestConn(t)
	c := NewClient(server1, "u1", "conn-1")

	assert.True(t, c.Enqueue([]byte("x")))
	c.Close()
	assert.False(t, c.Enqueue([]byte("y")))
}
