package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"game-reports/report-desk/internal/notifications"
)

func dial(t *testing.T, m *Manager) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = m.HandleConnection(w, r)
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestManager_PublishNotification(t *testing.T) {
	m := NewManager(nil)
	defer m.Close()

	client := dial(t, m)
	_ = client.SetReadDeadline(time.Now().Add(5 * time.Second))

	var status Message
	require.NoError(t, client.ReadJSON(&status))
	assert.Equal(t, MessageTypeStatus, status.Type)
	assert.Equal(t, "connected", status.Data["status"])

	require.Eventually(t, func() bool { return m.GetConnectionCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	m.PublishNotification(notifications.Error("report-controller", "Could not total sales"))

	var msg Message
	require.NoError(t, client.ReadJSON(&msg))
	assert.Equal(t, MessageTypeNotification, msg.Type)
	require.NotNil(t, msg.Notification)
	assert.Equal(t, "Could not total sales", msg.Notification.Message)
	assert.Equal(t, notifications.SeverityError, msg.Notification.Severity)
}

func TestManager_DisconnectRemovesConnection(t *testing.T) {
	m := NewManager(nil)
	defer m.Close()

	client := dial(t, m)
	require.Eventually(t, func() bool { return m.GetConnectionCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, client.Close())
	assert.Eventually(t, func() bool { return m.GetConnectionCount() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestManager_BroadcastWithoutClients(t *testing.T) {
	m := NewManager(nil)
	defer m.Close()

	assert.NoError(t, m.Broadcast(Message{Type: MessageTypeStatus}))
	assert.Equal(t, 0, m.GetConnectionCount())
}
