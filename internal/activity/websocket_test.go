package activity

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MacJediWizard/subdash/internal/models"
)

func TestHandleWebSocketStreamsSnapshots(t *testing.T) {
	src := &fakeSource{
		packages:  []*models.Package{{ID: "pkg-1", Name: "Gold"}},
		customers: []*models.Customer{{ID: "c1", Name: "Ada"}},
	}
	f := NewFeed(src, DefaultConfig(), zerolog.New(zerolog.NewTestWriter(t)))
	f.Start()
	defer f.Stop()

	srv := httptest.NewServer(http.HandlerFunc(f.HandleWebSocket))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	seen := map[Collection]Message{}
	for len(seen) < 2 {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, "snapshot", msg.Type)
		seen[msg.Collection] = msg
	}

	require.Len(t, seen[CollectionPackages].Packages, 1)
	assert.Equal(t, "Gold", seen[CollectionPackages].Packages[0].Name)
	require.Len(t, seen[CollectionCustomers].Customers, 1)
	assert.Equal(t, "Ada", seen[CollectionCustomers].Customers[0].Name)
}
