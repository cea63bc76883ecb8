package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/panel-configurator/backend/internal/input"
	"github.com/panel-configurator/backend/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wsClient struct {
	t    *testing.T
	conn *websocket.Conn
}

func dialInput(t *testing.T, ts *testServer, sessionID string) *wsClient {
	t.Helper()

	srv := httptest.NewServer(ts.e)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/sessions/" + sessionID + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { conn.Close() })

	c := &wsClient{t: t, conn: conn}
	hello := c.read()
	require.Equal(t, MsgTypeConnected, hello.Type)
	return c
}

func (c *wsClient) send(msgType, id string, payload interface{}) {
	c.t.Helper()
	msg := WSMessage{Type: msgType, ID: id}
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(c.t, err)
		msg.Payload = data
	}
	require.NoError(c.t, c.conn.WriteJSON(msg))
}

func (c *wsClient) read() WSMessage {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg WSMessage
	require.NoError(c.t, c.conn.ReadJSON(&msg))
	return msg
}

func (c *wsClient) readState() WSStateResponse {
	c.t.Helper()
	msg := c.read()
	require.Equal(c.t, MsgTypeState, msg.Type, string(msg.Payload))
	var resp WSStateResponse
	require.NoError(c.t, json.Unmarshal(msg.Payload, &resp))
	return resp
}

func (c *wsClient) readError() WSErrorResponse {
	c.t.Helper()
	msg := c.read()
	require.Equal(c.t, MsgTypeError, msg.Type)
	var resp WSErrorResponse
	require.NoError(c.t, json.Unmarshal(msg.Payload, &resp))
	return resp
}

func TestInputSocketUnknownSession(t *testing.T) {
	ts := newTestServer(t)
	srv := httptest.NewServer(ts.e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/sessions/missing/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestInputSocketRequiresUpgrade(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/api/sessions/"+ts.newSession(t, "SP")+"/ws", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"code"`)
}

func TestInputSocketPingAndState(t *testing.T) {
	ts := newTestServer(t)
	c := dialInput(t, ts, ts.newSession(t, "SP"))

	c.send(MsgTypePing, "p1", nil)
	pong := c.read()
	assert.Equal(t, MsgTypePong, pong.Type)
	assert.Equal(t, "p1", pong.ID)

	c.send(MsgTypeGetState, "s1", nil)
	st := c.readState()
	assert.Nil(t, st.Outcome)
	assert.Len(t, st.Session.Cells, 9)
}

func TestInputSocketCommands(t *testing.T) {
	ts := newTestServer(t)
	c := dialInput(t, ts, ts.newSession(t, "DPH"))

	c.send(MsgTypeCommand, "1", CommandPayload{Kind: input.KindPlaceNew, Command: json.RawMessage(`{"iconId":"PIR1","cell":7}`)})
	resp := c.readState()
	require.NotNil(t, resp.Outcome)
	assert.True(t, resp.Outcome.Verdict.OK)
	assert.True(t, resp.Outcome.Changed)

	c.send(MsgTypeCommand, "2", CommandPayload{Kind: input.KindPlaceNew, Command: json.RawMessage(`{"iconId":"PIR2","cell":16}`)})
	resp = c.readState()
	assert.False(t, resp.Outcome.Verdict.OK)
	assert.Equal(t, rules.ReasonSingletonViolation, resp.Outcome.Verdict.Reason)

	c.send(MsgTypeCommand, "3", CommandPayload{Kind: input.KindEditText, Command: json.RawMessage(`{"cell":7,"text":"Sensor"}`)})
	resp = c.readState()
	assert.Equal(t, "Sensor", resp.Session.Cells[7].Text)

	long := `{"cell":7,"text":"` + strings.Repeat("x", input.MaxTextLength+1) + `"}`
	c.send(MsgTypeCommand, "3b", CommandPayload{Kind: input.KindEditText, Command: json.RawMessage(long)})
	assert.Equal(t, "COMMAND_FAILED", c.readError().Code)

	c.send(MsgTypeCommand, "4", CommandPayload{Kind: "explode", Command: json.RawMessage(`{}`)})
	assert.Equal(t, "INVALID_COMMAND", c.readError().Code)

	c.send(MsgTypeCommand, "5", CommandPayload{Kind: input.KindPlaceNew, Command: json.RawMessage(`{"iconId":"NOPE","cell":1}`)})
	assert.Equal(t, "COMMAND_FAILED", c.readError().Code)

	c.send("bogus", "6", nil)
	assert.Equal(t, "INVALID_TYPE", c.readError().Code)
}

func TestInputSocketDragAndDrop(t *testing.T) {
	ts := newTestServer(t)
	c := dialInput(t, ts, ts.newSession(t, "SP"))

	c.send(MsgTypeDrop, "1", DropPayload{Drag: input.DragPayload{Source: input.SourcePalette, IconID: "L1"}, Cell: 4})
	resp := c.readState()
	require.True(t, resp.Outcome.Verdict.OK)
	assert.Equal(t, input.KindPlaceNew, resp.Outcome.Kind)

	from := 4
	c.send(MsgTypeDrop, "2", DropPayload{Drag: input.DragPayload{Source: input.SourceCell, Cell: &from}, Cell: 6})
	resp = c.readState()
	require.True(t, resp.Outcome.Verdict.OK)
	assert.Equal(t, input.KindMovePlaced, resp.Outcome.Kind)
	assert.Nil(t, resp.Session.Cells[4].Icon)
	assert.Equal(t, "L1", resp.Session.Cells[6].Icon.ID)

	c.send(MsgTypeDrop, "3", DropPayload{Drag: input.DragPayload{Source: "desktop"}, Cell: 1})
	assert.Equal(t, "INVALID_COMMAND", c.readError().Code)
}

func TestInputSocketClickToPlace(t *testing.T) {
	ts := newTestServer(t)
	c := dialInput(t, ts, ts.newSession(t, "SP"))

	c.send(MsgTypeClickIcon, "1", ClickIconPayload{IconID: "C1"})
	resp := c.readState()
	assert.Equal(t, input.SelectedIcon, resp.Session.Selection.Kind)

	c.send(MsgTypeClickCell, "2", ClickCellPayload{Cell: 3})
	resp = c.readState()
	require.NotNil(t, resp.Outcome)
	assert.True(t, resp.Outcome.Verdict.OK)
	assert.Equal(t, "C1", resp.Session.Cells[3].Icon.ID)
	assert.Equal(t, input.SelectedNothing, resp.Session.Selection.Kind)

	// select the placed icon, then move it
	c.send(MsgTypeClickCell, "3", ClickCellPayload{Cell: 3})
	resp = c.readState()
	assert.Nil(t, resp.Outcome)
	assert.Equal(t, input.SelectedCell, resp.Session.Selection.Kind)

	c.send(MsgTypeClickCell, "4", ClickCellPayload{Cell: 5})
	resp = c.readState()
	require.NotNil(t, resp.Outcome)
	assert.Equal(t, input.KindMovePlaced, resp.Outcome.Kind)
	assert.Equal(t, "C1", resp.Session.Cells[5].Icon.ID)

	c.send(MsgTypeClickIcon, "5", ClickIconPayload{IconID: "NOPE"})
	assert.Equal(t, "UNKNOWN_ICON", c.readError().Code)
}
