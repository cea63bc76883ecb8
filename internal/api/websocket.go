package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/panel-configurator/backend/internal/catalog"
	"github.com/panel-configurator/backend/internal/input"
	"github.com/panel-configurator/backend/internal/session"
)

// WebSocket message types for the input protocol
const (
	// Client -> Server messages
	MsgTypeCommand   = "command"
	MsgTypeDrop      = "drop"
	MsgTypeClickIcon = "click:icon"
	MsgTypeClickCell = "click:cell"
	MsgTypeGetState  = "state:get"
	MsgTypePing      = "ping"

	// Server -> Client messages
	MsgTypeConnected = "connected"
	MsgTypeState     = "state"
	MsgTypeError     = "error"
	MsgTypePong      = "pong"
)

// DefaultMaxMessageSize bounds a single client message.
const DefaultMaxMessageSize = 64 * 1024

// WSMessage is the envelope of every message in both directions.
type WSMessage struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// CommandPayload carries a typed input command.
type CommandPayload struct {
	Kind    input.Kind      `json:"kind"`
	Command json.RawMessage `json:"command"`
}

// DropPayload is a drag gesture released over a cell.
type DropPayload struct {
	Drag input.DragPayload `json:"drag"`
	Cell int               `json:"cell"`
}

// ClickIconPayload selects a catalog icon.
type ClickIconPayload struct {
	IconID string `json:"iconId"`
}

// ClickCellPayload is a click on a cell.
type ClickCellPayload struct {
	Cell int `json:"cell"`
}

// WSStateResponse reports the session after a message. Outcome is set when
// the message ran a command.
type WSStateResponse struct {
	Outcome *input.Outcome `json:"outcome,omitempty"`
	Session session.State  `json:"session"`
}

// WSErrorResponse is the payload of an error message.
type WSErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// InputSocketImpl implements the InputSocketHandler interface
type InputSocketImpl struct {
	sessions *session.Manager
	icons    *catalog.Catalog
	upgrader websocket.Upgrader
	maxSize  int64
	logger   *log.Logger
}

// NewInputSocketHandler creates the live input channel handler.
// maxMessageSize of zero uses DefaultMaxMessageSize.
func NewInputSocketHandler(sessions *session.Manager, icons *catalog.Catalog, maxMessageSize int64, logger *log.Logger) InputSocketHandler {
	if maxMessageSize <= 0 {
		maxMessageSize = DefaultMaxMessageSize
	}
	return &InputSocketImpl{
		sessions: sessions,
		icons:    icons,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// CORS middleware governs origins for the HTTP API
				return true
			},
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
		},
		maxSize: maxMessageSize,
		logger:  logger.WithPrefix("ws"),
	}
}

// HandleInputSocket upgrades the connection and runs the input protocol for
// one session until the client disconnects.
func (h *InputSocketImpl) HandleInputSocket(c echo.Context) error {
	id := c.Param("id")
	st, err := h.sessions.Get(id)
	if err != nil {
		return fromDomainError("failed to open input channel", err)
	}

	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()
	ws.SetReadLimit(h.maxSize)

	h.logger.Debug("client connected", "session", id)
	h.send(ws, WSMessage{Type: MsgTypeConnected, ID: id, Payload: mustJSON(WSStateResponse{Session: st})})

	for {
		var msg WSMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("connection error", "session", id, "err", err)
			}
			break
		}

		switch msg.Type {
		case MsgTypePing:
			h.sessions.Touch(id)
			h.send(ws, WSMessage{Type: MsgTypePong, ID: msg.ID})
		case MsgTypeGetState:
			h.reply(ws, msg.ID, id, nil)
		case MsgTypeCommand:
			h.handleCommand(ws, id, msg)
		case MsgTypeDrop:
			h.handleDrop(ws, id, msg)
		case MsgTypeClickIcon:
			h.handleClickIcon(ws, id, msg)
		case MsgTypeClickCell:
			h.handleClickCell(ws, id, msg)
		default:
			h.sendError(ws, msg.ID, "Unknown message type: "+msg.Type, "INVALID_TYPE")
		}
	}

	h.logger.Debug("client disconnected", "session", id)
	return nil
}

func (h *InputSocketImpl) handleCommand(ws *websocket.Conn, id string, msg WSMessage) {
	var payload CommandPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		h.sendError(ws, msg.ID, "Invalid command payload: "+err.Error(), "INVALID_PAYLOAD")
		return
	}
	cmd, err := input.Decode(payload.Kind, payload.Command)
	if err != nil {
		h.sendError(ws, msg.ID, err.Error(), "INVALID_COMMAND")
		return
	}
	h.run(ws, msg.ID, id, cmd)
}

func (h *InputSocketImpl) handleDrop(ws *websocket.Conn, id string, msg WSMessage) {
	var payload DropPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		h.sendError(ws, msg.ID, "Invalid drop payload: "+err.Error(), "INVALID_PAYLOAD")
		return
	}
	cmd, err := payload.Drag.Drop(payload.Cell)
	if err != nil {
		h.sendError(ws, msg.ID, err.Error(), "INVALID_COMMAND")
		return
	}
	h.run(ws, msg.ID, id, cmd)
}

func (h *InputSocketImpl) handleClickIcon(ws *websocket.Conn, id string, msg WSMessage) {
	var payload ClickIconPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.IconID == "" {
		h.sendError(ws, msg.ID, "Invalid click payload", "INVALID_PAYLOAD")
		return
	}
	if _, err := h.icons.Lookup(payload.IconID); err != nil {
		h.sendError(ws, msg.ID, err.Error(), "UNKNOWN_ICON")
		return
	}

	err := h.sessions.With(id, func(s *session.Session) error {
		s.Selection().ClickIcon(payload.IconID)
		return nil
	})
	if err != nil {
		h.sendError(ws, msg.ID, err.Error(), "SESSION_ERROR")
		return
	}
	h.reply(ws, msg.ID, id, nil)
}

func (h *InputSocketImpl) handleClickCell(ws *websocket.Conn, id string, msg WSMessage) {
	var payload ClickCellPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		h.sendError(ws, msg.ID, "Invalid click payload: "+err.Error(), "INVALID_PAYLOAD")
		return
	}

	var resp WSStateResponse
	err := h.sessions.With(id, func(s *session.Session) error {
		_, occupied := s.Store().IconAt(payload.Cell)
		if cmd, ok := s.Selection().ClickCell(payload.Cell, occupied); ok {
			out, err := s.Dispatch(h.icons, cmd)
			if err != nil {
				return err
			}
			resp.Outcome = &out
		}
		resp.Session = s.State()
		return nil
	})
	if err != nil {
		h.sendError(ws, msg.ID, err.Error(), "SESSION_ERROR")
		return
	}
	h.send(ws, WSMessage{Type: MsgTypeState, ID: msg.ID, Payload: mustJSON(resp)})
}

// run dispatches cmd against the session and replies with the outcome.
func (h *InputSocketImpl) run(ws *websocket.Conn, msgID, id string, cmd input.Command) {
	var resp WSStateResponse
	err := h.sessions.With(id, func(s *session.Session) error {
		out, err := s.Dispatch(h.icons, cmd)
		if err != nil {
			return err
		}
		resp.Outcome = &out
		resp.Session = s.State()
		return nil
	})
	if err != nil {
		h.sendError(ws, msgID, err.Error(), "COMMAND_FAILED")
		return
	}
	if !resp.Outcome.Verdict.OK {
		h.logger.Debug("placement rejected", "session", id, "kind", cmd.Kind(), "reason", resp.Outcome.Verdict.Reason)
	}
	h.send(ws, WSMessage{Type: MsgTypeState, ID: msgID, Payload: mustJSON(resp)})
}

func (h *InputSocketImpl) reply(ws *websocket.Conn, msgID, id string, out *input.Outcome) {
	st, err := h.sessions.Get(id)
	if err != nil {
		h.sendError(ws, msgID, err.Error(), "SESSION_ERROR")
		return
	}
	h.send(ws, WSMessage{Type: MsgTypeState, ID: msgID, Payload: mustJSON(WSStateResponse{Outcome: out, Session: st})})
}

// Helper methods

func (h *InputSocketImpl) send(ws *websocket.Conn, msg WSMessage) {
	msg.Timestamp = time.Now().UnixMilli()
	if err := ws.WriteJSON(msg); err != nil {
		h.logger.Warn("failed to send message", "type", msg.Type, "err", err)
	}
}

func (h *InputSocketImpl) sendError(ws *websocket.Conn, msgID, message, code string) {
	h.send(ws, WSMessage{
		Type:    MsgTypeError,
		ID:      msgID,
		Payload: mustJSON(WSErrorResponse{Message: message, Code: code}),
	})
}

func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(fmt.Sprintf(`{"message":%q}`, err.Error()))
	}
	return data
}
