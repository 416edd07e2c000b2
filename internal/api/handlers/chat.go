package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/cloo-solutions/propertybot/internal/api"
	"github.com/cloo-solutions/propertybot/internal/domain"
	"github.com/cloo-solutions/propertybot/internal/service"
	"github.com/cloo-solutions/propertybot/internal/telemetry"
	"github.com/gorilla/websocket"
)

const (
	maxFrameBytes = 64 * 1024
	pongWait      = 60 * time.Second
	pingPeriod    = pongWait * 9 / 10
	writeWait     = 10 * time.Second
)

type ChatAssistant interface {
	OpenTurn() *domain.ChatTurn
	Ask(ctx context.Context, question string) (*domain.ChatTurn, error)
	AskInSession(ctx context.Context, session *service.ChatSession, question string) (*domain.ChatTurn, error)
}

type ChatSessions interface {
	Open() *service.ChatSession
	Close(id string)
}

type ChatHandler struct {
	assistant ChatAssistant
	sessions  ChatSessions
	upgrader  websocket.Upgrader
}

// NewChatHandler creates a ChatHandler. An empty allowedOrigins accepts
// websocket connections from any origin.
func NewChatHandler(assistant ChatAssistant, sessions ChatSessions, allowedOrigins []string) *ChatHandler {
	return &ChatHandler{
		assistant: assistant,
		sessions:  sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// TurnResponse is the payload of every delivered turn. The greeting carries
// an empty, non-null properties list; answers without references carry null.
// messageId repeats turnId for older chat clients.
type TurnResponse struct {
	Message    string                  `json:"message"`
	Properties []domain.ListedProperty `json:"properties"`
	TurnID     string                  `json:"turnId"`
	MessageID  string                  `json:"messageId"`
}

type ChatRequest struct {
	Message string `json:"message"`
}

func turnToResponse(turn *domain.ChatTurn) *TurnResponse {
	return &TurnResponse{
		Message:    turn.Answer,
		Properties: turn.Records,
		TurnID:     turn.ID,
		MessageID:  turn.ID,
	}
}

// Open handles POST /chat/open.
func (h *ChatHandler) Open(w http.ResponseWriter, r *http.Request) {
	api.JSON(w, http.StatusOK, turnToResponse(h.assistant.OpenTurn()))
}

// Message handles POST /chat, one turn per request with no history.
func (h *ChatHandler) Message(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	turn, err := h.assistant.Ask(r.Context(), req.Message)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, turnToResponse(turn))
}

// Stream handles GET /chatbot. The connection gets the greeting first and
// then one answer per text frame, in order. Answers see the connection's
// recent messages. A failed turn is reported as an error frame and the
// connection stays open.
func (h *ChatHandler) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("chat: websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	session := h.sessions.Open()
	defer h.sessions.Close(session.ID)

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	conn.SetReadLimit(maxFrameBytes)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go keepAlive(conn, done)

	greeting := h.assistant.OpenTurn()
	if err := writeFrame(conn, turnToResponse(greeting)); err != nil {
		log.Printf("chat: session %s: failed to send greeting: %v", session.ID, err)
		return
	}
	session.RecordTurn(greeting.ID)

	for {
		msgType, frame, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("chat: session %s: read failed: %v", session.ID, err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		if err := h.answer(ctx, conn, session, string(frame)); err != nil {
			log.Printf("chat: session %s: write failed: %v", session.ID, err)
			return
		}
		// Pongs are not read while a turn runs.
		conn.SetReadDeadline(time.Now().Add(pongWait))
	}
}

func (h *ChatHandler) answer(ctx context.Context, conn *websocket.Conn, session *service.ChatSession, question string) error {
	ctx, tx := telemetry.StartTransaction(ctx, "chat.turn", "websocket.message")
	defer tx.End()

	turn, err := h.assistant.AskInSession(ctx, session, strings.TrimSpace(question))
	if err != nil {
		tx.SetError(err)
		if _, ok := domain.AsDomainError(err); !ok {
			telemetry.CaptureError(ctx, err)
		}
		log.Printf("chat: session %s: turn failed: %v", session.ID, err)
		return writeFrame(conn, api.ErrorResponse{Error: api.ErrorMessage(err)})
	}

	if err := writeFrame(conn, turnToResponse(turn)); err != nil {
		return err
	}
	session.RecordTurn(turn.ID)
	return nil
}

// keepAlive pings the peer until done is closed. WriteControl may run
// concurrently with the turn writes.
func keepAlive(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func writeFrame(conn *websocket.Conn, v interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[strings.TrimRight(strings.ToLower(o), "/")] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[strings.ToLower(origin)]
	}
}
