package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"trivia-session-engine/internal/app"
)

type WSHandler struct {
	service  *app.SessionService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.SessionService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// ServeWS upgrades HTTP requests to websockets and drives one session over the socket.
// Inbound: question, answer, pause, resume, finish. Outbound: session updates, question,
// answerResult, error.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		http.Error(w, "missing sessionId", http.StatusBadRequest)
		return
	}

	updates, cancel, err := h.service.Subscribe(r.Context(), sessionID)
	if err != nil {
		status, _ := classify(err)
		http.Error(w, err.Error(), status)
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Only the writer goroutine touches conn for writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "session", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

read:
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		select {
		case send <- h.handle(r, sessionID, inbound):
		case <-writerDone:
			// the writer hit a write error
			break read
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *WSHandler) handle(r *http.Request, sessionID string, inbound inboundMessage) outboundMessage[any] {
	ctx := r.Context()
	var (
		payload any
		err     error
		typ     = inbound.Type
	)
	switch inbound.Type {
	case "question":
		payload, err = h.service.GetCurrentQuestion(ctx, sessionID)
	case "answer":
		var req answerRequest
		if err := json.Unmarshal(inbound.Payload, &req); err != nil {
			return outboundMessage[any]{Type: "error", Payload: errorPayload{Code: "validation", Message: "invalid answer payload"}}
		}
		typ = "answerResult"
		payload, err = h.service.SubmitAnswer(ctx, sessionID, req.submission())
	case "pause":
		typ = "session"
		payload, err = h.service.PauseSession(ctx, sessionID)
	case "resume":
		typ = "session"
		payload, err = h.service.ResumeSession(ctx, sessionID)
	case "finish":
		var req finishRequest
		if len(inbound.Payload) > 0 {
			if err := json.Unmarshal(inbound.Payload, &req); err != nil {
				return outboundMessage[any]{Type: "error", Payload: errorPayload{Code: "validation", Message: "invalid finish payload"}}
			}
		}
		typ = "session"
		payload, err = h.service.FinishSession(ctx, sessionID, req.Reason)
	default:
		return outboundMessage[any]{Type: "error", Payload: errorPayload{Code: "validation", Message: "unsupported message type"}}
	}
	if err != nil {
		return outboundMessage[any]{Type: "error", Payload: toErrorPayload(err)}
	}
	return outboundMessage[any]{Type: typ, Payload: payload}
}
