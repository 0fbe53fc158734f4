package http

import (
	"encoding/json"
	"net/http"

	"bookofh-service/internal/app"
	"bookofh-service/internal/scoring"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// WSHandler serves live score previews. Nothing received here is stored.
type WSHandler struct {
	service  *app.QuestionnaireService
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewWSHandler(service *app.QuestionnaireService, log zerolog.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log.With().Str("component", "ws").Logger(),
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type previewPayload struct {
	Answers []answerPayload `json:"answers"`
}

type scorePayload struct {
	Score          int                `json:"score"`
	Band           string             `json:"band"`
	CategoryScores map[string]float64 `json:"categoryScores"`
}

type explanationPayload struct {
	scorePayload
	Trace []scoring.OptionTrace `json:"trace"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and answers every "answers" message with a
// "score" message, and every "explain" message with an "explanation".
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})

	// Single writer; gorilla connections do not support concurrent writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug().Err(err).Msg("ws write error")
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		msg := h.handle(inbound)
		select {
		case send <- msg:
		case <-writerDone:
		}
	}

	close(send)
	<-writerDone
}

func (h *WSHandler) handle(inbound inboundMessage) outboundMessage[any] {
	switch inbound.Type {
	case "answers", "explain":
		var payload previewPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errorMessage("invalid answers payload")
		}
		answers := toDomain(payload.Answers)
		if inbound.Type == "answers" {
			return outboundMessage[any]{Type: "score", Payload: toScorePayload(h.service.Preview(answers))}
		}
		res, trace := h.service.Explain(answers)
		return outboundMessage[any]{Type: "explanation", Payload: explanationPayload{
			scorePayload: toScorePayload(res),
			Trace:        trace,
		}}
	default:
		return errorMessage("unsupported message type")
	}
}

func toScorePayload(res scoring.Result) scorePayload {
	return scorePayload{Score: res.TotalScore, Band: res.Band, CategoryScores: res.Categories}
}

func errorMessage(msg string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}
}
