package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"party-trivia/internal/app"
	"party-trivia/internal/csvio"
	"party-trivia/internal/domain"
)

type WSHandler struct {
	service  *app.GameService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.GameService) *WSHandler {
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

type errorPayload struct {
	Message string `json:"message"`
}

type configPayload struct {
	Rounds            int `json:"rounds"`
	QuestionsPerRound int `json:"questionsPerRound"`
}

type modePayload struct {
	Mode domain.Mode `json:"mode"`
}

type importPayload struct {
	CSV string `json:"csv"`
}

type regeneratePayload struct {
	CategoryID string `json:"categoryId"`
	Index      int    `json:"index"`
}

type joinPayload struct {
	Name   string        `json:"name"`
	Avatar domain.Avatar `json:"avatar"`
}

type categoryPayload struct {
	CategoryID string `json:"categoryId"`
}

var (
	errUnsupported      = errors.New("unsupported message type")
	errUnreadableImport = errors.New("import could not be read")
)

// ServeWS upgrades the request and lets the connection drive one session.
// The session is chosen by ?sessionId= or by its lobby ?pin=. Every state
// change is pushed as a "state" message; rejected input yields "error".
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	session, err := h.resolve(r)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, domain.ErrSessionNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel := session.Subscribe()
	defer cancel()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})
	var pending sync.WaitGroup

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	emit := func(msg outboundMessage[any]) {
		select {
		case send <- msg:
		case <-closeSignals:
		case <-writerDone:
		}
	}

	go func() {
		defer close(updatesDone)
		for {
			select {
			case st, ok := <-updates:
				if !ok {
					return
				}
				emit(outboundMessage[any]{Type: "state", Payload: st})
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if err := h.dispatch(ctx, session, inbound, emit, &pending); err != nil {
			emit(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		}
	}

	close(closeSignals)
	stop()
	pending.Wait()
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *WSHandler) resolve(r *http.Request) (*app.Session, error) {
	q := r.URL.Query()
	if id := q.Get("sessionId"); id != "" {
		return h.service.Get(r.Context(), id)
	}
	if pin := q.Get("pin"); pin != "" {
		return h.service.ByPin(r.Context(), pin)
	}
	return nil, errors.New("missing sessionId or pin")
}

// dispatch maps one inbound action onto the session. Content generation and
// regeneration run in the background so the read loop keeps serving.
func (h *WSHandler) dispatch(ctx context.Context, session *app.Session, in inboundMessage, emit func(outboundMessage[any]), pending *sync.WaitGroup) error {
	switch in.Type {
	case "initHost":
		session.InitHost()
	case "initJoin":
		session.InitJoin()
	case "updateConfig":
		var p configPayload
		if err := decode(in.Payload, &p); err != nil {
			return err
		}
		session.UpdateConfig(p.Rounds, p.QuestionsPerRound)
	case "setMode":
		var p modePayload
		if err := decode(in.Payload, &p); err != nil {
			return err
		}
		session.SetMode(p.Mode)
	case "generateContent":
		var p configPayload
		if err := decode(in.Payload, &p); err != nil {
			return err
		}
		pending.Add(1)
		go func() {
			defer pending.Done()
			if err := session.GenerateContent(ctx, p.Rounds, p.QuestionsPerRound); err != nil && ctx.Err() == nil {
				emit(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
			}
		}()
	case "importContent":
		var p importPayload
		if err := decode(in.Payload, &p); err != nil {
			return err
		}
		content, err := csvio.ImportString(p.CSV)
		if err != nil {
			if csvio.IsValidation(err) {
				return err
			}
			log.Printf("session %s: read import: %v", session.ID(), err)
			return errUnreadableImport
		}
		session.ImportContent(content)
	case "regenerateQuestion":
		var p regeneratePayload
		if err := decode(in.Payload, &p); err != nil {
			return err
		}
		pending.Add(1)
		go func() {
			defer pending.Done()
			session.RegenerateQuestion(ctx, p.CategoryID, p.Index)
		}()
	case "confirmContent":
		if _, err := h.service.Confirm(ctx, session.ID()); err != nil && !errors.Is(err, domain.ErrInvalidTransition) {
			return err
		}
	case "join":
		var p joinPayload
		if err := decode(in.Payload, &p); err != nil {
			return err
		}
		session.Join(p.Name, p.Avatar)
	case "hostJoin":
		var p joinPayload
		if err := decode(in.Payload, &p); err != nil {
			return err
		}
		session.HostJoinAsPlayer(p.Name, p.Avatar)
	case "addBot":
		session.AddBot()
	case "startGame":
		session.StartGame()
	case "selectCategory":
		var p categoryPayload
		if err := decode(in.Payload, &p); err != nil {
			return err
		}
		session.SelectCategory(p.CategoryID)
	case "submitAnswer":
		var answer domain.Answer
		if err := decode(in.Payload, &answer); err != nil {
			return err
		}
		session.SubmitAnswer(answer)
	case "nextQuestion":
		session.NextQuestion()
	case "nextRound":
		session.NextRound()
	case "restart":
		if _, err := h.service.Restart(ctx, session.ID()); err != nil {
			return err
		}
	default:
		return errUnsupported
	}
	return nil
}

// decode accepts an absent payload as the zero value.
func decode(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errors.New("invalid payload")
	}
	return nil
}
