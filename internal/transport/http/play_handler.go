package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"quiz-play-service/internal/app"
	"quiz-play-service/internal/config"
	"quiz-play-service/internal/domain"
)

// ClientFor returns the completion client used for a player's submissions.
type ClientFor func(playerID string) app.CompletionClient

// PlayHandler serves one play session per WebSocket connection. All session
// calls happen on the connection's loop goroutine.
type PlayHandler struct {
	service       *app.PlayService
	clientFor     ClientFor
	submitTimeout time.Duration
	tickEvery     time.Duration
	upgrader      websocket.Upgrader
}

func NewPlayHandler(service *app.PlayService, clientFor ClientFor, submitTimeout time.Duration) *PlayHandler {
	return &PlayHandler{
		service:       service,
		clientFor:     clientFor,
		submitTimeout: submitTimeout,
		tickEvery:     time.Second,
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

type questionPayload struct {
	QuestionID string `json:"questionId"`
}

type jumpPayload struct {
	N int `json:"n"`
}

type dismissPayload struct {
	AchievementID string `json:"achievementId"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type timerPayload struct {
	Elapsed int `json:"elapsed"`
}

type stateView struct {
	SessionID    string                        `json:"sessionId"`
	QuizSlug     string                        `json:"quizSlug"`
	Title        string                        `json:"title"`
	Color        string                        `json:"color"`
	Rounds       []domain.Round                `json:"rounds"`
	Cursor       domain.Cursor                 `json:"cursor"`
	Question     domain.Question               `json:"question"`
	Answers      map[string]domain.AnswerState `json:"answers"`
	Score        int                           `json:"score"`
	Total        int                           `json:"total"`
	Elapsed      int                           `json:"elapsed"`
	Locked       bool                          `json:"locked"`
	Submission   app.SubmissionState           `json:"submission"`
	Achievements []domain.Achievement          `json:"achievements"`
}

// ServeWS upgrades HTTP requests to websockets and runs a play session on them.
func (h *PlayHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := app.StartRequest{
		QuizSlug: q.Get("quiz"),
		DeviceID: q.Get("device"),
		Mode:     domain.SessionMode(q.Get("mode")),
		Tier:     domain.ViewerTier(q.Get("tier")),
	}
	if req.QuizSlug == "" || req.DeviceID == "" {
		http.Error(w, "missing quiz or device", http.StatusBadRequest)
		return
	}
	if (req.Mode != "" && !req.Mode.Valid()) || (req.Tier != "" && !req.Tier.Valid()) {
		http.Error(w, "invalid mode or tier", http.StatusBadRequest)
		return
	}
	if raw := q.Get("maxQuestions"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "invalid maxQuestions", http.StatusBadRequest)
			return
		}
		req.MaxQuestions = n
	}
	playerID := q.Get("player")
	if playerID == "" {
		playerID = req.DeviceID
	}

	ctx := config.ContextWithFields(r.Context(), logrus.Fields{"quiz": req.QuizSlug, "device": req.DeviceID})
	log := config.WithContext(ctx)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("ws upgrade failed")
		return
	}
	defer conn.Close()

	var pending []domain.Event
	emit := func(e domain.Event) { pending = append(pending, e) }

	posted := make(chan func(), 4)
	closed := make(chan struct{})
	defer close(closed)
	post := func(fn func()) {
		select {
		case posted <- fn:
		case <-closed:
		}
	}
	dispatcher := app.NewAsyncDispatcher(h.clientFor(playerID), h.submitTimeout, post)

	session, err := h.service.Start(ctx, req, dispatcher, emit)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer session.Close()
	log = log.WithField("session", session.ID())

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		broken := false
		for msg := range send {
			if broken {
				continue
			}
			if err := conn.WriteJSON(msg); err != nil {
				// keep draining so the loop never blocks on a dead peer
				log.WithError(err).Debug("ws write error")
				broken = true
			}
		}
	}()

	inbound := make(chan inboundMessage)
	go func() {
		defer close(inbound)
		for {
			var msg inboundMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			select {
			case inbound <- msg:
			case <-closed:
				return
			}
		}
	}()

	ticker := time.NewTicker(h.tickEvery)
	defer ticker.Stop()

	flush := func() {
		for _, e := range pending {
			send <- outboundMessage[any]{Type: string(e.Type), Payload: e.Payload}
		}
		pending = pending[:0]
	}

	send <- outboundMessage[any]{Type: "state", Payload: snapshot(session)}

loop:
	for {
		select {
		case msg, ok := <-inbound:
			if !ok {
				break loop
			}
			if err := h.apply(session, msg); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
			}
			flush()
			if msg.Type == "state" {
				send <- outboundMessage[any]{Type: "state", Payload: snapshot(session)}
			}
		case <-ticker.C:
			if session.Tick() {
				send <- outboundMessage[any]{Type: "timer", Payload: timerPayload{Elapsed: session.Elapsed()}}
			}
		case fn := <-posted:
			fn()
			flush()
		}
	}

	close(send)
	<-writerDone
}

var errUnsupported = errors.New("unsupported message type")

func (h *PlayHandler) apply(s *app.Session, msg inboundMessage) error {
	switch msg.Type {
	case "state":
		return nil
	case "startRound":
		s.StartRound()
		return nil
	case "next":
		s.Next()
		return nil
	case "previous":
		s.Previous()
		return nil
	case "jump":
		var p jumpPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return errors.New("invalid jump payload")
		}
		s.JumpTo(p.N)
		return nil
	case "reveal", "hide", "markCorrect", "markIncorrect":
		var p questionPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return errors.New("invalid question payload")
		}
		return applyAnswer(s, msg.Type, p.QuestionID)
	case "dismiss":
		var p dismissPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return errors.New("invalid dismiss payload")
		}
		s.DismissAchievement(p.AchievementID)
		return nil
	case "retry":
		s.RetrySubmission()
		return nil
	default:
		return errUnsupported
	}
}

func applyAnswer(s *app.Session, action, questionID string) error {
	switch action {
	case "reveal":
		return s.Reveal(questionID)
	case "hide":
		return s.Hide(questionID)
	case "markCorrect":
		_, err := s.MarkCorrect(questionID)
		return err
	default:
		return s.MarkIncorrect(questionID)
	}
}

func snapshot(s *app.Session) stateView {
	answers := make(map[string]domain.AnswerState, s.Total())
	for _, q := range s.Questions() {
		answers[q.ID] = s.AnswerState(q.ID)
	}
	quiz := s.Quiz()
	return stateView{
		SessionID:    s.ID(),
		QuizSlug:     quiz.Slug,
		Title:        quiz.Title,
		Color:        quiz.Color,
		Rounds:       s.Rounds(),
		Cursor:       s.Cursor(),
		Question:     s.Current(),
		Answers:      answers,
		Score:        s.Score(),
		Total:        s.Total(),
		Elapsed:      s.Elapsed(),
		Locked:       s.Locked(),
		Submission:   s.SubmissionState(),
		Achievements: s.PendingAchievements(),
	}
}
