package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"quiz-play-service/internal/app"
	"quiz-play-service/internal/domain"
	"quiz-play-service/internal/infra/httpclient"
	"quiz-play-service/internal/infra/memory"
)

type testServer struct {
	*httptest.Server
	completions *memory.CompletionStore
	stores      *memory.StateStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	quizRepo := memory.NewQuizRepository(memory.NewStaticQuizLoader(sampleQuizzes()), time.Minute)
	stores := memory.NewStateStore()
	play := app.NewPlayService(quizRepo, stores, app.PlaySettings{}, log)
	completions := memory.NewCompletionStore()

	var baseURL string
	clientFor := func(playerID string) app.CompletionClient {
		return httpclient.NewCompletionClient(baseURL, 5*time.Second).ForPlayer(playerID)
	}
	router := NewRouter(
		NewPlayHandler(play, clientFor, 5*time.Second),
		NewCompletionHandler(app.NewCompletionService(completions)),
	)
	server := httptest.NewUnstartedServer(router)
	baseURL = "http://" + server.Listener.Addr().String()
	server.Start()
	t.Cleanup(server.Close)
	return &testServer{Server: server, completions: completions, stores: stores}
}

func (s *testServer) dial(t *testing.T, query string) *websocket.Conn {
	t.Helper()
	u := "ws" + s.URL[len("http"):] + "/ws/play?" + query
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

type wireMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) wireMessage {
	t.Helper()
	var msg wireMessage
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg
}

// readUntil skips messages until one of the wanted type arrives.
func readUntil(conn *websocket.Conn, t *testing.T, want string, seen map[string]int) wireMessage {
	t.Helper()
	for i := 0; i < 50; i++ {
		msg := readNext(conn, t, "")
		if seen != nil {
			seen[msg.Type]++
		}
		if msg.Type == want {
			return msg
		}
	}
	t.Fatalf("never received %s", want)
	return wireMessage{}
}

func send(conn *websocket.Conn, t *testing.T, typ string, payload any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": typ, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func TestWebSocketPlayFlow(t *testing.T) {
	srv := newTestServer(t)
	conn := srv.dial(t, "quiz=week-1&device=dev-1&tier=premium&player=alice")

	state := readNext(conn, t, "state")
	var view struct {
		QuizSlug string        `json:"quizSlug"`
		Total    int           `json:"total"`
		Cursor   domain.Cursor `json:"cursor"`
	}
	if err := json.Unmarshal(state.Payload, &view); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if view.QuizSlug != "week-1" || view.Total != 2 || view.Cursor.Screen != domain.ScreenRoundIntro {
		t.Fatalf("unexpected initial state %+v", view)
	}

	send(conn, t, "startRound", nil)
	readUntil(conn, t, "cursor", nil)

	seen := make(map[string]int)
	for _, id := range []string{"q1", "q2"} {
		send(conn, t, "reveal", map[string]string{"questionId": id})
		send(conn, t, "markCorrect", map[string]string{"questionId": id})
	}
	submitted := readUntil(conn, t, "submitted", seen)

	var record domain.CompletionRecord
	if err := json.Unmarshal(submitted.Payload, &record); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if record.Score != 2 || record.TotalQuestions != 2 {
		t.Fatalf("unexpected submitted record %+v", record)
	}

	// first_finish arrives right after the submission is acknowledged
	achievement := readUntil(conn, t, "achievement", seen)
	var unlocked domain.Achievement
	if err := json.Unmarshal(achievement.Payload, &unlocked); err != nil {
		t.Fatalf("decode achievement: %v", err)
	}
	if unlocked.DefinitionKey != app.KeyFirstFinish {
		t.Fatalf("expected first_finish, got %s", unlocked.DefinitionKey)
	}
	if seen["answer"] != 4 {
		t.Fatalf("expected 4 answer events, got %d", seen["answer"])
	}

	stored := srv.completions.Records()
	if len(stored) != 1 || stored[0].PlayerID != "alice" {
		t.Fatalf("unexpected stored completions %+v", stored)
	}
}

func TestWebSocketRejectsBadRequests(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/ws/play?quiz=week-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without device, got %d", resp.StatusCode)
	}

	for _, query := range []string{
		"quiz=week-1&device=dev-1&mode=demo&tier=visitor",
		"quiz=week-1&device=dev-1&mode=FULL",
		"quiz=week-1&device=dev-1&mode=restricted&tier=gold",
	} {
		resp, err := http.Get(srv.URL + "/ws/play?" + query)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", query, resp.StatusCode)
		}
	}

	conn := srv.dial(t, "quiz=week-1&device=dev-1&mode=full&tier=free&player=bob")
	msg := readNext(conn, t, "error")
	var payload errorPayload
	_ = json.Unmarshal(msg.Payload, &payload)
	if payload.Message == "" {
		t.Fatalf("expected an error message for a non-newest archive quiz")
	}
}

func TestWebSocketReportsActionErrors(t *testing.T) {
	srv := newTestServer(t)
	conn := srv.dial(t, "quiz=week-2&device=dev-2")
	readNext(conn, t, "state")

	send(conn, t, "markCorrect", map[string]string{"questionId": "q1"})
	msg := readUntil(conn, t, "error", nil)
	var payload errorPayload
	_ = json.Unmarshal(msg.Payload, &payload)
	if payload.Message == "" {
		t.Fatalf("expected error message for judging an unrevealed answer")
	}

	send(conn, t, "dance", nil)
	readUntil(conn, t, "error", nil)

	send(conn, t, "state", nil)
	readUntil(conn, t, "state", nil)
}

func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"week-1": {
			Slug:        "week-1",
			Title:       "Week 1",
			PublishedAt: time.Date(2025, 1, 4, 19, 0, 0, 0, time.UTC),
			Rounds:      []domain.Round{{Number: 1, Title: "Openers", Category: "General"}},
			Questions: []domain.Question{
				{ID: "q1", Prompt: "What is 2 + 2?", Answer: "4", RoundNumber: 1},
				{ID: "q2", Prompt: "Capital of France?", Answer: "Paris", RoundNumber: 1},
			},
		},
		"week-2": {
			Slug:        "week-2",
			Title:       "Week 2",
			PublishedAt: time.Date(2025, 1, 11, 19, 0, 0, 0, time.UTC),
			Rounds:      []domain.Round{{Number: 1, Title: "Openers", Category: "Music"}},
			Questions: []domain.Question{
				{ID: "q1", Prompt: "Who sang Jolene?", Answer: "Dolly Parton", RoundNumber: 1},
			},
		},
	}
}
