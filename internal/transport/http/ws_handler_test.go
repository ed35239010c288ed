package http

import (
	"context"
	"strings"
	"testing"
	"time"

	"csv-quiz-service/internal/app"
	"csv-quiz-service/internal/domain"
	"github.com/gorilla/websocket"
)

func TestLeaderboardFeedPushesFinishedQuiz(t *testing.T) {
	srv, service := newTestServer(t, 3, app.Settings{SampleSize: 2, Penalty: 5})
	ctx := context.Background()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/leaderboard"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	first := readBoard(t, conn)
	if first.Type != "leaderboard" || len(first.Payload) != 0 {
		t.Fatalf("expected empty initial board, got %+v", first)
	}

	var session domain.QuizSession
	if err := service.Start(ctx, &session, "Carol"); err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := service.SubmitAnswer(ctx, &session, "nope"); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	if _, err := service.Finalize(ctx, &session); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	update := readBoard(t, conn)
	if len(update.Payload) != 1 || update.Payload[0].Nickname != "Carol" || update.Payload[0].Score != 90 {
		t.Fatalf("unexpected pushed board %+v", update.Payload)
	}
}

func readBoard(t *testing.T, conn *websocket.Conn) outboundMessage[[]domain.LeaderboardEntry] {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var msg outboundMessage[[]domain.LeaderboardEntry]
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}
