package http

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"curriculum-service/internal/domain"
	"github.com/gorilla/websocket"
)

func dialPlayer(t *testing.T, serverURL, lectureID, tok string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(serverURL, "http") + "/ws/player?courseId=course-1&lectureId=" + lectureID + "&token=" + tok
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": typ, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s (%v)", expect, msg.Type, msg.Payload)
	}
	return msg.Type, msg.Payload
}

func TestPlayerDebouncesVideoProgress(t *testing.T) {
	server := newTestServer(t)
	conn := dialPlayer(t, server.URL, "video", token(t, "student-1"))

	for _, at := range []float64{10, 30, 45} {
		send(t, conn, "timeupdate", map[string]any{"currentTime": at, "duration": 180})
	}
	_, payload := readNext(conn, t, "progress")
	if payload["progress"] != 25.0 || payload["completed"] != false {
		t.Fatalf("expected trailing write at 25%%, got %v", payload)
	}

	send(t, conn, "ended", nil)
	_, payload = readNext(conn, t, "progress")
	if payload["progress"] != 100.0 || payload["completed"] != true {
		t.Fatalf("expected completion, got %v", payload)
	}

	// no further write is pending: the next message answers the next event
	send(t, conn, "timeupdate", map[string]any{"currentTime": 1, "duration": 0})
	_, payload = readNext(conn, t, "progressError")
	if payload["lectureId"] != "video" {
		t.Fatalf("unexpected progressError payload %v", payload)
	}
}

func TestPlayerAnswersQuiz(t *testing.T) {
	server := newTestServer(t)
	student := token(t, "student-1")
	cur := loadCurriculum(t, server, student)
	quiz, _ := cur.Sections[0].Lectures[1].Quiz()
	conn := dialPlayer(t, server.URL, "quiz", student)

	send(t, conn, "answer", map[string]any{"questionId": quiz.Questions[0].ID, "answerIndex": 1})
	_, payload := readNext(conn, t, "answerResult")
	if payload["correct"] != true || payload["score"] != 1.0 {
		t.Fatalf("unexpected answerResult %v", payload)
	}

	send(t, conn, "answer", map[string]any{"questionId": quiz.Questions[0].ID, "answerIndex": 1})
	readNext(conn, t, "error")

	send(t, conn, "rewind", nil)
	_, payload = readNext(conn, t, "error")
	if payload["message"] != "unsupported message type" {
		t.Fatalf("unexpected error payload %v", payload)
	}
}

func TestPlayerFlushesOnDisconnect(t *testing.T) {
	server, store := newTestFixture(t)
	conn := dialPlayer(t, server.URL, "video", token(t, "student-1"))

	send(t, conn, "timeupdate", map[string]any{"currentTime": 90, "duration": 180})
	conn.Close()

	key := domain.ProgressKey{UserID: "student-1", CourseID: "course-1", LectureID: "video"}
	deadline := time.Now().Add(2 * time.Second)
	for {
		p, found, _ := store.GetLectureProgress(context.Background(), key)
		if found {
			if p.Progress != 50 || p.Completed {
				t.Fatalf("unexpected flushed progress %+v", p)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("pending write was not flushed")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestPlayerRejectsUnknownLecture(t *testing.T) {
	server := newTestServer(t)
	u := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/player?courseId=course-1&lectureId=nope&token=" + token(t, "student-1")
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	if err == nil {
		t.Fatalf("expected dial to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %+v", resp)
	}
}
