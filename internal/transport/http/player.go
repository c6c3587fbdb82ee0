package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"curriculum-service/internal/app"
	"curriculum-service/internal/auth"
	"curriculum-service/internal/domain"
	"go.uber.org/zap"
)

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type timeUpdatePayload struct {
	CurrentTime float64 `json:"currentTime"`
	Duration    float64 `json:"duration"`
}

type answerPayload struct {
	QuestionID  string `json:"questionId"`
	AnswerIndex int    `json:"answerIndex"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type progressErrorPayload struct {
	LectureID string `json:"lectureId"`
	Message   string `json:"message"`
}

const sendBuffer = 16

// servePlayer upgrades to a websocket that carries the playback events of
// one lecture. Position updates are debounced per connection; pending
// writes are flushed when the player disconnects.
func (s *Server) servePlayer(w http.ResponseWriter, r *http.Request, identity auth.Identity) {
	key := domain.ProgressKey{
		UserID:    identity.ID,
		CourseID:  r.URL.Query().Get("courseId"),
		LectureID: r.URL.Query().Get("lectureId"),
	}
	if key.CourseID == "" || key.LectureID == "" {
		verr := &domain.ValidationError{}
		verr.Add("query", "missing courseId or lectureId")
		writeError(w, s.logger, verr)
		return
	}
	cur, err := s.curricula.LoadCurriculum(r.Context(), key.CourseID)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	if _, ok := cur.FindLecture(key.LectureID); !ok {
		writeError(w, s.logger, &domain.NotFoundError{Kind: "lecture", ID: key.LectureID})
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], sendBuffer)
	closed := make(chan struct{})
	writerDone := make(chan struct{})

	// notify never blocks: the player is told about writes on a best-effort basis.
	notify := func(msg outboundMessage[any]) {
		select {
		case <-closed:
		case send <- msg:
		default:
			s.logger.Debug("player notification dropped", zap.String("type", msg.Type))
		}
	}

	go func() {
		defer close(writerDone)
		for {
			select {
			case msg := <-send:
				if err := conn.WriteJSON(msg); err != nil {
					s.logger.Debug("ws write error", zap.Error(err))
					return
				}
			case <-closed:
				return
			}
		}
	}()

	tracker := app.NewVideoTracker(s.progress, s.debounce, s.logger, s.metrics,
		app.OnProgressWritten(func(p domain.LectureProgress) {
			notify(outboundMessage[any]{Type: "progress", Payload: p})
		}),
		app.OnProgressError(func(k domain.ProgressKey, err error) {
			notify(outboundMessage[any]{Type: "progressError", Payload: progressErrorPayload{
				LectureID: k.LectureID,
				Message:   publicMessage(err),
			}})
		}),
	)

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "timeupdate":
			var payload timeUpdatePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				notify(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid timeupdate payload"}})
				continue
			}
			tracker.TimeUpdate(key, payload.CurrentTime, payload.Duration)
		case "ended":
			tracker.Ended(r.Context(), key)
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				notify(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}})
				continue
			}
			outcome, err := s.progress.SubmitQuizAnswer(r.Context(), key, payload.QuestionID, payload.AnswerIndex)
			if err != nil {
				notify(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: publicMessage(err)}})
				continue
			}
			notify(outboundMessage[any]{Type: "answerResult", Payload: outcome})
		default:
			notify(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
		}
	}

	tracker.Flush()
	close(closed)
	<-writerDone
}

// publicMessage hides storage details from clients.
func publicMessage(err error) string {
	if errors.Is(err, domain.ErrPersistence) {
		return "progress could not be saved"
	}
	return err.Error()
}
