package http

import (
	"net/http"

	"curriculum-service/internal/auth"
	"curriculum-service/internal/domain"
	"curriculum-service/internal/editor"
)

type saveCurriculumRequest struct {
	Sections        []*domain.Section `json:"sections"`
	DeletedSections []string          `json:"deletedSections"`
	DeletedLectures []string          `json:"deletedLectures"`
}

type lectureProgressRequest struct {
	Progress  float64 `json:"progress"`
	Completed bool    `json:"completed"`
}

type answerRequest struct {
	QuestionID  string `json:"questionId"`
	AnswerIndex *int   `json:"answerIndex"`
}

func (s *Server) getCurriculum(w http.ResponseWriter, r *http.Request, _ auth.Identity) {
	cur, err := s.curricula.LoadCurriculum(r.Context(), r.PathValue("courseId"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	success(w, cur)
}

func (s *Server) saveCurriculum(w http.ResponseWriter, r *http.Request, identity auth.Identity) {
	var req saveCurriculumRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	if req.Sections == nil {
		req.Sections = []*domain.Section{}
	}
	if err := editor.Validate(req.Sections); err != nil {
		writeError(w, s.logger, err)
		return
	}

	saved, err := s.curricula.SaveCurriculum(r.Context(), identity.ID, domain.CurriculumChange{
		CourseID:        r.PathValue("courseId"),
		Sections:        req.Sections,
		DeletedSections: req.DeletedSections,
		DeletedLectures: req.DeletedLectures,
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	success(w, saved)
}

func (s *Server) saveLectureProgress(w http.ResponseWriter, r *http.Request, identity auth.Identity) {
	var req lectureProgressRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	record, err := s.progress.SaveLectureProgress(r.Context(), progressKey(r, identity), req.Progress, req.Completed)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	success(w, record)
}

func (s *Server) markComplete(w http.ResponseWriter, r *http.Request, identity auth.Identity) {
	record, err := s.progress.MarkComplete(r.Context(), progressKey(r, identity))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	success(w, record)
}

func (s *Server) submitQuizAnswer(w http.ResponseWriter, r *http.Request, identity auth.Identity) {
	var req answerRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	if req.QuestionID == "" || req.AnswerIndex == nil {
		verr := &domain.ValidationError{}
		verr.Add("body", "questionId and answerIndex are required")
		writeError(w, s.logger, verr)
		return
	}
	outcome, err := s.progress.SubmitQuizAnswer(r.Context(), progressKey(r, identity), req.QuestionID, *req.AnswerIndex)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	success(w, outcome)
}

func (s *Server) getQuizProgress(w http.ResponseWriter, r *http.Request, identity auth.Identity) {
	record, err := s.progress.QuizProgress(r.Context(), progressKey(r, identity))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	success(w, record)
}

func (s *Server) getCourseProgress(w http.ResponseWriter, r *http.Request, identity auth.Identity) {
	out, err := s.progress.CourseProgress(r.Context(), identity.ID, r.PathValue("courseId"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	success(w, out)
}

func progressKey(r *http.Request, identity auth.Identity) domain.ProgressKey {
	return domain.ProgressKey{
		UserID:    identity.ID,
		CourseID:  r.PathValue("courseId"),
		LectureID: r.PathValue("lectureId"),
	}
}
