package editor

import (
	"fmt"
	"strings"

	"curriculum-service/internal/domain"
)

// Validate checks a section tree before it is saved and returns a
// *domain.ValidationError listing every problem, or nil.
func Validate(sections []*domain.Section) error {
	verr := &domain.ValidationError{}
	seen := make(map[string]string)
	claim := func(path, id string) {
		if id == "" {
			verr.Add(path, "id is required")
			return
		}
		if prev, ok := seen[id]; ok {
			verr.Add(path, "id %q already used by %s", id, prev)
			return
		}
		seen[id] = path
	}

	for i, s := range sections {
		path := fmt.Sprintf("sections[%d]", i)
		claim(path, s.ID)
		if strings.TrimSpace(s.Title) == "" {
			verr.Add(path+".title", "title is required")
		}
		for j, l := range s.Lectures {
			validateLecture(verr, claim, fmt.Sprintf("%s.lectures[%d]", path, j), l)
		}
	}
	return verr.OrNil()
}

func validateLecture(verr *domain.ValidationError, claim func(path, id string), path string, l *domain.Lecture) {
	claim(path, l.ID)
	if strings.TrimSpace(l.Title) == "" {
		verr.Add(path+".title", "title is required")
	}
	if !l.Type.Valid() {
		verr.Add(path+".type", "unknown lecture type %q", l.Type)
		return
	}
	if l.Content != nil && l.Content.LectureType() != l.Type {
		verr.Add(path, "%s content on %s lecture", l.Content.LectureType(), l.Type)
		return
	}

	switch c := l.Content.(type) {
	case *domain.VideoLecture:
		if c.Duration != nil && *c.Duration < 0 {
			verr.Add(path+".video.duration", "duration must not be negative")
		}
	case *domain.QuizLecture:
		if c.PassingScore != nil && (*c.PassingScore < 0 || *c.PassingScore > 100) {
			verr.Add(path+".quiz.passingScore", "passing score must be between 0 and 100")
		}
		for k, q := range c.Questions {
			validateQuestion(verr, fmt.Sprintf("%s.quiz.questions[%d]", path, k), q)
		}
	case nil:
		if l.Type != domain.LectureVideo {
			verr.Add(path, "%s lecture has no content", l.Type)
		}
	}
}

func validateQuestion(verr *domain.ValidationError, path string, q *domain.Question) {
	if strings.TrimSpace(q.Question) == "" {
		verr.Add(path+".question", "question text is required")
	}
	if len(q.Options) < 2 {
		verr.Add(path+".options", "at least two options are required")
	}
	switch {
	case q.CorrectIndex == nil:
		verr.Add(path+".correctIndex", "a correct option must be selected")
	case *q.CorrectIndex < 0 || *q.CorrectIndex >= len(q.Options):
		verr.Add(path+".correctIndex", "correct index %d does not reference an option", *q.CorrectIndex)
	}
}
