package editor

import (
	"slices"

	"curriculum-service/internal/domain"
)

// AddQuestion appends an empty question to a QUIZ lecture.
func (e *Editor) AddQuestion(lectureID string) *domain.Question {
	quiz, ok := e.quiz(lectureID)
	if !ok {
		return nil
	}
	q := &domain.Question{ID: e.newID(), Options: []string{}}
	quiz.Questions = append(quiz.Questions, q)
	return q
}

// DeleteQuestion removes a question from a QUIZ lecture.
func (e *Editor) DeleteQuestion(lectureID, questionID string) bool {
	quiz, ok := e.quiz(lectureID)
	if !ok {
		return false
	}
	idx := slices.IndexFunc(quiz.Questions, func(q *domain.Question) bool { return q.ID == questionID })
	if idx < 0 {
		return false
	}
	quiz.Questions = slices.Delete(quiz.Questions, idx, idx+1)
	return true
}

// EditQuestionText replaces the text of a question.
func (e *Editor) EditQuestionText(lectureID, questionID, text string) bool {
	q, ok := e.question(lectureID, questionID)
	if !ok {
		return false
	}
	q.Question = text
	return true
}

// SetExplanation replaces the explanation shown after answering.
func (e *Editor) SetExplanation(lectureID, questionID, text string) bool {
	q, ok := e.question(lectureID, questionID)
	if !ok {
		return false
	}
	q.Explanation = text
	return true
}

// AddOption appends an option to a question.
func (e *Editor) AddOption(lectureID, questionID, text string) bool {
	q, ok := e.question(lectureID, questionID)
	if !ok {
		return false
	}
	q.Options = append(q.Options, text)
	return true
}

// EditOptionText replaces the text of the option at optionIndex.
func (e *Editor) EditOptionText(lectureID, questionID string, optionIndex int, text string) bool {
	q, ok := e.question(lectureID, questionID)
	if !ok || optionIndex < 0 || optionIndex >= len(q.Options) {
		return false
	}
	q.Options[optionIndex] = text
	return true
}

// SetCorrectOption marks the option at optionIndex as the only correct one.
func (e *Editor) SetCorrectOption(lectureID, questionID string, optionIndex int) bool {
	q, ok := e.question(lectureID, questionID)
	if !ok || optionIndex < 0 || optionIndex >= len(q.Options) {
		return false
	}
	q.CorrectIndex = domain.IntPtr(optionIndex)
	return true
}

// DeleteOption removes the option at optionIndex. A correct index after the
// removed option shifts down with it; removing the correct option itself
// clears the selection so the author has to pick again.
func (e *Editor) DeleteOption(lectureID, questionID string, optionIndex int) bool {
	q, ok := e.question(lectureID, questionID)
	if !ok || optionIndex < 0 || optionIndex >= len(q.Options) {
		return false
	}
	q.Options = slices.Delete(q.Options, optionIndex, optionIndex+1)
	if q.CorrectIndex != nil {
		switch correct := *q.CorrectIndex; {
		case correct == optionIndex:
			q.CorrectIndex = nil
		case correct > optionIndex:
			q.CorrectIndex = domain.IntPtr(correct - 1)
		}
	}
	return true
}

func (e *Editor) quiz(lectureID string) (*domain.QuizLecture, bool) {
	l, ok := e.Lecture(lectureID)
	if !ok || l.Type != domain.LectureQuiz {
		return nil, false
	}
	quiz, ok := l.Quiz()
	if !ok {
		quiz = &domain.QuizLecture{Questions: []*domain.Question{}}
		l.Content = quiz
	}
	return quiz, true
}

func (e *Editor) question(lectureID, questionID string) (*domain.Question, bool) {
	quiz, ok := e.quiz(lectureID)
	if !ok {
		return nil, false
	}
	for _, q := range quiz.Questions {
		if q.ID == questionID {
			return q, true
		}
	}
	return nil, false
}
