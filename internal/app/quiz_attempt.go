package app

import (
	"slices"

	"curriculum-service/internal/domain"
)

// QuizState is the position of a learner in a quiz.
type QuizState int

const (
	// QuizAnswering waits for an answer to the current question.
	QuizAnswering QuizState = iota
	// QuizSubmitted shows the result of the current question; it can no longer change.
	QuizSubmitted
	// QuizCompleted is terminal.
	QuizCompleted
)

func (s QuizState) String() string {
	switch s {
	case QuizAnswering:
		return "ANSWERING"
	case QuizSubmitted:
		return "SUBMITTED"
	case QuizCompleted:
		return "COMPLETED"
	}
	return "UNKNOWN"
}

// AnswerOutcome is reported back to the learner after each submission.
type AnswerOutcome struct {
	QuestionID   string `json:"questionId"`
	AnswerIndex  int    `json:"answerIndex"`
	Correct      bool   `json:"correct"`
	CorrectIndex int    `json:"correctIndex"`
	Explanation  string `json:"explanation,omitempty"`
	Score        int    `json:"score"`
	Answered     int    `json:"answered"`
	Total        int    `json:"total"`
	Completed    bool   `json:"completed"`
	Passed       *bool  `json:"passed,omitempty"`
}

// QuizAttempt walks one learner through a quiz question by question:
// ANSWERING(i) -> SUBMITTED(i) -> ANSWERING(i+1), or COMPLETED after the last.
type QuizAttempt struct {
	quiz     *domain.QuizLecture
	progress domain.QuizProgress
	state    QuizState
	current  int
}

// ResumeQuizAttempt continues from a stored record; the next question to
// answer is the first one without an answer.
func ResumeQuizAttempt(quiz *domain.QuizLecture, progress domain.QuizProgress) *QuizAttempt {
	a := &QuizAttempt{
		quiz:     quiz,
		progress: progress,
		current:  len(progress.Answers),
	}
	a.progress.Answers = slices.Clone(progress.Answers)
	if progress.Completed {
		a.state = QuizCompleted
	}
	return a
}

func (a *QuizAttempt) State() QuizState { return a.state }

// Current returns the index of the question being answered or shown.
func (a *QuizAttempt) Current() int { return a.current }

// Progress returns the record to persist.
func (a *QuizAttempt) Progress() domain.QuizProgress {
	p := a.progress
	p.Answers = slices.Clone(a.progress.Answers)
	return p
}

// Submit records the answer to the current question. Answering the last
// question completes the attempt and fixes the score.
func (a *QuizAttempt) Submit(questionID string, answerIndex int) (AnswerOutcome, error) {
	switch a.state {
	case QuizCompleted:
		return AnswerOutcome{}, domain.ErrQuizCompleted
	case QuizSubmitted:
		return AnswerOutcome{}, domain.ErrQuestionOutOfOrder
	}

	idx := slices.IndexFunc(a.quiz.Questions, func(q *domain.Question) bool { return q.ID == questionID })
	if idx < 0 {
		return AnswerOutcome{}, &domain.NotFoundError{Kind: "question", ID: questionID}
	}
	if idx != a.current {
		return AnswerOutcome{}, domain.ErrQuestionOutOfOrder
	}
	q := a.quiz.Questions[idx]
	if answerIndex < 0 || answerIndex >= len(q.Options) {
		return AnswerOutcome{}, domain.ErrInvalidAnswer
	}

	correct := q.IsCorrect(answerIndex)
	a.progress.Answers = append(a.progress.Answers, domain.QuizAnswer{
		QuestionID:  q.ID,
		AnswerIndex: answerIndex,
		IsCorrect:   correct,
	})
	a.progress.Score = countCorrect(a.progress.Answers)
	if len(a.progress.Answers) == len(a.quiz.Questions) {
		a.progress.Completed = true
	}
	a.state = QuizSubmitted

	outcome := AnswerOutcome{
		QuestionID:   q.ID,
		AnswerIndex:  answerIndex,
		Correct:      correct,
		CorrectIndex: -1,
		Explanation:  q.Explanation,
		Score:        a.progress.Score,
		Answered:     len(a.progress.Answers),
		Total:        len(a.quiz.Questions),
		Completed:    a.progress.Completed,
	}
	if q.CorrectIndex != nil {
		outcome.CorrectIndex = *q.CorrectIndex
	}
	if outcome.Completed && a.quiz.PassingScore != nil {
		passed := outcome.Score*100 >= *a.quiz.PassingScore*outcome.Total
		outcome.Passed = &passed
	}
	return outcome, nil
}

// Advance leaves the SUBMITTED state for the next question or completion.
func (a *QuizAttempt) Advance() QuizState {
	if a.state != QuizSubmitted {
		return a.state
	}
	if a.progress.Completed {
		a.state = QuizCompleted
		return a.state
	}
	a.current++
	a.state = QuizAnswering
	return a.state
}

func countCorrect(answers []domain.QuizAnswer) int {
	n := 0
	for _, ans := range answers {
		if ans.IsCorrect {
			n++
		}
	}
	return n
}
