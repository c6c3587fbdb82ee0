package app_test

import (
	"errors"
	"testing"

	"curriculum-service/internal/app"
	"curriculum-service/internal/domain"
)

func twoQuestionQuiz() *domain.QuizLecture {
	return &domain.QuizLecture{
		Questions: []*domain.Question{
			{ID: "q1", Question: "first", Options: []string{"a", "b"}, CorrectIndex: domain.IntPtr(1), Explanation: "b it is"},
			{ID: "q2", Question: "second", Options: []string{"a", "b"}, CorrectIndex: domain.IntPtr(0)},
		},
	}
}

func TestQuizAttemptStateMachine(t *testing.T) {
	a := app.ResumeQuizAttempt(twoQuestionQuiz(), domain.QuizProgress{})
	if a.State() != app.QuizAnswering || a.Current() != 0 {
		t.Fatalf("unexpected start %s/%d", a.State(), a.Current())
	}

	outcome, err := a.Submit("q1", 1)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !outcome.Correct || outcome.CorrectIndex != 1 || outcome.Explanation != "b it is" || outcome.Completed {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if a.State() != app.QuizSubmitted {
		t.Fatalf("expected SUBMITTED, got %s", a.State())
	}
	if _, err := a.Submit("q2", 0); !errors.Is(err, domain.ErrQuestionOutOfOrder) {
		t.Fatalf("expected submitted question to block, got %v", err)
	}

	if a.Advance() != app.QuizAnswering || a.Current() != 1 {
		t.Fatalf("expected to advance to question 2")
	}
	outcome, err = a.Submit("q2", 1)
	if err != nil {
		t.Fatalf("submit 2: %v", err)
	}
	if outcome.Correct || !outcome.Completed || outcome.Score != 1 || outcome.Passed != nil {
		t.Fatalf("unexpected final outcome %+v", outcome)
	}
	if a.Advance() != app.QuizCompleted {
		t.Fatalf("expected COMPLETED, got %s", a.State())
	}
	if _, err := a.Submit("q1", 1); !errors.Is(err, domain.ErrQuizCompleted) {
		t.Fatalf("expected completed quiz to reject answers, got %v", err)
	}

	p := a.Progress()
	if !p.Completed || p.Score != 1 || len(p.Answers) != 2 {
		t.Fatalf("unexpected progress %+v", p)
	}
}

func TestQuizAttemptResume(t *testing.T) {
	stored := domain.QuizProgress{
		Answers: []domain.QuizAnswer{{QuestionID: "q1", AnswerIndex: 1, IsCorrect: true}},
		Score:   1,
	}
	a := app.ResumeQuizAttempt(twoQuestionQuiz(), stored)
	if a.Current() != 1 || a.State() != app.QuizAnswering {
		t.Fatalf("expected to resume at question 2, got %d/%s", a.Current(), a.State())
	}
	if _, err := a.Submit("q2", 0); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(stored.Answers) != 1 {
		t.Fatalf("resume aliased the stored answers")
	}

	done := app.ResumeQuizAttempt(twoQuestionQuiz(), domain.QuizProgress{Completed: true})
	if done.State() != app.QuizCompleted {
		t.Fatalf("expected completed attempt, got %s", done.State())
	}
}

func TestQuizAttemptPassingScore(t *testing.T) {
	quiz := twoQuestionQuiz()
	quiz.PassingScore = domain.IntPtr(100)
	a := app.ResumeQuizAttempt(quiz, domain.QuizProgress{})
	a.Submit("q1", 1)
	a.Advance()
	outcome, err := a.Submit("q2", 1)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if outcome.Passed == nil || *outcome.Passed {
		t.Fatalf("expected 1/2 to fail a 100%% threshold, got %v", outcome.Passed)
	}
}
