package editor

import (
	"testing"

	"curriculum-service/internal/domain"
)

func newQuizEditor(t *testing.T) (*Editor, *domain.Lecture, *domain.Question) {
	t.Helper()
	e := newTestEditor()
	s := e.AddSection()
	l := e.AddLecture(s.ID, domain.LectureQuiz)
	q := e.AddQuestion(l.ID)
	if q == nil {
		t.Fatalf("add question failed")
	}
	return e, l, q
}

func TestAddQuestionStartsEmpty(t *testing.T) {
	_, _, q := newQuizEditor(t)
	if q.ID == "" || q.Question != "" || len(q.Options) != 0 || q.CorrectIndex != nil {
		t.Fatalf("unexpected new question %+v", q)
	}
}

func TestAddQuestionRequiresQuizLecture(t *testing.T) {
	e := newTestEditor()
	s := e.AddSection()
	l := e.AddLecture(s.ID, domain.LectureExercise)
	if e.AddQuestion(l.ID) != nil {
		t.Fatalf("expected no question on exercise lecture")
	}
}

func TestSetCorrectOptionIsExclusive(t *testing.T) {
	e, l, q := newQuizEditor(t)
	e.AddOption(l.ID, q.ID, "A")
	e.AddOption(l.ID, q.ID, "B")
	e.AddOption(l.ID, q.ID, "C")

	e.SetCorrectOption(l.ID, q.ID, 0)
	e.SetCorrectOption(l.ID, q.ID, 2)
	if !q.IsCorrect(2) || q.IsCorrect(0) {
		t.Fatalf("expected only option 2 correct, got %v", *q.CorrectIndex)
	}
	if e.SetCorrectOption(l.ID, q.ID, 3) {
		t.Fatalf("expected out of range index refused")
	}
}

func TestDeleteOptionAdjustsCorrectIndex(t *testing.T) {
	tests := []struct {
		name        string
		correct     int
		deleteIndex int
		want        *int
	}{
		{"before correct shifts down", 1, 0, domain.IntPtr(0)},
		{"at correct clears", 1, 1, nil},
		{"after correct unchanged", 0, 1, domain.IntPtr(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, l, q := newQuizEditor(t)
			e.AddOption(l.ID, q.ID, "A")
			e.AddOption(l.ID, q.ID, "B")
			e.SetCorrectOption(l.ID, q.ID, tt.correct)

			if !e.DeleteOption(l.ID, q.ID, tt.deleteIndex) {
				t.Fatalf("delete option failed")
			}
			switch {
			case tt.want == nil && q.CorrectIndex != nil:
				t.Fatalf("expected correct index cleared, got %d", *q.CorrectIndex)
			case tt.want != nil && (q.CorrectIndex == nil || *q.CorrectIndex != *tt.want):
				t.Fatalf("expected correct index %d, got %v", *tt.want, q.CorrectIndex)
			}
		})
	}
}

func TestDeletingCorrectOptionPointsAtSameText(t *testing.T) {
	e, l, q := newQuizEditor(t)
	e.AddOption(l.ID, q.ID, "A")
	e.AddOption(l.ID, q.ID, "B")
	e.SetCorrectOption(l.ID, q.ID, 1)
	e.DeleteOption(l.ID, q.ID, 0)

	if q.Options[*q.CorrectIndex] != "B" {
		t.Fatalf("correct option moved to %q", q.Options[*q.CorrectIndex])
	}
}

func TestEditQuestionAndOptionText(t *testing.T) {
	e, l, q := newQuizEditor(t)
	e.AddOption(l.ID, q.ID, "A")
	if !e.EditQuestionText(l.ID, q.ID, "Pick one") || !e.EditOptionText(l.ID, q.ID, 0, "Alpha") {
		t.Fatalf("edit failed")
	}
	if q.Question != "Pick one" || q.Options[0] != "Alpha" {
		t.Fatalf("unexpected question %+v", q)
	}
	if e.EditOptionText(l.ID, q.ID, 5, "x") {
		t.Fatalf("expected out of range edit refused")
	}
	if !e.SetExplanation(l.ID, q.ID, "because") || q.Explanation != "because" {
		t.Fatalf("set explanation failed")
	}
	if !e.DeleteQuestion(l.ID, q.ID) {
		t.Fatalf("delete question failed")
	}
	quiz, _ := l.Quiz()
	if len(quiz.Questions) != 0 {
		t.Fatalf("expected no questions left")
	}
}
