package app_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"curriculum-service/internal/app"
	"curriculum-service/internal/domain"
)

func TestQuizScoring(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// questions 1..5 have correct options 0,1,2,0,1
	answers := []struct {
		index   int
		correct bool
	}{
		{0, true},
		{1, true},
		{0, false},
		{0, true},
		{2, false},
	}
	var outcome app.AnswerOutcome
	for i, a := range answers {
		var err error
		outcome, err = f.service.SubmitQuizAnswer(ctx, key("quiz"), questionID(i), a.index)
		if err != nil {
			t.Fatalf("answer %d: %v", i, err)
		}
		if outcome.Correct != a.correct {
			t.Fatalf("answer %d: correct=%v, want %v", i, outcome.Correct, a.correct)
		}
		if outcome.Completed != (i == len(answers)-1) {
			t.Fatalf("answer %d: completed=%v", i, outcome.Completed)
		}
	}
	if outcome.Score != 3 || outcome.Total != 5 {
		t.Fatalf("expected score 3/5, got %d/%d", outcome.Score, outcome.Total)
	}
	if outcome.Passed == nil || !*outcome.Passed {
		t.Fatalf("expected 3/5 to pass a 60%% threshold, got %v", outcome.Passed)
	}

	record, err := f.service.QuizProgress(ctx, key("quiz"))
	if err != nil {
		t.Fatalf("quiz progress: %v", err)
	}
	if !record.Completed || record.Score != 3 || len(record.Answers) != 5 {
		t.Fatalf("unexpected record %+v", record)
	}
	lp, found, _ := f.progress.GetLectureProgress(ctx, key("quiz"))
	if !found || !lp.Completed || lp.Progress != 100 {
		t.Fatalf("quiz completion not reflected in lecture progress: %+v", lp)
	}

	_, err = f.service.SubmitQuizAnswer(ctx, key("quiz"), questionID(0), 0)
	if !errors.Is(err, domain.ErrQuizCompleted) {
		t.Fatalf("expected completed quiz to reject answers, got %v", err)
	}
}

func TestQuizAnswerErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name     string
		lecture  string
		question string
		index    int
		want     error
	}{
		{"ahead of turn", "quiz", questionID(1), 0, domain.ErrQuestionOutOfOrder},
		{"unknown question", "quiz", "q-99", 0, domain.ErrNotFound},
		{"answer out of range", "quiz", questionID(0), 3, domain.ErrInvalidAnswer},
		{"negative answer", "quiz", questionID(0), -1, domain.ErrInvalidAnswer},
		{"not a quiz", "video", questionID(0), 0, domain.ErrNotQuizLecture},
		{"unknown lecture", "missing", questionID(0), 0, domain.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.service.SubmitQuizAnswer(ctx, key(tc.lecture), tc.question, tc.index)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	if _, err := f.service.SubmitQuizAnswer(ctx, key("quiz"), questionID(0), 0); err != nil {
		t.Fatalf("first answer: %v", err)
	}
	if _, err := f.service.SubmitQuizAnswer(ctx, key("quiz"), questionID(0), 1); !errors.Is(err, domain.ErrQuestionOutOfOrder) {
		t.Fatalf("expected repeated answer to be rejected, got %v", err)
	}
}

func TestSaveQuizProgressGradesServerSide(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	record, err := f.service.SaveQuizProgress(ctx, key("quiz"), []domain.QuizAnswer{
		{QuestionID: questionID(0), AnswerIndex: 1, IsCorrect: true},
		{QuestionID: questionID(1), AnswerIndex: 1},
	}, false)
	if err != nil {
		t.Fatalf("save quiz progress: %v", err)
	}
	if record.Score != 1 || record.Answers[0].IsCorrect || !record.Answers[1].IsCorrect || record.Completed {
		t.Fatalf("unexpected graded record %+v", record)
	}

	_, err = f.service.SaveQuizProgress(ctx, key("quiz"), []domain.QuizAnswer{{QuestionID: questionID(2), AnswerIndex: 0}}, false)
	if !errors.Is(err, domain.ErrQuestionOutOfOrder) {
		t.Fatalf("expected out of order, got %v", err)
	}
}

func TestVideoProgressPercent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.service.RecordVideoProgress(ctx, key("video"), 45, 180)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if math.Abs(p.Progress-25) > 1e-9 || p.Completed {
		t.Fatalf("expected 25%%, got %+v", p)
	}

	p, err = f.service.RecordVideoProgress(ctx, key("video"), 200, 180)
	if err != nil {
		t.Fatalf("record past end: %v", err)
	}
	if p.Progress != 100 || !p.Completed {
		t.Fatalf("expected clamp to 100, got %+v", p)
	}

	if _, err := f.service.RecordVideoProgress(ctx, key("video"), 10, 0); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for zero duration, got %v", err)
	}
}

func TestCompletionIsSticky(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.service.VideoEnded(ctx, key("video")); err != nil {
		t.Fatalf("ended: %v", err)
	}
	p, err := f.service.SaveLectureProgress(ctx, key("video"), 10, false)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !p.Completed || p.Progress != 100 {
		t.Fatalf("completion was lowered: %+v", p)
	}
}

func TestSaveLectureProgressValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, v := range []float64{-1, 100.5, math.NaN()} {
		if _, err := f.service.SaveLectureProgress(ctx, key("video"), v, false); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("progress %v: expected validation error, got %v", v, err)
		}
	}
	p, err := f.service.SaveLectureProgress(ctx, key("exercise"), 30, true)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if p.Progress != 100 {
		t.Fatalf("completed record must be at 100, got %v", p.Progress)
	}
	if _, err := f.service.MarkComplete(ctx, key("missing")); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCourseProgress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	empty, err := f.service.CourseProgress(ctx, "student-1", "course-1")
	if err != nil {
		t.Fatalf("course progress: %v", err)
	}
	if empty.Percent != 0 || empty.Total != 10 {
		t.Fatalf("unexpected empty progress %+v", empty)
	}

	for _, id := range []string{"video", "exercise", "extra-0", "extra-1"} {
		if _, err := f.service.MarkComplete(ctx, key(id)); err != nil {
			t.Fatalf("complete %s: %v", id, err)
		}
	}
	if _, err := f.service.SaveLectureProgress(ctx, key("extra-2"), 90, false); err != nil {
		t.Fatalf("partial: %v", err)
	}

	got, err := f.service.CourseProgress(ctx, "student-1", "course-1")
	if err != nil {
		t.Fatalf("course progress: %v", err)
	}
	if got.Completed != 4 || got.Total != 10 || math.Abs(got.Percent-40) > 1e-9 {
		t.Fatalf("expected 40%%, got %+v", got)
	}

	other, _ := f.service.CourseProgress(ctx, "student-2", "course-1")
	if other.Completed != 0 {
		t.Fatalf("progress leaked across users: %+v", other)
	}
}

func TestCourseProgressIgnoresDeletedLectures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, id := range []string{"extra-0", "extra-1"} {
		if _, err := f.service.MarkComplete(ctx, key(id)); err != nil {
			t.Fatalf("complete %s: %v", id, err)
		}
	}
	cur, _ := f.curricula.LoadCurriculum(ctx, "course-1")
	cur.Sections[1].Lectures = cur.Sections[1].Lectures[1:]
	for i, l := range cur.Sections[1].Lectures {
		l.Order = i
	}
	_, err := f.curricula.SaveCurriculum(ctx, "teacher-1", domain.CurriculumChange{
		CourseID:        "course-1",
		Sections:        cur.Sections,
		DeletedLectures: []string{"extra-0"},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	got, _ := f.service.CourseProgress(ctx, "student-1", "course-1")
	if got.Completed != 1 || got.Total != 9 {
		t.Fatalf("expected 1/9 after delete, got %+v", got)
	}
}

// questionID returns the id the store assigned to the i-th seeded question.
func questionID(i int) string {
	return []string{"q-1", "q-2", "q-3", "q-4", "q-5"}[i]
}
