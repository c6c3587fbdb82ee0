package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"curriculum-service/internal/domain"
)

func seededStore(t *testing.T) *CurriculumStore {
	t.Helper()
	store := NewCurriculumStore(WithQuestionIDs(sequence("q")))
	store.PutCourse(domain.Course{ID: "course-1", OwnerID: "teacher-1", Title: "Go"})
	store.PutCourse(domain.Course{ID: "course-2", OwnerID: "teacher-2", Title: "Rust"})
	err := store.Reconcile(context.Background(), domain.CurriculumChange{
		CourseID: "course-1",
		Sections: sampleSections(),
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return store
}

func sampleSections() []*domain.Section {
	return []*domain.Section{
		{
			ID:    "s1",
			Title: "Basics",
			Order: 0,
			Lectures: []*domain.Lecture{
				{
					ID: "l1", Title: "Intro", Order: 0, Type: domain.LectureVideo,
					Content: &domain.VideoLecture{VideoURL: "https://cdn/intro.mp4", Duration: domain.IntPtr(180)},
				},
				{
					ID: "l2", Title: "Check", Order: 1, Type: domain.LectureQuiz,
					Content: &domain.QuizLecture{
						PassingScore: domain.IntPtr(50),
						Questions: []*domain.Question{
							{ID: "tmp-1", Question: "2+2?", Options: []string{"3", "4"}, CorrectIndex: domain.IntPtr(1)},
						},
					},
				},
				{
					ID: "l3", Title: "Practice", Order: 2, Type: domain.LectureExercise,
					Content: &domain.ExerciseLecture{Instructions: "write a loop"},
				},
			},
		},
		{ID: "s2", Title: "Advanced", Order: 1, Lectures: []*domain.Lecture{}},
	}
}

func sequence(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func TestCurriculumStoreRoundTrip(t *testing.T) {
	store := seededStore(t)

	cur, err := store.LoadCurriculum(context.Background(), "course-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cur.Sections) != 2 || cur.Sections[0].ID != "s1" || cur.Sections[1].ID != "s2" {
		t.Fatalf("unexpected sections: %+v", cur.Sections)
	}
	if got := cur.LectureCount(); got != 3 {
		t.Fatalf("expected 3 lectures, got %d", got)
	}

	video, ok := cur.Sections[0].Lectures[0].Video()
	if !ok || video.VideoURL != "https://cdn/intro.mp4" || *video.Duration != 180 {
		t.Fatalf("unexpected video: %+v", video)
	}
	quiz, ok := cur.Sections[0].Lectures[1].Quiz()
	if !ok || len(quiz.Questions) != 1 || *quiz.PassingScore != 50 {
		t.Fatalf("unexpected quiz: %+v", quiz)
	}
	if quiz.Questions[0].ID != "q-1" {
		t.Fatalf("expected regenerated question id, got %q", quiz.Questions[0].ID)
	}
	ex, ok := cur.Sections[0].Lectures[2].Exercise()
	if !ok || ex.Instructions != "write a loop" {
		t.Fatalf("unexpected exercise: %+v", ex)
	}
}

func TestCurriculumStoreDeleteLecture(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()

	cur, _ := store.LoadCurriculum(ctx, "course-1")
	s1 := cur.Sections[0]
	s1.Lectures = []*domain.Lecture{s1.Lectures[0], s1.Lectures[2]}
	s1.Lectures[1].Order = 1

	err := store.Reconcile(ctx, domain.CurriculumChange{
		CourseID:        "course-1",
		Sections:        cur.Sections,
		DeletedLectures: []string{"l2"},
	})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	reloaded, _ := store.LoadCurriculum(ctx, "course-1")
	lectures := reloaded.Sections[0].Lectures
	if len(lectures) != 2 || lectures[0].ID != "l1" || lectures[1].ID != "l3" {
		t.Fatalf("unexpected lectures: %+v", lectures)
	}
	for i, l := range lectures {
		if l.Order != i {
			t.Fatalf("lecture %s has order %d, want %d", l.ID, l.Order, i)
		}
	}
	if _, ok := store.tables.quizzes["l2"]; ok {
		t.Fatalf("quiz row of deleted lecture survived")
	}
	if _, ok := store.tables.questions["l2"]; ok {
		t.Fatalf("questions of deleted lecture survived")
	}
}

func TestCurriculumStoreDeleteSectionCascades(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()

	err := store.Reconcile(ctx, domain.CurriculumChange{
		CourseID:        "course-1",
		Sections:        []*domain.Section{{ID: "s2", Title: "Advanced", Order: 0}},
		DeletedSections: []string{"s1"},
	})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	cur, _ := store.LoadCurriculum(ctx, "course-1")
	if len(cur.Sections) != 1 || cur.Sections[0].ID != "s2" {
		t.Fatalf("unexpected sections: %+v", cur.Sections)
	}
	if len(store.tables.lectures) != 0 || len(store.tables.videos) != 0 || len(store.tables.exercises) != 0 {
		t.Fatalf("lecture rows survived the section delete")
	}
}

func TestCurriculumStoreTypeChangeDropsStaleVariant(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()

	cur, _ := store.LoadCurriculum(ctx, "course-1")
	l := cur.Sections[0].Lectures[0]
	l.Type = domain.LectureExercise
	l.Content = &domain.ExerciseLecture{Instructions: "now an exercise"}

	if err := store.Reconcile(ctx, domain.CurriculumChange{CourseID: "course-1", Sections: cur.Sections}); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if _, ok := store.tables.videos["l1"]; ok {
		t.Fatalf("video row survived the type change")
	}
	reloaded, _ := store.LoadCurriculum(ctx, "course-1")
	ex, ok := reloaded.Sections[0].Lectures[0].Exercise()
	if !ok || ex.Instructions != "now an exercise" {
		t.Fatalf("unexpected content: %+v", reloaded.Sections[0].Lectures[0].Content)
	}
}

func TestCurriculumStoreRegeneratesQuestionIDs(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()

	cur, _ := store.LoadCurriculum(ctx, "course-1")
	if err := store.Reconcile(ctx, domain.CurriculumChange{CourseID: "course-1", Sections: cur.Sections}); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	reloaded, _ := store.LoadCurriculum(ctx, "course-1")
	quiz, _ := reloaded.Sections[0].Lectures[1].Quiz()
	if len(quiz.Questions) != 1 || quiz.Questions[0].ID != "q-2" {
		t.Fatalf("expected questions to be replaced, got %+v", quiz.Questions)
	}
}

func TestCurriculumStoreRejectsForeignIDsAtomically(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()

	cur, _ := store.LoadCurriculum(ctx, "course-1")
	cur.Sections[1].Title = "Renamed"

	// a section of course-1 smuggled into course-2 fails the whole change
	err := store.Reconcile(ctx, domain.CurriculumChange{
		CourseID: "course-2",
		Sections: []*domain.Section{{ID: "fresh", Title: "New", Order: 0}, cur.Sections[0]},
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	other, _ := store.LoadCurriculum(ctx, "course-2")
	if len(other.Sections) != 0 {
		t.Fatalf("partial write leaked into course-2: %+v", other.Sections)
	}

	// deletes aimed at another course are ignored
	err = store.Reconcile(ctx, domain.CurriculumChange{CourseID: "course-2", DeletedSections: []string{"s1"}})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if mine, _ := store.LoadCurriculum(ctx, "course-1"); len(mine.Sections) != 2 {
		t.Fatalf("foreign delete removed sections: %+v", mine.Sections)
	}
}

func TestCurriculumStoreDoesNotAliasInput(t *testing.T) {
	store := NewCurriculumStore()
	store.PutCourse(domain.Course{ID: "course-1", OwnerID: "teacher-1"})
	sections := sampleSections()
	if err := store.Reconcile(context.Background(), domain.CurriculumChange{CourseID: "course-1", Sections: sections}); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	quiz, _ := sections[0].Lectures[1].Quiz()
	*quiz.PassingScore = 90
	quiz.Questions[0].Options[0] = "mutated"

	cur, _ := store.LoadCurriculum(context.Background(), "course-1")
	stored, _ := cur.Sections[0].Lectures[1].Quiz()
	if *stored.PassingScore != 50 || stored.Questions[0].Options[0] != "3" {
		t.Fatalf("store aliases caller memory: %+v", stored)
	}
}

func TestCurriculumStoreUnknownCourse(t *testing.T) {
	store := NewCurriculumStore()
	err := store.Reconcile(context.Background(), domain.CurriculumChange{CourseID: "nope"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := store.GetCourse(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
