package app_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"curriculum-service/internal/app"
	"curriculum-service/internal/domain"
	"curriculum-service/internal/infra/memory"
	"curriculum-service/internal/metrics"
	"go.uber.org/zap"
)

type fixture struct {
	store     *memory.CurriculumStore
	progress  *memory.ProgressStore
	curricula *app.CurriculumService
	service   *app.ProgressService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewCurriculumStore(memory.WithQuestionIDs(sequence("q")))
	store.PutCourse(domain.Course{ID: "course-1", OwnerID: "teacher-1", Title: "Go"})
	if err := store.Reconcile(context.Background(), domain.CurriculumChange{CourseID: "course-1", Sections: sampleSections()}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	logger := zap.NewNop()
	m := metrics.New()
	cache := memory.NewCurriculumCache(store, time.Minute)
	progress := memory.NewProgressStore()
	return &fixture{
		store:     store,
		progress:  progress,
		curricula: app.NewCurriculumService(store, cache, logger, m),
		service:   app.NewProgressService(progress, cache, logger, m),
	}
}

// sampleSections holds a video, a five-question quiz and an exercise in the
// first section and seven videos in the second, ten lectures in total.
func sampleSections() []*domain.Section {
	quiz := &domain.QuizLecture{PassingScore: domain.IntPtr(60), Questions: []*domain.Question{}}
	for i := 0; i < 5; i++ {
		quiz.Questions = append(quiz.Questions, &domain.Question{
			Question:     fmt.Sprintf("question %d", i+1),
			Options:      []string{"a", "b", "c"},
			CorrectIndex: domain.IntPtr(i % 3),
			Explanation:  "because",
		})
	}
	basics := &domain.Section{
		ID: "s1", Title: "Basics", Order: 0,
		Lectures: []*domain.Lecture{
			{ID: "video", Title: "Intro", Order: 0, Type: domain.LectureVideo,
				Content: &domain.VideoLecture{VideoURL: "https://cdn/intro.mp4", Duration: domain.IntPtr(180)}},
			{ID: "quiz", Title: "Check", Order: 1, Type: domain.LectureQuiz, Content: quiz},
			{ID: "exercise", Title: "Practice", Order: 2, Type: domain.LectureExercise,
				Content: &domain.ExerciseLecture{Instructions: "write a loop"}},
		},
	}
	more := &domain.Section{ID: "s2", Title: "More", Order: 1}
	for i := 0; i < 7; i++ {
		more.Lectures = append(more.Lectures, &domain.Lecture{
			ID: fmt.Sprintf("extra-%d", i), Title: fmt.Sprintf("Extra %d", i), Order: i, Type: domain.LectureVideo,
		})
	}
	return []*domain.Section{basics, more}
}

func sequence(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func key(lectureID string) domain.ProgressKey {
	return domain.ProgressKey{UserID: "student-1", CourseID: "course-1", LectureID: lectureID}
}
