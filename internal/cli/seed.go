package cli

import (
	"context"

	"curriculum-service/internal/domain"
	"curriculum-service/internal/infra/memory"
)

// seedDemoCourse fills the in-memory store so a fresh server has something
// to edit; the catalog owns courses in a real deployment.
func seedDemoCourse(ctx context.Context, store *memory.CurriculumStore) error {
	store.PutCourse(domain.Course{ID: "course-demo", OwnerID: "teacher-demo", Title: "Getting started with Go"})
	return store.Reconcile(ctx, domain.CurriculumChange{
		CourseID: "course-demo",
		Sections: []*domain.Section{
			{
				ID:    "section-basics",
				Title: "Basics",
				Order: 0,
				Lectures: []*domain.Lecture{
					{
						ID: "lecture-intro", Title: "Welcome", Order: 0, Type: domain.LectureVideo,
						Content: &domain.VideoLecture{
							VideoURL:  "https://cdn.example.com/welcome.mp4",
							VideoName: "welcome.mp4",
							Duration:  domain.IntPtr(180),
						},
					},
					{
						ID: "lecture-check", Title: "Quick check", Order: 1, Type: domain.LectureQuiz,
						Content: &domain.QuizLecture{
							PassingScore: domain.IntPtr(50),
							Questions: []*domain.Question{
								{Question: "Which keyword starts a goroutine?", Options: []string{"go", "async", "spawn"}, CorrectIndex: domain.IntPtr(0)},
								{Question: "What does len return for a nil slice?", Options: []string{"panic", "0", "-1"}, CorrectIndex: domain.IntPtr(1)},
							},
						},
					},
					{
						ID: "lecture-practice", Title: "Practice", Order: 2, Type: domain.LectureExercise,
						Content: &domain.ExerciseLecture{Instructions: "Write a function that reverses a slice in place."},
					},
				},
			},
		},
	})
}
