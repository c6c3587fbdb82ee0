package postgres

import (
	"curriculum-service/internal/domain"
	"github.com/uptrace/bun"
)

type courseRow struct {
	bun.BaseModel `bun:"table:courses,alias:c"`

	ID      string `bun:"id,pk"`
	OwnerID string `bun:"owner_id,notnull"`
	Title   string `bun:"title,notnull"`
}

type sectionRow struct {
	bun.BaseModel `bun:"table:sections,alias:s"`

	ID          string `bun:"id,pk"`
	CourseID    string `bun:"course_id,notnull"`
	Title       string `bun:"title,notnull"`
	Description string `bun:"description,notnull"`
	Position    int    `bun:"position,notnull"`
}

type lectureRow struct {
	bun.BaseModel `bun:"table:lectures,alias:l"`

	ID          string `bun:"id,pk"`
	SectionID   string `bun:"section_id,notnull"`
	Title       string `bun:"title,notnull"`
	Description string `bun:"description,notnull"`
	Position    int    `bun:"position,notnull"`
	Type        string `bun:"type,notnull"`
}

type videoRow struct {
	bun.BaseModel `bun:"table:video_lectures,alias:v"`

	LectureID string   `bun:"lecture_id,pk"`
	VideoURL  string   `bun:"video_url,notnull"`
	VideoName string   `bun:"video_name,notnull"`
	Duration  *int     `bun:"duration"`
	Subtitles []string `bun:"subtitles,array"`
}

type quizRow struct {
	bun.BaseModel `bun:"table:quiz_lectures,alias:qz"`

	LectureID    string `bun:"lecture_id,pk"`
	PassingScore *int   `bun:"passing_score"`
}

type questionRow struct {
	bun.BaseModel `bun:"table:questions,alias:q"`

	ID           string   `bun:"id,pk"`
	LectureID    string   `bun:"lecture_id,notnull"`
	Position     int      `bun:"position,notnull"`
	Question     string   `bun:"question,notnull"`
	Options      []string `bun:"options,array"`
	CorrectIndex *int     `bun:"correct_index"`
	Explanation  string   `bun:"explanation,notnull"`
}

type exerciseRow struct {
	bun.BaseModel `bun:"table:exercise_lectures,alias:e"`

	LectureID    string  `bun:"lecture_id,pk"`
	Instructions string  `bun:"instructions,notnull"`
	Solution     *string `bun:"solution"`
}

func (r courseRow) domain() domain.Course {
	return domain.Course{ID: r.ID, OwnerID: r.OwnerID, Title: r.Title}
}

func (r videoRow) domain() *domain.VideoLecture {
	return &domain.VideoLecture{
		VideoURL:  r.VideoURL,
		VideoName: r.VideoName,
		Duration:  r.Duration,
		Subtitles: r.Subtitles,
	}
}

func (r questionRow) domain() *domain.Question {
	options := r.Options
	if options == nil {
		options = []string{}
	}
	return &domain.Question{
		ID:           r.ID,
		Question:     r.Question,
		Options:      options,
		CorrectIndex: r.CorrectIndex,
		Explanation:  r.Explanation,
	}
}

func (r exerciseRow) domain() *domain.ExerciseLecture {
	return &domain.ExerciseLecture{Instructions: r.Instructions, Solution: r.Solution}
}
