package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// LectureType is the discriminant selecting a lecture's content variant.
type LectureType string

const (
	LectureVideo    LectureType = "VIDEO"
	LectureQuiz     LectureType = "QUIZ"
	LectureExercise LectureType = "EXERCISE"
)

// Valid reports whether t is one of the known lecture types.
func (t LectureType) Valid() bool {
	switch t {
	case LectureVideo, LectureQuiz, LectureExercise:
		return true
	}
	return false
}

// Course is the slice of catalog data this service needs.
type Course struct {
	ID      string `json:"id"`
	OwnerID string `json:"ownerId"`
	Title   string `json:"title"`
}

// Section groups lectures within a course.
type Section struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Order       int        `json:"order"`
	Lectures    []*Lecture `json:"lectures"`
}

func (s *Section) ItemID() string     { return s.ID }
func (s *Section) SetOrder(order int) { s.Order = order }

// Lecture is a single content unit. Content is nil only for a VIDEO lecture
// whose video has not been attached yet.
type Lecture struct {
	ID          string
	Title       string
	Description string
	Order       int
	Type        LectureType
	Content     LectureContent
}

func (l *Lecture) ItemID() string     { return l.ID }
func (l *Lecture) SetOrder(order int) { l.Order = order }

// Video returns the video variant if present.
func (l *Lecture) Video() (*VideoLecture, bool) {
	v, ok := l.Content.(*VideoLecture)
	return v, ok
}

// Quiz returns the quiz variant if present.
func (l *Lecture) Quiz() (*QuizLecture, bool) {
	q, ok := l.Content.(*QuizLecture)
	return q, ok
}

// Exercise returns the exercise variant if present.
func (l *Lecture) Exercise() (*ExerciseLecture, bool) {
	e, ok := l.Content.(*ExerciseLecture)
	return e, ok
}

// LectureContent is implemented only by the three variant types of this package.
type LectureContent interface {
	LectureType() LectureType
	isLectureContent()
}

// VideoLecture is the VIDEO variant.
type VideoLecture struct {
	VideoURL  string   `json:"videoUrl"`
	VideoName string   `json:"videoName"`
	Duration  *int     `json:"duration,omitempty"` // seconds
	Subtitles []string `json:"subtitles,omitempty"`
}

// QuizLecture is the QUIZ variant.
type QuizLecture struct {
	PassingScore *int        `json:"passingScore,omitempty"`
	Questions    []*Question `json:"questions"`
}

// ExerciseLecture is the EXERCISE variant.
type ExerciseLecture struct {
	Instructions string  `json:"instructions"`
	Solution     *string `json:"solution,omitempty"`
}

func (*VideoLecture) LectureType() LectureType { return LectureVideo }
func (*QuizLecture) LectureType() LectureType { return LectureQuiz }
func (*ExerciseLecture) LectureType() LectureType { return LectureExercise }

func (*VideoLecture) isLectureContent() {}
func (*QuizLecture) isLectureContent() {}
func (*ExerciseLecture) isLectureContent() {}

// Question is a single-answer multiple choice question. CorrectIndex is nil
// until the author selects the correct option.
type Question struct {
	ID           string   `json:"id,omitempty"`
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex *int     `json:"correctIndex,omitempty"`
	Explanation  string   `json:"explanation,omitempty"`
}

// IsCorrect reports whether answerIndex is the correct option.
func (q *Question) IsCorrect(answerIndex int) bool {
	return q.CorrectIndex != nil && *q.CorrectIndex == answerIndex
}

// Curriculum is the full section tree of one course, sorted by order.
type Curriculum struct {
	CourseID string     `json:"courseId"`
	Sections []*Section `json:"sections"`
}

// LectureCount returns the number of lectures across all sections.
func (c Curriculum) LectureCount() int {
	n := 0
	for _, s := range c.Sections {
		n += len(s.Lectures)
	}
	return n
}

// FindLecture looks up a lecture anywhere in the tree.
func (c Curriculum) FindLecture(lectureID string) (*Lecture, bool) {
	for _, s := range c.Sections {
		for _, l := range s.Lectures {
			if l.ID == lectureID {
				return l, true
			}
		}
	}
	return nil, false
}

// CurriculumChange is the save request: the full local tree plus the ids
// deleted during the editing session.
type CurriculumChange struct {
	CourseID        string     `json:"courseId"`
	Sections        []*Section `json:"sections"`
	DeletedSections []string   `json:"deletedSections"`
	DeletedLectures []string   `json:"deletedLectures"`
}

// ProgressKey identifies one learner's record for one lecture.
type ProgressKey struct {
	UserID    string `json:"userId"`
	CourseID  string `json:"courseId"`
	LectureID string `json:"lectureId"`
}

func (k ProgressKey) String() string {
	return k.UserID + "/" + k.CourseID + "/" + k.LectureID
}

// LectureProgress mirrors the persisted per-lecture progress record.
type LectureProgress struct {
	ProgressKey
	Progress  float64   `json:"progress"`
	Completed bool      `json:"completed"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// QuizAnswer is one recorded answer of a quiz attempt.
type QuizAnswer struct {
	QuestionID  string `json:"questionId"`
	AnswerIndex int    `json:"answerIndex"`
	IsCorrect   bool   `json:"isCorrect"`
}

// QuizProgress mirrors the persisted per-quiz progress record.
type QuizProgress struct {
	ProgressKey
	Score     int          `json:"score"`
	Answers   []QuizAnswer `json:"answers"`
	Completed bool         `json:"completed"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// CourseProgress is the derived completion summary of a course.
type CourseProgress struct {
	CourseID  string  `json:"courseId"`
	Completed int     `json:"completed"`
	Total     int     `json:"total"`
	Percent   float64 `json:"percent"`
}

type lectureJSON struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Order       int              `json:"order"`
	Type        LectureType      `json:"type"`
	Video       *VideoLecture    `json:"video,omitempty"`
	Quiz        *QuizLecture     `json:"quiz,omitempty"`
	Exercise    *ExerciseLecture `json:"exercise,omitempty"`
}

// MarshalJSON writes the populated variant under its own key.
func (l Lecture) MarshalJSON() ([]byte, error) {
	out := lectureJSON{
		ID:          l.ID,
		Title:       l.Title,
		Description: l.Description,
		Order:       l.Order,
		Type:        l.Type,
	}
	switch c := l.Content.(type) {
	case *VideoLecture:
		out.Video = c
	case *QuizLecture:
		out.Quiz = c
	case *ExerciseLecture:
		out.Exercise = c
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts only the variant key matching the type.
func (l *Lecture) UnmarshalJSON(data []byte) error {
	var in lectureJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*l = Lecture{
		ID:          in.ID,
		Title:       in.Title,
		Description: in.Description,
		Order:       in.Order,
		Type:        in.Type,
	}
	populated := 0
	if in.Video != nil {
		populated++
		l.Content = in.Video
	}
	if in.Quiz != nil {
		populated++
		l.Content = in.Quiz
	}
	if in.Exercise != nil {
		populated++
		l.Content = in.Exercise
	}
	if populated > 1 {
		return fmt.Errorf("lecture %q: more than one content variant populated", in.ID)
	}
	if l.Content != nil && l.Content.LectureType() != in.Type {
		return fmt.Errorf("lecture %q: %s content on %s lecture", in.ID, l.Content.LectureType(), in.Type)
	}
	return nil
}
