// Package editor is the in-memory authoring surface for a course curriculum.
//
// All editing operations are synchronous and never fail; they report whether
// the target entity was found. Validation happens once, when the tree is
// saved. An Editor is not safe for concurrent use.
package editor

import (
	"context"
	"slices"

	"curriculum-service/internal/domain"
	"github.com/google/uuid"
)

// Field names an editable scalar of a section or lecture.
type Field string

const (
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
)

// Saver persists a curriculum change on behalf of a user and returns the
// stored snapshot.
type Saver interface {
	SaveCurriculum(ctx context.Context, userID string, change domain.CurriculumChange) (domain.Curriculum, error)
}

// Option customizes an Editor.
type Option func(*Editor)

// WithIDGenerator replaces the uuid based id generator.
func WithIDGenerator(fn func() string) Option {
	return func(e *Editor) { e.newID = fn }
}

// Editor holds a curriculum being edited plus the ids deleted since the last save.
type Editor struct {
	courseID        string
	sections        Ordered[*domain.Section]
	deletedSections []string
	deletedLectures []string
	newID           func() string
}

// New starts an editing session over a copy of curriculum.
func New(curriculum domain.Curriculum, opts ...Option) *Editor {
	e := &Editor{
		courseID: curriculum.CourseID,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.load(curriculum.Sections)
	return e
}

func (e *Editor) load(sections []*domain.Section) {
	e.sections = Ordered[*domain.Section](domain.CloneSections(sections))
	if e.sections == nil {
		e.sections = Ordered[*domain.Section]{}
	}
	sortByOrder(e.sections)
	for _, s := range e.sections {
		if s.Lectures == nil {
			s.Lectures = []*domain.Lecture{}
		}
		lectures := Ordered[*domain.Lecture](s.Lectures)
		sortLecturesByOrder(lectures)
		lectures.Renumber()
	}
	e.sections.Renumber()
}

// CourseID returns the course being edited.
func (e *Editor) CourseID() string { return e.courseID }

// Snapshot returns a deep copy of the current tree.
func (e *Editor) Snapshot() domain.Curriculum {
	return domain.Curriculum{CourseID: e.courseID, Sections: domain.CloneSections(e.sections)}
}

// Section returns the live section with the given id.
func (e *Editor) Section(id string) (*domain.Section, bool) {
	idx := e.sections.Index(id)
	if idx < 0 {
		return nil, false
	}
	return e.sections[idx], true
}

// Lecture returns the live lecture with the given id.
func (e *Editor) Lecture(id string) (*domain.Lecture, bool) {
	_, l := e.findLecture(id)
	return l, l != nil
}

// AddSection appends an empty section with a fresh id.
func (e *Editor) AddSection() *domain.Section {
	s := &domain.Section{ID: e.newID(), Lectures: []*domain.Lecture{}}
	e.sections.Insert(s)
	return s
}

// AddLecture appends a lecture of type t to a section. Quiz and exercise
// lectures start with empty content; video content is attached later.
func (e *Editor) AddLecture(sectionID string, t domain.LectureType) *domain.Lecture {
	s, ok := e.Section(sectionID)
	if !ok {
		return nil
	}
	l := &domain.Lecture{ID: e.newID(), Type: t}
	switch t {
	case domain.LectureQuiz:
		l.Content = &domain.QuizLecture{Questions: []*domain.Question{}}
	case domain.LectureExercise:
		l.Content = &domain.ExerciseLecture{}
	}
	lectures := Ordered[*domain.Lecture](s.Lectures)
	lectures.Insert(l)
	s.Lectures = lectures
	return l
}

// EditField sets a scalar field on the section or lecture with entityID.
func (e *Editor) EditField(entityID string, field Field, value string) bool {
	if s, ok := e.Section(entityID); ok {
		switch field {
		case FieldTitle:
			s.Title = value
		case FieldDescription:
			s.Description = value
		default:
			return false
		}
		return true
	}
	if l, ok := e.Lecture(entityID); ok {
		switch field {
		case FieldTitle:
			l.Title = value
		case FieldDescription:
			l.Description = value
		default:
			return false
		}
		return true
	}
	return false
}

// AttachVideo sets the video of a VIDEO lecture.
func (e *Editor) AttachVideo(lectureID string, video domain.VideoLecture) bool {
	l, ok := e.Lecture(lectureID)
	if !ok || l.Type != domain.LectureVideo {
		return false
	}
	l.Content = domain.CloneContent(&video)
	return true
}

// SetExercise replaces the content of an EXERCISE lecture.
func (e *Editor) SetExercise(lectureID string, exercise domain.ExerciseLecture) bool {
	l, ok := e.Lecture(lectureID)
	if !ok || l.Type != domain.LectureExercise {
		return false
	}
	l.Content = domain.CloneContent(&exercise)
	return true
}

// SetPassingScore sets or clears the passing score of a QUIZ lecture.
func (e *Editor) SetPassingScore(lectureID string, score *int) bool {
	quiz, ok := e.quiz(lectureID)
	if !ok {
		return false
	}
	if score == nil {
		quiz.PassingScore = nil
	} else {
		quiz.PassingScore = domain.IntPtr(*score)
	}
	return true
}

// DeleteSection removes a section and tracks it for deletion. Its lectures
// go with it through the storage cascade.
func (e *Editor) DeleteSection(id string) bool {
	if !e.sections.Remove(id) {
		return false
	}
	e.deletedSections = append(e.deletedSections, id)
	return true
}

// DeleteLecture removes a lecture from its section and tracks it for deletion.
func (e *Editor) DeleteLecture(sectionID, id string) bool {
	s, ok := e.Section(sectionID)
	if !ok {
		return false
	}
	lectures := Ordered[*domain.Lecture](s.Lectures)
	if !lectures.Remove(id) {
		return false
	}
	s.Lectures = lectures
	e.deletedLectures = append(e.deletedLectures, id)
	return true
}

// MoveSection reorders sections.
func (e *Editor) MoveSection(id string, from, to int) bool {
	return e.sections.Move(id, from, to)
}

// MoveLecture reorders lectures within one section.
func (e *Editor) MoveLecture(sectionID, id string, from, to int) bool {
	s, ok := e.Section(sectionID)
	if !ok {
		return false
	}
	lectures := Ordered[*domain.Lecture](s.Lectures)
	if !lectures.Move(id, from, to) {
		return false
	}
	s.Lectures = lectures
	return true
}

// DeletedSections returns the section ids pending deletion.
func (e *Editor) DeletedSections() []string { return slices.Clone(e.deletedSections) }

// DeletedLectures returns the lecture ids pending deletion.
func (e *Editor) DeletedLectures() []string { return slices.Clone(e.deletedLectures) }

// Changes builds the save request for the current session.
func (e *Editor) Changes() domain.CurriculumChange {
	return domain.CurriculumChange{
		CourseID:        e.courseID,
		Sections:        domain.CloneSections(e.sections),
		DeletedSections: e.DeletedSections(),
		DeletedLectures: e.DeletedLectures(),
	}
}

// Save validates the tree and hands it to saver. On success the deletion
// trackers are cleared and the stored snapshot replaces the local tree; on
// failure the local state is left as is so the save can be retried.
func (e *Editor) Save(ctx context.Context, userID string, saver Saver) error {
	change := e.Changes()
	if err := Validate(change.Sections); err != nil {
		return err
	}
	stored, err := saver.SaveCurriculum(ctx, userID, change)
	if err != nil {
		return err
	}
	e.deletedSections = nil
	e.deletedLectures = nil
	e.load(stored.Sections)
	return nil
}

func (e *Editor) findLecture(id string) (*domain.Section, *domain.Lecture) {
	for _, s := range e.sections {
		for _, l := range s.Lectures {
			if l.ID == id {
				return s, l
			}
		}
	}
	return nil, nil
}

func sortByOrder(sections []*domain.Section) {
	slices.SortStableFunc(sections, func(a, b *domain.Section) int { return a.Order - b.Order })
}

func sortLecturesByOrder(lectures []*domain.Lecture) {
	slices.SortStableFunc(lectures, func(a, b *domain.Lecture) int { return a.Order - b.Order })
}
