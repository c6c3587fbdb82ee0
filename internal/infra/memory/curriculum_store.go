package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"curriculum-service/internal/domain"
	"github.com/google/uuid"
)

// CurriculumStore is an in-memory implementation of app.CurriculumStore. It
// keeps row-shaped tables with cascading deletes so that it behaves like the
// relational store, and applies every reconciliation to a copy that replaces
// the live tables only when the whole change succeeded.
type CurriculumStore struct {
	mu     sync.RWMutex
	newID  func() string
	tables tables
}

type sectionRow struct {
	id, courseID, title, description string
	position                         int
}

type lectureRow struct {
	id, sectionID, title, description string
	position                          int
	kind                              domain.LectureType
}

type tables struct {
	courses   map[string]domain.Course
	sections  map[string]sectionRow
	lectures  map[string]lectureRow
	videos    map[string]domain.VideoLecture
	quizzes   map[string]*int
	questions map[string][]domain.Question
	exercises map[string]domain.ExerciseLecture
}

// StoreOption customizes a CurriculumStore.
type StoreOption func(*CurriculumStore)

// WithQuestionIDs replaces the generator used for re-created quiz questions.
func WithQuestionIDs(fn func() string) StoreOption {
	return func(s *CurriculumStore) { s.newID = fn }
}

func NewCurriculumStore(opts ...StoreOption) *CurriculumStore {
	s := &CurriculumStore{
		newID: uuid.NewString,
		tables: tables{
			courses:   make(map[string]domain.Course),
			sections:  make(map[string]sectionRow),
			lectures:  make(map[string]lectureRow),
			videos:    make(map[string]domain.VideoLecture),
			quizzes:   make(map[string]*int),
			questions: make(map[string][]domain.Question),
			exercises: make(map[string]domain.ExerciseLecture),
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PutCourse registers a course; courses are owned by the catalog.
func (s *CurriculumStore) PutCourse(course domain.Course) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables.courses[course.ID] = course
}

func (s *CurriculumStore) GetCourse(_ context.Context, courseID string) (domain.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	course, ok := s.tables.courses[courseID]
	if !ok {
		return domain.Course{}, &domain.NotFoundError{Kind: "course", ID: courseID}
	}
	return course, nil
}

func (s *CurriculumStore) LoadCurriculum(_ context.Context, courseID string) (domain.Curriculum, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.tables.courses[courseID]; !ok {
		return domain.Curriculum{}, &domain.NotFoundError{Kind: "course", ID: courseID}
	}
	return s.tables.tree(courseID), nil
}

// Reconcile applies a curriculum change atomically.
func (s *CurriculumStore) Reconcile(_ context.Context, change domain.CurriculumChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tables.courses[change.CourseID]; !ok {
		return &domain.NotFoundError{Kind: "course", ID: change.CourseID}
	}
	t := s.tables.clone()
	if err := t.apply(change, s.newID); err != nil {
		return err
	}
	s.tables = t
	return nil
}

func (t *tables) apply(change domain.CurriculumChange, newID func() string) error {
	courseID := change.CourseID

	for _, id := range change.DeletedSections {
		if row, ok := t.sections[id]; ok && row.courseID == courseID {
			t.deleteSection(id)
		}
	}
	for _, id := range change.DeletedLectures {
		if row, ok := t.lectures[id]; ok && t.sections[row.sectionID].courseID == courseID {
			t.deleteLecture(id)
		}
	}

	for _, s := range change.Sections {
		if row, ok := t.sections[s.ID]; ok && row.courseID != courseID {
			return &domain.NotFoundError{Kind: "section", ID: s.ID}
		}
		t.sections[s.ID] = sectionRow{
			id:          s.ID,
			courseID:    courseID,
			title:       s.Title,
			description: s.Description,
			position:    s.Order,
		}
		for _, l := range s.Lectures {
			if row, ok := t.lectures[l.ID]; ok && t.sections[row.sectionID].courseID != courseID {
				return &domain.NotFoundError{Kind: "lecture", ID: l.ID}
			}
			t.lectures[l.ID] = lectureRow{
				id:          l.ID,
				sectionID:   s.ID,
				title:       l.Title,
				description: l.Description,
				position:    l.Order,
				kind:        l.Type,
			}
			t.upsertContent(l, newID)
		}
	}
	return nil
}

// upsertContent writes the variant matching the lecture type and drops any
// variant left over from a previous type.
func (t *tables) upsertContent(l *domain.Lecture, newID func() string) {
	if l.Type != domain.LectureVideo {
		delete(t.videos, l.ID)
	}
	if l.Type != domain.LectureQuiz {
		delete(t.quizzes, l.ID)
		delete(t.questions, l.ID)
	}
	if l.Type != domain.LectureExercise {
		delete(t.exercises, l.ID)
	}

	switch c := l.Content.(type) {
	case *domain.VideoLecture:
		t.videos[l.ID] = *domain.CloneContent(c).(*domain.VideoLecture)
	case *domain.QuizLecture:
		var passing *int
		if c.PassingScore != nil {
			passing = domain.IntPtr(*c.PassingScore)
		}
		t.quizzes[l.ID] = passing
		questions := make([]domain.Question, len(c.Questions))
		for i, q := range c.Questions {
			questions[i] = *q.Clone()
			questions[i].ID = newID()
		}
		t.questions[l.ID] = questions
	case *domain.ExerciseLecture:
		t.exercises[l.ID] = *domain.CloneContent(c).(*domain.ExerciseLecture)
	}
}

func (t *tables) deleteSection(id string) {
	for lid, l := range t.lectures {
		if l.sectionID == id {
			t.deleteLecture(lid)
		}
	}
	delete(t.sections, id)
}

func (t *tables) deleteLecture(id string) {
	delete(t.lectures, id)
	delete(t.videos, id)
	delete(t.quizzes, id)
	delete(t.questions, id)
	delete(t.exercises, id)
}

func (t *tables) tree(courseID string) domain.Curriculum {
	out := domain.Curriculum{CourseID: courseID, Sections: []*domain.Section{}}
	index := make(map[string]*domain.Section)
	for _, row := range t.sections {
		if row.courseID != courseID {
			continue
		}
		s := &domain.Section{
			ID:          row.id,
			Title:       row.title,
			Description: row.description,
			Order:       row.position,
			Lectures:    []*domain.Lecture{},
		}
		index[row.id] = s
		out.Sections = append(out.Sections, s)
	}
	for _, row := range t.lectures {
		s, ok := index[row.sectionID]
		if !ok {
			continue
		}
		s.Lectures = append(s.Lectures, &domain.Lecture{
			ID:          row.id,
			Title:       row.title,
			Description: row.description,
			Order:       row.position,
			Type:        row.kind,
			Content:     t.content(row),
		})
	}

	slices.SortFunc(out.Sections, func(a, b *domain.Section) int { return compareOrder(a.Order, b.Order, a.ID, b.ID) })
	for _, s := range out.Sections {
		slices.SortFunc(s.Lectures, func(a, b *domain.Lecture) int { return compareOrder(a.Order, b.Order, a.ID, b.ID) })
	}
	return out
}

func (t *tables) content(row lectureRow) domain.LectureContent {
	switch row.kind {
	case domain.LectureVideo:
		if v, ok := t.videos[row.id]; ok {
			return domain.CloneContent(&v)
		}
	case domain.LectureQuiz:
		if passing, ok := t.quizzes[row.id]; ok {
			quiz := &domain.QuizLecture{Questions: []*domain.Question{}}
			if passing != nil {
				quiz.PassingScore = domain.IntPtr(*passing)
			}
			for _, q := range t.questions[row.id] {
				quiz.Questions = append(quiz.Questions, q.Clone())
			}
			return quiz
		}
	case domain.LectureExercise:
		if e, ok := t.exercises[row.id]; ok {
			return domain.CloneContent(&e)
		}
	}
	return nil
}

func (t tables) clone() tables {
	c := tables{
		courses:   maps.Clone(t.courses),
		sections:  maps.Clone(t.sections),
		lectures:  maps.Clone(t.lectures),
		videos:    make(map[string]domain.VideoLecture, len(t.videos)),
		quizzes:   make(map[string]*int, len(t.quizzes)),
		questions: make(map[string][]domain.Question, len(t.questions)),
		exercises: make(map[string]domain.ExerciseLecture, len(t.exercises)),
	}
	for id, v := range t.videos {
		c.videos[id] = *domain.CloneContent(&v).(*domain.VideoLecture)
	}
	for id, p := range t.quizzes {
		if p != nil {
			p = domain.IntPtr(*p)
		}
		c.quizzes[id] = p
	}
	for id, qs := range t.questions {
		cloned := make([]domain.Question, len(qs))
		for i := range qs {
			cloned[i] = *qs[i].Clone()
		}
		c.questions[id] = cloned
	}
	for id, e := range t.exercises {
		c.exercises[id] = *domain.CloneContent(&e).(*domain.ExerciseLecture)
	}
	return c
}

func compareOrder(a, b int, idA, idB string) int {
	if a != b {
		return a - b
	}
	switch {
	case idA < idB:
		return -1
	case idA > idB:
		return 1
	}
	return 0
}
