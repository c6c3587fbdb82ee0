package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"curriculum-service/internal/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// CurriculumStore persists courses and their section/lecture trees with bun.
// Child rows are removed through ON DELETE CASCADE foreign keys.
type CurriculumStore struct {
	db    *bun.DB
	newID func() string
}

func NewCurriculumStore(db *bun.DB) *CurriculumStore {
	return &CurriculumStore{db: db, newID: uuid.NewString}
}

// PutCourse inserts or updates a course row.
func (s *CurriculumStore) PutCourse(ctx context.Context, course domain.Course) error {
	row := courseRow{ID: course.ID, OwnerID: course.OwnerID, Title: course.Title}
	_, err := s.db.NewInsert().Model(&row).
		On("CONFLICT (id) DO UPDATE").
		Set("owner_id = EXCLUDED.owner_id").
		Set("title = EXCLUDED.title").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("put course: %w", err)
	}
	return nil
}

func (s *CurriculumStore) GetCourse(ctx context.Context, courseID string) (domain.Course, error) {
	row, err := getCourse(ctx, s.db, courseID)
	if err != nil {
		return domain.Course{}, err
	}
	return row.domain(), nil
}

// LoadCurriculum reads the whole tree from one snapshot.
func (s *CurriculumStore) LoadCurriculum(ctx context.Context, courseID string) (domain.Curriculum, error) {
	var out domain.Curriculum
	opts := &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	err := s.db.RunInTx(ctx, opts, func(ctx context.Context, tx bun.Tx) error {
		if _, err := getCourse(ctx, tx, courseID); err != nil {
			return err
		}
		cur, err := loadTree(ctx, tx, courseID)
		if err != nil {
			return err
		}
		out = cur
		return nil
	})
	return out, err
}

// Reconcile applies a change in one transaction: deletes first, then
// upserts of sections, lectures and the variant matching each lecture type.
func (s *CurriculumStore) Reconcile(ctx context.Context, change domain.CurriculumChange) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := getCourse(ctx, tx, change.CourseID); err != nil {
			return err
		}
		if err := deleteTracked(ctx, tx, change); err != nil {
			return err
		}
		if err := rejectForeignIDs(ctx, tx, change); err != nil {
			return err
		}
		return s.upsertTree(ctx, tx, change)
	})
}

func getCourse(ctx context.Context, db bun.IDB, courseID string) (courseRow, error) {
	var row courseRow
	err := db.NewSelect().Model(&row).Where("id = ?", courseID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return courseRow{}, &domain.NotFoundError{Kind: "course", ID: courseID}
	}
	if err != nil {
		return courseRow{}, fmt.Errorf("get course: %w", err)
	}
	return row, nil
}

func deleteTracked(ctx context.Context, tx bun.Tx, change domain.CurriculumChange) error {
	if len(change.DeletedSections) > 0 {
		_, err := tx.NewDelete().Model((*sectionRow)(nil)).
			Where("id IN (?)", bun.In(change.DeletedSections)).
			Where("course_id = ?", change.CourseID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete sections: %w", err)
		}
	}
	if len(change.DeletedLectures) > 0 {
		owned := tx.NewSelect().Model((*sectionRow)(nil)).Column("id").Where("course_id = ?", change.CourseID)
		_, err := tx.NewDelete().Model((*lectureRow)(nil)).
			Where("id IN (?)", bun.In(change.DeletedLectures)).
			Where("section_id IN (?)", owned).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete lectures: %w", err)
		}
	}
	return nil
}

// rejectForeignIDs fails when an incoming id already belongs to another course.
func rejectForeignIDs(ctx context.Context, tx bun.Tx, change domain.CurriculumChange) error {
	var sectionIDs, lectureIDs []string
	for _, sec := range change.Sections {
		sectionIDs = append(sectionIDs, sec.ID)
		for _, l := range sec.Lectures {
			lectureIDs = append(lectureIDs, l.ID)
		}
	}

	if len(sectionIDs) > 0 {
		var id string
		err := tx.NewSelect().Model((*sectionRow)(nil)).Column("id").
			Where("id IN (?)", bun.In(sectionIDs)).
			Where("course_id <> ?", change.CourseID).
			Limit(1).
			Scan(ctx, &id)
		if err == nil {
			return &domain.NotFoundError{Kind: "section", ID: id}
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("check sections: %w", err)
		}
	}
	if len(lectureIDs) > 0 {
		var id string
		err := tx.NewSelect().Model((*lectureRow)(nil)).ColumnExpr("l.id").
			Join("JOIN sections AS s ON s.id = l.section_id").
			Where("l.id IN (?)", bun.In(lectureIDs)).
			Where("s.course_id <> ?", change.CourseID).
			Limit(1).
			Scan(ctx, &id)
		if err == nil {
			return &domain.NotFoundError{Kind: "lecture", ID: id}
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("check lectures: %w", err)
		}
	}
	return nil
}

func (s *CurriculumStore) upsertTree(ctx context.Context, tx bun.Tx, change domain.CurriculumChange) error {
	var (
		sections  []sectionRow
		lectures  []lectureRow
		videos    []videoRow
		quizzes   []quizRow
		questions []questionRow
		exercises []exerciseRow
		stale     = map[domain.LectureType][]string{}
		quizIDs   []string
	)
	for _, sec := range change.Sections {
		sections = append(sections, sectionRow{
			ID:          sec.ID,
			CourseID:    change.CourseID,
			Title:       sec.Title,
			Description: sec.Description,
			Position:    sec.Order,
		})
		for _, l := range sec.Lectures {
			lectures = append(lectures, lectureRow{
				ID:          l.ID,
				SectionID:   sec.ID,
				Title:       l.Title,
				Description: l.Description,
				Position:    l.Order,
				Type:        string(l.Type),
			})
			for _, t := range []domain.LectureType{domain.LectureVideo, domain.LectureQuiz, domain.LectureExercise} {
				if t != l.Type {
					stale[t] = append(stale[t], l.ID)
				}
			}

			switch c := l.Content.(type) {
			case *domain.VideoLecture:
				videos = append(videos, videoRow{
					LectureID: l.ID,
					VideoURL:  c.VideoURL,
					VideoName: c.VideoName,
					Duration:  c.Duration,
					Subtitles: c.Subtitles,
				})
			case *domain.QuizLecture:
				quizzes = append(quizzes, quizRow{LectureID: l.ID, PassingScore: c.PassingScore})
				quizIDs = append(quizIDs, l.ID)
				for i, q := range c.Questions {
					questions = append(questions, questionRow{
						ID:           s.newID(),
						LectureID:    l.ID,
						Position:     i,
						Question:     q.Question,
						Options:      q.Options,
						CorrectIndex: q.CorrectIndex,
						Explanation:  q.Explanation,
					})
				}
			case *domain.ExerciseLecture:
				exercises = append(exercises, exerciseRow{
					LectureID:    l.ID,
					Instructions: c.Instructions,
					Solution:     c.Solution,
				})
			}
		}
	}

	if len(sections) > 0 {
		_, err := tx.NewInsert().Model(&sections).
			On("CONFLICT (id) DO UPDATE").
			Set("title = EXCLUDED.title").
			Set("description = EXCLUDED.description").
			Set("position = EXCLUDED.position").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("upsert sections: %w", err)
		}
	}
	if len(lectures) > 0 {
		_, err := tx.NewInsert().Model(&lectures).
			On("CONFLICT (id) DO UPDATE").
			Set("section_id = EXCLUDED.section_id").
			Set("title = EXCLUDED.title").
			Set("description = EXCLUDED.description").
			Set("position = EXCLUDED.position").
			Set("type = EXCLUDED.type").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("upsert lectures: %w", err)
		}
	}

	staleModels := map[domain.LectureType]interface{}{
		domain.LectureVideo:    (*videoRow)(nil),
		domain.LectureQuiz:     (*quizRow)(nil),
		domain.LectureExercise: (*exerciseRow)(nil),
	}
	for t, ids := range stale {
		if len(ids) == 0 {
			continue
		}
		_, err := tx.NewDelete().Model(staleModels[t]).Where("lecture_id IN (?)", bun.In(ids)).Exec(ctx)
		if err != nil {
			return fmt.Errorf("drop stale %s content: %w", t, err)
		}
	}

	if len(videos) > 0 {
		_, err := tx.NewInsert().Model(&videos).
			On("CONFLICT (lecture_id) DO UPDATE").
			Set("video_url = EXCLUDED.video_url").
			Set("video_name = EXCLUDED.video_name").
			Set("duration = EXCLUDED.duration").
			Set("subtitles = EXCLUDED.subtitles").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("upsert videos: %w", err)
		}
	}
	if len(quizzes) > 0 {
		_, err := tx.NewInsert().Model(&quizzes).
			On("CONFLICT (lecture_id) DO UPDATE").
			Set("passing_score = EXCLUDED.passing_score").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("upsert quizzes: %w", err)
		}
		// questions are replaced wholesale and get fresh ids
		_, err = tx.NewDelete().Model((*questionRow)(nil)).Where("lecture_id IN (?)", bun.In(quizIDs)).Exec(ctx)
		if err != nil {
			return fmt.Errorf("clear questions: %w", err)
		}
	}
	if len(questions) > 0 {
		if _, err := tx.NewInsert().Model(&questions).Exec(ctx); err != nil {
			return fmt.Errorf("insert questions: %w", err)
		}
	}
	if len(exercises) > 0 {
		_, err := tx.NewInsert().Model(&exercises).
			On("CONFLICT (lecture_id) DO UPDATE").
			Set("instructions = EXCLUDED.instructions").
			Set("solution = EXCLUDED.solution").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("upsert exercises: %w", err)
		}
	}
	return nil
}

func loadTree(ctx context.Context, db bun.IDB, courseID string) (domain.Curriculum, error) {
	out := domain.Curriculum{CourseID: courseID, Sections: []*domain.Section{}}

	var sections []sectionRow
	if err := db.NewSelect().Model(&sections).
		Where("course_id = ?", courseID).
		Order("position ASC", "id ASC").
		Scan(ctx); err != nil {
		return out, fmt.Errorf("load sections: %w", err)
	}
	if len(sections) == 0 {
		return out, nil
	}

	sectionIDs := make([]string, len(sections))
	bySection := make(map[string]*domain.Section, len(sections))
	for i, row := range sections {
		sectionIDs[i] = row.ID
		sec := &domain.Section{
			ID:          row.ID,
			Title:       row.Title,
			Description: row.Description,
			Order:       row.Position,
			Lectures:    []*domain.Lecture{},
		}
		bySection[row.ID] = sec
		out.Sections = append(out.Sections, sec)
	}

	var lectures []lectureRow
	if err := db.NewSelect().Model(&lectures).
		Where("section_id IN (?)", bun.In(sectionIDs)).
		Order("position ASC", "id ASC").
		Scan(ctx); err != nil {
		return out, fmt.Errorf("load lectures: %w", err)
	}
	if len(lectures) == 0 {
		return out, nil
	}
	lectureIDs := make([]string, len(lectures))
	for i, row := range lectures {
		lectureIDs[i] = row.ID
	}

	var (
		videos    []videoRow
		quizzes   []quizRow
		questions []questionRow
		exercises []exerciseRow
	)
	if err := db.NewSelect().Model(&videos).Where("lecture_id IN (?)", bun.In(lectureIDs)).Scan(ctx); err != nil {
		return out, fmt.Errorf("load videos: %w", err)
	}
	if err := db.NewSelect().Model(&quizzes).Where("lecture_id IN (?)", bun.In(lectureIDs)).Scan(ctx); err != nil {
		return out, fmt.Errorf("load quizzes: %w", err)
	}
	if err := db.NewSelect().Model(&questions).
		Where("lecture_id IN (?)", bun.In(lectureIDs)).
		Order("lecture_id ASC", "position ASC").
		Scan(ctx); err != nil {
		return out, fmt.Errorf("load questions: %w", err)
	}
	if err := db.NewSelect().Model(&exercises).Where("lecture_id IN (?)", bun.In(lectureIDs)).Scan(ctx); err != nil {
		return out, fmt.Errorf("load exercises: %w", err)
	}

	content := make(map[string]domain.LectureContent, len(lectures))
	for _, v := range videos {
		content[v.LectureID] = v.domain()
	}
	quizByLecture := make(map[string]*domain.QuizLecture, len(quizzes))
	for _, q := range quizzes {
		quiz := &domain.QuizLecture{PassingScore: q.PassingScore, Questions: []*domain.Question{}}
		quizByLecture[q.LectureID] = quiz
		content[q.LectureID] = quiz
	}
	for _, q := range questions {
		if quiz, ok := quizByLecture[q.LectureID]; ok {
			quiz.Questions = append(quiz.Questions, q.domain())
		}
	}
	for _, e := range exercises {
		content[e.LectureID] = e.domain()
	}

	for _, row := range lectures {
		l := &domain.Lecture{
			ID:          row.ID,
			Title:       row.Title,
			Description: row.Description,
			Order:       row.Position,
			Type:        domain.LectureType(row.Type),
		}
		if c, ok := content[row.ID]; ok && c.LectureType() == l.Type {
			l.Content = c
		}
		bySection[row.SectionID].Lectures = append(bySection[row.SectionID].Lectures, l)
	}
	return out, nil
}
