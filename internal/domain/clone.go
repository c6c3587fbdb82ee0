package domain

// CloneSections deep-copies a section tree so that callers can mutate the
// result without touching the original.
func CloneSections(sections []*Section) []*Section {
	if sections == nil {
		return nil
	}
	out := make([]*Section, len(sections))
	for i, s := range sections {
		out[i] = s.Clone()
	}
	return out
}

func (s *Section) Clone() *Section {
	c := *s
	if s.Lectures != nil {
		c.Lectures = make([]*Lecture, len(s.Lectures))
		for i, l := range s.Lectures {
			c.Lectures[i] = l.Clone()
		}
	}
	return &c
}

func (l *Lecture) Clone() *Lecture {
	c := *l
	c.Content = CloneContent(l.Content)
	return &c
}

// CloneContent deep-copies a lecture content variant.
func CloneContent(content LectureContent) LectureContent {
	switch v := content.(type) {
	case *VideoLecture:
		c := *v
		c.Duration = cloneInt(v.Duration)
		if v.Subtitles != nil {
			c.Subtitles = append([]string(nil), v.Subtitles...)
		}
		return &c
	case *QuizLecture:
		c := *v
		c.PassingScore = cloneInt(v.PassingScore)
		if v.Questions != nil {
			c.Questions = make([]*Question, len(v.Questions))
			for i, q := range v.Questions {
				c.Questions[i] = q.Clone()
			}
		}
		return &c
	case *ExerciseLecture:
		c := *v
		if v.Solution != nil {
			s := *v.Solution
			c.Solution = &s
		}
		return &c
	}
	return nil
}

func (q *Question) Clone() *Question {
	c := *q
	c.CorrectIndex = cloneInt(q.CorrectIndex)
	if q.Options != nil {
		c.Options = append([]string(nil), q.Options...)
	}
	return &c
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}

// IntPtr is a convenience for optional integer fields.
func IntPtr(v int) *int { return &v }

// StringPtr is a convenience for optional string fields.
func StringPtr(v string) *string { return &v }
