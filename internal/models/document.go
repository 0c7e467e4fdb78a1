package models

// Document is the whole persisted gradebook, loaded and saved as one unit.
type Document struct {
	Revision          int64              `json:"revision"`
	Teachers          []Teacher          `json:"teachers"`
	AcademicYears     []AcademicYear     `json:"academicYears"`
	Schools           []School           `json:"schools"`
	Classes           []ClassRoom        `json:"classes"`
	Subjects          []Subject          `json:"subjects"`
	Students          []Student          `json:"students"`
	GradeEntries      []GradeEntry       `json:"gradeEntries"`
	AttendanceRecords []AttendanceRecord `json:"attendanceRecords"`
}

// FindSubject returns the subject with the given id.
func (d *Document) FindSubject(id string) (Subject, bool) {
	for _, subject := range d.Subjects {
		if subject.ID == id {
			return subject, true
		}
	}
	return Subject{}, false
}

// FindStudent returns the student with the given id.
func (d *Document) FindStudent(id string) (Student, bool) {
	for _, student := range d.Students {
		if student.ID == id {
			return student, true
		}
	}
	return Student{}, false
}

// StudentsOfClass lists the students of a class in document order.
func (d *Document) StudentsOfClass(classID string) []Student {
	var students []Student
	for _, student := range d.Students {
		if student.ClassID == classID {
			students = append(students, student)
		}
	}
	return students
}

// StudentIDs extracts ids preserving order.
func StudentIDs(students []Student) []string {
	ids := make([]string, 0, len(students))
	for _, student := range students {
		ids = append(ids, student.ID)
	}
	return ids
}

// DefaultDocument returns the sample gradebook used when storage is empty.
func DefaultDocument() *Document {
	return &Document{
		Teachers: []Teacher{{
			ID:          "teacher-1",
			Username:    "admin",
			FullName:    "دبیر نمونه",
			AvatarColor: "hsl(220, 70%, 50%)",
		}},
		AcademicYears: []AcademicYear{{ID: "year-1", Name: "۱۴۰۴-۱۴۰۵", TeacherID: "teacher-1"}},
		Schools:       []School{{ID: "school-1", Name: "برکت", YearID: "year-1"}},
		Classes:       []ClassRoom{{ID: "class-1", Name: "هفتم", SchoolID: "school-1"}},
		Subjects: []Subject{{
			ID:      "subject-1",
			Name:    "زبان",
			ClassID: "class-1",
			Rules: []RuleTemplate{
				{ID: "rule-exam", Name: "امتحان کلاسی", MaxGrade: 20, Coefficient: 1, Percentage: 60},
				{ID: "rule-discipline", Name: "انضباط", MaxGrade: 2, Coefficient: 0.5, Percentage: 20},
				{ID: "rule-hw", Name: "تکالیف", MaxGrade: 5, Coefficient: 0.5, Percentage: 20},
			},
		}},
		Students: []Student{
			{ID: "student-1", Name: "اکبر اصغر", ClassID: "class-1"},
			{ID: "student-2", Name: "صغری کبری", ClassID: "class-1"},
		},
		GradeEntries:      []GradeEntry{},
		AttendanceRecords: []AttendanceRecord{},
	}
}
