package catalogue

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/doodlesbykumbi/registrar/pkg/apperr"
	"github.com/doodlesbykumbi/registrar/pkg/entity"
	"github.com/doodlesbykumbi/registrar/pkg/identity"
	"github.com/doodlesbykumbi/registrar/pkg/model"
)

// Kinds counted in a Result.
const (
	KindDepartment = "department"
	KindProgram    = "program"
	KindCourse     = "course"
	KindCurriculum = "curriculum"
	KindInstructor = "instructor"
	KindStudent    = "student"
	KindSection    = "section"
)

// Result counts the records a load created and the records it found
// already present, by kind.
type Result struct {
	Created  map[string]int `json:"created"`
	Existing map[string]int `json:"existing"`
	SHA256   string         `json:"sha256,omitempty"`
	DryRun   bool           `json:"dryRun,omitempty"`
}

// Changed reports whether the load created or replaced anything.
func (r *Result) Changed() bool {
	for _, n := range r.Created {
		if n > 0 {
			return true
		}
	}
	return false
}

var errDryRun = errors.New("dry run")

// Loader applies catalogue documents to the database.
type Loader struct {
	db       *gorm.DB
	validate *validator.Validate
	dryRun   bool
}

// NewLoader creates a new catalogue loader
func NewLoader(db *gorm.DB) *Loader {
	return &Loader{db: db, validate: entity.NewValidator()}
}

// WithValidator sets the validator applied to every record.
func (l *Loader) WithValidator(v *validator.Validate) *Loader {
	l.validate = v
	return l
}

// WithDryRun makes Load validate and count without committing.
func (l *Loader) WithDryRun(dryRun bool) *Loader {
	l.dryRun = dryRun
	return l
}

// LoadFromReader parses and loads the document read from r.
func (l *Loader) LoadFromReader(ctx context.Context, r io.Reader) (*Result, error) {
	text, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalogue: %w", err)
	}
	doc, err := Parse(bytes.NewReader(text))
	if err != nil {
		return nil, apperr.Validation("%v", err)
	}
	res, err := l.Load(ctx, doc)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(text)
	res.SHA256 = hex.EncodeToString(sum[:])
	return res, nil
}

// Load applies doc in one transaction.
func (l *Loader) Load(ctx context.Context, doc *Document) (*Result, error) {
	res := &Result{Created: map[string]int{}, Existing: map[string]int{}}

	unlock := entity.LockIdentities()
	defer unlock()
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a := &applier{
			ctx:      ctx,
			tx:       tx,
			validate: l.validate,
			res:      res,
		}
		for i := range doc.Departments {
			if err := a.department(&doc.Departments[i]); err != nil {
				return err
			}
		}
		for i := range doc.Sections {
			if err := a.section(&doc.Sections[i]); err != nil {
				return err
			}
		}
		if l.dryRun {
			return errDryRun
		}
		return nil
	})
	if errors.Is(err, errDryRun) {
		res.DryRun = true
		return res, nil
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

type applier struct {
	ctx      context.Context
	tx       *gorm.DB
	validate *validator.Validate
	res      *Result
}

func (a *applier) department(d *Department) error {
	if d.Name == "" {
		return apperr.Validation("department name is required")
	}
	dept := &model.Department{Name: d.Name}
	created, err := a.findOrCreate(KindDepartment, dept, "name = ?", d.Name)
	if err != nil {
		return err
	}
	a.count(KindDepartment, created)

	for i := range d.Instructors {
		if err := a.instructor(dept.ID, &d.Instructors[i]); err != nil {
			return err
		}
	}
	for i := range d.Programs {
		if err := a.program(dept.ID, &d.Programs[i]); err != nil {
			return fmt.Errorf("department %q: %w", d.Name, err)
		}
	}
	return nil
}

func (a *applier) program(departmentID uint, p *Program) error {
	prog := &model.Program{Name: p.Name, DepartmentID: departmentID}
	created, err := a.findOrCreate(KindProgram, prog, "name = ? AND department_id = ?", p.Name, departmentID)
	if err != nil {
		return err
	}
	a.count(KindProgram, created)

	for i := range p.Courses {
		if err := a.course(prog.ID, &p.Courses[i]); err != nil {
			return err
		}
	}
	for i := range p.Students {
		if err := a.student(prog.ID, &p.Students[i]); err != nil {
			return err
		}
	}
	if p.Curriculum != nil {
		return a.curriculum(prog.ID, *p.Curriculum)
	}
	return nil
}

func (a *applier) course(programID uint, c *Course) error {
	if c.Code == "" {
		return apperr.Validation("course code is required")
	}
	var existing model.Course
	err := a.tx.Where("code = ?", c.Code).First(&existing).Error
	switch {
	case err == nil:
		if existing.ProgramID != programID {
			return apperr.Validation("course %s belongs to another program", c.Code)
		}
		a.count(KindCourse, false)
		return nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.Store(err)
	}

	course := &model.Course{Code: c.Code, Name: c.Name, Ects: c.Ects, ProgramID: programID}
	if err := a.insert(KindCourse, course); err != nil {
		return err
	}
	a.count(KindCourse, true)
	return nil
}

func (a *applier) curriculum(programID uint, entries []CurriculumEntry) error {
	rows := make([]model.CurriculumCourse, 0, len(entries))
	for _, e := range entries {
		courseID, err := a.courseID(e.Course)
		if err != nil {
			return err
		}
		row := model.CurriculumCourse{Year: e.Year, Semester: e.Semester, Elective: e.Elective, CourseID: courseID}
		if err := entity.Check(a.validate, KindCurriculum, &row); err != nil {
			return err
		}
		if err := row.BindTo(a.ctx, a.tx, programID); err != nil {
			return err
		}
		rows = append(rows, row)
	}

	if err := a.tx.Where("program_id = ?", programID).Delete(&model.CurriculumCourse{}).Error; err != nil {
		return apperr.Store(err)
	}
	if len(rows) > 0 {
		if err := a.tx.Omit(clause.Associations).Create(&rows).Error; err != nil {
			return apperr.Store(err)
		}
	}
	a.res.Created[KindCurriculum] += len(rows)
	return nil
}

func (a *applier) instructor(departmentID uint, in *Instructor) error {
	found, err := a.identityExists(identity.RoleInstructor, in.Email)
	if err != nil {
		return err
	}
	if found {
		a.count(KindInstructor, false)
		return nil
	}
	instructor := &model.Instructor{
		User:           in.user(),
		EmployeeNumber: in.EmployeeNumber,
		DepartmentID:   departmentID,
	}
	if err := a.insert(KindInstructor, instructor); err != nil {
		return fmt.Errorf("instructor %s: %w", in.Email, err)
	}
	a.count(KindInstructor, true)
	return nil
}

func (a *applier) student(programID uint, st *Student) error {
	found, err := a.identityExists(identity.RoleStudent, st.Email)
	if err != nil {
		return err
	}
	if found {
		a.count(KindStudent, false)
		return nil
	}
	student := &model.Student{
		User:          st.user(),
		StudentNumber: st.StudentNumber,
		Year:          st.Year,
		Semester:      st.Semester,
		Cgpa:          st.Cgpa,
		ProgramID:     programID,
	}
	if err := a.insert(KindStudent, student); err != nil {
		return fmt.Errorf("student %s: %w", st.Email, err)
	}
	a.count(KindStudent, true)
	return nil
}

func (a *applier) section(s *Section) error {
	courseID, err := a.courseID(s.Course)
	if err != nil {
		return err
	}
	var instructor model.Instructor
	if err := a.tx.Where("email = ?", s.Instructor).First(&instructor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Validation("section %s/%d: no instructor %s", s.Course, s.Number, s.Instructor)
		}
		return apperr.Store(err)
	}

	section := &model.Section{Number: s.Number, Capacity: s.Capacity, CourseID: courseID, InstructorID: instructor.ID}
	created, err := a.findOrCreate(KindSection, section, "course_id = ? AND number = ?", courseID, s.Number)
	if err != nil {
		return err
	}
	a.count(KindSection, created)
	return nil
}

func (a *applier) courseID(code string) (uint, error) {
	var course model.Course
	if err := a.tx.Where("code = ?", code).First(&course).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperr.Validation("no course with code %s", code)
		}
		return 0, apperr.Store(err)
	}
	return course.ID, nil
}

// identityExists reports whether an identity of role holds email, and fails
// when an identity of another role does.
func (a *applier) identityExists(role identity.Role, email string) (bool, error) {
	holder, _, found, err := entity.EmailHolder(a.tx, email)
	if err != nil {
		return false, apperr.Store(err)
	}
	if !found {
		return false, nil
	}
	if holder == role {
		return true, nil
	}
	return false, apperr.Validation("Email is already registered: %s", email)
}

// findOrCreate loads the first row matching query into payload, or inserts
// payload when none does. It reports whether it inserted.
func (a *applier) findOrCreate(kind string, payload entity.Entity, query string, args ...interface{}) (bool, error) {
	err := a.tx.Where(query, args...).First(payload).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, apperr.Store(err)
	}
	if err := a.insert(kind, payload); err != nil {
		return false, err
	}
	return true, nil
}

func (a *applier) insert(kind string, payload entity.Entity) error {
	if err := entity.Check(a.validate, kind, payload); err != nil {
		return err
	}
	if b, ok := payload.(entity.Binder); ok {
		if err := b.Bind(a.ctx, a.tx); err != nil {
			return err
		}
	}
	if err := a.tx.Omit(clause.Associations).Create(payload).Error; err != nil {
		return apperr.Store(err)
	}
	return nil
}

func (a *applier) count(kind string, created bool) {
	if created {
		a.res.Created[kind]++
	} else {
		a.res.Existing[kind]++
	}
}

func (p Person) user() model.User {
	return model.User{
		Email:     p.Email,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Password:  p.Password,
	}
}
