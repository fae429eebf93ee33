package model

// Base carries the primary key shared by every model.
type Base struct {
	ID uint `gorm:"primaryKey" json:"id"`
}

func (b *Base) GetID() uint {
	return b.ID
}

// All returns one zero value of every model, in dependency order.
func All() []interface{} {
	return []interface{}{
		&Admin{},
		&Department{},
		&Program{},
		&Course{},
		&Instructor{},
		&Section{},
		&Student{},
		&CurriculumCourse{},
		&GradeType{},
		&StudentGrade{},
		&TimeIndex{},
	}
}
