// Package model defines the database models of the registrar.
//
// Every model embeds Base for its numeric id and declares its table name.
// Relations are plain GORM associations; writes never cascade through them.
// Instead each model resolves its references itself in Bind and Edit, so a
// payload may name a reference either by foreign key ("programId": 3) or by
// an embedded record carrying only its id ("program": {"id": 3}).
//
// # Identities
//
// Admin, Instructor and Student embed User and are identities: their email
// is unique across all three tables and their password is stored only as a
// bcrypt hash.
//
// # Tables
//
//   - admins, instructors, students: identities
//   - departments, programs, courses, sections: the catalogue
//   - curriculum_courses: which courses a program schedules per year and semester
//   - section_students: section registrations
//   - grade_types, student_grades: grading scheme and scores
//   - time_indices: weekly timetable slots of a section
package model
