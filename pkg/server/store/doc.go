// Package store provides storage abstractions for the registrar server.
//
// This package defines interfaces for the database operations that are not
// plain entity CRUD, allowing the server endpoints to be decoupled from the
// specific database implementation. Generic CRUD goes through pkg/entity.
//
// # Available Stores
//
//   - IdentityStore: bulk identity scans used to fill the identity cache
//   - HealthStore: database connectivity checks
//   - EnrollmentStore: student registration, grades and course offers
//   - TeachingStore: instructor sections, grading schemes and scores
//   - CurriculumStore: program curriculum replacement
//
// # Usage
//
//	enrollment := gorm.NewEnrollmentStore(db)
//	section, err := enrollment.Register(ctx, studentID, sectionID)
//	if err != nil {
//	    if errors.Is(err, apperr.ErrValidation) {
//	        // Section is full, or already registered
//	    }
//	}
package store
