// Package catalogue loads a declarative YAML description of the registrar's
// records: departments with their programs, courses, curricula, instructors
// and students, and the sections taught.
//
// # Document Format
//
//	departments:
//	  - name: Engineering
//	    instructors:
//	      - email: alan@example.edu
//	        firstName: Alan
//	        lastName: Turing
//	        employeeNumber: E-001
//	        password: s3cret
//	    programs:
//	      - name: Computer Science
//	        courses:
//	          - code: CS201
//	            name: Data Structures
//	            ects: 6
//	        curriculum:
//	          - course: CS201
//	            year: 1
//	            semester: 1
//	        students:
//	          - email: ada@example.edu
//	            firstName: Ada
//	            lastName: Lovelace
//	            studentNumber: S-001
//	            year: 1
//	            semester: 1
//	            password: s3cret
//	sections:
//	  - course: CS201
//	    number: 1
//	    capacity: 30
//	    instructor: alan@example.edu
//
// A department with nothing but a name may be written as a plain string.
//
// # Loading
//
// Records are matched on their natural keys: department and program names,
// course codes, identity emails, and (course, number) for sections. Records
// that already exist are left untouched; the rest are created. A program
// that lists a curriculum has its curriculum replaced. The whole document
// is applied in one transaction.
//
//	result, err := catalogue.NewLoader(db).LoadFromReader(ctx, file)
package catalogue
