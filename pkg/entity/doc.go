// Package entity implements generic record access for the registrar.
//
// Every entity type gets a Descriptor, built once by reflection, that maps
// field names to typed accessors and relation names to their targets. An
// Engine uses the descriptor to serve list, filter, range and eager-load
// reads and create, update and delete writes for its type without any
// per-type query code:
//
//	students := entity.New[model.Student](db, entity.WithCache(cache))
//	rows, err := students.FilterRange(ctx, "year", "2", "4", []string{"program"})
//
// Field and relation names are matched with the first character
// upper-cased, so "year", "Year" and the JSON name all resolve to the same
// field.
//
// # Hooks
//
// Entity types opt into write behaviour by implementing Binder (resolve
// references and derive fields before insert), Editor (apply an update
// payload onto the stored row), Unlinker (detach join rows before delete)
// and Bearer (the record is an identity and is mirrored in the identity
// cache once the transaction commits).
//
// # Encoding
//
// Marshal renders loaded graphs as JSON. Back-references to the type a
// relation was reached from are dropped, so a department's programs do not
// repeat the department.
package entity
