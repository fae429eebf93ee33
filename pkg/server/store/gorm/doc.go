// Package gorm provides GORM-based implementations of the store interfaces
// defined in the parent store package.
//
// This package contains concrete implementations that use GORM for database
// operations. The interfaces they implement are defined in pkg/server/store.
// Every method runs under the caller's context and reports failures as
// apperr kinds, so endpoints can map them to status codes directly.
package gorm
