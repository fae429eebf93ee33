// Package identity holds the authenticated identities of the registrar and
// the in-memory cache used to resolve them.
//
// An Identity is one administrator, instructor or student account. The Cache
// keeps every identity in memory so a token can be checked without touching
// the database:
//
//	cache := identity.NewCache()
//	if err := cache.Reload(ctx, identityStore); err != nil {
//	    return err
//	}
//	id, ok := cache.FindByEmail("jane@example.edu")
//
// The entity engine keeps the cache in step with creates, updates and
// deletes of identity-bearing records after each transaction commits.
//
// Request handlers retrieve the authenticated caller with Get:
//
//	id, ok := identity.Get(r.Context())
package identity
