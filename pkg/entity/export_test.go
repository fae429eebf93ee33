package entity

// SetFilterBatch overrides the eager-loading batch size and returns a func
// restoring it.
func SetFilterBatch(n int) (restore func()) {
	prev := filterBatch
	filterBatch = n
	return func() { filterBatch = prev }
}
