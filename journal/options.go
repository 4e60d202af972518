package journal

type iterRunsOptions struct {
	limit int
}

type IterRunsOptions func(*iterRunsOptions)

// Limit the number of runs returned.
func WithIterRunsLimit(limit int) IterRunsOptions {
	return func(o *iterRunsOptions) {
		o.limit = limit
	}
}
