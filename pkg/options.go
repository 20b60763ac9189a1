package pkg

type options struct {
	syncWrites bool
}

func defaultOptions() options {
	return options{}
}

// Option configures a Store
type Option func(*options)

// WithSyncWrites makes every write fsync the log before returning
func WithSyncWrites(sync bool) Option {
	return func(o *options) {
		o.syncWrites = sync
	}
}
