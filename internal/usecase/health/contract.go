package health

import "context"

// StoragePinger checks that the data directory is usable.
type StoragePinger interface {
	Ping(ctx context.Context) error
}

// IndexCounter reports how many per-user indexes are open.
type IndexCounter interface {
	OpenIndexes() int
}
