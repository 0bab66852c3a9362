package notionpub

import "time"

// Snapshot is the last successfully fetched copy of a cached value, stored as
// JSON so it survives restarts and upstream outages.
type Snapshot struct {
	Key       string
	Payload   []byte
	FetchedAt time.Time
}

// Image is a resized image kept in the proxy's disk cache.
type Image struct {
	Key         string
	Filename    string
	ContentType string
	Width       int
	Height      int
	Size        int
	FetchedAt   time.Time
}
