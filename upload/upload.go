package upload

import (
	"context"
	"io"
)

// Asset describes a stored object.
type Asset struct {
	URL          string
	OriginalName string
}

// Input is the content handed to an Uploader.
type Input struct {
	Body         io.Reader
	OriginalName string
	ContentType  string
	Size         int64
}

// Uploader stores an asset and returns where it can be fetched from.
// Implementations must be safe for concurrent use.
type Uploader interface {
	Upload(ctx context.Context, in Input) (*Asset, error)
}
