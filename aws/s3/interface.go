package s3

import (
	"io"
)

// BasicClient is the S3 surface the CSV staging pipeline needs: uploads plus
// key listing so uploads can be verified.
type BasicClient interface {
	Lister
	BufferPutter
}

type Lister interface {
	List(key string) (keys []string, err error)
}

// BufferPutter can be used to put a file to S3 since File implements Read and Seek.
type BufferPutter interface {
	BufferPut(key string, buf io.ReadSeeker, contentType string) (err error)
}
