// Package storage keeps rendered screenshots between the render and upload
// stages of a run.
package storage

import (
	"context"
)

// Storage is written by the renderer and read back by the uploader. Put
// returns the location Get accepts.
type Storage interface {
	// Put stores data under key and returns its location
	Put(ctx context.Context, key string, data []byte) (string, error)
	// Get reads the data stored at a location returned by Put
	Get(ctx context.Context, location string) ([]byte, error)
}
