package publish

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindRender     Kind = "render"
	KindConnection Kind = "connection"
	KindUpload     Kind = "upload"
	KindGallery    Kind = "gallery"
)

// StageError names the pipeline stage an error came from.
type StageError struct {
	Kind Kind
	Err  error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Kind, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func newStageError(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	var se *StageError
	if errors.As(err, &se) {
		return err
	}
	return &StageError{Kind: kind, Err: err}
}

func RenderError(err error) error     { return newStageError(KindRender, err) }
func ConnectionError(err error) error { return newStageError(KindConnection, err) }
func UploadError(err error) error     { return newStageError(KindUpload, err) }
func GalleryError(err error) error    { return newStageError(KindGallery, err) }

// KindOf reports the stage kind carried by err, or "" when there is none.
func KindOf(err error) Kind {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
