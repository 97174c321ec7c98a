package media

import (
	"context"
	"errors"
	"image"
	"time"
)

// Facing selects which device camera to open.
type Facing string

const (
	FacingEnvironment Facing = "environment"
	FacingUser        Facing = "user"
)

const (
	JPEGQuality     = 90
	JPEGContentType = "image/jpeg"
	CaptureFileName = "photo.jpg"
)

// ErrPermissionDenied is returned (possibly wrapped) by a Camera when the user or
// platform refuses access.
var ErrPermissionDenied = errors.New("PERMISSION_DENIED")

var (
	ErrNoActiveStream      = errors.New("NO_ACTIVE_STREAM")
	ErrStreamAlreadyActive = errors.New("STREAM_ALREADY_ACTIVE")
	ErrAcquisitionAborted  = errors.New("ACQUISITION_ABORTED")
)

// Camera is the device capability that hands out exclusive video streams.
type Camera interface {
	Open(ctx context.Context, facing Facing) (Stream, error)
}

// Stream is an open camera stream. Close must release the device, be safe to
// call more than once and may be called while Frame is in progress.
type Stream interface {
	// Frame returns the current frame at the stream's native resolution.
	Frame(ctx context.Context) (image.Image, error)
	Close() error
}

// Photo is the acquired still image plus its local preview reference.
type Photo struct {
	Data        []byte    `json:"-"`
	ContentType string    `json:"contentType"`
	FileName    string    `json:"fileName"`
	PreviewURL  string    `json:"previewUrl"`
	Source      Source    `json:"source"`
	AcquiredAt  time.Time `json:"acquiredAt"`
}

type Source string

const (
	SourceCamera Source = "camera"
	SourceFile   Source = "file"
)

// State is the acquisition sub-state of the photo step.
type State int

const (
	StateChoosing State = iota
	StateStreaming
	StatePreview
)

func (s State) String() string {
	switch s {
	case StateChoosing:
		return "choosing"
	case StateStreaming:
		return "streaming"
	case StatePreview:
		return "preview"
	}
	return "unknown"
}
