// Package media acquires the single still image of a submission, either from a
// live camera stream or from a chosen file.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/jpeg"
	"sync"
	"time"

	apperrors "scoutly/internal/common/errors"
	"scoutly/internal/common/logger"

	"github.com/google/uuid"
)

// Acquirer owns the camera stream lifecycle for one submission session. At most
// one stream is open at any time and every exit path releases it.
type Acquirer struct {
	camera Camera
	logger logger.Logger
	now    func() time.Time

	mu       sync.Mutex
	state    State
	stream   Stream
	previews map[string]*Photo
	current  string
	epoch    uint64 // bumped by Close
}

func NewAcquirer(camera Camera, log logger.Logger) *Acquirer {
	return &Acquirer{
		camera:   camera,
		logger:   log.WithFields(map[string]interface{}{"component": "media"}),
		now:      time.Now,
		state:    StateChoosing,
		previews: make(map[string]*Photo),
	}
}

func (a *Acquirer) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// StreamActive reports whether a camera stream is currently held.
func (a *Acquirer) StreamActive() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stream != nil
}

// StartCamera requests an environment-facing stream. On denial the acquirer stays
// in the choosing state so the file picker remains available. The device is
// opened without holding the lock; a stream that arrives after Close is
// released immediately.
func (a *Acquirer) StartCamera(ctx context.Context) error {
	a.mu.Lock()
	if a.stream != nil {
		a.mu.Unlock()
		return ErrStreamAlreadyActive
	}
	epoch := a.epoch
	a.mu.Unlock()

	if a.camera == nil {
		return apperrors.NewCameraDeniedError(errors.New("no camera available"))
	}

	stream, err := a.camera.Open(ctx, FacingEnvironment)
	if err != nil {
		a.logger.Warn("camera unavailable", map[string]interface{}{"error": err})
		return apperrors.NewCameraDeniedError(err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.epoch != epoch || a.stream != nil {
		closeStream(stream, a.logger)
		return ErrAcquisitionAborted
	}
	a.stream = stream
	a.state = StateStreaming
	a.logger.Debug("camera stream opened", nil)
	return nil
}

// Capture freezes the current frame into a JPEG at the stream's native
// resolution and releases the stream. One capture per acquisition. The frame
// is read without holding the lock so Close can release the stream meanwhile.
func (a *Acquirer) Capture(ctx context.Context) (*Photo, error) {
	a.mu.Lock()
	stream, epoch := a.stream, a.epoch
	a.mu.Unlock()
	if stream == nil {
		return nil, ErrNoActiveStream
	}

	frame, err := stream.Frame(ctx)
	var buf bytes.Buffer
	if err == nil {
		err = jpeg.Encode(&buf, frame, &jpeg.Options{Quality: JPEGQuality})
		if err != nil {
			err = fmt.Errorf("encode frame: %w", err)
		}
	} else {
		err = fmt.Errorf("read frame: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.epoch != epoch || a.stream != stream {
		return nil, ErrAcquisitionAborted
	}
	a.releaseLocked()
	if err != nil {
		a.state = StateChoosing
		return nil, err
	}

	bounds := frame.Bounds()
	photo := a.storeLocked(&Photo{
		Data:        buf.Bytes(),
		ContentType: JPEGContentType,
		FileName:    CaptureFileName,
		Source:      SourceCamera,
	})
	a.logger.Info("photo captured", map[string]interface{}{
		"width":  bounds.Dx(),
		"height": bounds.Dy(),
		"bytes":  len(photo.Data),
	})
	return photo, nil
}

// SelectFile accepts any externally chosen file without type or size checks.
// An empty file still becomes the draft photo; the photo step's guard keeps it
// from advancing.
func (a *Acquirer) SelectFile(name, contentType string, data []byte) (*Photo, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.releaseLocked()
	photo := a.storeLocked(&Photo{
		Data:        data,
		ContentType: contentType,
		FileName:    name,
		Source:      SourceFile,
	})
	a.logger.Info("photo selected", map[string]interface{}{
		"fileName": name,
		"bytes":    len(data),
	})
	return photo, nil
}

// Retake discards the current photo and its preview and returns to the choice.
func (a *Acquirer) Retake() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.releaseLocked()
	if a.current != "" {
		delete(a.previews, a.current)
		a.current = ""
	}
	a.state = StateChoosing
}

// Cancel stops a live stream without touching an already acquired photo.
func (a *Acquirer) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.releaseLocked()
	if a.state == StateStreaming {
		a.state = StateChoosing
	}
}

// Release drops the stream when the photo step is left; the photo survives.
func (a *Acquirer) Release() {
	a.Cancel()
}

// Close releases the stream and revokes every preview reference. A camera open
// or frame read still in flight is abandoned.
func (a *Acquirer) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.epoch++
	a.releaseLocked()
	a.previews = make(map[string]*Photo)
	a.current = ""
	a.state = StateChoosing
}

// Resolve returns the photo behind a live preview reference.
func (a *Acquirer) Resolve(previewURL string) (*Photo, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.previews[previewURL]
	return p, ok
}

func (a *Acquirer) storeLocked(p *Photo) *Photo {
	if a.current != "" {
		delete(a.previews, a.current)
	}
	p.PreviewURL = "blob:scoutly/" + uuid.NewString()
	p.AcquiredAt = a.now()
	a.previews[p.PreviewURL] = p
	a.current = p.PreviewURL
	a.state = StatePreview
	return p
}

func (a *Acquirer) releaseLocked() {
	if a.stream == nil {
		return
	}
	closeStream(a.stream, a.logger)
	a.stream = nil
	a.logger.Debug("camera stream released", nil)
}

func closeStream(stream Stream, log logger.Logger) {
	if err := stream.Close(); err != nil {
		log.Warn("camera stream close failed", map[string]interface{}{"error": err})
	}
}
