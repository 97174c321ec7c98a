package main

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"sync"

	"scoutly/internal/submit/geolocation"
	"scoutly/internal/submit/media"
)

// stillCamera stands in for a device camera: every stream shows the same
// decoded image file.
type stillCamera struct {
	path string
}

func (c stillCamera) Open(ctx context.Context, facing media.Facing) (media.Stream, error) {
	f, err := os.Open(c.path)
	if err != nil {
		return nil, fmt.Errorf("open camera source: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode camera source: %w", err)
	}
	return &stillStream{img: img}, nil
}

type stillStream struct {
	mu     sync.Mutex
	img    image.Image
	closed bool
}

func (s *stillStream) Frame(ctx context.Context) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, media.ErrNoActiveStream
	}
	return s.img, nil
}

func (s *stillStream) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// fixedLocator reports a preset fix, or a denial when none was given.
type fixedLocator struct {
	pos *geolocation.Position
}

func (l fixedLocator) Locate(ctx context.Context) (geolocation.Position, error) {
	if l.pos == nil {
		return geolocation.Position{}, fmt.Errorf("no coordinates supplied: %w", geolocation.ErrPermissionDenied)
	}
	return *l.pos, nil
}
