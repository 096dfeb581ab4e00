package camera

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"
)

// stalledReader blocks every Read until the track is closed.
type stalledReader struct {
	track *fakeTrack
}

func (r stalledReader) Read() (image.Image, func(), error) {
	<-r.track.closed
	return nil, nil, errors.New("track closed")
}

type fakeTrack struct {
	once   sync.Once
	closed chan struct{}
}

func (t *fakeTrack) Close() error {
	t.once.Do(func() { close(t.closed) })
	return nil
}

func TestMediaSourceStalledRead(t *testing.T) {
	track := &fakeTrack{closed: make(chan struct{})}
	src := &mediaSource{track: track, reader: stalledReader{track}}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := src.Frame(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Frame = %v, want deadline exceeded", err)
	}

	closed := make(chan error, 1)
	go func() { closed <- src.Close() }()
	select {
	case err := <-closed:
		if err != nil {
			t.Errorf("Close: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Close blocked behind a stalled read")
	}
	if _, err := src.Frame(context.Background()); err == nil {
		t.Error("Frame after Close should fail")
	}
}

func TestAdapterReleaseStalledMediaSource(t *testing.T) {
	track := &fakeTrack{closed: make(chan struct{})}
	src := &mediaSource{track: track, reader: stalledReader{track}}
	a := &Adapter{src: src}

	go func() { _, _ = src.Frame(context.Background()) }()
	time.Sleep(10 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		a.Release()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Release blocked behind a stalled read")
	}
	if a.Active() {
		t.Error("adapter still holds the source")
	}
}
