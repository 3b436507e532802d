package client

import (
	"sync"

	"quickarena/sim"
)

type recorder struct {
	mu      sync.Mutex
	added   []string
	removed []string
	moved   map[string]int
}

func newRecorder() *recorder { return &recorder{moved: map[string]int{}} }

func (r *recorder) AddBody(b *sim.Body) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.added = append(r.added, b.ID)
}

func (r *recorder) RemoveBody(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, id)
}

func (r *recorder) SetBodyPosition(b *sim.Body) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.moved[b.ID]++
}

type fakeTransport struct {
	sent   [][]byte
	in     chan []byte
	closed bool
}

func newFakeTransport() *fakeTransport { return &fakeTransport{in: make(chan []byte, 16)} }

func (f *fakeTransport) Send(frame []byte) error {
	f.sent = append(f.sent, frame)
	return nil
}

func (f *fakeTransport) Messages() <-chan []byte { return f.in }

func (f *fakeTransport) Close() error {
	if !f.closed {
		f.closed = true
		close(f.in)
	}
	return nil
}
