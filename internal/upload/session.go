// Package upload holds the image the user picked and its displayable preview.
package upload

import (
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
)

// DefaultMaxBytes is the largest image accepted unless configured otherwise.
const DefaultMaxBytes = 10 << 20

// Reason classifies a rejected selection
type Reason string

const (
	ReasonNoFile     Reason = "no_file"
	ReasonNotAnImage Reason = "not_an_image"
	ReasonEmpty      Reason = "empty"
	ReasonTooLarge   Reason = "too_large"
)

// ValidationError is a user-facing rejection of a selected file
type ValidationError struct {
	Reason  Reason
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// File is a user-selected file
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Status of the session
type Status int

const (
	StatusEmpty Status = iota
	StatusPending
	StatusReady
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusReady:
		return "ready"
	default:
		return "empty"
	}
}

// Snapshot is a copy of the session state. Generation increases with every accepted
// selection and every clear.
type Snapshot struct {
	Generation uint64
	Status     Status
	File       *File
	Preview    string
	Err        error // decode failure, only on notifications
}

// Valid reports whether the snapshot holds a ready, previewable image
func (s Snapshot) Valid() bool {
	return s.Status == StatusReady && s.Preview != ""
}

// DecodeFunc turns a file into a displayable preview
type DecodeFunc func(File) (string, error)

// Session tracks the currently selected image. Decoding runs in the background; a newer
// selection always wins over a decode still running for an older one.
type Session struct {
	mu      sync.Mutex
	gen     uint64
	status  Status
	file    *File
	preview string

	maxBytes int64
	decode   DecodeFunc
	notify   func(Snapshot)
	wg       sync.WaitGroup
}

// Option configures a Session
type Option func(*Session)

// WithMaxBytes limits the accepted file size
func WithMaxBytes(n int64) Option {
	return func(s *Session) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

// WithDecoder replaces the data URL decoder
func WithDecoder(fn DecodeFunc) Option {
	return func(s *Session) { s.decode = fn }
}

// OnDecoded registers a callback invoked once the current selection finished decoding.
// Stale decodes are never reported.
func OnDecoded(fn func(Snapshot)) Option {
	return func(s *Session) { s.notify = fn }
}

// NewSession creates an empty session
func NewSession(opts ...Option) *Session {
	s := &Session{
		maxBytes: DefaultMaxBytes,
		decode:   DataURL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate checks f without touching any session state.
func (s *Session) Validate(f File) error {
	return Validate(f, s.maxBytes)
}

// Validate checks that f is a non-empty image of at most maxBytes.
func Validate(f File, maxBytes int64) error {
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(f.ContentType)), "image/") {
		return &ValidationError{Reason: ReasonNotAnImage, Message: "Please select a valid image file."}
	}
	if len(f.Data) == 0 {
		return &ValidationError{Reason: ReasonEmpty, Message: "The selected image is empty."}
	}
	if maxBytes > 0 && int64(len(f.Data)) > maxBytes {
		return &ValidationError{
			Reason:  ReasonTooLarge,
			Message: fmt.Sprintf("The selected image is larger than %d MB.", maxBytes>>20),
		}
	}
	return nil
}

// Select validates f and, when accepted, replaces the current selection and starts
// decoding its preview. A rejected file leaves the session untouched.
func (s *Session) Select(f File) (uint64, error) {
	if err := s.Validate(f); err != nil {
		return 0, err
	}

	s.mu.Lock()
	s.gen++
	gen := s.gen
	file := f
	s.file = &file
	s.preview = ""
	s.status = StatusPending
	s.mu.Unlock()

	s.wg.Add(1)
	go s.runDecode(gen, file)
	return gen, nil
}

// SelectFirst selects the first of several dropped files
func (s *Session) SelectFirst(files []File) (uint64, error) {
	if len(files) == 0 {
		return 0, &ValidationError{Reason: ReasonNoFile, Message: "Please select a valid image file."}
	}
	return s.Select(files[0])
}

func (s *Session) runDecode(gen uint64, f File) {
	defer s.wg.Done()

	preview, err := s.decode(f)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	if err != nil {
		s.file = nil
		s.preview = ""
		s.status = StatusEmpty
	} else {
		s.preview = preview
		s.status = StatusReady
	}
	snap := s.snapshotLocked()
	snap.Err = err
	notify := s.notify
	s.mu.Unlock()

	if notify != nil {
		notify(snap)
	}
}

// Clear returns the session to the empty state. Safe to call repeatedly.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.file = nil
	s.preview = ""
	s.status = StatusEmpty
}

// Snapshot returns the current state
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		Generation: s.gen,
		Status:     s.status,
		File:       s.file,
		Preview:    s.preview,
	}
}

// Wait blocks until every started decode has returned
func (s *Session) Wait() {
	s.wg.Wait()
}

// DataURL encodes f as a base64 data URL
func DataURL(f File) (string, error) {
	return "data:" + f.ContentType + ";base64," + base64.StdEncoding.EncodeToString(f.Data), nil
}
