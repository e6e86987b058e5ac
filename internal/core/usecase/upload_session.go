package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kirillkom/shop-verification/internal/core/domain"
	"github.com/kirillkom/shop-verification/internal/core/ports"
)

// UploadSession tracks one file transfer. Progress observations are delivered on
// Progress() with the newest value replacing an unread older one, so a slow reader
// never blocks the transfer and always sees non-decreasing byte counts. The channel
// is closed after the terminal observation. Failed sessions are not retried.
type UploadSession struct {
	cancel   context.CancelFunc
	progress chan domain.UploadProgress
	done     chan struct{}

	mu        sync.Mutex
	state     domain.UploadState
	sent      int64
	total     int64
	cancelled bool
	doc       *domain.DocumentRecord
	err       error
}

// StartUpload validates req locally and starts the transfer in the background.
func StartUpload(ctx context.Context, uploader ports.DocumentUploader, req ports.UploadRequest, maxBytes int64) *UploadSession {
	sessionCtx, cancel := context.WithCancel(ctx)
	s := &UploadSession{
		cancel:   cancel,
		progress: make(chan domain.UploadProgress, 1),
		done:     make(chan struct{}),
		state:    domain.UploadStarting,
		total:    req.Size,
	}
	s.emitLocked(s.snapshotLocked())

	if err := domain.ValidateUpload(req.Filename, req.Size, maxBytes); err != nil {
		s.finish(nil, err)
		return s
	}

	go func() {
		doc, err := uploader.UploadDocument(sessionCtx, req, s.onProgress)
		s.finish(doc, err)
	}()
	return s
}

func (s *UploadSession) Progress() <-chan domain.UploadProgress {
	return s.progress
}

// Cancel aborts the transfer. A transfer the server already committed still
// ends COMPLETE.
func (s *UploadSession) Cancel() {
	s.mu.Lock()
	s.cancelled = true
	s.mu.Unlock()
	s.cancel()
}

// Wait blocks until the session is terminal and returns the created record or the failure.
func (s *UploadSession) Wait() (*domain.DocumentRecord, error) {
	<-s.done
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc, s.err
}

func (s *UploadSession) Done() <-chan struct{} {
	return s.done
}

func (s *UploadSession) State() domain.UploadProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *UploadSession) onProgress(sent int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return
	}
	if s.total > 0 && sent > s.total {
		sent = s.total
	}
	if sent < s.sent {
		return
	}
	s.sent = sent
	s.state = domain.UploadTransferring
	s.emitLocked(s.snapshotLocked())
}

func (s *UploadSession) finish(doc *domain.DocumentRecord, err error) {
	s.mu.Lock()
	switch {
	case err != nil && (s.cancelled || errors.Is(err, context.Canceled)):
		s.state = domain.UploadCancelled
		s.err = fmt.Errorf("upload cancelled: %w", context.Canceled)
	case err != nil:
		s.state = domain.UploadFailed
		s.err = err
	default:
		s.state = domain.UploadComplete
		s.doc = doc
		if s.total > 0 {
			s.sent = s.total
		}
	}
	s.emitLocked(s.snapshotLocked())
	close(s.progress)
	s.mu.Unlock()

	s.cancel()
	close(s.done)
}

// emitLocked replaces an unread observation with p. Callers hold s.mu, so there is
// a single producer and the channel is never written after close.
func (s *UploadSession) emitLocked(p domain.UploadProgress) {
	for {
		select {
		case s.progress <- p:
			return
		default:
		}
		select {
		case <-s.progress:
		default:
		}
	}
}

func (s *UploadSession) snapshotLocked() domain.UploadProgress {
	return domain.UploadProgress{
		BytesSent:  s.sent,
		BytesTotal: s.total,
		State:      s.state,
	}
}
