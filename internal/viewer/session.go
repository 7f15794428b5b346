// Package viewer implements the document viewing pipeline: fetch,
// decrypt, open, and a render queue that keeps at most one render call
// in flight.
package viewer

import (
	"context"
	"sync"

	"secure-library/internal/domain"
	"secure-library/internal/secure"
	apperrors "secure-library/pkg/errors"
)

// Zoom bounds and step.
const (
	MinScale = 0.5
	MaxScale = 3.0
	ZoomStep = 0.25
)

// State is the viewer lifecycle state.
type State int

const (
	StateClosed State = iota
	StateLoading
	StateOpen
	StateError
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateLoading:
		return "loading"
	case StateOpen:
		return "open"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// errLoadingBook is the generic user-facing message; internal detail
// stays in the logs.
const errLoadingBook = "Error loading book"

// DecryptFunc decrypts a ciphertext payload with a passphrase.
type DecryptFunc func(payload []byte, passphrase string) ([]byte, error)

// Deps are the injected collaborators of a session. There is no global
// state: every dependency arrives here.
type Deps struct {
	Catalog    domain.Catalog
	Fetcher    domain.CiphertextFetcher
	Opener     domain.DocumentOpener
	Sink       domain.PageSink
	Decrypt    DecryptFunc // defaults to secure.Decrypt
	Passphrase string
	Logger     domain.Logger
}

// renderRequest is one pending entry in the render queue. A repaint
// re-renders the current page (zoom changes); a navigation entry is
// skipped when the cursor is already on that page.
type renderRequest struct {
	page    int
	repaint bool
}

// Session owns the state for one open document at a time. All exported
// methods are safe for concurrent use; the drain loop guarantees renders
// never overlap.
type Session struct {
	deps Deps

	mu          sync.Mutex
	state       State
	errMessage  string
	book        *domain.Book
	doc         domain.RenderedDocument
	currentPage int
	totalPages  int
	scale       float64
	queue       []renderRequest
	isRendering bool
	generation  uint64
	cancelLoad  context.CancelFunc
}

// NewSession creates a closed session with the given dependencies.
func NewSession(deps Deps) *Session {
	if deps.Decrypt == nil {
		deps.Decrypt = secure.Decrypt
	}
	return &Session{
		deps:        deps,
		state:       StateClosed,
		currentPage: 1,
		scale:       1.0,
	}
}

// Open loads the book with the given id: fetch, decrypt if the record
// says so, hand the plaintext to the rendering backend, then render the
// first page. Any failure is terminal for the attempt: the session moves
// to the error state with a generic message and no partial state.
func (s *Session) Open(ctx context.Context, id string) error {
	s.mu.Lock()
	if s.state == StateLoading {
		s.mu.Unlock()
		return domain.ErrViewerBusy
	}
	// Opening over an open document closes it first.
	s.resetLocked()

	book, ok := s.deps.Catalog[id]
	if !ok {
		s.state = StateError
		s.errMessage = errLoadingBook
		s.mu.Unlock()
		s.deps.Logger.Warn("Book not found in catalog", "id", id)
		return domain.ErrBookNotFound
	}

	s.generation++
	gen := s.generation
	s.state = StateLoading
	s.book = book

	loadCtx, cancel := context.WithCancel(ctx)
	s.cancelLoad = cancel
	s.mu.Unlock()
	defer cancel()

	doc, err := s.load(loadCtx, book)
	if err != nil {
		s.fail(gen, err)
		return err
	}

	s.mu.Lock()
	if s.generation != gen || s.state != StateLoading {
		// Closed while loading; drop the document silently.
		s.mu.Unlock()
		_ = doc.Close()
		return context.Canceled
	}
	s.doc = doc
	s.totalPages = doc.PageCount()
	s.currentPage = 1
	s.scale = 1.0
	s.state = StateOpen
	s.cancelLoad = nil
	s.queue = append(s.queue[:0], renderRequest{page: 1, repaint: true})
	s.isRendering = true
	pages := s.totalPages
	s.mu.Unlock()

	s.deps.Logger.Info("Document opened", "id", book.ID, "pages", pages)

	return s.drain(ctx)
}

// load runs the fetch/decrypt/open sequence outside the lock.
func (s *Session) load(ctx context.Context, book *domain.Book) (domain.RenderedDocument, error) {
	payload, err := s.deps.Fetcher.FetchCiphertext(ctx, book.Filename)
	if err != nil {
		return nil, err
	}
	s.deps.Logger.Debug("Fetched payload", "id", book.ID, "bytes", len(payload))

	data := payload
	if book.Encrypted {
		data, err = s.deps.Decrypt(payload, s.deps.Passphrase)
		if err != nil {
			return nil, err
		}
		s.deps.Logger.Debug("Decrypted payload", "id", book.ID, "bytes", len(data))
	}

	doc, err := s.deps.Opener.Open(data)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// GoToPage queues a navigation to page n. Out-of-range targets and the
// current page are no-ops. If a drain is already running the page is
// only enqueued; otherwise this call drains the queue itself, returning
// after every queued page has rendered.
func (s *Session) GoToPage(ctx context.Context, n int) error {
	s.mu.Lock()
	if s.state != StateOpen {
		s.mu.Unlock()
		return domain.ErrNoDocumentOpen
	}
	if n < 1 || n > s.totalPages || n == s.currentPage {
		s.mu.Unlock()
		return nil
	}
	s.queue = append(s.queue, renderRequest{page: n})
	if s.isRendering {
		// The active drain will pick this up.
		s.mu.Unlock()
		return nil
	}
	s.isRendering = true
	s.mu.Unlock()

	return s.drain(ctx)
}

// NextPage advances one page.
func (s *Session) NextPage(ctx context.Context) error {
	s.mu.Lock()
	target := s.currentPage + 1
	s.mu.Unlock()
	return s.GoToPage(ctx, target)
}

// PreviousPage goes back one page.
func (s *Session) PreviousPage(ctx context.Context) error {
	s.mu.Lock()
	target := s.currentPage - 1
	s.mu.Unlock()
	return s.GoToPage(ctx, target)
}

// FirstPage jumps to page 1.
func (s *Session) FirstPage(ctx context.Context) error {
	return s.GoToPage(ctx, 1)
}

// LastPage jumps to the final page.
func (s *Session) LastPage(ctx context.Context) error {
	s.mu.Lock()
	target := s.totalPages
	s.mu.Unlock()
	return s.GoToPage(ctx, target)
}

// ZoomIn bumps the scale by one step, clamped, and re-renders the
// current page.
func (s *Session) ZoomIn(ctx context.Context) error {
	return s.zoom(ctx, ZoomStep)
}

// ZoomOut lowers the scale by one step, clamped, and re-renders the
// current page.
func (s *Session) ZoomOut(ctx context.Context) error {
	return s.zoom(ctx, -ZoomStep)
}

func (s *Session) zoom(ctx context.Context, delta float64) error {
	s.mu.Lock()
	if s.state != StateOpen {
		s.mu.Unlock()
		return domain.ErrNoDocumentOpen
	}

	scale := s.scale + delta
	if scale > MaxScale {
		scale = MaxScale
	}
	if scale < MinScale {
		scale = MinScale
	}
	if scale == s.scale {
		s.mu.Unlock()
		return nil
	}
	s.scale = scale

	// Repaint the current page at the new scale. A repaint already
	// queued for this page will pick up the latest scale, so one entry
	// is enough.
	repaintQueued := false
	for _, req := range s.queue {
		if req.repaint && req.page == s.currentPage {
			repaintQueued = true
			break
		}
	}
	if !repaintQueued {
		s.queue = append(s.queue, renderRequest{page: s.currentPage, repaint: true})
	}
	if s.isRendering {
		s.mu.Unlock()
		return nil
	}
	s.isRendering = true
	s.mu.Unlock()

	return s.drain(ctx)
}

// drain renders queued pages front to back. It is entered by exactly one
// caller at a time (the isRendering guard) and releases the lock around
// the render call so enqueues never block on rendering.
func (s *Session) drain(ctx context.Context) error {
	for {
		s.mu.Lock()
		if s.state != StateOpen || len(s.queue) == 0 {
			s.queue = s.queue[:0]
			s.isRendering = false
			s.mu.Unlock()
			return nil
		}

		req := s.queue[0]
		s.queue = s.queue[1:]
		if !req.repaint && req.page == s.currentPage {
			s.mu.Unlock()
			continue
		}
		s.currentPage = req.page
		doc := s.doc
		scale := s.scale
		gen := s.generation
		s.mu.Unlock()

		img, err := doc.RenderPage(ctx, req.page, scale)

		s.mu.Lock()
		if s.generation != gen {
			// Session closed or reopened mid-render; drop the frame.
			// The reset already released the rendering guard, so it is
			// not ours to clear anymore.
			s.mu.Unlock()
			return nil
		}
		if err == nil {
			err = s.deps.Sink.Draw(req.page, img)
		}
		if err != nil {
			s.deps.Logger.Error("Page render failed", err, "page", req.page)
			s.state = StateError
			s.errMessage = "Error rendering page"
			s.queue = s.queue[:0]
			s.isRendering = false
			s.mu.Unlock()
			if apperrors.IsType(err, apperrors.ErrorTypeRender) {
				return err
			}
			return apperrors.NewRenderError("page render failed", err)
		}
		s.mu.Unlock()
	}
}

// Close releases the document, clears the page sink, and resets the
// session to defaults. A load in progress is cancelled; its result is
// discarded when it lands.
func (s *Session) Close() {
	s.mu.Lock()
	s.resetLocked()
	s.mu.Unlock()
}

// resetLocked tears down any open or loading document. Callers hold mu.
func (s *Session) resetLocked() {
	if s.cancelLoad != nil {
		s.cancelLoad()
		s.cancelLoad = nil
	}
	if s.doc != nil {
		_ = s.doc.Close()
		s.doc = nil
	}
	if s.deps.Sink != nil {
		_ = s.deps.Sink.Clear()
	}
	s.generation++
	s.state = StateClosed
	s.errMessage = ""
	s.book = nil
	s.currentPage = 1
	s.totalPages = 0
	s.scale = 1.0
	s.queue = nil
	s.isRendering = false
}

// fail moves the session to the error state unless it was closed or
// reopened in the meantime.
func (s *Session) fail(gen uint64, err error) {
	s.deps.Logger.Error("Failed to open document", err)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return
	}
	if s.doc != nil {
		_ = s.doc.Close()
		s.doc = nil
	}
	s.state = StateError
	s.errMessage = errLoadingBook
	s.book = nil
	s.queue = nil
	s.cancelLoad = nil
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ErrorMessage returns the user-facing message for the error state.
func (s *Session) ErrorMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMessage
}

// CurrentBook returns the open book record, or nil.
func (s *Session) CurrentBook() *domain.Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book
}

// CurrentPage returns the 1-indexed page cursor.
func (s *Session) CurrentPage() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentPage
}

// TotalPages returns the page count of the open document.
func (s *Session) TotalPages() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalPages
}

// Scale returns the current zoom factor.
func (s *Session) Scale() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scale
}

// QueueLength returns the number of pending render requests.
func (s *Session) QueueLength() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}
