package viewer

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"secure-library/internal/domain"
	"secure-library/internal/secure"
	apperrors "secure-library/pkg/errors"
)

type noopLogger struct{}

func (noopLogger) Info(msg string, fields ...interface{})             {}
func (noopLogger) Error(msg string, err error, fields ...interface{}) {}
func (noopLogger) Debug(msg string, fields ...interface{})            {}
func (noopLogger) Warn(msg string, fields ...interface{})             {}

// fakeFetcher serves a fixed payload and counts calls.
type fakeFetcher struct {
	mu       sync.Mutex
	payload  []byte
	err      error
	calls    int
	names    []string
	blockCtx bool // when set, block until the context is cancelled
}

func (f *fakeFetcher) FetchCiphertext(ctx context.Context, filename string) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	f.names = append(f.names, filename)
	block := f.blockCtx
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, apperrors.NewNetworkError("request aborted", ctx.Err())
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.payload, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeDoc records render calls and can block them on a gate to simulate
// slow renders.
type fakeDoc struct {
	pages int

	mu            sync.Mutex
	renders       []int
	inFlight      int
	maxInFlight   int
	closed        bool
	gate          chan struct{} // renders wait on this when non-nil
	failOnPage    int
	renderedScale float64
}

func (d *fakeDoc) PageCount() int { return d.pages }

func (d *fakeDoc) RenderPage(ctx context.Context, pageNum int, scale float64) (image.Image, error) {
	d.mu.Lock()
	d.inFlight++
	if d.inFlight > d.maxInFlight {
		d.maxInFlight = d.inFlight
	}
	gate := d.gate
	d.mu.Unlock()

	if gate != nil {
		<-gate
	}

	d.mu.Lock()
	d.inFlight--
	d.renders = append(d.renders, pageNum)
	d.renderedScale = scale
	fail := d.failOnPage != 0 && pageNum == d.failOnPage
	d.mu.Unlock()

	if fail {
		return nil, apperrors.NewRenderError("synthetic render failure", nil)
	}
	return image.NewRGBA(image.Rect(0, 0, 1, 1)), nil
}

func (d *fakeDoc) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return nil
}

func (d *fakeDoc) renderCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.renders)
}

func (d *fakeDoc) lastRender() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.renders) == 0 {
		return 0
	}
	return d.renders[len(d.renders)-1]
}

type fakeOpener struct {
	doc    *fakeDoc
	err    error
	opened [][]byte
}

func (o *fakeOpener) Open(data []byte) (domain.RenderedDocument, error) {
	if o.err != nil {
		return nil, o.err
	}
	o.opened = append(o.opened, data)
	return o.doc, nil
}

type fakeSink struct {
	mu      sync.Mutex
	draws   []int
	cleared int
}

func (s *fakeSink) Draw(pageNum int, img image.Image) error {
	s.mu.Lock()
	s.draws = append(s.draws, pageNum)
	s.mu.Unlock()
	return nil
}

func (s *fakeSink) Clear() error {
	s.mu.Lock()
	s.cleared++
	s.mu.Unlock()
	return nil
}

func (s *fakeSink) drawCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.draws)
}

const testPassphrase = "test-passphrase"

func testBookCatalog() domain.Catalog {
	return domain.Catalog{
		"b1": {
			ID: "b1", Title: "Book One", Author: "A", Category: "physics",
			Filename: "b1.enc", Encrypted: true, OriginalSize: 1024,
		},
		"plain": {
			ID: "plain", Title: "Plain Book", Author: "B", Category: "notes",
			Filename: "plain.pdf", Encrypted: false, OriginalSize: 512,
		},
	}
}

func newTestSession(t *testing.T, doc *fakeDoc) (*Session, *fakeFetcher, *fakeOpener, *fakeSink) {
	t.Helper()

	payload, err := secure.Encrypt([]byte("%PDF-fake"), testPassphrase)
	if err != nil {
		t.Fatalf("failed to build test payload: %v", err)
	}

	fetcher := &fakeFetcher{payload: payload}
	opener := &fakeOpener{doc: doc}
	sink := &fakeSink{}
	session := NewSession(Deps{
		Catalog:    testBookCatalog(),
		Fetcher:    fetcher,
		Opener:     opener,
		Sink:       sink,
		Passphrase: testPassphrase,
		Logger:     noopLogger{},
	})
	return session, fetcher, opener, sink
}

func TestOpenHappyPath(t *testing.T) {
	doc := &fakeDoc{pages: 12}
	session, fetcher, _, sink := newTestSession(t, doc)

	if err := session.Open(context.Background(), "b1"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if session.State() != StateOpen {
		t.Errorf("Expected open state, got %s", session.State())
	}
	if session.CurrentPage() != 1 {
		t.Errorf("Expected page 1, got %d", session.CurrentPage())
	}
	if session.TotalPages() != 12 {
		t.Errorf("Expected 12 pages, got %d", session.TotalPages())
	}
	if session.Scale() != 1.0 {
		t.Errorf("Expected scale 1.0, got %v", session.Scale())
	}
	if fetcher.callCount() != 1 {
		t.Errorf("Expected 1 fetch, got %d", fetcher.callCount())
	}
	if fetcher.names[0] != "b1.enc" {
		t.Errorf("Expected fetch of b1.enc, got %s", fetcher.names[0])
	}
	if sink.drawCount() != 1 || sink.draws[0] != 1 {
		t.Errorf("Expected first page drawn once, got %v", sink.draws)
	}
}

func TestOpenUnencryptedSkipsDecryption(t *testing.T) {
	doc := &fakeDoc{pages: 3}
	session, fetcher, opener, _ := newTestSession(t, doc)
	fetcher.payload = []byte("%PDF-plain")

	decryptCalls := 0
	session.deps.Decrypt = func(payload []byte, passphrase string) ([]byte, error) {
		decryptCalls++
		return secure.Decrypt(payload, passphrase)
	}

	if err := session.Open(context.Background(), "plain"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if decryptCalls != 0 {
		t.Errorf("Expected no decrypt calls for an unencrypted book, got %d", decryptCalls)
	}
	if string(opener.opened[0]) != "%PDF-plain" {
		t.Error("Expected the raw payload handed to the opener")
	}
}

func TestOpenUnknownBook(t *testing.T) {
	session, _, _, _ := newTestSession(t, &fakeDoc{pages: 1})

	err := session.Open(context.Background(), "nope")
	if !errors.Is(err, domain.ErrBookNotFound) {
		t.Fatalf("Expected ErrBookNotFound, got %v", err)
	}
	if session.State() != StateError {
		t.Errorf("Expected error state, got %s", session.State())
	}
}

func TestOpenTruncatedCiphertext(t *testing.T) {
	doc := &fakeDoc{pages: 1}
	session, fetcher, _, sink := newTestSession(t, doc)
	fetcher.payload = make([]byte, 20)

	err := session.Open(context.Background(), "b1")
	if err == nil {
		t.Fatal("Expected error for truncated payload")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeMalformedPayload) {
		t.Errorf("Expected malformed payload error, got %v", err)
	}
	if session.State() != StateError {
		t.Errorf("Expected error state, got %s", session.State())
	}
	if session.ErrorMessage() != "Error loading book" {
		t.Errorf("Expected generic message, got %q", session.ErrorMessage())
	}
	if sink.drawCount() != 0 {
		t.Errorf("Expected no draws after a failed open, got %d", sink.drawCount())
	}
	if doc.renderCount() != 0 {
		t.Errorf("Expected no renders after a failed open, got %d", doc.renderCount())
	}
}

func TestOpenFetchFailure(t *testing.T) {
	session, fetcher, _, _ := newTestSession(t, &fakeDoc{pages: 1})
	fetcher.err = apperrors.NewFetchError("gone", 404)

	err := session.Open(context.Background(), "b1")
	if !apperrors.IsType(err, apperrors.ErrorTypeFetch) {
		t.Fatalf("Expected fetch error, got %v", err)
	}
	if session.State() != StateError {
		t.Errorf("Expected error state, got %s", session.State())
	}
}

func TestOpenUnparsableDocument(t *testing.T) {
	session, _, opener, _ := newTestSession(t, &fakeDoc{pages: 1})
	opener.err = apperrors.NewRenderError("not a pdf", nil)

	err := session.Open(context.Background(), "b1")
	if !apperrors.IsType(err, apperrors.ErrorTypeRender) {
		t.Fatalf("Expected render error, got %v", err)
	}
	if session.State() != StateError {
		t.Errorf("Expected error state, got %s", session.State())
	}
}

func TestGoToPageNoOps(t *testing.T) {
	doc := &fakeDoc{pages: 5}
	session, _, _, _ := newTestSession(t, doc)

	if err := session.Open(context.Background(), "b1"); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	base := doc.renderCount()

	// Current page, below range, above range: all no-ops.
	for _, n := range []int{1, 0, -3, 6} {
		if err := session.GoToPage(context.Background(), n); err != nil {
			t.Errorf("Expected no error for page %d, got %v", n, err)
		}
	}

	if doc.renderCount() != base {
		t.Errorf("Expected no extra renders, got %d", doc.renderCount()-base)
	}
	if session.CurrentPage() != 1 {
		t.Errorf("Expected to stay on page 1, got %d", session.CurrentPage())
	}
}

func TestGoToPageOnClosedSession(t *testing.T) {
	session, _, _, _ := newTestSession(t, &fakeDoc{pages: 5})

	if err := session.GoToPage(context.Background(), 2); !errors.Is(err, domain.ErrNoDocumentOpen) {
		t.Errorf("Expected ErrNoDocumentOpen, got %v", err)
	}
}

func TestRenderQueueSequencing(t *testing.T) {
	doc := &fakeDoc{pages: 50}
	session, _, _, _ := newTestSession(t, doc)

	if err := session.Open(context.Background(), "b1"); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	// Block renders so the burst lands while a drain is in progress.
	gate := make(chan struct{})
	doc.mu.Lock()
	doc.gate = gate
	doc.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = session.GoToPage(context.Background(), 2)
	}()

	// Wait for the drain to enter the blocked render.
	for {
		doc.mu.Lock()
		started := doc.inFlight > 0
		doc.mu.Unlock()
		if started {
			break
		}
		time.Sleep(time.Millisecond)
	}

	// Rapid slider-style navigation while the drain is busy: these must
	// only enqueue, never start a second drain.
	for _, n := range []int{3, 4, 5, 6, 7} {
		if err := session.GoToPage(context.Background(), n); err != nil {
			t.Fatalf("GoToPage(%d) failed: %v", n, err)
		}
	}

	// Only the initial page-1 render from Open has completed; the gated
	// drain has not finished a single navigation render yet.
	if got := doc.renderCount(); got != 1 {
		t.Errorf("Expected only the initial render completed while gated, got %d", got)
	}

	close(gate)
	wg.Wait()

	if session.CurrentPage() != 7 {
		t.Errorf("Expected to end on the last requested page 7, got %d", session.CurrentPage())
	}
	if doc.maxInFlight > 1 {
		t.Errorf("Expected at most one render in flight, observed %d", doc.maxInFlight)
	}
	// Pages 2..7 plus the initial render of page 1.
	if doc.renderCount() > 7 {
		t.Errorf("Expected at most 7 renders, got %d", doc.renderCount())
	}
	if doc.lastRender() != 7 {
		t.Errorf("Expected final render of page 7, got %d", doc.lastRender())
	}
	if session.QueueLength() != 0 {
		t.Errorf("Expected drained queue, got %d pending", session.QueueLength())
	}
}

func TestZoomClamping(t *testing.T) {
	doc := &fakeDoc{pages: 5}
	session, _, _, _ := newTestSession(t, doc)

	if err := session.Open(context.Background(), "b1"); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	for i := 0; i < 20; i++ {
		if err := session.ZoomIn(context.Background()); err != nil {
			t.Fatalf("ZoomIn failed: %v", err)
		}
	}
	if session.Scale() != MaxScale {
		t.Errorf("Expected scale clamped to %v, got %v", MaxScale, session.Scale())
	}

	for i := 0; i < 40; i++ {
		if err := session.ZoomOut(context.Background()); err != nil {
			t.Fatalf("ZoomOut failed: %v", err)
		}
	}
	if session.Scale() != MinScale {
		t.Errorf("Expected scale clamped to %v, got %v", MinScale, session.Scale())
	}
}

func TestZoomRerendersCurrentPage(t *testing.T) {
	doc := &fakeDoc{pages: 5}
	session, _, _, _ := newTestSession(t, doc)

	if err := session.Open(context.Background(), "b1"); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := session.GoToPage(context.Background(), 3); err != nil {
		t.Fatalf("GoToPage failed: %v", err)
	}
	base := doc.renderCount()

	if err := session.ZoomIn(context.Background()); err != nil {
		t.Fatalf("ZoomIn failed: %v", err)
	}

	if doc.renderCount() != base+1 {
		t.Errorf("Expected one repaint, got %d", doc.renderCount()-base)
	}
	if doc.lastRender() != 3 {
		t.Errorf("Expected repaint of page 3, got %d", doc.lastRender())
	}
	doc.mu.Lock()
	scale := doc.renderedScale
	doc.mu.Unlock()
	if scale != 1.25 {
		t.Errorf("Expected repaint at scale 1.25, got %v", scale)
	}
	if session.CurrentPage() != 3 {
		t.Errorf("Expected to stay on page 3, got %d", session.CurrentPage())
	}
}

func TestZoomOnClosedSession(t *testing.T) {
	session, _, _, _ := newTestSession(t, &fakeDoc{pages: 5})
	if err := session.ZoomIn(context.Background()); !errors.Is(err, domain.ErrNoDocumentOpen) {
		t.Errorf("Expected ErrNoDocumentOpen, got %v", err)
	}
}

func TestRenderFailureMidNavigation(t *testing.T) {
	doc := &fakeDoc{pages: 5, failOnPage: 3}
	session, _, _, _ := newTestSession(t, doc)

	if err := session.Open(context.Background(), "b1"); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	err := session.GoToPage(context.Background(), 3)
	if !apperrors.IsType(err, apperrors.ErrorTypeRender) {
		t.Fatalf("Expected render error, got %v", err)
	}
	if session.State() != StateError {
		t.Errorf("Expected error state, got %s", session.State())
	}
	if session.QueueLength() != 0 {
		t.Errorf("Expected cleared queue, got %d pending", session.QueueLength())
	}
}

func TestCloseThenReopen(t *testing.T) {
	doc := &fakeDoc{pages: 8}
	session, fetcher, _, sink := newTestSession(t, doc)

	decryptCalls := 0
	session.deps.Decrypt = func(payload []byte, passphrase string) ([]byte, error) {
		decryptCalls++
		return secure.Decrypt(payload, passphrase)
	}

	if err := session.Open(context.Background(), "b1"); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := session.GoToPage(context.Background(), 5); err != nil {
		t.Fatalf("GoToPage failed: %v", err)
	}
	_ = session.ZoomIn(context.Background())

	session.Close()

	if session.State() != StateClosed {
		t.Errorf("Expected closed state, got %s", session.State())
	}
	if session.CurrentPage() != 1 || session.Scale() != 1.0 || session.QueueLength() != 0 {
		t.Errorf("Expected defaults after close: page=%d scale=%v queue=%d",
			session.CurrentPage(), session.Scale(), session.QueueLength())
	}
	doc.mu.Lock()
	closed := doc.closed
	doc.mu.Unlock()
	if !closed {
		t.Error("Expected document resource released on close")
	}
	sink.mu.Lock()
	cleared := sink.cleared
	sink.mu.Unlock()
	if cleared == 0 {
		t.Error("Expected sink cleared on close")
	}

	// Reopening fetches and decrypts from scratch; nothing is cached.
	if err := session.Open(context.Background(), "b1"); err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	if fetcher.callCount() != 2 {
		t.Errorf("Expected 2 fetches across sessions, got %d", fetcher.callCount())
	}
	if decryptCalls != 2 {
		t.Errorf("Expected 2 decrypt calls across sessions, got %d", decryptCalls)
	}
	if session.State() != StateOpen || session.CurrentPage() != 1 {
		t.Errorf("Expected fresh open at page 1, got %s page %d", session.State(), session.CurrentPage())
	}
}

func TestCloseDuringLoad(t *testing.T) {
	doc := &fakeDoc{pages: 5}
	session, fetcher, _, _ := newTestSession(t, doc)
	fetcher.blockCtx = true

	errCh := make(chan error, 1)
	go func() {
		errCh <- session.Open(context.Background(), "b1")
	}()

	// Wait for the load to reach the fetch.
	for fetcher.callCount() == 0 {
		time.Sleep(time.Millisecond)
	}

	session.Close()

	if err := <-errCh; err == nil {
		t.Fatal("Expected the aborted open to report an error")
	}
	if session.State() != StateClosed {
		t.Errorf("Expected the session to stay closed, got %s", session.State())
	}
	if doc.renderCount() != 0 {
		t.Errorf("Expected no renders after aborted load, got %d", doc.renderCount())
	}
}

func TestOpenWhileLoadingIsRejected(t *testing.T) {
	session, fetcher, _, _ := newTestSession(t, &fakeDoc{pages: 5})
	fetcher.blockCtx = true

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = session.Open(ctx, "b1")
	}()
	for fetcher.callCount() == 0 {
		time.Sleep(time.Millisecond)
	}

	if err := session.Open(context.Background(), "b1"); !errors.Is(err, domain.ErrViewerBusy) {
		t.Errorf("Expected ErrViewerBusy, got %v", err)
	}
	cancel()
}

func TestNavigationHelpers(t *testing.T) {
	doc := &fakeDoc{pages: 4}
	session, _, _, _ := newTestSession(t, doc)

	if err := session.Open(context.Background(), "b1"); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	_ = session.NextPage(context.Background())
	if session.CurrentPage() != 2 {
		t.Errorf("Expected page 2 after NextPage, got %d", session.CurrentPage())
	}

	_ = session.LastPage(context.Background())
	if session.CurrentPage() != 4 {
		t.Errorf("Expected page 4 after LastPage, got %d", session.CurrentPage())
	}

	_ = session.NextPage(context.Background()) // past the end: no-op
	if session.CurrentPage() != 4 {
		t.Errorf("Expected page 4 after overflow NextPage, got %d", session.CurrentPage())
	}

	_ = session.PreviousPage(context.Background())
	if session.CurrentPage() != 3 {
		t.Errorf("Expected page 3 after PreviousPage, got %d", session.CurrentPage())
	}

	_ = session.FirstPage(context.Background())
	if session.CurrentPage() != 1 {
		t.Errorf("Expected page 1 after FirstPage, got %d", session.CurrentPage())
	}
}
