package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/h2non/filetype"
	"github.com/vfaronov/httpheader"
	"golang.org/x/sync/errgroup"

	"github.com/wordzap/aipack/internal/pack"
	"github.com/wordzap/aipack/internal/store"
	"github.com/wordzap/aipack/internal/utils"
)

// PartSuffix marks in-flight downloads so an aborted fetch never leaves a
// file that looks complete.
const PartSuffix = ".aippart"

// ProgressInterval throttles how often a fetch worker pushes progress events.
const ProgressInterval = 150 * time.Millisecond

// ErrNoInstallRoot indicates no acquisition has produced an install root yet.
var ErrNoInstallRoot = errors.New("install root unavailable")

// Config carries the directories and network parameters for an HTTPBackend.
type Config struct {
	StagingDir     string
	ModelsDir      string
	LeaseDir       string
	UserAgent      string
	ProbeTimeout   time.Duration
	MaxConnections int
	Client         *http.Client
}

// HTTPBackend acquires pack artifacts over plain HTTP(S), staging them into
// an install root under StagingDir. It implements Backend.
type HTTPBackend struct {
	spec pack.Spec
	cfg  Config

	mu          sync.Mutex
	started     bool
	cancelFn    context.CancelFunc
	lease       *Lease
	installRoot string
	preserve    float64
	events      chan any

	completed atomic.Int64
	total     atomic.Int64
}

// Compile time check for protocol compatibility
var _ Backend = (*HTTPBackend)(nil)

// NewHTTPBackend creates a backend for one pack spec.
func NewHTTPBackend(spec pack.Spec, cfg Config) *HTTPBackend {
	if cfg.Client == nil {
		cfg.Client = http.DefaultClient
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 10 * time.Second
	}
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = 4
	}
	return &HTTPBackend{
		spec:   spec,
		cfg:    cfg,
		events: make(chan any, 64),
	}
}

// CheckLocalUsable reports whether a usable copy of the pack already exists:
// either the registry points at a root that still holds a required artifact,
// or the models directory does. Any failure counts as "not present".
func (b *HTTPBackend) CheckLocalUsable() bool {
	if entry, err := store.LookupPack(b.spec.Family); err == nil && entry != nil {
		if store.HasAnyArtifact(entry.InstallRoot, b.spec.Required) {
			return true
		}
	}
	return store.HasAnyArtifact(filepath.Join(b.cfg.ModelsDir, b.spec.Family), b.spec.Required)
}

// BeginAcquisition takes the family lease and starts fetching all sources.
// Calling it again while an acquisition is in flight is a no-op.
func (b *HTTPBackend) BeginAcquisition(priority, preserve float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.started {
		return nil
	}
	if len(b.spec.Sources) == 0 {
		return fmt.Errorf("pack %q has no sources to acquire", b.spec.Family)
	}

	// A retry after a failed attempt still holds the previous lease.
	lease := b.lease
	if lease == nil || !lease.Held() {
		var err error
		lease, err = AcquireLease(b.cfg.LeaseDir, b.spec.Family)
		if err != nil {
			return err
		}
	}

	root := filepath.Join(b.cfg.StagingDir, b.spec.Family)
	if err := os.MkdirAll(root, 0o755); err != nil {
		_ = lease.Release()
		return fmt.Errorf("failed to create install root: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	b.lease = lease
	b.installRoot = root
	b.cancelFn = cancel
	b.preserve = preserve
	b.started = true
	b.completed.Store(0)
	b.total.Store(0)
	b.events = make(chan any, 64)

	go b.run(ctx, root, priority, preserve)
	return nil
}

// Progress returns the current snapshot.
func (b *HTTPBackend) Progress() Progress {
	return Progress{Completed: b.completed.Load(), Total: b.total.Load()}
}

// Events returns the notification channel for the current acquisition.
func (b *HTTPBackend) Events() <-chan any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.events
}

// InstallRoot returns the staging directory of the latest acquisition.
func (b *HTTPBackend) InstallRoot() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.installRoot == "" {
		return "", ErrNoInstallRoot
	}
	return b.installRoot, nil
}

// ReleaseLease releases the family reservation. Safe to call when no lease
// is held.
func (b *HTTPBackend) ReleaseLease() error {
	b.mu.Lock()
	lease := b.lease
	b.lease = nil
	b.mu.Unlock()

	if lease == nil {
		return nil
	}
	return lease.Release()
}

// Cancel aborts the in-flight acquisition. Partial files are discarded by
// the run loop unless the preserve hint asked to keep them.
func (b *HTTPBackend) Cancel() {
	b.mu.Lock()
	cancel := b.cancelFn
	b.cancelFn = nil
	b.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (b *HTTPBackend) run(ctx context.Context, root string, priority, preserve float64) {
	defer func() {
		b.mu.Lock()
		b.started = false
		b.mu.Unlock()
	}()

	// Size the acquisition up front so fraction reporting is meaningful.
	sizes := make([]int64, len(b.spec.Sources))
	var total int64
	for i, src := range b.spec.Sources {
		if ctx.Err() != nil {
			return
		}
		sizes[i] = b.probeSize(ctx, src.URL)
		total += sizes[i]
	}
	b.total.Store(total)
	b.emitProgress()

	g, gctx := errgroup.WithContext(ctx)
	limit := b.cfg.MaxConnections
	if priority < 1.0 && limit > 1 {
		// Low-priority acquisitions fetch one source at a time.
		limit = 1
	}
	g.SetLimit(limit)

	for i, src := range b.spec.Sources {
		g.Go(func() error {
			return b.fetch(gctx, root, src, sizes[i])
		})
	}

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			// Cancelled by the caller, not a failure.
			if preserve < 0.5 {
				b.discardPartials(root)
			}
			return
		}
		utils.Debug("acquisition failed for %s: %v", b.spec.Family, err)
		b.emitTerminal(FailedEvent{Reason: err.Error()})
		return
	}

	b.emitProgress()
	b.emitTerminal(ReadyEvent{InstallRoot: root})
}

// probeSize asks the server for the payload size, falling back to a ranged
// GET for servers that reject HEAD. Unknown sizes report 0.
func (b *HTTPBackend) probeSize(ctx context.Context, url string) int64 {
	probeCtx, cancel := context.WithTimeout(ctx, b.cfg.ProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodHead, url, nil)
	if err != nil {
		return 0
	}
	b.setHeaders(req)

	resp, err := b.cfg.Client.Do(req)
	if err == nil {
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode < 400 && resp.ContentLength > 0 {
			return resp.ContentLength
		}
	}

	// Ranged GET fallback: total size comes from Content-Range.
	req, err = http.NewRequestWithContext(probeCtx, http.MethodGet, url, nil)
	if err != nil {
		return 0
	}
	b.setHeaders(req)
	req.Header.Set("Range", "bytes=0-0")

	resp, err = b.cfg.Client.Do(req)
	if err != nil {
		return 0
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusPartialContent {
		if total := parseContentRangeTotal(resp.Header.Get("Content-Range")); total > 0 {
			return total
		}
	}
	if resp.StatusCode < 400 && resp.ContentLength > 0 {
		return resp.ContentLength
	}
	return 0
}

// parseContentRangeTotal extracts the complete length from a
// "bytes 0-0/12345" header value, returning 0 when unknown.
func parseContentRangeTotal(v string) int64 {
	idx := strings.LastIndexByte(v, '/')
	if idx == -1 {
		return 0
	}
	total, err := strconv.ParseInt(strings.TrimSpace(v[idx+1:]), 10, 64)
	if err != nil {
		return 0
	}
	return total
}

func (b *HTTPBackend) fetch(ctx context.Context, root string, src pack.Source, probedSize int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return fmt.Errorf("invalid source url %s: %w", src.URL, err)
	}
	b.setHeaders(req)

	resp, err := b.cfg.Client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", src.URL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("fetch %s: server returned %s", src.URL, resp.Status)
	}

	// The probe may have failed where the real GET succeeds; account for the
	// size now so the fraction still converges to 1.
	if probedSize == 0 && resp.ContentLength > 0 {
		b.total.Add(resp.ContentLength)
	}

	// Peek at the payload head: it names unnamed sources via type sniffing.
	head := make([]byte, 262)
	n, err := io.ReadFull(resp.Body, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return fmt.Errorf("fetch %s: %w", src.URL, err)
	}
	head = head[:n]

	name := b.destName(src, resp, head)
	partPath := filepath.Join(root, name+PartSuffix)

	f, err := os.Create(partPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", partPath, err)
	}

	w := &countingWriter{backend: b}
	err = nil
	if n > 0 {
		_, err = f.Write(head)
		_, _ = w.Write(head)
	}
	if err == nil {
		_, err = io.Copy(io.MultiWriter(f, w), resp.Body)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		// On cancellation the part file stays; the run loop decides its
		// fate from the preserve hint.
		if ctx.Err() == nil {
			_ = os.Remove(partPath)
		}
		return fmt.Errorf("fetch %s: %w", src.URL, err)
	}

	return os.Rename(partPath, filepath.Join(root, name))
}

// destName resolves the filename an artifact is staged under: the manifest
// name, then the Content-Disposition filename, then the URL path, then a
// generated name with a sniffed extension.
func (b *HTTPBackend) destName(src pack.Source, resp *http.Response, head []byte) string {
	if src.Name != "" {
		return filepath.Base(src.Name)
	}

	if _, filename, _ := httpheader.ContentDisposition(resp.Header); filename != "" {
		return filepath.Base(filename)
	}

	if base := path.Base(resp.Request.URL.Path); base != "" && base != "." && base != "/" {
		return base
	}

	t, err := filetype.Match(head)
	if err != nil || t == filetype.Unknown {
		return fmt.Sprintf("artifact-%x.bin", hashString(src.URL))
	}
	return fmt.Sprintf("artifact-%x.%s", hashString(src.URL), t.Extension)
}

func hashString(s string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}

func (b *HTTPBackend) setHeaders(req *http.Request) {
	if b.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", b.cfg.UserAgent)
	}
}

func (b *HTTPBackend) discardPartials(root string) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), PartSuffix) {
			_ = os.Remove(filepath.Join(root, e.Name()))
		}
	}
}

func (b *HTTPBackend) emitProgress() {
	b.mu.Lock()
	ch := b.events
	b.mu.Unlock()

	// Non-blocking: a slow consumer only needs the latest snapshot.
	select {
	case ch <- ProgressEvent{Progress: b.Progress()}:
	default:
	}
}

// emitTerminal delivers a Ready/Failed event, dropping stale progress events
// if the buffer is full. Terminal events are never lost.
func (b *HTTPBackend) emitTerminal(ev any) {
	b.mu.Lock()
	ch := b.events
	b.mu.Unlock()

	for {
		select {
		case ch <- ev:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

// countingWriter accumulates fetched bytes into the backend's shared counter
// and pushes throttled progress events.
type countingWriter struct {
	backend  *HTTPBackend
	lastEmit time.Time
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.backend.completed.Add(int64(len(p)))
	if time.Since(w.lastEmit) >= ProgressInterval {
		w.lastEmit = time.Now()
		w.backend.emitProgress()
	}
	return len(p), nil
}
