package tools

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/docsearch/documenter-mcp/internal/config"
	"github.com/docsearch/documenter-mcp/internal/fulltext"
	"github.com/docsearch/documenter-mcp/internal/searchindex"
)

const (
	docsFile         = "docs/search_index.js"
	cacheMetaFile    = "docs/cache.meta"
	indexDir         = "search/index"
	lockFile         = "search/index.lock"
	indexVersionFile = "search/.index_version"

	// maxDownloadSize caps the body read from source_url
	maxDownloadSize = 64 << 20
)

// Where a loaded table came from
const (
	SourceDownloaded = "downloaded"
	SourceEmbedded   = "embedded"
)

// snapshot is everything a search needs, swapped as one unit
type snapshot struct {
	// index is nil when no full-text index could be opened or built;
	// searches then fall back to scanning table
	index    Index
	table    *searchindex.Table
	source   string
	loadedAt time.Time

	// mu is read-held by every search using the snapshot; close takes it
	// exclusively, so an index is never closed under a running search
	mu     sync.RWMutex
	closed bool
}

func (s *snapshot) release() {
	s.mu.RUnlock()
}

// close waits for in-flight searches, then closes the index
func (s *snapshot) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.index == nil {
		return nil
	}
	return s.index.Close()
}

// indexHolder manages concurrent access to the active snapshot
type indexHolder struct {
	// current holds the active snapshot (atomic access for lock-free reads)
	current atomic.Pointer[snapshot]

	// refreshMu prevents concurrent refresh operations
	// NOT used for searches - they only take the snapshot's read lock
	refreshMu sync.Mutex
}

// acquire returns the active snapshot read-locked, or nil. Callers must
// release it when finished.
func (h *indexHolder) acquire() *snapshot {
	for {
		snap := h.current.Load()
		if snap == nil {
			return nil
		}
		snap.mu.RLock()
		if !snap.closed {
			return snap
		}
		// Swapped out and closed between Load and RLock; current has moved on
		snap.mu.RUnlock()
	}
}

// swap installs next and closes the previous snapshot once in-flight searches finish
func (h *indexHolder) swap(next *snapshot, log *logrus.Entry) {
	old := h.current.Swap(next)
	if old == nil {
		return
	}

	go func() {
		waitStart := time.Now()
		if err := old.close(); err != nil {
			log.WithError(err).Warn("Error closing previous index")
			return
		}
		log.WithField("waited", time.Since(waitStart).Round(time.Millisecond)).Debug("Previous index closed")
	}()
}

// DocSearch serves the search index to the MCP tools: it keeps the parsed
// table in memory and a bleve index on disk next to it.
type DocSearch struct {
	cfg    *config.Config
	log    *logrus.Entry
	bundle BundledIndex
	client *http.Client
	lock   *indexLock

	holder indexHolder
	initMu sync.Mutex
}

// NewDocSearch creates a DocSearch. Nothing is loaded until Initialize.
func NewDocSearch(cfg *config.Config, logger *logrus.Logger, bundle BundledIndex) *DocSearch {
	log := logger.WithField("component", "docsearch")
	return &DocSearch{
		cfg:    cfg,
		log:    log,
		bundle: bundle,
		client: &http.Client{Timeout: cfg.HTTPTimeout},
		lock:   newIndexLock(filepath.Join(cfg.DataDir, lockFile), cfg.LockTimeout, cfg.LockRetryWait, log),
	}
}

func (d *DocSearch) path(rel string) string {
	return filepath.Join(d.cfg.DataDir, rel)
}

// Initialize loads the newest available table and opens (or builds) its index.
// Priority: downloaded file (if it parses) > embedded copy (always available).
func (d *DocSearch) Initialize(ctx context.Context) error {
	d.initMu.Lock()
	defer d.initMu.Unlock()

	if d.holder.current.Load() != nil {
		return nil
	}

	startTime := time.Now()
	d.log.Info("Initializing documentation search...")

	table, source, err := d.loadTable()
	if err != nil {
		return err
	}

	index := d.openIndex(ctx, table)
	d.holder.swap(&snapshot{index: index, table: table, source: source, loadedAt: time.Now()}, d.log)

	d.log.WithFields(logrus.Fields{
		"records":  table.Len(),
		"source":   source,
		"fulltext": index != nil,
		"elapsed":  time.Since(startTime).Round(time.Millisecond),
	}).Info("Documentation search initialized")

	if source == SourceEmbedded && d.cfg.SourceURL != "" {
		d.log.Info("Using embedded search index (build-time). Use refresh_documentation_index to get the latest one.")
	} else if d.needsRefresh() && d.cfg.SourceURL != "" {
		d.log.Infof("Local search index is older than %v. Consider using refresh_documentation_index to update.", d.cfg.CacheTTL)
	}
	return nil
}

// loadTable reads the downloaded index, falling back to the embedded one
func (d *DocSearch) loadTable() (*searchindex.Table, string, error) {
	table, err := searchindex.Load(d.path(docsFile))
	if err == nil {
		return table, SourceDownloaded, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		d.log.WithError(err).Warn("Downloaded search index unusable, using embedded copy")
	}

	table, err = d.bundle.Table()
	if err != nil {
		return nil, "", err
	}
	return table, SourceEmbedded, nil
}

// openIndex returns an index for table, or nil if none could be made. The
// on-disk index is reused when its schema version and size match, otherwise
// rebuilt. Without the inter-process lock an in-memory index is used instead.
func (d *DocSearch) openIndex(ctx context.Context, table *searchindex.Table) Index {
	if err := d.lock.Acquire(ctx); err != nil {
		d.log.WithError(err).Warn("Index lock unavailable, using in-memory index")
		return d.buildInMemory(table)
	}

	indexPath := d.path(indexDir)
	if _, err := os.Stat(indexPath); err == nil {
		if version := d.indexVersion(); version != searchindex.IndexSchemaVersion {
			d.log.Infof("Index schema version mismatch (have: v%d, want: v%d), rebuilding...",
				version, searchindex.IndexSchemaVersion)
		} else if index, err := fulltext.Open(indexPath); err != nil {
			d.log.WithError(err).Warn("Local index corrupted, rebuilding...")
		} else {
			wrapped := NewBleveIndex(index)
			count, err := wrapped.DocCount()
			if err == nil && int(count) == table.Len() {
				return wrapped
			}
			d.log.WithFields(logrus.Fields{"indexed": count, "records": table.Len()}).Info("Local index out of date, rebuilding...")
			wrapped.Close()
		}
	}

	index, err := d.buildIndex(table)
	if err != nil {
		d.log.WithError(err).Warn("Failed to build on-disk index, using in-memory index")
		return d.buildInMemory(table)
	}
	return index
}

func (d *DocSearch) buildInMemory(table *searchindex.Table) Index {
	index, err := fulltext.BuildInMemory(table)
	if err != nil {
		d.log.WithError(err).Warn("Failed to build in-memory index, falling back to table scan")
		return nil
	}
	return NewBleveIndex(index)
}

// buildIndex indexes table in a temp directory, swaps it into place and opens it
func (d *DocSearch) buildIndex(table *searchindex.Table) (Index, error) {
	startTime := time.Now()
	indexPath := d.path(indexDir)
	tempIndexPath := indexPath + ".tmp"

	// Clean up any leftover temp index from previous crash
	os.RemoveAll(tempIndexPath)
	if err := os.MkdirAll(filepath.Dir(tempIndexPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	newIndex, err := fulltext.Create(tempIndexPath)
	if err != nil {
		return nil, err
	}

	err = fulltext.IndexTable(newIndex, table, fulltext.DefaultBatchSize, func(done, total int) {
		d.log.Debugf("Indexed %d/%d records...", done, total)
	})
	if err != nil {
		newIndex.Close()
		os.RemoveAll(tempIndexPath)
		return nil, err
	}
	if err := newIndex.Close(); err != nil {
		os.RemoveAll(tempIndexPath)
		return nil, fmt.Errorf("failed to close temp index: %w", err)
	}

	// Filesystem swap: the old directory may still be open by the previous
	// snapshot, which keeps working on its unlinked files until closed
	if err := os.RemoveAll(indexPath); err != nil {
		os.RemoveAll(tempIndexPath)
		return nil, fmt.Errorf("failed to remove old index: %w", err)
	}
	if err := os.Rename(tempIndexPath, indexPath); err != nil {
		os.RemoveAll(tempIndexPath)
		return nil, fmt.Errorf("failed to rename temp index: %w", err)
	}

	finalIndex, err := fulltext.Open(indexPath)
	if err != nil {
		return nil, err
	}

	if err := d.writeIndexVersion(); err != nil {
		d.log.WithError(err).Warn("Failed to write index version")
	}

	d.log.WithFields(logrus.Fields{
		"records": table.Len(),
		"elapsed": time.Since(startTime).Round(time.Millisecond),
	}).Info("Index built")
	return NewBleveIndex(finalIndex), nil
}

// indexVersion reads the index schema version from disk, 0 when unknown
func (d *DocSearch) indexVersion() int {
	data, err := os.ReadFile(d.path(indexVersionFile))
	if err != nil {
		return 0
	}
	version, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return version
}

func (d *DocSearch) writeIndexVersion() error {
	return WriteIndexVersion(d.path(indexVersionFile))
}

// WriteIndexVersion records the current index schema version at path
func WriteIndexVersion(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(searchindex.IndexSchemaVersion)), 0644)
}

// needsRefresh reports whether the cache metadata is missing or older than the TTL
func (d *DocSearch) needsRefresh() bool {
	info, err := os.Stat(d.path(cacheMetaFile))
	if err != nil {
		return true
	}
	return time.Since(info.ModTime()) > d.cfg.CacheTTL
}

// lastUpdate returns when the cache metadata was last written
func (d *DocSearch) lastUpdate() (time.Time, bool) {
	info, err := os.Stat(d.path(cacheMetaFile))
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

// download fetches source_url and returns the parsed table. The file on disk
// is only replaced once the payload has parsed.
func (d *DocSearch) download(ctx context.Context) (*searchindex.Table, error) {
	d.log.WithField("url", d.cfg.SourceURL).Info("Downloading search index")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.cfg.SourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed with status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	table, err := searchindex.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("downloaded search index is invalid: %w", err)
	}
	if err := searchindex.WriteFile(d.path(docsFile), table); err != nil {
		return nil, err
	}
	return table, nil
}

func (d *DocSearch) writeCacheMeta() error {
	metaPath := d.path(cacheMetaFile)
	if err := os.MkdirAll(filepath.Dir(metaPath), 0755); err != nil {
		return fmt.Errorf("failed to create docs directory: %w", err)
	}
	content := fmt.Sprintf("last_update: %s\n", time.Now().Format(time.RFC3339))
	if d.cfg.SourceURL != "" {
		content += fmt.Sprintf("source_url: %s\n", d.cfg.SourceURL)
	}
	return os.WriteFile(metaPath, []byte(content), 0644)
}

// RefreshResult describes what Refresh did
type RefreshResult struct {
	Updated    bool
	Records    int
	Source     string
	LastUpdate time.Time
}

// Refresh downloads source_url (or re-reads the embedded copy when no URL is
// configured) and rebuilds the index. Without force it does nothing while
// the cache is fresh.
func (d *DocSearch) Refresh(ctx context.Context, force bool) (RefreshResult, error) {
	if !force && !d.needsRefresh() {
		d.log.Debug("Search index cache is fresh, skipping refresh")
		return d.currentResult(false), nil
	}

	// Serialize refresh operations (prevent concurrent refreshes)
	d.holder.refreshMu.Lock()
	defer d.holder.refreshMu.Unlock()

	// Another goroutine may have already refreshed while we were waiting
	if !force && !d.needsRefresh() {
		d.log.Debug("Search index was refreshed by another goroutine, skipping")
		return d.currentResult(false), nil
	}

	startTime := time.Now()
	d.log.WithField("force", force).Info("Starting search index refresh...")

	var (
		table  *searchindex.Table
		source string
		err    error
	)
	if d.cfg.SourceURL != "" {
		table, err = d.download(ctx)
		if err != nil {
			return RefreshResult{}, fmt.Errorf("download failed: %w", err)
		}
		source = SourceDownloaded
	} else {
		table, source, err = d.loadTable()
		if err != nil {
			return RefreshResult{}, err
		}
	}

	if violations := searchindex.Validate(table); len(violations) > 0 {
		d.log.WithFields(logrus.Fields{
			"violations": len(violations),
			"first":      violations[0].String(),
		}).Warn("Search index has invariant violations")
	}

	var index Index
	if err := d.lock.Acquire(ctx); err != nil {
		d.log.WithError(err).Warn("Index lock unavailable, rebuilding in memory")
		index = d.buildInMemory(table)
	} else if index, err = d.buildIndex(table); err != nil {
		return RefreshResult{}, fmt.Errorf("indexing failed: %w", err)
	}

	if err := d.writeCacheMeta(); err != nil {
		d.log.WithError(err).Warn("Failed to write cache metadata")
	}

	d.holder.swap(&snapshot{index: index, table: table, source: source, loadedAt: time.Now()}, d.log)

	d.log.WithFields(logrus.Fields{
		"records": table.Len(),
		"elapsed": time.Since(startTime).Round(time.Millisecond),
	}).Info("Search index refresh completed")

	return d.currentResult(true), nil
}

func (d *DocSearch) currentResult(updated bool) RefreshResult {
	result := RefreshResult{Updated: updated}
	if snap := d.holder.current.Load(); snap != nil {
		result.Records = snap.table.Len()
		result.Source = snap.source
		result.LastUpdate = snap.loadedAt
	}
	if t, ok := d.lastUpdate(); ok {
		result.LastUpdate = t
	}
	return result
}

// acquire returns the active snapshot, initializing on first use. Callers
// must release it when finished.
func (d *DocSearch) acquire(ctx context.Context) (*snapshot, error) {
	if snap := d.holder.acquire(); snap != nil {
		return snap, nil
	}

	d.log.Info("Search index not initialized, initializing now...")
	if err := d.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize search index: %w", err)
	}
	snap := d.holder.acquire()
	if snap == nil {
		return nil, fmt.Errorf("search index still nil after initialization")
	}
	return snap, nil
}

// SearchResponse holds the hits of one Search call
type SearchResponse struct {
	Hits   []fulltext.Hit
	Total  int
	Source string // table the hits came from
}

// Search runs query against the full-text index, or scans the table when
// there is no index
func (d *DocSearch) Search(ctx context.Context, query string, limit int, category searchindex.Category) (SearchResponse, error) {
	snap, err := d.acquire(ctx)
	if err != nil {
		return SearchResponse{}, err
	}
	defer snap.release()

	index := snap.index
	if index == nil {
		index = newTableIndex(snap.table)
	}
	hits, total, err := index.Search(ctx, query, category, limit)
	if err != nil {
		return SearchResponse{}, err
	}
	return SearchResponse{Hits: hits, Total: total, Source: snap.source}, nil
}

// Table returns the active table, initializing on first use
func (d *DocSearch) Table(ctx context.Context) (*searchindex.Table, string, error) {
	snap, err := d.acquire(ctx)
	if err != nil {
		return nil, "", err
	}
	defer snap.release()
	return snap.table, snap.source, nil
}

// Close closes the index and releases the inter-process lock
func (d *DocSearch) Close() error {
	var closeErr error

	// Atomically swap snapshot to nil (prevents new searches)
	if snap := d.holder.current.Swap(nil); snap != nil {
		d.log.Debug("Waiting for in-flight searches to complete before closing...")
		if closeErr = snap.close(); closeErr != nil {
			d.log.WithError(closeErr).Error("Error closing search index")
		} else {
			d.log.Info("Search index closed")
		}
	}

	// Always attempt to release inter-process lock, even if close failed
	if err := d.lock.Release(); err != nil {
		d.log.WithError(err).Error("Error releasing lock")
		if closeErr == nil {
			closeErr = err
		}
	}

	return closeErr
}
