package pager

import (
	"sync"
	"sync/atomic"

	"github.com/nkysg/intro-to-database/pkg/list"
)

// NoPage is the pagenum for when there is no page being held
const NoPage = -1

// Page caches a page from disk and stores additional metadata.
type Page struct {
	pager    *Pager            // Pointer to the pager that this page belongs to
	pagenum  int64             // Unique identifier for the page also denoting it's position stored in the pager's file
	frame    int64             // Index of the buffer frame whose memory this page occupies
	pinCount atomic.Int64      // The number of active references to this page
	dirty    bool              // Flag on whether the page's data has changed and needs to be written to disk
	rwlock   sync.RWMutex      // Reader-writer lock on the page struct itself
	link     *list.Link[*Page] // The page's link in the pinned or unpinned list, nil while its frame is free
	data     []byte            // Serialized data (the actual 4096 bytes of the page)
}

// GetPager returns the pager this page belongs to.
func (page *Page) GetPager() *Pager {
	return page.pager
}

// GetPageNum returns the page's pagenum (unique identifier).
func (page *Page) GetPageNum() int64 {
	return page.pagenum
}

// GetFrame returns the index of the buffer frame this page occupies.
func (page *Page) GetFrame() int64 {
	return page.frame
}

// IsDirty reports whether the page's data has changed and needs to be written to disk.
func (page *Page) IsDirty() bool {
	return page.dirty
}

// SetDirty changes the dirty status of a page.
func (page *Page) SetDirty(dirty bool) {
	page.dirty = dirty
}

// GetData returns the byte data held by the page.
func (page *Page) GetData() []byte {
	return page.data
}

// Get increments the pin count, indicating that another process is using this page.
func (page *Page) Get() {
	page.pinCount.Add(1)
}

// Put decrements the pincount, indicating that a process is done using this page.
func (page *Page) Put() int64 {
	return page.pinCount.Add(-1)
}

// Update updates this page with `size` bytes of the the given data slice at the specified offset.
func (page *Page) Update(data []byte, offset int64, size int64) {
	page.dirty = true
	copy(page.data[offset:offset+size], data)
}

// [CONCURRENCY] Grab a writers lock on the page.
func (page *Page) WLock() {
	page.rwlock.Lock()
}

// [CONCURRENCY] Release a writers lock.
func (page *Page) WUnlock() {
	page.rwlock.Unlock()
}

// [CONCURRENCY] Grab a readers lock on the page.
func (page *Page) RLock() {
	page.rwlock.RLock()
}

// [CONCURRENCY] Release a readers lock.
func (page *Page) RUnlock() {
	page.rwlock.RUnlock()
}
