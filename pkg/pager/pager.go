// Package pager implements the page and pager abstractions used for efficient io operations in our database
package pager

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/nkysg/intro-to-database/pkg/config"
	"github.com/nkysg/intro-to-database/pkg/hash"
	"github.com/nkysg/intro-to-database/pkg/list"

	"github.com/bits-and-blooms/bitset"
	"github.com/ncw/directio"
)

// Pagesize is the size of an individual page (ie the maximum number of bytes that the page can hold) - defaults to 4kb.
const Pagesize int64 = directio.BlockSize

// Error for when there are no free/unpinned pages to be used
var ErrRanOutOfPages = errors.New("no available pages")

// Pager is a data structure that manages pages of data stored in a file.
// The buffer holds config.MaxPagesInBuffer fixed frames; which pagenum
// currently occupies which frame is tracked by an extendible hash table.
type Pager struct {
	file         *os.File          // File descriptor for the file that backs this pager on disk.
	numPages     int64             // The number of pages that this pager has access to (both on disk and in memory).
	frames       []*Page           // Every buffer frame, indexed by frame number; fixed at construction.
	freeFrames   *bitset.BitSet    // Set bits mark frames that have not held a page since the pager was opened.
	unpinnedList *list.List[*Page] // The list of pages in memory that have yet to be evicted, but are not currently in use.
	pinnedList   *list.List[*Page] // The list of in-memory pages currently being used by the database.
	// The page table: maps pagenums to the index of the frame buffering that page.
	pageTable *hash.HashTable[int64, int64]
	ptMtx     sync.Mutex // Mutex for protecting the page table for concurrent use.
}

// New constructs a new Pager, backing it with a database file at the specified filePath.
// See [*Pager.Open] for more details on backing the Pager with database files.
func New(filePath string) (pager *Pager, err error) {
	pager = &Pager{}
	block := directio.AlignedBlock(int(Pagesize * config.MaxPagesInBuffer))
	pager.frames = make([]*Page, config.MaxPagesInBuffer)
	for i := range pager.frames {
		pager.frames[i] = &Page{
			pager:   pager,
			pagenum: NoPage,
			frame:   int64(i),
			data:    block[i*int(Pagesize) : (i+1)*int(Pagesize)],
		}
	}
	pager.freeFrames = bitset.New(uint(config.MaxPagesInBuffer))

	err = pager.Open(filePath)
	if err != nil {
		pager = nil
	}
	return
}

// GetFileName returns the file name/path used to open the pager's backing file.
func (pager *Pager) GetFileName() (filename string) {
	return pager.file.Name()
}

// GetNumPages returns the number of pages.
func (pager *Pager) GetNumPages() (numPages int64) {
	return pager.numPages
}

// GetFreePN returns the next available page number.
func (pager *Pager) GetFreePN() (nextPN int64) {
	// Assign the first page number beyond the end of the file.
	return pager.numPages
}

// GetPageTable returns the hash table indexing which frame buffers each page.
func (pager *Pager) GetPageTable() *hash.HashTable[int64, int64] {
	return pager.pageTable
}

// Open (re-)initializes our pager with a database file at the specified filePath.
//
// If the database file didn't exist previously, it is created.
// If the database file does exist but it can't be opened or
// it's contents are not properly aligned to PAGESIZE, returns an error.
// The Pager should not be used if an error is returned.
//
// Opening always starts from an empty page table: page data outlives a
// close/open cycle through the file, but the pagenum to frame mapping is
// rebuilt from scratch as pages are fetched again.
func (pager *Pager) Open(filePath string) (err error) {
	// Create the necessary prerequisite directories.
	if idx := strings.LastIndex(filePath, "/"); idx != -1 {
		err = os.MkdirAll(filePath[:idx], 0775)
		if err != nil {
			return err
		}
	}
	// Open or create the db file.
	pager.file, err = directio.OpenFile(filePath, os.O_RDWR|os.O_CREATE, 0666)
	if err != nil {
		return err
	}
	// Get info about the size of the pager.
	var info os.FileInfo
	var len int64
	if info, err = pager.file.Stat(); err == nil {
		len = info.Size()
		if len%Pagesize != 0 {
			return errors.New("DB file has been corrupted")
		}
	}
	// Fresh bookkeeping: every frame free, nothing buffered, empty page table.
	pager.pageTable, err = hash.NewHashTable[int64, int64](config.DefaultBucketCapacity, hash.XxHasher)
	if err != nil {
		return err
	}
	pager.unpinnedList = list.NewList[*Page]()
	pager.pinnedList = list.NewList[*Page]()
	for i := uint(0); i < uint(config.MaxPagesInBuffer); i++ {
		pager.freeFrames.Set(i)
	}
	for _, page := range pager.frames {
		page.pagenum = NoPage
		page.dirty = false
		page.pinCount.Store(0)
		page.link = nil
	}
	// Set the number of pages and hand off initialization to someone else.
	pager.numPages = len / Pagesize
	return nil
}

// Close signals our pager to flush all dirty pages to disk
// and close its backing file.
func (pager *Pager) Close() error {
	// Prevent new data from being paged in.
	pager.ptMtx.Lock()
	defer pager.ptMtx.Unlock()
	// Check that no pages are in the pinned list
	curLink := pager.pinnedList.PeekHead()
	if curLink != nil {
		return errors.New("pages are still pinned on close")
	}
	// Cleanup.
	pager.FlushAllPages()
	return pager.file.Close()
}

// fillPageFromDisk populate a page's data field from the data currently on disk.
// Returns an error if there was an io problem reading from disk.
func (pager *Pager) fillPageFromDisk(page *Page) error {
	if _, err := pager.file.Seek(page.pagenum*Pagesize, 0); err != nil {
		return err
	}
	if _, err := pager.file.Read(page.data); err != nil && err != io.EOF {
		return err
	}
	return nil
}

// newPage returns a currently unused page to buffer the given pagenum,
// taking a never-used frame if one remains and evicting the least recently
// released page otherwise. Returns ErrRanOutOfPages if every frame is pinned.
// The ptMtx should be locked on entry.
func (pager *Pager) newPage(pagenum int64) (newPage *Page, err error) {
	if frame, ok := pager.freeFrames.NextSet(0); ok {
		// Check the free frames first.
		pager.freeFrames.Clear(frame)
		newPage = pager.frames[frame]
	} else if unpinLink := pager.unpinnedList.PeekHead(); unpinLink != nil {
		// If no frame was free, evict a page from the unpinned list:
		// flush its data and drop its page table mapping.
		unpinLink.PopSelf()
		newPage = unpinLink.GetValue()
		newPage.link = nil
		pager.FlushPage(newPage)
		pager.pageTable.Remove(newPage.pagenum)
	} else {
		// If still no page is found, error.
		return nil, ErrRanOutOfPages
	}
	newPage.pagenum = pagenum
	newPage.dirty = false
	newPage.pinCount.Store(1)
	return newPage, nil
}

// insertMapping records the page's pagenum to frame mapping in the page
// table, undoing the page's placement if the index refuses the insert.
// The ptMtx should be locked on entry.
func (pager *Pager) insertMapping(page *Page) error {
	err := pager.pageTable.Insert(page.pagenum, page.frame)
	if err == nil {
		return nil
	}
	if page.link != nil {
		page.link.PopSelf()
		page.link = nil
	}
	page.pagenum = NoPage
	page.dirty = false
	page.pinCount.Store(0)
	pager.freeFrames.Set(uint(page.frame))
	return fmt.Errorf("page table insert: %w", err)
}

// GetNewPage returns a new Page with the next available pagenum
func (pager *Pager) GetNewPage() (page *Page, err error) {
	pager.ptMtx.Lock()
	defer pager.ptMtx.Unlock()
	// Create a buffer to hold the new page in.
	page, err = pager.newPage(pager.numPages)
	if err != nil {
		return nil, err
	}

	// Mark dirty so new page is eventually flushed to disk.
	page.dirty = true
	// Insert new page into the pinned list and page table.
	page.link = pager.pinnedList.PushTail(page)
	if err = pager.insertMapping(page); err != nil {
		return nil, err
	}
	// Increment the total number of pages.
	pager.numPages++
	return page, nil
}

// GetPage returns an existing Page corresponding to the given pagenum.
func (pager *Pager) GetPage(pagenum int64) (page *Page, err error) {
	pager.ptMtx.Lock()
	defer pager.ptMtx.Unlock()
	// Input checking.
	if pagenum < 0 || pagenum > pager.numPages-1 {
		return nil, errors.New("invalid pagenum")
	}
	// Try to get from the page table.
	if frame, found := pager.pageTable.Find(pagenum); found {
		page = pager.frames[frame]
		// Move the page to the pinned list if needed.
		if page.link.GetList() == pager.unpinnedList {
			page.link.PopSelf()
			page.link = pager.pinnedList.PushTail(page)
		}
		page.Get()
		return page, nil
	}

	// Else, create a buffer to hold the new page in.
	page, err = pager.newPage(pagenum)
	if err != nil {
		return nil, err
	}

	// Read the page in from disk.
	page.dirty = false
	err = pager.fillPageFromDisk(page)
	if err != nil {
		page.pagenum = NoPage
		page.pinCount.Store(0)
		pager.freeFrames.Set(uint(page.frame))
		return nil, err
	}

	// Insert the page into our list of pages.
	page.link = pager.pinnedList.PushTail(page)
	if err = pager.insertMapping(page); err != nil {
		return nil, err
	}
	return page, nil
}

// PutPage releases a reference to a page.
func (pager *Pager) PutPage(page *Page) (err error) {
	pager.ptMtx.Lock()
	defer pager.ptMtx.Unlock()
	// Decrement pinCount
	ret := page.Put()
	// Check if we can unpin this page; if so, move from pinned to unpinned list.
	if ret == 0 {
		page.link.PopSelf()
		page.link = pager.unpinnedList.PushTail(page)
	}
	if ret < 0 {
		return errors.New("pinCount for page is < 0")
	}
	return nil
}

// FlushPage flushes a particular page's data to disk if it is dirty.
// Concurrency note: the page should at least be read-locked upon entry.
func (pager *Pager) FlushPage(page *Page) {
	if page.IsDirty() {
		pager.file.WriteAt(
			page.data,
			page.pagenum*Pagesize,
		)
		page.SetDirty(false)
	}
}

// FlushAllPages flushes all dirty pages to disk.
func (pager *Pager) FlushAllPages() {
	writer := func(link *list.Link[*Page]) {
		pager.FlushPage(link.GetValue())
	}
	pager.pinnedList.Map(writer)
	pager.unpinnedList.Map(writer)
}

// PagerStat is a snapshot of the pager's buffer occupancy and page table shape.
type PagerStat struct {
	NumPages      int64          // Total pages in the backing file, buffered or not
	FrameCount    int64          // Number of buffer frames
	FreeFrames    int64          // Frames that have not held a page since open
	PinnedPages   int64          // Buffered pages currently in use
	UnpinnedPages int64          // Buffered pages eligible for eviction
	PageTable     hash.TableStat // Shape of the pagenum to frame index
}

// Stat returns statistics over the pager's buffer and its page table.
func (pager *Pager) Stat() PagerStat {
	pager.ptMtx.Lock()
	defer pager.ptMtx.Unlock()
	stat := PagerStat{
		NumPages:   pager.numPages,
		FrameCount: int64(len(pager.frames)),
		FreeFrames: int64(pager.freeFrames.Count()),
		PageTable:  pager.pageTable.Stat(false),
	}
	pager.pinnedList.Map(func(*list.Link[*Page]) { stat.PinnedPages++ })
	pager.unpinnedList.Map(func(*list.Link[*Page]) { stat.UnpinnedPages++ })
	return stat
}
