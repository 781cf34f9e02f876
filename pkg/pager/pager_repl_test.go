package pager_test

import (
	"fmt"
	"testing"

	"github.com/nkysg/intro-to-database/pkg/config"
	"github.com/nkysg/intro-to-database/pkg/pager"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPagerRepl(t *testing.T) {
	t.Run("registers every command with help", func(t *testing.T) {
		r := pager.PagerRepl(setupPager(t))
		triggers := []string{
			"pager_print", "pager_get", "pager_new", "pager_write", "pager_read",
			"pager_pin", "pager_unpin", "pager_flush", "pager_flushall", "pager_stat",
		}
		assert.Len(t, r.GetCommands(), len(triggers))
		for _, trigger := range triggers {
			assert.Contains(t, r.GetCommands(), trigger, "command registered")
			assert.Contains(t, r.GetHelp(), trigger, "help registered")
		}
	})
}

func TestHandlePagerRoundTrip(t *testing.T) {
	t.Run("allocates, writes, and reads a page", func(t *testing.T) {
		p := setupPager(t)
		require.NoError(t, pager.HandlePagerNew(p, "pager_new"))
		require.NoError(t, pager.HandlePagerWrite(p, "pager_write 0 hello"))

		output, err := pager.HandlePagerRead(p, "pager_read 0")
		require.NoError(t, err)
		assert.Contains(t, output, "hello")

		require.NoError(t, pager.HandlePagerUnpin(p, "pager_unpin 0"))
	})

	t.Run("pins and unpins a buffered page", func(t *testing.T) {
		p := setupPager(t)
		require.NoError(t, pager.HandlePagerNew(p, "pager_new"))
		require.NoError(t, pager.HandlePagerUnpin(p, "pager_unpin 0"))

		require.NoError(t, pager.HandlePagerPin(p, "pager_pin 0"))
		output, err := pager.HandlePagerPrint(p, "pager_print")
		require.NoError(t, err)
		assert.Contains(t, output, "pinnedList: (pagenum: 0, pincount: 1)", "pin moves the page back to the pinned list")

		require.NoError(t, pager.HandlePagerUnpin(p, "pager_unpin 0"))
	})

	t.Run("flushes through the repl", func(t *testing.T) {
		p := setupPager(t)
		require.NoError(t, pager.HandlePagerNew(p, "pager_new"))
		require.NoError(t, pager.HandlePagerWrite(p, "pager_write 0 durable"))

		require.NoError(t, pager.HandlePagerFlush(p, "pager_flush 0"))
		require.NoError(t, pager.HandlePagerFlushAll(p, "pager_flushall"))

		require.NoError(t, pager.HandlePagerUnpin(p, "pager_unpin 0"))
	})
}

func TestHandlePagerErrors(t *testing.T) {
	t.Run("refuses pages that were never allocated", func(t *testing.T) {
		p := setupPager(t)
		assert.ErrorContains(t, pager.HandlePagerGet(p, "pager_get 5"), "haven't allocated")
	})

	t.Run("refuses pages that are not buffered", func(t *testing.T) {
		p := setupPager(t)
		assert.ErrorContains(t, pager.HandlePagerFlush(p, "pager_flush 0"), "page not found")
		assert.ErrorContains(t, pager.HandlePagerWrite(p, "pager_write 0 data"), "page not found")
		_, err := pager.HandlePagerRead(p, "pager_read 0")
		assert.ErrorContains(t, err, "page not found")
	})

	t.Run("rejects malformed payloads", func(t *testing.T) {
		p := setupPager(t)
		assert.ErrorContains(t, pager.HandlePagerGet(p, "pager_get"), "usage")
		assert.ErrorContains(t, pager.HandlePagerWrite(p, "pager_write 0"), "usage")
		assert.ErrorContains(t, pager.HandlePagerNew(p, "pager_new extra"), "usage")
		_, err := pager.HandlePagerStat(p, "pager_stat extra")
		assert.ErrorContains(t, err, "usage")
	})
}

func TestHandlePagerPrint(t *testing.T) {
	t.Run("prints the pager state", func(t *testing.T) {
		p := setupPager(t)
		require.NoError(t, pager.HandlePagerNew(p, "pager_new"))
		require.NoError(t, pager.HandlePagerUnpin(p, "pager_unpin 0"))

		output, err := pager.HandlePagerPrint(p, "pager_print")
		require.NoError(t, err)
		assert.Contains(t, output, "numPages: 1")
		assert.Contains(t, output, "unpinnedList: (pagenum: 0, pincount: 0)")
		assert.Contains(t, output, "pageTable: (pagenum: 0, frame: 0)")
	})
}

func TestHandlePagerStat(t *testing.T) {
	t.Run("reports buffer statistics", func(t *testing.T) {
		p := setupPager(t)
		require.NoError(t, pager.HandlePagerNew(p, "pager_new"))

		output, err := pager.HandlePagerStat(p, "pager_stat")
		require.NoError(t, err)
		assert.Contains(t, output, "numPages: 1")
		assert.Contains(t, output,
			fmt.Sprintf("frames: %d (%d free, 1 pinned, 0 unpinned)", config.MaxPagesInBuffer, config.MaxPagesInBuffer-1))
		assert.Contains(t, output, "page table: global depth 0, 1 buckets, 1 entries")

		require.NoError(t, pager.HandlePagerUnpin(p, "pager_unpin 0"))
	})
}
