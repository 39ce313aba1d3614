package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	for _, bm := range bookmarks {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_FeedingFrenzy(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEndTick: int64(i * 600), Meals: 1})
	}

	bookmarks := bd.Check(WindowStats{WindowEndTick: 3000, Meals: 5})
	assert.True(t, hasBookmark(bookmarks, BookmarkFeedingFrenzy), "expected feeding_frenzy bookmark")
}

func TestBookmarkDetector_PreyCrash(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEndTick: int64(i * 600), PreyCount: 100, PredCount: 10})
	}

	bookmarks := bd.Check(WindowStats{WindowEndTick: 3000, PreyCount: 50, PredCount: 10})
	assert.True(t, hasBookmark(bookmarks, BookmarkPreyCrash), "expected prey_crash bookmark")

	// Peak resets after a crash, so the same level does not fire again
	bookmarks = bd.Check(WindowStats{WindowEndTick: 3600, PreyCount: 50, PredCount: 10})
	assert.False(t, hasBookmark(bookmarks, BookmarkPreyCrash))
}

func TestBookmarkDetector_PredatorRecovery(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 3; i++ {
		bd.Check(WindowStats{WindowEndTick: int64(i * 600), PreyCount: 20, PredCount: 2})
	}

	bookmarks := bd.Check(WindowStats{WindowEndTick: 2400, PreyCount: 20, PredCount: 10})
	assert.True(t, hasBookmark(bookmarks, BookmarkPredatorRecovery), "expected predator_recovery bookmark")
}

func TestBookmarkDetector_StablePopulation(t *testing.T) {
	bd := NewBookmarkDetector(10)

	var firedAt []int
	for i := 0; i < 12; i++ {
		bookmarks := bd.Check(WindowStats{WindowEndTick: int64(i * 600), PreyCount: 20, PredCount: 5})
		if hasBookmark(bookmarks, BookmarkStablePopulation) {
			firedAt = append(firedAt, i)
		}
	}

	// Four windows of history are needed, then five stable checks
	assert.Equal(t, []int{8}, firedAt)
}

func TestBookmarkDetector_NoBookmarksOnFirstWindow(t *testing.T) {
	bd := NewBookmarkDetector(3)
	assert.Empty(t, bd.Check(WindowStats{PreyCount: 100, PredCount: 0, Meals: 50}))
}
