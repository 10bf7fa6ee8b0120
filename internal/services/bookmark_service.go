package services

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"sync"

	"github.com/SAP-F-2025/quizhub-practice/internal/events"
	"github.com/SAP-F-2025/quizhub-practice/internal/models"
	"github.com/SAP-F-2025/quizhub-practice/internal/quizapi"
	"golang.org/x/sync/singleflight"
)

const bookmarkLoadKey = "bookmarks"

// BookmarkSet mirrors the learner's server-side bookmarks. The local set only
// changes after the backend confirms a change.
type BookmarkSet struct {
	owner string

	mu     sync.RWMutex
	api    BookmarkAPI
	ids    map[int]struct{}
	loaded bool

	group     singleflight.Group
	publisher events.EventPublisher
	logger    *ServiceLogger
}

func NewBookmarkSet(owner string, api BookmarkAPI, publisher events.EventPublisher, logger *slog.Logger) *BookmarkSet {
	if logger == nil {
		logger = slog.Default()
	}
	if publisher == nil {
		publisher = events.NewMockEventPublisher(logger)
	}

	return &BookmarkSet{
		owner:     owner,
		api:       api,
		ids:       make(map[int]struct{}),
		publisher: publisher,
		logger:    NewServiceLogger(logger, LogConfig{Service: "practice", Component: "bookmarks"}),
	}
}

// SetAPI swaps the backend client, typically to carry a refreshed token
func (b *BookmarkSet) SetAPI(api BookmarkAPI) {
	b.mu.Lock()
	b.api = api
	b.mu.Unlock()
}

func (b *BookmarkSet) currentAPI() BookmarkAPI {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.api
}

// Loaded reports whether the set has been fetched at least once
func (b *BookmarkSet) Loaded() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.loaded
}

// EnsureLoaded fetches the bookmark ids once. Later calls return immediately
// unless force is set; concurrent callers share a single request.
func (b *BookmarkSet) EnsureLoaded(ctx context.Context, force bool) error {
	if force {
		b.group.Forget(bookmarkLoadKey)
	} else if b.Loaded() {
		return nil
	}

	_, err, shared := b.group.Do(bookmarkLoadKey, func() (interface{}, error) {
		op := b.logger.WithOperation(ctx, "load_bookmarks", b.owner)

		ids, err := b.currentAPI().ListBookmarkIDs(ctx)
		if err != nil {
			op.LogResult("", "bookmark", err)
			return nil, err
		}

		b.mu.Lock()
		b.ids = make(map[int]struct{}, len(ids))
		for _, id := range ids {
			b.ids[id] = struct{}{}
		}
		b.loaded = true
		b.mu.Unlock()

		op.LogResult("", "bookmark", nil)
		return nil, nil
	})
	if err != nil {
		return &BookmarkSyncError{Op: "load", Err: err}
	}
	if shared {
		b.logger.Logger().Debug("Joined in-flight bookmark load", "owner", b.owner)
	}
	return nil
}

// Add bookmarks questionID on the backend, then locally
func (b *BookmarkSet) Add(ctx context.Context, questionID int) error {
	op := b.logger.WithOperation(ctx, "add_bookmark", b.owner)

	if _, err := b.currentAPI().AddBookmark(ctx, questionID); err != nil {
		syncErr := &BookmarkSyncError{Op: "add", QuestionID: questionID, Err: err}
		op.LogResult(strconv.Itoa(questionID), "bookmark", syncErr)
		return syncErr
	}

	b.mu.Lock()
	b.ids[questionID] = struct{}{}
	b.mu.Unlock()

	b.publish(ctx, events.NewBookmarkAddedEvent(b.owner, questionID))
	op.LogResult(strconv.Itoa(questionID), "bookmark", nil)
	return nil
}

// Remove deletes the bookmark on the backend, then locally. A bookmark the
// backend no longer has counts as removed.
func (b *BookmarkSet) Remove(ctx context.Context, questionID int) error {
	op := b.logger.WithOperation(ctx, "remove_bookmark", b.owner)

	if err := b.currentAPI().RemoveBookmark(ctx, questionID); err != nil && !quizapi.IsNotFound(err) {
		syncErr := &BookmarkSyncError{Op: "remove", QuestionID: questionID, Err: err}
		op.LogResult(strconv.Itoa(questionID), "bookmark", syncErr)
		return syncErr
	}

	b.mu.Lock()
	delete(b.ids, questionID)
	b.mu.Unlock()

	b.publish(ctx, events.NewBookmarkRemovedEvent(b.owner, questionID))
	op.LogResult(strconv.Itoa(questionID), "bookmark", nil)
	return nil
}

// Toggle adds or removes the bookmark and reports the resulting state
func (b *BookmarkSet) Toggle(ctx context.Context, questionID int) (bool, error) {
	if b.IsBookmarked(questionID) {
		return false, b.Remove(ctx, questionID)
	}
	return true, b.Add(ctx, questionID)
}

// IsBookmarked reports membership in the last successfully synced state
func (b *BookmarkSet) IsBookmarked(questionID int) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.ids[questionID]
	return ok
}

// IDs returns the bookmarked question ids in ascending order
func (b *BookmarkSet) IDs() []int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ids := make([]int, 0, len(b.ids))
	for id := range b.ids {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// List fetches the full bookmark rows and resyncs the local set with them
func (b *BookmarkSet) List(ctx context.Context) ([]models.Bookmark, error) {
	bookmarks, err := b.currentAPI().ListBookmarks(ctx)
	if err != nil {
		return nil, &BookmarkSyncError{Op: "list", Err: err}
	}

	b.mu.Lock()
	b.ids = make(map[int]struct{}, len(bookmarks))
	for _, bookmark := range bookmarks {
		b.ids[bookmark.QuestionID] = struct{}{}
	}
	b.loaded = true
	b.mu.Unlock()

	return bookmarks, nil
}

func (b *BookmarkSet) publish(ctx context.Context, event *events.Event) {
	if err := b.publisher.PublishEvent(ctx, event); err != nil {
		b.logger.Logger().Warn("Failed to publish bookmark event",
			"event_type", event.Type,
			"error", err)
	}
}
