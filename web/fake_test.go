package web

import (
	"context"
	"sync"
	"time"

	"eventhub/models"
)

var fixedNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

// fakeAPI 以 MemStorage 模擬 /api；createErr 非 nil 時建立一律失敗
type fakeAPI struct {
	store *models.MemStorage

	mu        sync.Mutex
	lists     int
	creates   int
	listErr   error
	createErr error
	block     chan struct{} // 非 nil 時 CreateEvent 等它關閉
	entered   chan struct{}
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{store: models.NewMemStorageWithClock(clock)}
}

func (f *fakeAPI) ListEvents(ctx context.Context) ([]models.Event, error) {
	f.mu.Lock()
	f.lists++
	err := f.listErr
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return f.store.GetAllEvents(ctx)
}

func (f *fakeAPI) CreateEvent(ctx context.Context, in models.InsertEvent) (models.Event, error) {
	f.mu.Lock()
	f.creates++
	err, block, entered := f.createErr, f.block, f.entered
	f.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
	}
	if block != nil {
		<-block
	}
	if err != nil {
		return models.Event{}, err
	}
	return f.store.CreateEvent(ctx, in)
}

func (f *fakeAPI) counts() (lists, creates int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists, f.creates
}
