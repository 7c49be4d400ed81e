package mock

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/utafrali/rocketshoes/internal/notify"
)

func TestRecorder_ConcurrentUse(t *testing.T) {
	var r Recorder
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_ = r.Notify(context.Background(), notify.RemoveFailed(id))
		}(int64(i))
	}
	wg.Wait()

	assert.Len(t, r.Notifications(), 50)
	r.Reset()
	assert.Empty(t, r.Notifications())
}

func TestRecorder_KeepsOrder(t *testing.T) {
	var r Recorder
	_ = r.Notify(context.Background(), notify.AddFailed(1))
	_ = r.Notify(context.Background(), notify.StockExceeded(2))

	got := r.Notifications()
	assert.Equal(t, []string{notify.CodeAddFailed, notify.CodeStockExceeded}, []string{got[0].Code, got[1].Code})
}
