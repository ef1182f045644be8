package bot

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispatcher_PreservesPerUserOrder(t *testing.T) {
	t.Parallel()

	var (
		mu   sync.Mutex
		seen = map[int64][]string{}
	)
	d := NewDispatcher(3, func(ctx context.Context, u Update) {
		mu.Lock()
		defer mu.Unlock()
		seen[u.UserID] = append(seen[u.UserID], u.Text)
	})

	updates := make(chan Update)
	done := make(chan struct{})
	go func() {
		d.Run(context.Background(), updates)
		close(done)
	}()

	texts := []string{"a", "b", "c", "d", "e"}
	for _, text := range texts {
		for userID := int64(1); userID <= 6; userID++ {
			updates <- Update{UserID: userID, Text: text}
		}
	}
	close(updates)
	<-done

	for userID := int64(1); userID <= 6; userID++ {
		assert.Equal(t, texts, seen[userID], "user %d", userID)
	}
}

func TestDispatcher_RecoversFromPanics(t *testing.T) {
	t.Parallel()

	var handled int
	d := NewDispatcher(1, func(ctx context.Context, u Update) {
		if u.Text == "boom" {
			panic("boom")
		}
		handled++
	})

	updates := make(chan Update, 3)
	updates <- Update{UserID: 1, Text: "boom"}
	updates <- Update{UserID: 1, Text: "ok"}
	close(updates)
	d.Run(context.Background(), updates)

	assert.Equal(t, 1, handled)
}
