package service

import (
	"sync"

	"github.com/fitlog/internal/metrics"
)

const defaultHistoryEventBuffer = 8

// HistoryEvent 在训练历史追加成功后发布
type HistoryEvent struct {
	Identity string              `json:"-"`
	Entry    WorkoutHistoryEntry `json:"entry"`
	Total    int                 `json:"total"`
}

// historyBroker 把历史变更按追加顺序分发给订阅者；订阅者缓冲已满时丢弃事件而不阻塞写入方
type historyBroker struct {
	mu   sync.Mutex
	next int
	subs map[int]chan HistoryEvent
}

func newHistoryBroker() *historyBroker {
	return &historyBroker{subs: make(map[int]chan HistoryEvent)}
}

func (b *historyBroker) subscribe(buffer int) (<-chan HistoryEvent, func()) {
	if buffer <= 0 {
		buffer = defaultHistoryEventBuffer
	}
	ch := make(chan HistoryEvent, buffer)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			close(ch)
			b.mu.Unlock()
		})
	}
}

func (b *historyBroker) publish(event HistoryEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
			metrics.HistoryEventsDropped.Inc()
		}
	}
}
