package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fitlog/internal/notify"
	"github.com/fitlog/internal/storage"
	"github.com/fitlog/internal/userdata"
	"go.uber.org/zap/zaptest"
)

const testIdentity = "alice@example.com"

// clock 是可手动推进的时间源
type clock struct {
	mu  sync.Mutex
	cur time.Time
}

func newClock(t time.Time) *clock { return &clock{cur: t} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	c.cur = t
	c.mu.Unlock()
}

func at(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
}

func newTestScope(t *testing.T, identity string) (userdata.Scope, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	return userdata.NewScope(store, identity, zaptest.NewLogger(t)), store
}

// recordingPlatform 记录所有展示过的通知
type recordingPlatform struct {
	mu         sync.Mutex
	supported  bool
	permission notify.Permission
	shown      []notify.Notification
}

func grantedPlatform() *recordingPlatform {
	return &recordingPlatform{supported: true, permission: notify.PermissionGranted}
}

func (p *recordingPlatform) Supported() bool { return p.supported }

func (p *recordingPlatform) Permission() notify.Permission {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.permission
}

func (p *recordingPlatform) RequestPermission(context.Context) (notify.Permission, error) {
	return p.Permission(), nil
}

func (p *recordingPlatform) Show(_ context.Context, n notify.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shown = append(p.shown, n)
	return nil
}

func (p *recordingPlatform) Shown() []notify.Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]notify.Notification(nil), p.shown...)
}
