// Package notify 抽象宿主的通知能力：授权状态加上“显示通知”原语。
package notify

import (
	"context"
	"time"
)

// Permission 通知授权的三种状态
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// Notification 一条可显示的通知，Title/Body 均为纯文本
type Notification struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Identity  string    `json:"-"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Icon      string    `json:"icon,omitempty"`
	Tag       string    `json:"tag,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Platform 调度器使用的通知平台
type Platform interface {
	// Supported 宿主是否具备通知能力
	Supported() bool
	// Permission 返回当前授权，不触发询问
	Permission() Permission
	// RequestPermission 授权未决时向用户询问
	RequestPermission(ctx context.Context) (Permission, error)
	// Show 显示一条通知
	Show(ctx context.Context, n Notification) error
}

// RequestPermission 返回是否允许显示通知。
// 已拒绝时不再询问，不支持通知的平台直接返回 false。
func RequestPermission(ctx context.Context, p Platform) bool {
	if p == nil || !p.Supported() {
		return false
	}

	switch p.Permission() {
	case PermissionGranted:
		return true
	case PermissionDenied:
		return false
	}

	decided, err := p.RequestPermission(ctx)
	if err != nil {
		return false
	}
	return decided == PermissionGranted
}

// Deliver 仅在平台支持且已授权时显示 n
func Deliver(ctx context.Context, p Platform, n Notification) (bool, error) {
	if p == nil || !p.Supported() || p.Permission() != PermissionGranted {
		return false, nil
	}
	if err := p.Show(ctx, n); err != nil {
		return false, err
	}
	return true, nil
}

type decisionKey struct{}

// WithDecision 把用户对授权询问的答复放入 ctx
func WithDecision(ctx context.Context, granted bool) context.Context {
	return context.WithValue(ctx, decisionKey{}, granted)
}

// DecisionFromContext 取出 WithDecision 保存的答复
func DecisionFromContext(ctx context.Context) (granted bool, ok bool) {
	granted, ok = ctx.Value(decisionKey{}).(bool)
	return granted, ok
}

// Unsupported 没有通知能力的平台
type Unsupported struct{}

func (Unsupported) Supported() bool        { return false }
func (Unsupported) Permission() Permission { return PermissionDenied }

func (Unsupported) RequestPermission(context.Context) (Permission, error) {
	return PermissionDenied, nil
}

func (Unsupported) Show(context.Context, Notification) error { return nil }
