package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestPermission(t *testing.T) {
	ctx := context.Background()

	assert.False(t, RequestPermission(ctx, nil))
	assert.False(t, RequestPermission(ctx, Unsupported{}))

	hub := NewHub(nil)
	// 未给出答复时保持未决
	assert.False(t, RequestPermission(ctx, hub))
	assert.Equal(t, PermissionDefault, hub.Permission())

	assert.True(t, RequestPermission(WithDecision(ctx, true), hub))
	assert.Equal(t, PermissionGranted, hub.Permission())

	denied := NewHub(nil)
	assert.False(t, RequestPermission(WithDecision(ctx, false), denied))
	// 拒绝后不再重新询问
	assert.False(t, RequestPermission(WithDecision(ctx, true), denied))
	assert.Equal(t, PermissionDenied, denied.Permission())
}

func TestDeliverRequiresGrant(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(nil)
	sub, cancel := hub.Subscribe("", 4)
	defer cancel()

	shown, err := Deliver(ctx, hub, Notification{Title: "t"})
	require.NoError(t, err)
	assert.False(t, shown)
	assert.Len(t, sub.C, 0)

	RequestPermission(WithDecision(ctx, true), hub)
	shown, err = Deliver(ctx, hub, Notification{Title: "t"})
	require.NoError(t, err)
	assert.True(t, shown)
	assert.Len(t, sub.C, 1)

	shown, err = Deliver(ctx, Unsupported{}, Notification{Title: "t"})
	require.NoError(t, err)
	assert.False(t, shown)
}

func TestHubRoutesByIdentity(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(nil)

	mine, cancelMine := hub.Subscribe("a@x.com", 4)
	defer cancelMine()
	other, cancelOther := hub.Subscribe("b@y.com", 4)
	defer cancelOther()
	all, cancelAll := hub.Subscribe("", 4)
	defer cancelAll()

	require.NoError(t, hub.Show(ctx, Notification{
		Identity: "a@x.com",
		Title:    "Time to Eat!",
		Body:     "Breakfast - 450 calories\nIt's time for your scheduled meal!",
	}))

	require.Len(t, mine.C, 1)
	assert.Len(t, other.C, 0)
	assert.Len(t, all.C, 1)

	got := <-mine.C
	assert.NotEmpty(t, got.ID)
	assert.False(t, got.CreatedAt.IsZero())
	assert.Equal(t, "Breakfast - 450 calories\nIt's time for your scheduled meal!", got.Body)
}

func TestHubKeepsTextVerbatim(t *testing.T) {
	hub := NewHub(nil)
	sub, cancel := hub.Subscribe("", 1)
	defer cancel()

	require.NoError(t, hub.Show(context.Background(), Notification{
		Title: "Time to Eat! <now>",
		Body:  "Shake <vanilla> & oats - 200 calories",
	}))

	got := <-sub.C
	assert.Equal(t, "Time to Eat! <now>", got.Title)
	assert.Equal(t, "Shake <vanilla> & oats - 200 calories", got.Body)
}

func TestHubFiltersIcons(t *testing.T) {
	tests := []struct {
		name string
		icon string
		want string
	}{
		{name: "relative", icon: "/logo.png", want: "/logo.png"},
		{name: "https with query", icon: "https://cdn.example.com/i.png?a=1&b=2", want: "https://cdn.example.com/i.png?a=1&b=2"},
		{name: "javascript scheme", icon: "javascript:alert(1)", want: ""},
		{name: "empty", icon: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hub := NewHub(nil)
			sub, cancel := hub.Subscribe("", 1)
			defer cancel()

			require.NoError(t, hub.Show(context.Background(), Notification{Title: "t", Icon: tt.icon}))
			got := <-sub.C
			assert.Equal(t, tt.want, got.Icon)
		})
	}
}

func TestHubCancelClosesChannel(t *testing.T) {
	hub := NewHub(nil)
	sub, cancel := hub.Subscribe("", 1)
	cancel()
	cancel()

	_, open := <-sub.C
	assert.False(t, open)
	require.NoError(t, hub.Show(context.Background(), Notification{Title: "after cancel"}))
}
