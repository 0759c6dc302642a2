package toaster

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestToaster_ShowAndHide(t *testing.T) {
	m := New()
	require.False(t, m.Visible())
	require.Empty(t, m.View())

	m = m.Show("Workflow created: Reorder SKU-123", StyleSuccess)
	require.True(t, m.Visible())
	require.Equal(t, "Workflow created: Reorder SKU-123", m.Message())
	require.Contains(t, m.View(), "✅")

	m = m.Hide()
	require.False(t, m.Visible())
	require.Empty(t, m.Message())
	require.Empty(t, m.View())
}

func TestToaster_StyleMarkers(t *testing.T) {
	m := New().Show("boom", StyleError)
	require.Contains(t, m.View(), "❌")

	m = New().Show("fyi", StyleInfo)
	require.Contains(t, m.View(), "ℹ️")
}

func TestToaster_ScheduleDismiss(t *testing.T) {
	cmd := ScheduleDismiss(time.Millisecond)
	require.NotNil(t, cmd)

	msg := cmd()
	_, ok := msg.(DismissMsg)
	require.True(t, ok)
}
