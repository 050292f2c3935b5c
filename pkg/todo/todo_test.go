package todo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeItemsDefaults(t *testing.T) {
	items, err := NormalizeItems([]map[string]any{
		{"content": "first"},
	})
	require.NoError(t, err)
	require.Len(t, items, 1)

	assert.Equal(t, "1", items[0].ID)
	assert.Equal(t, StatusPending, items[0].Status)
	assert.Equal(t, PriorityMedium, items[0].Priority)
}

func TestNormalizeItemsCoercesIDs(t *testing.T) {
	items, err := NormalizeItems([]map[string]any{
		{"id": "a", "content": "x"},
		{"id": float64(7), "content": "y"},
		{"content": "z"},
	})
	require.NoError(t, err)

	assert.Equal(t, "a", items[0].ID)
	assert.Equal(t, "7", items[1].ID)
	assert.Equal(t, "3", items[2].ID)
}

func TestNormalizeItemsRejectsEmptyContent(t *testing.T) {
	_, err := NormalizeItems([]map[string]any{{"status": "pending"}})
	assert.ErrorContains(t, err, "content is required")
}

func TestNormalizeItemsRejectsBadStatus(t *testing.T) {
	_, err := NormalizeItems([]map[string]any{
		{"content": "x", "status": "done"},
	})
	assert.ErrorContains(t, err, "invalid status")
}

func TestNormalizeItemsRejectsBadPriority(t *testing.T) {
	_, err := NormalizeItems([]map[string]any{
		{"content": "x", "priority": "urgent"},
	})
	assert.ErrorContains(t, err, "invalid priority")
}

func TestAnyActive(t *testing.T) {
	assert.False(t, AnyActive(nil))
	assert.False(t, AnyActive([]Item{
		{Status: StatusCompleted},
		{Status: StatusCancelled},
	}))
	assert.True(t, AnyActive([]Item{
		{Status: StatusCompleted},
		{Status: StatusInProgress},
	}))
	assert.True(t, AnyActive([]Item{{Status: StatusPending}}))
}

func TestSnapshot(t *testing.T) {
	assert.Equal(t, "[]", Snapshot(nil))

	snap := Snapshot([]Item{{ID: "1", Content: "x", Status: StatusPending, Priority: PriorityHigh}})
	assert.Contains(t, snap, `"id":"1"`)
	assert.Contains(t, snap, `"status":"pending"`)
}

func TestCountByStatus(t *testing.T) {
	counts := CountByStatus([]Item{
		{Status: StatusPending},
		{Status: StatusPending},
		{Status: StatusCompleted},
	})
	assert.Equal(t, 2, counts[StatusPending])
	assert.Equal(t, 1, counts[StatusCompleted])
	assert.Equal(t, 0, counts[StatusInProgress])
}
