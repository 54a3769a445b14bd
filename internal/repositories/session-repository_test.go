package repositories

import (
	"testing"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resto-sync/internal/entities"
)

func TestSessionRowToItem(t *testing.T) {
	dbRow := dbSessionRow{
		ItemID:    null.Uint64From(12),
		ItemName:  null.StringFrom("Плов"),
		Quantity:  null.IntFrom(2),
		UnitPrice: null.Float64From(45),
		Amount:    null.Float64From(90),
		ItemState: null.StringFrom("served"),
	}

	item, ok := dbRow.toItem()
	require.True(t, ok)
	assert.Equal(t, uint64(12), item.ID)
	assert.Equal(t, "Плов", item.Name)
	assert.Equal(t, 2, item.Quantity)
	assert.Equal(t, float64(90), item.Amount)
}

func TestSessionRowToItem_EmptyOrder(t *testing.T) {
	// сессия без позиций: LEFT JOIN вернул NULL-колонки
	var dbRow dbSessionRow

	_, ok := dbRow.toItem()
	assert.False(t, ok)
}

func TestSessionViewToDTO(t *testing.T) {
	openedAt := time.Date(2026, 8, 28, 9, 30, 0, 0, time.UTC)
	view := entities.SessionSummaryView{
		SessionID:    1,
		RestaurantID: 3,
		TableNumber:  4,
		OrderID:      10,
		Status:       entities.SessionStatusOpen,
		Total:        90,
		Items: []entities.OrderItem{
			{ID: 12, Name: "Плов", Quantity: 2, UnitPrice: 45, Amount: 90, Status: "served"},
		},
		OpenedAt: openedAt,
	}

	summary := sessionViewToDTO(view)

	assert.Equal(t, uint64(1), summary.SessionID)
	assert.Equal(t, 4, summary.TableNumber)
	assert.Equal(t, uint64(10), summary.OrderID)
	assert.Equal(t, "open", summary.Status)
	assert.Equal(t, openedAt, summary.OpenedAt)
	require.Len(t, summary.Items, 1)
	assert.Equal(t, "Плов", summary.Items[0].Name)
}
