package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuctionKeyboard(t *testing.T) {
	keyboard := auctionKeyboard(7, 100, 10)

	require.Len(t, keyboard.InlineKeyboard, 1)
	require.Len(t, keyboard.InlineKeyboard[0], 1)
	button := keyboard.InlineKeyboard[0][0]

	// 按鈕一律帶出下一個建議出價
	assert.Equal(t, "Place a bid (110)", button.Text)
	assert.Equal(t, "bid:7:110", button.CallbackData)
}

func TestParseBidCallback(t *testing.T) {
	tests := []struct {
		name       string
		data       string
		expectErr  bool
		expectedID uint
		expected   int64
	}{
		{name: "valid", data: "bid:7:110", expectedID: 7, expected: 110},
		{name: "keyboard roundtrip", data: auctionKeyboard(42, 500, 25).InlineKeyboard[0][0].CallbackData, expectedID: 42, expected: 525},
		{name: "wrong prefix", data: "buy:7:110", expectErr: true},
		{name: "missing amount", data: "bid:7", expectErr: true},
		{name: "extra parts", data: "bid:7:110:1", expectErr: true},
		{name: "non numeric id", data: "bid:x:110", expectErr: true},
		{name: "non numeric amount", data: "bid:7:x", expectErr: true},
		{name: "empty", data: "", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auctionID, amount, err := parseBidCallback(tt.data)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedID, auctionID)
			assert.Equal(t, tt.expected, amount)
		})
	}
}
