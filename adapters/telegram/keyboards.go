package telegram

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

const bidCallbackPrefix = "bid:"

// adminKeyboard 管理者的常駐指令鍵盤
func adminKeyboard() *telego.ReplyKeyboardMarkup {
	return tu.Keyboard(
		tu.KeyboardRow(tu.KeyboardButton("/new_auction")),
		tu.KeyboardRow(tu.KeyboardButton("/cancel_auction")),
		tu.KeyboardRow(tu.KeyboardButton("/help")),
	).WithResizeKeyboard()
}

// auctionKeyboard 出價鍵盤：單一按鈕帶出下一個建議出價
// 按鈕一律編碼目前價格加上步進的金額，所以按下按鈕送出的出價
// 永遠嚴格高於按鈕產生當下的價格
func auctionKeyboard(auctionID uint, currentBid, bidStep int64) *telego.InlineKeyboardMarkup {
	next := currentBid + bidStep
	return tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(fmt.Sprintf("Place a bid (%d)", next)).
				WithCallbackData(fmt.Sprintf("%s%d:%d", bidCallbackPrefix, auctionID, next)),
		),
	)
}

// parseBidCallback 解析出價按鈕的回呼資料（bid:<auctionID>:<amount>）
func parseBidCallback(data string) (uint, int64, error) {
	const op = "parseBidCallback"
	parts := strings.Split(data, ":")
	if len(parts) != 3 || parts[0]+":" != bidCallbackPrefix {
		return 0, 0, fmt.Errorf("[%s] malformed callback data %q", op, data)
	}
	auctionID, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("[%s] malformed auction id %q, err=%w", op, parts[1], err)
	}
	amount, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("[%s] malformed amount %q, err=%w", op, parts[2], err)
	}
	return uint(auctionID), amount, nil
}
