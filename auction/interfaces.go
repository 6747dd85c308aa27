package auction

import (
	"context"
	"time"

	"gavel/models"
)

// IStore 定義拍賣資料的儲存介面
type IStore interface {
	// Create 建立拍賣並回填自增 ID
	Create(ctx context.Context, auction *models.Auction) error
	// Get 取得拍賣，不存在時回傳 ErrNotFound
	Get(ctx context.Context, id uint) (*models.Auction, error)
	// Update 以單一動作更新目前價格、領先者與截止時間，
	// 三個欄位不可被讀取方觀察到部分更新；不存在時回傳 ErrNotFound
	Update(ctx context.Context, id uint, price int64, bidder int64, deadline time.Time) error
	// ListExpired 列出截止時間不晚於 now 的拍賣，順序不保證
	ListExpired(ctx context.Context, now time.Time) ([]models.Auction, error)
	// Remove 移除拍賣及其出價紀錄，重複移除不視為錯誤
	Remove(ctx context.Context, id uint) error
}

// ILedger 定義出價紀錄的附加式帳本介面
type ILedger interface {
	// Record 附加一筆出價紀錄，拍賣是否存在由呼叫端保證
	Record(ctx context.Context, auctionID uint, bidder int64, amount int64) error
	// HighestBid 回傳金額最高的出價並帶出出價者資料，
	// 同額時以先記錄者優先；沒有任何出價時回傳 ErrNoBids
	HighestBid(ctx context.Context, auctionID uint) (*models.Bid, error)
}

// IRegistry 定義參與者名冊介面
type IRegistry interface {
	// Register 於首次接觸時建立參與者，既有參與者則更新顯示欄位，
	// 回傳是否為首次接觸
	Register(ctx context.Context, user models.User) (bool, error)
	// Find 以 Telegram ID 查詢參與者，不存在時回傳 ErrNotFound
	Find(ctx context.Context, telegramID int64) (*models.User, error)
}

// ITxRunner 將多個儲存操作包進同一筆交易，任一失敗則全部回滾
type ITxRunner interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// INotifier 為結算結果的對外通知埠，由傳輸層實作
type INotifier interface {
	// NotifyUser 私訊指定的參與者
	NotifyUser(ctx context.Context, telegramID int64, text string) error
	// Broadcast 發送到廣播頻道
	Broadcast(ctx context.Context, text string) error
}

// ISettler 供 Sweeper 觸發結算
type ISettler interface {
	Settle(ctx context.Context, auctionID uint) (Outcome, error)
}

// Outcome 代表一場拍賣的結算結果，Winner 為 nil 表示流標
type Outcome struct {
	Auction models.Auction
	Winner  *models.Bid
}
