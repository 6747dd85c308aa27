package models

import "time"

// Bid 代表拍賣的出價紀錄，僅附加、不可修改
// 同額出價以插入順序（自增主鍵）作為先到先得的依據
type Bid struct {
	ID        uint      `gorm:"primaryKey"`
	AuctionID uint      `gorm:"not null;index"`
	UserID    int64     `gorm:"not null"`
	BidAmount int64     `gorm:"not null"`
	Timestamp time.Time `gorm:"not null"`

	// 外鍵關聯
	User User `gorm:"foreignKey:UserID;references:TelegramID"`
}
