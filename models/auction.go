package models

import "time"

// Auction 代表一場進行中的限時拍賣
// current_bid 於建立時即寫入起標價，作為首次出價必須超越的底價；
// end_time 會在每次成功出價時被重設為固定的反狙擊窗口之後
type Auction struct {
	ID            uint   `gorm:"primaryKey"`
	AdminID       int64  `gorm:"not null"`
	Title         string `gorm:"type:text;not null"`
	Description   string `gorm:"type:text"`
	StartingBid   int64  `gorm:"not null"`
	BidStep       int64  `gorm:"not null"`
	CurrentBid    int64  `gorm:"not null"`
	HighestBidder *int64
	EndTime       time.Time `gorm:"not null"`

	// 外鍵關聯
	Bids []Bid `gorm:"foreignKey:AuctionID;constraint:OnDelete:CASCADE"`
}
