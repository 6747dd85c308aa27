package models

import (
	"strconv"
	"strings"
)

// User 代表拍賣系統中已知的參與者
// 以 Telegram 指派的數字 ID 識別，顯示名稱欄位允許為空，
// 首次接觸時建立，之後僅顯示欄位會被更新
type User struct {
	ID         uint   `gorm:"primaryKey"`
	TelegramID int64  `gorm:"uniqueIndex;not null"`
	Username   string `gorm:"type:text"`
	FirstName  string `gorm:"type:text"`
	LastName   string `gorm:"type:text"`
}

// DisplayName 組合參與者的顯示名稱，優先使用 username，
// 全部為空時退回 Telegram ID
func (u User) DisplayName() string {
	if u.Username != "" {
		return "@" + u.Username
	}
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		return name
	}
	return strconv.FormatInt(u.TelegramID, 10)
}
