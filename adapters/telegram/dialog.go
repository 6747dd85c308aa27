package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// 建立拍賣對話的步驟
type dialogStep int

const (
	stepTitle dialogStep = iota
	stepDescription
	stepStartingBid
	stepBidStep
	stepDuration
)

// Draft 對話收集完成的拍賣參數
type Draft struct {
	Title           string
	Description     string
	StartingBid     int64
	BidStep         int64
	DurationMinutes int64
}

type dialog struct {
	step  dialogStep
	draft Draft
}

// DialogManager 管理每位管理者進行中的建立拍賣對話
// 以發起者的 Telegram ID 為鍵的顯式有限狀態機，
// 所有輸入由單一路由依目前步驟分派
type DialogManager struct {
	mu      sync.Mutex
	dialogs map[int64]*dialog
}

// NewDialogManager 建立對話管理器
func NewDialogManager() *DialogManager {
	return &DialogManager{dialogs: make(map[int64]*dialog)}
}

// Begin 開始（或重新開始）一段建立拍賣對話，回傳第一個提示
func (m *DialogManager) Begin(userID int64) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dialogs[userID] = &dialog{step: stepTitle}
	return "Enter the lot title:"
}

// Cancel 放棄進行中的對話，回傳是否存在對話
func (m *DialogManager) Cancel(userID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.dialogs[userID]
	delete(m.dialogs, userID)
	return ok
}

// Active 回傳使用者是否有進行中的對話
func (m *DialogManager) Active(userID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.dialogs[userID]
	return ok
}

// Input 餵入使用者的一則訊息並推進狀態機
// 回傳下一個提示；整數步驟的輸入無法解析或非正數時停在原步驟重新提示。
// 對話完成時回傳收集好的 Draft 並清除狀態；
// active 為 false 表示使用者沒有進行中的對話，輸入應被忽略
func (m *DialogManager) Input(userID int64, text string) (reply string, done *Draft, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.dialogs[userID]
	if !ok {
		return "", nil, false
	}
	switch d.step {
	case stepTitle:
		d.draft.Title = text
		d.step = stepDescription
		return "Enter the lot description:", nil, true
	case stepDescription:
		d.draft.Description = text
		d.step = stepStartingBid
		return "Enter the starting price:", nil, true
	case stepStartingBid:
		value, err := parsePositiveInt(text)
		if err != nil {
			return "Invalid starting price. Enter a positive number:", nil, true
		}
		d.draft.StartingBid = value
		d.step = stepBidStep
		return "Enter the bid step:", nil, true
	case stepBidStep:
		value, err := parsePositiveInt(text)
		if err != nil {
			return "Invalid bid step. Enter a positive number:", nil, true
		}
		d.draft.BidStep = value
		d.step = stepDuration
		return "Enter the auction duration in minutes:", nil, true
	case stepDuration:
		value, err := parsePositiveInt(text)
		if err != nil {
			return "Invalid duration. Enter a positive number of minutes:", nil, true
		}
		d.draft.DurationMinutes = value
		draft := d.draft
		delete(m.dialogs, userID)
		return "", &draft, true
	}
	return "", nil, false
}

// parsePositiveInt 解析並驗證正整數輸入
func parsePositiveInt(text string) (int64, error) {
	value, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		return 0, err
	}
	if value <= 0 {
		return 0, fmt.Errorf("value %d is not positive", value)
	}
	return value, nil
}
