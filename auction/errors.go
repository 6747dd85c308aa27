package auction

import "errors"

// 競價流程的哨兵錯誤，呼叫端以 errors.Is 決定如何回應使用者
var (
	// ErrNotFound 拍賣不存在（或已結算移除）
	ErrNotFound = errors.New("auction not found")
	// ErrBidTooLow 出價未嚴格高於目前價格
	ErrBidTooLow = errors.New("bid too low")
	// ErrNoBids 該拍賣沒有任何出價紀錄
	ErrNoBids = errors.New("no bids recorded")
	// ErrInvalidInput 建立拍賣時的參數驗證失敗
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotOwner 只有拍賣建立者可以取消拍賣
	ErrNotOwner = errors.New("not the auction owner")
)
