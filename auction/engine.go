package auction

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"

	"gavel/models"
)

// AntiSnipeWindow 每次成功出價後，截止時間一律重設為此窗口之後
// 沒有上限：只要持續有人出價，拍賣就會持續延長，出價停止後才會結束
const AntiSnipeWindow = 5 * time.Minute

// Engine 拍賣狀態機：建立、出價驗證、截止延長與結算
// 所有變動都在交易內執行；同一場拍賣的讀取-驗證-寫入序列
// 以每場拍賣一把鎖序列化，不同拍賣之間互不影響
type Engine struct {
	store  IStore
	ledger ILedger
	tx     ITxRunner

	window time.Duration
	locks  keyedMutex
}

type EngineOption func(*Engine)

// WithAntiSnipeWindow 覆寫反狙擊窗口長度
func WithAntiSnipeWindow(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.window = d
	}
}

// NewEngine 建立拍賣引擎
func NewEngine(store IStore, ledger ILedger, tx ITxRunner, opts ...EngineOption) *Engine {
	engine := &Engine{
		store:  store,
		ledger: ledger,
		tx:     tx,
		window: AntiSnipeWindow,
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// CreateAuction 驗證參數並建立拍賣
// 目前價格即為起標價，作為首次出價必須嚴格超越的底價；
// 截止時間為現在加上指定的分鐘數
func (e *Engine) CreateAuction(ctx context.Context, adminID int64, title, description string, startingBid, bidStep, durationMinutes int64) (uint, error) {
	const op = "CreateAuction"
	if startingBid <= 0 {
		return 0, fmt.Errorf("[%s] starting bid must be positive, err=%w", op, ErrInvalidInput)
	}
	if bidStep <= 0 {
		return 0, fmt.Errorf("[%s] bid step must be positive, err=%w", op, ErrInvalidInput)
	}
	if durationMinutes <= 0 {
		return 0, fmt.Errorf("[%s] duration must be positive, err=%w", op, ErrInvalidInput)
	}
	auction := &models.Auction{
		AdminID:     adminID,
		Title:       title,
		Description: description,
		StartingBid: startingBid,
		BidStep:     bidStep,
		CurrentBid:  startingBid,
		EndTime:     time.Now().Add(time.Duration(durationMinutes) * time.Minute),
	}
	if err := e.store.Create(ctx, auction); err != nil {
		return 0, fmt.Errorf("[%s] Fail to create auction, err=%w", op, err)
	}
	return auction.ID, nil
}

// PlaceBid 驗證並接受出價，回傳更新後的拍賣
// 只接受嚴格高於目前價格的出價（同額視為過低）；接受時於同一筆
// 交易內更新價格、領先者與截止時間並附加出價紀錄，任一半失敗則
// 整筆回滾，拍賣維持原狀
func (e *Engine) PlaceBid(ctx context.Context, auctionID uint, bidder int64, amount int64) (*models.Auction, error) {
	const op = "PlaceBid"

	// 同一場拍賣的出價必須序列化，確保驗證所依據的價格快照一致
	unlock := e.locks.lock(auctionID)
	defer unlock()

	var updated *models.Auction
	err := e.tx.Transaction(ctx, func(ctx context.Context) error {
		auction, err := e.store.Get(ctx, auctionID)
		if err != nil {
			return err
		}
		if amount <= auction.CurrentBid {
			return fmt.Errorf("current bid is %d, err=%w", auction.CurrentBid, ErrBidTooLow)
		}
		// 無條件重設為固定窗口，即使原截止時間更晚也一樣
		deadline := time.Now().Add(e.window)
		if err := e.store.Update(ctx, auctionID, amount, bidder, deadline); err != nil {
			return err
		}
		if err := e.ledger.Record(ctx, auctionID, bidder, amount); err != nil {
			return err
		}
		auction.CurrentBid = amount
		auction.HighestBidder = lo.ToPtr(bidder)
		auction.EndTime = deadline
		updated = auction
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("[%s] auction %d, err=%w", op, auctionID, err)
	}
	return updated, nil
}

// Settle 結算拍賣：以帳本的最高出價決定結果，並一律將拍賣自儲存移除
// 結算不可逆；對不存在（或已結算）的拍賣結算回傳 ErrNotFound
func (e *Engine) Settle(ctx context.Context, auctionID uint) (Outcome, error) {
	const op = "Settle"
	var outcome Outcome
	err := e.tx.Transaction(ctx, func(ctx context.Context) error {
		auction, err := e.store.Get(ctx, auctionID)
		if err != nil {
			return err
		}
		outcome.Auction = *auction
		winner, err := e.ledger.HighestBid(ctx, auctionID)
		if err != nil && !errors.Is(err, ErrNoBids) {
			return err
		}
		if err == nil {
			outcome.Winner = winner
		}
		return e.store.Remove(ctx, auctionID)
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("[%s] auction %d, err=%w", op, auctionID, err)
	}
	return outcome, nil
}

// Cancel 由拍賣建立者提前終止拍賣，不產生贏家
func (e *Engine) Cancel(ctx context.Context, auctionID uint, adminID int64) (*models.Auction, error) {
	const op = "Cancel"
	var cancelled *models.Auction
	err := e.tx.Transaction(ctx, func(ctx context.Context) error {
		auction, err := e.store.Get(ctx, auctionID)
		if err != nil {
			return err
		}
		if auction.AdminID != adminID {
			return fmt.Errorf("auction %d belongs to %d, err=%w", auctionID, auction.AdminID, ErrNotOwner)
		}
		cancelled = auction
		return e.store.Remove(ctx, auctionID)
	})
	if err != nil {
		return nil, fmt.Errorf("[%s] auction %d, err=%w", op, auctionID, err)
	}
	return cancelled, nil
}

// keyedMutex 以拍賣 ID 為鍵的互斥鎖集合
// 鎖不主動回收，數量與曾經活躍的拍賣數成正比
type keyedMutex struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func (m *keyedMutex) lock(key uint) func() {
	m.mu.Lock()
	if m.locks == nil {
		m.locks = make(map[uint]*sync.Mutex)
	}
	lock, ok := m.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[key] = lock
	}
	m.mu.Unlock()
	lock.Lock()
	return lock.Unlock
}
