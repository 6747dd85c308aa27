package auction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultSweepInterval Sweeper 預設的輪詢間隔
const DefaultSweepInterval = 10 * time.Second

// Sweeper 週期性地找出已過期的拍賣並觸發結算與通知
// 單一拍賣的結算或通知失敗只會記錄，不會中斷本輪的其餘拍賣
// 或後續的輪詢
type Sweeper struct {
	store    IStore
	settler  ISettler
	notifier INotifier

	interval time.Duration
	logger   *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type SweeperOption func(*Sweeper)

// WithSweepInterval 覆寫輪詢間隔
func WithSweepInterval(d time.Duration) SweeperOption {
	return func(s *Sweeper) {
		s.interval = d
	}
}

// WithSweeperLogger 指定記錄器
func WithSweeperLogger(logger *slog.Logger) SweeperOption {
	return func(s *Sweeper) {
		s.logger = logger
	}
}

// NewSweeper 建立過期拍賣清掃器
func NewSweeper(store IStore, settler ISettler, notifier INotifier, opts ...SweeperOption) *Sweeper {
	sweeper := &Sweeper{
		store:    store,
		settler:  settler,
		notifier: notifier,
		interval: DefaultSweepInterval,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(sweeper)
	}
	sweeper.logger = sweeper.logger.With(slog.String("caller", "Sweeper"))
	return sweeper
}

// Start 啟動輪詢迴圈
func (s *Sweeper) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()
}

// Stop 停止輪詢並等待進行中的結算完成後才返回
func (s *Sweeper) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
}

// sweep 執行一輪過期檢查，逐場結算並發送通知
func (s *Sweeper) sweep(ctx context.Context) {
	expired, err := s.store.ListExpired(ctx, time.Now())
	if err != nil {
		s.logger.Error("Fail to list expired auctions", slog.Any("error", err))
		return
	}
	for _, auction := range expired {
		outcome, err := s.settler.Settle(ctx, auction.ID)
		if errors.Is(err, ErrNotFound) {
			// 可能已被其他流程（如取消）移除
			continue
		}
		if err != nil {
			s.logger.Error("Fail to settle auction",
				slog.Uint64("auctionID", uint64(auction.ID)), slog.Any("error", err))
			continue
		}
		s.announce(ctx, outcome)
	}
}

// announce 發送結算結果：有贏家時私訊得標者並廣播，流標時僅廣播
func (s *Sweeper) announce(ctx context.Context, outcome Outcome) {
	title := outcome.Auction.Title
	if outcome.Winner == nil {
		text := fmt.Sprintf("Auction %q ended with no bids.", title)
		if err := s.notifier.Broadcast(ctx, text); err != nil {
			s.logger.Error("Fail to broadcast unsold auction",
				slog.String("title", title), slog.Any("error", err))
		}
		return
	}
	winner := outcome.Winner
	direct := fmt.Sprintf("Congratulations, you won the auction %q at %d!", title, winner.BidAmount)
	if err := s.notifier.NotifyUser(ctx, winner.UserID, direct); err != nil {
		s.logger.Error("Fail to notify winner",
			slog.Int64("userID", winner.UserID), slog.Any("error", err))
	}
	broadcast := fmt.Sprintf("Auction %q winner: %s - %d", title, winner.User.DisplayName(), winner.BidAmount)
	if err := s.notifier.Broadcast(ctx, broadcast); err != nil {
		s.logger.Error("Fail to broadcast winner",
			slog.String("title", title), slog.Any("error", err))
	}
}
