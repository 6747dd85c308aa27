package auction_test

import (
	"context"
	"io"
	"log"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"gavel/auction"
	"gavel/models"
)

func init() {
	// 將日誌輸出重定向到io.Discard
	log.SetOutput(io.Discard)
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// memDB 以記憶體實作儲存介面，Transaction 以快照還原模擬回滾
type memDB struct {
	mu sync.Mutex

	auctions      map[uint]models.Auction
	nextAuctionID uint
	bids          []models.Bid
	nextBidID     uint
	users         map[int64]models.User

	failUpdate error
	failRecord error
}

func newMemDB() *memDB {
	return &memDB{
		auctions: make(map[uint]models.Auction),
		users:    make(map[int64]models.User),
	}
}

func (m *memDB) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	auctions := maps.Clone(m.auctions)
	bids := slices.Clone(m.bids)
	users := maps.Clone(m.users)
	nextAuctionID, nextBidID := m.nextAuctionID, m.nextBidID
	m.mu.Unlock()

	if err := fn(ctx); err != nil {
		m.mu.Lock()
		m.auctions = auctions
		m.bids = bids
		m.users = users
		m.nextAuctionID, m.nextBidID = nextAuctionID, nextBidID
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memDB) Create(_ context.Context, a *models.Auction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextAuctionID++
	a.ID = m.nextAuctionID
	m.auctions[a.ID] = *a
	return nil
}

func (m *memDB) Get(_ context.Context, id uint) (*models.Auction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.auctions[id]
	if !ok {
		return nil, auction.ErrNotFound
	}
	return &a, nil
}

func (m *memDB) Update(_ context.Context, id uint, price int64, bidder int64, deadline time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpdate != nil {
		return m.failUpdate
	}
	a, ok := m.auctions[id]
	if !ok {
		return auction.ErrNotFound
	}
	a.CurrentBid = price
	a.HighestBidder = &bidder
	a.EndTime = deadline
	m.auctions[id] = a
	return nil
}

func (m *memDB) ListExpired(_ context.Context, now time.Time) ([]models.Auction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var expired []models.Auction
	for _, a := range m.auctions {
		if !a.EndTime.After(now) {
			expired = append(expired, a)
		}
	}
	return expired, nil
}

func (m *memDB) Remove(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.auctions, id)
	m.bids = slices.DeleteFunc(m.bids, func(b models.Bid) bool {
		return b.AuctionID == id
	})
	return nil
}

func (m *memDB) Record(_ context.Context, auctionID uint, bidder int64, amount int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failRecord != nil {
		return m.failRecord
	}
	m.nextBidID++
	m.bids = append(m.bids, models.Bid{
		ID:        m.nextBidID,
		AuctionID: auctionID,
		UserID:    bidder,
		BidAmount: amount,
		Timestamp: time.Now(),
		User:      m.users[bidder],
	})
	return nil
}

func (m *memDB) HighestBid(_ context.Context, auctionID uint) (*models.Bid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *models.Bid
	for i := range m.bids {
		b := m.bids[i]
		if b.AuctionID != auctionID {
			continue
		}
		if best == nil || b.BidAmount > best.BidAmount {
			best = &b
		}
	}
	if best == nil {
		return nil, auction.ErrNoBids
	}
	result := *best
	return &result, nil
}

func (m *memDB) Register(_ context.Context, user models.User) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.users[user.TelegramID]
	m.users[user.TelegramID] = user
	return !ok, nil
}

func (m *memDB) Find(_ context.Context, telegramID int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[telegramID]
	if !ok {
		return nil, auction.ErrNotFound
	}
	return &user, nil
}

// ledgerBids 回傳指定拍賣的所有出價金額（依記錄順序）
func (m *memDB) ledgerBids(auctionID uint) []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var amounts []int64
	for _, b := range m.bids {
		if b.AuctionID == auctionID {
			amounts = append(amounts, b.BidAmount)
		}
	}
	return amounts
}

// recordingNotifier 記錄所有通知，並允許注入傳送失敗
type recordingNotifier struct {
	mu         sync.Mutex
	direct     map[int64][]string
	broadcasts []string

	failNotify    error
	failBroadcast error
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{direct: make(map[int64][]string)}
}

func (n *recordingNotifier) NotifyUser(_ context.Context, telegramID int64, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failNotify != nil {
		return n.failNotify
	}
	n.direct[telegramID] = append(n.direct[telegramID], text)
	return nil
}

func (n *recordingNotifier) Broadcast(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failBroadcast != nil {
		return n.failBroadcast
	}
	n.broadcasts = append(n.broadcasts, text)
	return nil
}

func (n *recordingNotifier) directTo(telegramID int64) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.direct[telegramID])
}

func (n *recordingNotifier) broadcasted() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.broadcasts)
}
