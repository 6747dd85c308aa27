package auction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gavel/models"
)

// DBConfig 資料庫連線參數
type DBConfig struct {
	User     string
	Password string
	Host     string
	Port     int
	Database string
}

// Connect 建立資料庫連線並確保資料表存在
// AutoMigrate 可重複執行，啟動時呼叫即滿足冪等建表的需求
func Connect(config DBConfig) (*gorm.DB, error) {
	const op = "Connect"
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		config.User, config.Password, config.Host, config.Port, config.Database)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to connect to database, err=%w", op, err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Auction{}, &models.Bid{}); err != nil {
		return nil, fmt.Errorf("[%s] Fail to migrate schema, err=%w", op, err)
	}
	return db, nil
}

// Repository 以同一個 gorm 連線實作 IStore、ILedger、IRegistry 與 ITxRunner
type Repository struct {
	db *gorm.DB
}

// NewRepository 建立資料存取層
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type txKey struct{}

// Transaction 執行 fn，期間所有經由 ctx 進行的儲存操作共用同一筆交易，
// fn 回傳錯誤時整筆回滾
func (r *Repository) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// conn 優先取用 ctx 中進行中的交易
func (r *Repository) conn(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return r.db.WithContext(ctx)
}

// Create 建立拍賣並回填自增 ID
func (r *Repository) Create(ctx context.Context, auction *models.Auction) error {
	const op = "Create"
	if result := r.conn(ctx).Omit(clause.Associations).Create(auction); result.Error != nil {
		return fmt.Errorf("[%s] Fail to create auction, err=%w", op, result.Error)
	}
	return nil
}

// Get 取得拍賣
func (r *Repository) Get(ctx context.Context, id uint) (*models.Auction, error) {
	const op = "Get"
	var auction models.Auction
	if result := r.conn(ctx).First(&auction, id); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("[%s] auction %d, err=%w", op, id, ErrNotFound)
		}
		return nil, fmt.Errorf("[%s] Fail to find auction %d, err=%w", op, id, result.Error)
	}
	return &auction, nil
}

// Update 以單一 UPDATE 更新目前價格、領先者與截止時間
func (r *Repository) Update(ctx context.Context, id uint, price int64, bidder int64, deadline time.Time) error {
	const op = "Update"
	result := r.conn(ctx).Model(&models.Auction{}).Where("id = ?", id).Updates(map[string]any{
		"current_bid":    price,
		"highest_bidder": bidder,
		"end_time":       deadline,
	})
	if result.Error != nil {
		return fmt.Errorf("[%s] Fail to update auction %d, err=%w", op, id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("[%s] auction %d, err=%w", op, id, ErrNotFound)
	}
	return nil
}

// ListExpired 列出截止時間不晚於 now 的拍賣
func (r *Repository) ListExpired(ctx context.Context, now time.Time) ([]models.Auction, error) {
	const op = "ListExpired"
	var auctions []models.Auction
	if result := r.conn(ctx).Where("end_time <= ?", now).Find(&auctions); result.Error != nil {
		return nil, fmt.Errorf("[%s] Fail to list expired auctions, err=%w", op, result.Error)
	}
	return auctions, nil
}

// Remove 移除拍賣及其出價紀錄
// 出價先於拍賣刪除，避免依賴各資料庫外鍵級聯行為的差異；
// 對不存在的 ID 重複呼叫不是錯誤（結算即刪除的語意）
func (r *Repository) Remove(ctx context.Context, id uint) error {
	const op = "Remove"
	if result := r.conn(ctx).Where("auction_id = ?", id).Delete(&models.Bid{}); result.Error != nil {
		return fmt.Errorf("[%s] Fail to delete bids of auction %d, err=%w", op, id, result.Error)
	}
	if result := r.conn(ctx).Delete(&models.Auction{}, id); result.Error != nil {
		return fmt.Errorf("[%s] Fail to delete auction %d, err=%w", op, id, result.Error)
	}
	return nil
}

// Record 附加一筆出價紀錄
func (r *Repository) Record(ctx context.Context, auctionID uint, bidder int64, amount int64) error {
	const op = "Record"
	bid := models.Bid{
		AuctionID: auctionID,
		UserID:    bidder,
		BidAmount: amount,
		Timestamp: time.Now(),
	}
	if result := r.conn(ctx).Omit(clause.Associations).Create(&bid); result.Error != nil {
		return fmt.Errorf("[%s] Fail to record bid, err=%w", op, result.Error)
	}
	return nil
}

// HighestBid 回傳金額最高的出價
// 金額為主要排序鍵（遞減），插入順序為次要排序鍵（遞增），
// 因此同額出價由先記錄者勝出
func (r *Repository) HighestBid(ctx context.Context, auctionID uint) (*models.Bid, error) {
	const op = "HighestBid"
	var bid models.Bid
	result := r.conn(ctx).
		Preload("User").
		Where("auction_id = ?", auctionID).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "bid_amount"}, Desc: true}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}}).
		First(&bid)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("[%s] auction %d, err=%w", op, auctionID, ErrNoBids)
		}
		return nil, fmt.Errorf("[%s] Fail to find highest bid of auction %d, err=%w", op, auctionID, result.Error)
	}
	return &bid, nil
}

// Register 於首次接觸時建立參與者，既有參與者則刷新顯示欄位
func (r *Repository) Register(ctx context.Context, user models.User) (bool, error) {
	const op = "Register"
	var existing models.User
	err := r.conn(ctx).Where("telegram_id = ?", user.TelegramID).First(&existing).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("[%s] Fail to find user %d, err=%w", op, user.TelegramID, err)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if result := r.conn(ctx).Create(&user); result.Error != nil {
			return false, fmt.Errorf("[%s] Fail to create user %d, err=%w", op, user.TelegramID, result.Error)
		}
		return true, nil
	}
	result := r.conn(ctx).Model(&models.User{}).Where("telegram_id = ?", user.TelegramID).Updates(map[string]any{
		"username":   user.Username,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
	})
	if result.Error != nil {
		return false, fmt.Errorf("[%s] Fail to refresh user %d, err=%w", op, user.TelegramID, result.Error)
	}
	return false, nil
}

// Find 以 Telegram ID 查詢參與者
func (r *Repository) Find(ctx context.Context, telegramID int64) (*models.User, error) {
	const op = "Find"
	var user models.User
	if result := r.conn(ctx).Where("telegram_id = ?", telegramID).First(&user); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("[%s] user %d, err=%w", op, telegramID, ErrNotFound)
		}
		return nil, fmt.Errorf("[%s] Fail to find user %d, err=%w", op, telegramID, result.Error)
	}
	return &user, nil
}
