package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"

	"gavel/auction"
	"gavel/models"
)

// Config 傳輸層設定
type Config struct {
	Token   string
	Channel string // 廣播頻道，數字 ID 或 @username
}

// Bot 將 Telegram 的更新轉接到拍賣引擎，同時實作 auction.INotifier
// 作為結算通知的出口
type Bot struct {
	bot      *telego.Bot
	handler  *th.BotHandler
	engine   *auction.Engine
	registry auction.IRegistry
	dialogs  *DialogManager
	channel  telego.ChatID
	cleaner  *bluemonday.Policy
	logger   *slog.Logger
}

// NewBot 建立機器人
func NewBot(config Config, engine *auction.Engine, registry auction.IRegistry) (*Bot, error) {
	const op = "NewBot"
	botAPI, err := telego.NewBot(config.Token, telego.WithDiscardLogger())
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to create bot, err=%w", op, err)
	}
	return &Bot{
		bot:      botAPI,
		engine:   engine,
		registry: registry,
		dialogs:  NewDialogManager(),
		channel:  parseChatID(config.Channel),
		cleaner:  bluemonday.StrictPolicy(),
		logger:   slog.Default().With(slog.String("caller", "TelegramBot")),
	}, nil
}

// parseChatID 廣播目標允許數字 ID 或 @username
func parseChatID(target string) telego.ChatID {
	if id, err := strconv.ParseInt(target, 10, 64); err == nil {
		return tu.ID(id)
	}
	return tu.Username(target)
}

// Run 啟動長輪詢並處理更新，阻塞直到 ctx 結束
func (b *Bot) Run(ctx context.Context) error {
	const op = "Run"
	updates, err := b.bot.UpdatesViaLongPolling(ctx, nil)
	if err != nil {
		return fmt.Errorf("[%s] Fail to start long polling, err=%w", op, err)
	}
	handler, err := th.NewBotHandler(b.bot, updates)
	if err != nil {
		return fmt.Errorf("[%s] Fail to create bot handler, err=%w", op, err)
	}
	b.handler = handler
	b.registerHandlers()

	go func() {
		<-ctx.Done()
		if err := handler.Stop(); err != nil {
			b.logger.Error("Fail to stop bot handler", slog.Any("error", err))
		}
	}()
	if err := handler.Start(); err != nil {
		return fmt.Errorf("[%s] Bot handler stopped, err=%w", op, err)
	}
	return nil
}

// registerHandlers 註冊所有指令與回呼處理器
// 對話輸入的處理器必須排在所有指令之後，指令才不會被對話吃掉
func (b *Bot) registerHandlers() {
	b.handler.Handle(b.handleStart, th.CommandEqual("start"))
	b.handler.Handle(b.handleNewAuction, th.CommandEqual("new_auction"))
	b.handler.Handle(b.handleCancelAuction, th.CommandEqual("cancel_auction"))
	b.handler.Handle(b.handleHelp, th.CommandEqual("help"))
	b.handler.Handle(b.handleBidCallback, th.CallbackDataPrefix(bidCallbackPrefix))
	b.handler.Handle(b.handleDialogInput, th.AnyMessage())
}

// handleStart 登記參與者並送出管理鍵盤
func (b *Bot) handleStart(ctx *th.Context, update telego.Update) error {
	message := update.Message
	if message == nil || message.From == nil {
		return nil
	}
	from := message.From
	isNew, err := b.registry.Register(ctx, models.User{
		TelegramID: from.ID,
		Username:   from.Username,
		FirstName:  from.FirstName,
		LastName:   from.LastName,
	})
	if err != nil {
		b.logger.Error("Fail to register user", slog.Int64("userID", from.ID), slog.Any("error", err))
		return b.reply(ctx, message, "Something went wrong, please try again.")
	}
	text := "Welcome back!"
	if isNew {
		text = "Welcome! You have been registered."
	}
	_, err = b.bot.SendMessage(ctx, tu.Message(message.Chat.ChatID(), text).WithReplyMarkup(adminKeyboard()))
	return err
}

// handleNewAuction 開始建立拍賣的多步驟對話
func (b *Bot) handleNewAuction(ctx *th.Context, update telego.Update) error {
	message := update.Message
	if message == nil || message.From == nil {
		return nil
	}
	return b.reply(ctx, message, b.dialogs.Begin(message.From.ID))
}

// handleDialogInput 將自由輸入餵給對話狀態機，
// 對話完成時建立拍賣並附上出價鍵盤
func (b *Bot) handleDialogInput(ctx *th.Context, update telego.Update) error {
	message := update.Message
	if message == nil || message.From == nil {
		return nil
	}
	reply, draft, active := b.dialogs.Input(message.From.ID, message.Text)
	if !active {
		return nil
	}
	if draft == nil {
		return b.reply(ctx, message, reply)
	}
	title := strings.TrimSpace(b.cleaner.Sanitize(draft.Title))
	description := strings.TrimSpace(b.cleaner.Sanitize(draft.Description))
	id, err := b.engine.CreateAuction(ctx, message.From.ID, title, description,
		draft.StartingBid, draft.BidStep, draft.DurationMinutes)
	if err != nil {
		b.logger.Error("Fail to create auction", slog.Any("error", err))
		return b.reply(ctx, message, "Failed to create the auction, please try again.")
	}
	_, err = b.bot.SendMessage(ctx, tu.Message(
		message.Chat.ChatID(),
		fmt.Sprintf("Auction created! ID: %d", id),
	).WithReplyMarkup(auctionKeyboard(id, draft.StartingBid, draft.BidStep)))
	return err
}

// handleBidCallback 處理出價按鈕
// 接受時更新訊息上的目前價格與下一個建議出價；
// 拒絕時以 alert 告知原因，不記錄為錯誤
func (b *Bot) handleBidCallback(ctx *th.Context, update telego.Update) error {
	query := update.CallbackQuery
	if query == nil {
		return nil
	}
	auctionID, amount, err := parseBidCallback(query.Data)
	if err != nil {
		return b.alert(ctx, query.ID, "Malformed bid, please use the button.")
	}
	// 按鈕可能由尚未 /start 過的使用者按下，先行登記以便結算時能顯示名稱
	from := query.From
	if _, err := b.registry.Register(ctx, models.User{
		TelegramID: from.ID,
		Username:   from.Username,
		FirstName:  from.FirstName,
		LastName:   from.LastName,
	}); err != nil {
		b.logger.Error("Fail to register bidder", slog.Int64("userID", from.ID), slog.Any("error", err))
	}
	updated, err := b.engine.PlaceBid(ctx, auctionID, from.ID, amount)
	switch {
	case errors.Is(err, auction.ErrNotFound):
		return b.alert(ctx, query.ID, "Auction not found!")
	case errors.Is(err, auction.ErrBidTooLow):
		return b.alert(ctx, query.ID, "Bid too low or already outbid!")
	case err != nil:
		b.logger.Error("Fail to place bid",
			slog.Uint64("auctionID", uint64(auctionID)), slog.Any("error", err))
		return b.alert(ctx, query.ID, "Something went wrong, please try again.")
	}
	bidder := models.User{
		TelegramID: from.ID,
		Username:   from.Username,
		FirstName:  from.FirstName,
		LastName:   from.LastName,
	}
	if message := query.Message; message != nil && message.IsAccessible() {
		_, err := b.bot.EditMessageText(ctx, &telego.EditMessageTextParams{
			ChatID:      tu.ID(message.GetChat().ID),
			MessageID:   message.GetMessageID(),
			Text:        fmt.Sprintf("Current bid: %d from %s", updated.CurrentBid, bidder.DisplayName()),
			ReplyMarkup: auctionKeyboard(auctionID, updated.CurrentBid, updated.BidStep),
		})
		if err != nil {
			b.logger.Error("Fail to edit auction message", slog.Any("error", err))
		}
	}
	return b.bot.AnswerCallbackQuery(ctx, tu.CallbackQuery(query.ID))
}

// handleCancelAuction 由拍賣建立者提前終止拍賣
func (b *Bot) handleCancelAuction(ctx *th.Context, update telego.Update) error {
	message := update.Message
	if message == nil || message.From == nil {
		return nil
	}
	fields := strings.Fields(message.Text)
	if len(fields) != 2 {
		return b.reply(ctx, message, "Usage: /cancel_auction <auction id>")
	}
	id, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return b.reply(ctx, message, "Usage: /cancel_auction <auction id>")
	}
	cancelled, err := b.engine.Cancel(ctx, uint(id), message.From.ID)
	switch {
	case errors.Is(err, auction.ErrNotFound):
		return b.reply(ctx, message, "Auction not found.")
	case errors.Is(err, auction.ErrNotOwner):
		return b.reply(ctx, message, "Only the auction owner can cancel it.")
	case err != nil:
		b.logger.Error("Fail to cancel auction", slog.Any("error", err))
		return b.reply(ctx, message, "Something went wrong, please try again.")
	}
	if err := b.Broadcast(ctx, fmt.Sprintf("Auction %q was cancelled by the seller.", cancelled.Title)); err != nil {
		b.logger.Error("Fail to broadcast cancellation", slog.Any("error", err))
	}
	return b.reply(ctx, message, fmt.Sprintf("Auction %d cancelled.", cancelled.ID))
}

// handleHelp 指令總覽
func (b *Bot) handleHelp(ctx *th.Context, update telego.Update) error {
	message := update.Message
	if message == nil {
		return nil
	}
	return b.reply(ctx, message, strings.Join([]string{
		"/new_auction - create an auction step by step",
		"/cancel_auction <id> - cancel your auction before it ends",
		"/help - show this message",
	}, "\n"))
}

func (b *Bot) reply(ctx context.Context, message *telego.Message, text string) error {
	_, err := b.bot.SendMessage(ctx, tu.Message(message.Chat.ChatID(), text))
	return err
}

func (b *Bot) alert(ctx context.Context, queryID string, text string) error {
	return b.bot.AnswerCallbackQuery(ctx, tu.CallbackQuery(queryID).WithText(text).WithShowAlert())
}
