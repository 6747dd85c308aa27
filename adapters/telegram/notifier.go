package telegram

import (
	"context"
	"fmt"

	tu "github.com/mymmrac/telego/telegoutil"
)

// NotifyUser 實作 auction.INotifier：私訊指定的參與者
func (b *Bot) NotifyUser(ctx context.Context, telegramID int64, text string) error {
	const op = "NotifyUser"
	if _, err := b.bot.SendMessage(ctx, tu.Message(tu.ID(telegramID), text)); err != nil {
		return fmt.Errorf("[%s] Fail to send message to %d, err=%w", op, telegramID, err)
	}
	return nil
}

// Broadcast 實作 auction.INotifier：發送到廣播頻道
func (b *Bot) Broadcast(ctx context.Context, text string) error {
	const op = "Broadcast"
	if _, err := b.bot.SendMessage(ctx, tu.Message(b.channel, text)); err != nil {
		return fmt.Errorf("[%s] Fail to send message to channel, err=%w", op, err)
	}
	return nil
}
