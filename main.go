package main

import (
	"context"
	"os/signal"
	"syscall"

	"gavel/adapters/telegram"
	"gavel/auction"
)

func main() {
	args := ParseArgs()
	if !args.Validate() {
		panic("missing arguments")
	}

	db, err := auction.Connect(args.DB)
	if err != nil {
		panic(err)
	}
	repository := auction.NewRepository(db)
	engine := auction.NewEngine(repository, repository, repository)

	bot, err := telegram.NewBot(args.Telegram, engine, repository)
	if err != nil {
		panic(err)
	}

	sweeper := auction.NewSweeper(repository, engine, bot,
		auction.WithSweepInterval(args.SweepInterval))
	sweeper.Start()
	defer sweeper.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := bot.Run(ctx); err != nil {
		panic(err)
	}
}
