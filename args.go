package main

import (
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"gavel/adapters/telegram"
	"gavel/auction"
)

func ParseArgs() Args {
	// telegram config
	pflag.String("bot-token", "", "")
	pflag.String("channel-id", "", "")

	// db config
	pflag.String("db-user", "", "")
	pflag.String("db-password", "", "")
	pflag.String("db-host", "", "")
	pflag.Int("db-port", 5432, "")
	pflag.String("db-database", "", "")

	// sweeper config
	pflag.Duration("sweep-interval", auction.DefaultSweepInterval, "")

	// bind pflag to viper
	pflag.Parse()
	viper.BindPFlags(pflag.CommandLine)
	viper.AutomaticEnv()
	viper.SetEnvPrefix("GAVEL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	// initial arguments
	return Args{
		Telegram: telegram.Config{
			Token:   viper.GetString("bot-token"),
			Channel: viper.GetString("channel-id"),
		},
		DB: auction.DBConfig{
			User:     viper.GetString("db-user"),
			Password: viper.GetString("db-password"),
			Host:     viper.GetString("db-host"),
			Port:     viper.GetInt("db-port"),
			Database: viper.GetString("db-database"),
		},
		SweepInterval: viper.GetDuration("sweep-interval"),
	}
}

type Args struct {
	Telegram      telegram.Config
	DB            auction.DBConfig
	SweepInterval time.Duration
}

func (args Args) Validate() bool {
	return args.Telegram.Token != "" && args.Telegram.Channel != "" &&
		args.DB.Host != "" && args.DB.User != "" && args.DB.Database != ""
}
