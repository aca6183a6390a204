package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	pkg "github.com/velvetlabs/livepoll/pkg/internal"
	"github.com/velvetlabs/livepoll/pkg/internal/cache"
	"github.com/velvetlabs/livepoll/pkg/internal/database"
	"github.com/velvetlabs/livepoll/pkg/internal/http"
	"github.com/velvetlabs/livepoll/pkg/internal/services"

	"github.com/fatih/color"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
}

func main() {
	// Booting screen
	fmt.Println(color.YellowString(" _     _           ____       _ _\n| |   (_)_   _____|  _ \\ ___ | | |\n| |   | \\ \\ / / _ \\ |_) / _ \\| | |\n| |___| |\\ V /  __/  __/ (_) | | |\n|_____|_| \\_/ \\___|_|   \\___/|_|_|"))
	fmt.Printf("%s v%s\n", color.New(color.FgHiYellow).Add(color.Bold).Sprintf("LivePoll"), pkg.AppVersion)
	fmt.Printf("Create polls, vote once, watch results live\n")
	color.HiBlack("=====================================================\n")

	// Configure settings
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.SetConfigName("settings")
	viper.SetConfigType("toml")

	// Load settings
	if err := viper.ReadInConfig(); err != nil {
		log.Panic().Err(err).Msg("An error occurred when loading settings.")
	}

	// Connect to database
	if err := database.NewGorm(); err != nil {
		log.Fatal().Err(err).Msg("An error occurred when connect to database.")
	} else if err := database.RunMigration(database.C); err != nil {
		log.Fatal().Err(err).Msg("An error occurred when running database auto migration.")
	}

	// Set up the in-process cache
	if err := cache.NewStore(); err != nil {
		log.Fatal().Err(err).Msg("An error occurred when setting up cache.")
	}

	// Configure timed tasks
	quartz := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(&log.Logger)))
	quartz.AddFunc("@every 15m", services.DoAutoHubMaintenance)
	quartz.Start()

	// Server
	go http.NewServer().Listen()

	// Messages
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	quartz.Stop()
}
