package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/PoluyanbIch/ExamBot/internal/config"
	"github.com/PoluyanbIch/ExamBot/internal/i18n"
	"github.com/PoluyanbIch/ExamBot/internal/logger"
	"github.com/PoluyanbIch/ExamBot/internal/scheduler"
	"github.com/PoluyanbIch/ExamBot/internal/service"
	"github.com/PoluyanbIch/ExamBot/internal/store"
	"github.com/PoluyanbIch/ExamBot/internal/telegram"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "bot",
		Short:        "Telegram exam practice bot",
		SilenceUsage: true,
		RunE:         runServe,
	}
	config.RegisterFlags(root)

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the bot (default)",
		RunE:  runServe,
	}
	config.RegisterFlags(serve)

	board := &cobra.Command{
		Use:   "leaderboard",
		Short: "Print the best result per user and subject",
		RunE:  runLeaderboard,
	}
	config.RegisterFlags(board)
	board.Flags().Int("limit", 10, "Rows to print")

	root.AddCommand(serve, board)
	return root
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd)
	if err != nil {
		return err
	}
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("Invalid configuration")
		return err
	}

	db, err := store.New(cfg.DBPath)
	if err != nil {
		log.Error().Err(err).Str("path", cfg.DBPath).Msg("Failed to open database")
		return err
	}
	defer db.Close()

	tr, err := i18n.New(cfg.Lang, log)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load translations")
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	board, err := seededLeaderboard(ctx, db)
	if err != nil {
		log.Warn().Err(err).Msg("Leaderboard starts empty")
	}

	sched := scheduler.NewTimerScheduler()
	defer sched.Stop()

	bot, err := telegram.NewBot(cfg.TelegramToken, cfg.Debug, telegram.Deps{
		Bank:        service.LoadQuestionBank(cfg.QuestionsFile, log),
		Persistence: db,
		Scheduler:   sched,
		Leaderboard: board,
		Translator:  tr,
		Exam:        cfg.Exam,
		HTTPTimeout: cfg.HTTPTimeout,
	}, log)
	if err != nil {
		log.Error().Err(err).Msg("Failed to connect to Telegram")
		return err
	}

	log.Info().Str("lang", tr.Lang()).Dur("exam_duration", cfg.Exam.Duration).Msg("🤖 Bot is starting...")
	bot.Start(ctx)
	return nil
}

func runLeaderboard(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd)
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	db, err := store.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	board, err := seededLeaderboard(cmd.Context(), db)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	top := board.GetTop(limit)
	if len(top) == 0 {
		fmt.Fprintln(out, "no results yet")
		return nil
	}
	for i, e := range top {
		fmt.Fprintf(out, "%2d. %-20s %-16s %3d%% (%d/%d) %s\n",
			i+1, e.Username, e.Subject, e.Percentage, e.Score, e.Total, e.Date)
	}
	return nil
}

func seededLeaderboard(ctx context.Context, db *store.Store) (*service.MemoryLeaderboardService, error) {
	board := service.NewMemoryLeaderboardService(nil)
	best, err := db.BestResults(ctx)
	if err != nil {
		return board, err
	}
	board.Seed(best)
	return board, nil
}
