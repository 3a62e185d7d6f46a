package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/PoluyanbIch/ExamBot/internal/service"
)

// Config: настройки бота из флагов, переменных окружения EXAMBOT_* и
// файла exambot.(yaml|toml|json).
type Config struct {
	TelegramToken string
	Debug         bool
	HTTPTimeout   time.Duration
	DBPath        string
	QuestionsFile string
	Lang          string
	LogLevel      string
	LogFormat     string
	Exam          service.ExamConfig
}

// RegisterFlags объявляет флаги, которые понимает Load.
func RegisterFlags(cmd *cobra.Command) {
	defaults := service.DefaultExamConfig()

	f := cmd.Flags()
	f.String("token", "", "Telegram bot token (or TELEGRAM_BOT_TOKEN)")
	f.Bool("debug", false, "Log Telegram API traffic")
	f.Duration("http-timeout", 75*time.Second, "Timeout of a single Bot API request (at least the long-poll time)")
	f.String("db", "exambot.db", "SQLite database path")
	f.StringP("questions", "q", "questions.json", "Questions JSON file")
	f.StringP("lang", "l", "mr", "Bot language (mr, en)")
	f.String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	f.String("log-format", "pretty", "Log format (pretty, json)")
	f.Duration("exam-duration", defaults.Duration, "Exam time limit")
	f.Duration("tick-interval", defaults.TickInterval, "Countdown refresh interval")
	f.Duration("warning-lead", defaults.WarningLead, "Warn this long before the deadline")
	f.Int("blink-steps", defaults.BlinkSteps, "Number of warning blink edits")
	f.Duration("blink-interval", defaults.BlinkInterval, "Pause between warning blink edits")
	f.Bool("shuffle", false, "Randomize question order")
	f.Int("max-questions", 0, "Questions per exam (0 = all)")
}

// Load читает .env (если есть) и собирает настройки команды.
func Load(cmd *cobra.Command) (*Config, error) {
	_ = godotenv.Load() // .env необязателен

	v := viper.New()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}
	v.SetEnvPrefix("EXAMBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("token", "EXAMBOT_TOKEN", "TELEGRAM_BOT_TOKEN"); err != nil {
		return nil, fmt.Errorf("bind token env: %w", err)
	}

	v.SetConfigName("exambot")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/exambot")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	return &Config{
		TelegramToken: v.GetString("token"),
		Debug:         v.GetBool("debug"),
		HTTPTimeout:   v.GetDuration("http-timeout"),
		DBPath:        v.GetString("db"),
		QuestionsFile: v.GetString("questions"),
		Lang:          v.GetString("lang"),
		LogLevel:      v.GetString("log-level"),
		LogFormat:     v.GetString("log-format"),
		Exam: service.ExamConfig{
			Duration:      v.GetDuration("exam-duration"),
			TickInterval:  v.GetDuration("tick-interval"),
			WarningLead:   v.GetDuration("warning-lead"),
			BlinkSteps:    v.GetInt("blink-steps"),
			BlinkInterval: v.GetDuration("blink-interval"),
			Shuffle:       v.GetBool("shuffle"),
			MaxQuestions:  v.GetInt("max-questions"),
		},
	}, nil
}

// Validate проверяет то, без чего бот не запустится.
func (c *Config) Validate() error {
	if c.TelegramToken == "" {
		return errors.New("telegram token is required (--token or TELEGRAM_BOT_TOKEN)")
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("http timeout must be non-negative, got %s", c.HTTPTimeout)
	}
	if c.Exam.Duration <= 0 {
		return fmt.Errorf("exam duration must be positive, got %s", c.Exam.Duration)
	}
	if c.Exam.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %s", c.Exam.TickInterval)
	}
	if c.Exam.BlinkSteps < 0 || c.Exam.BlinkInterval <= 0 {
		return errors.New("blink steps must be non-negative and blink interval positive")
	}
	if c.Exam.MaxQuestions < 0 {
		return fmt.Errorf("max questions must be non-negative, got %d", c.Exam.MaxQuestions)
	}
	return nil
}
