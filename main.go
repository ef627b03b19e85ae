package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/candinya/ai-translator/app"
	"github.com/candinya/ai-translator/modules/feed"
	"github.com/candinya/ai-translator/modules/langdetect"
	"github.com/candinya/ai-translator/modules/translate"
	"github.com/candinya/ai-translator/types"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	targetLang string
	feedFormat string
	timeout    time.Duration

	cfg *types.Config
	l   *zap.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "ai-translator",
	Short:         "Detect and translate text with a large language model",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Credentials may live in a .env file next to the config
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load .env: %w", err)
		}

		var err error
		cfg, err = types.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		l, err = app.NewLogger(cfg.System.Debug)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if l != nil {
			_ = l.Sync()
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Start(cfg)
	},
}

var detectCmd = &cobra.Command{
	Use:   "detect [text]",
	Short: "Print the ISO 639-3 code of the text (reads stdin without arguments)",
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := inputText(cmd, args)
		if err != nil {
			return err
		}

		tr, err := app.NewTranslator(cfg, l)
		if err != nil {
			return err
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()

		lang, err := tr.DetectLanguage(ctx, text)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), lang)
		return nil
	},
}

var translateCmd = &cobra.Command{
	Use:   "translate [text]",
	Short: "Translate the text into the target language (reads stdin without arguments)",
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := inputText(cmd, args)
		if err != nil {
			return err
		}

		tr, err := app.NewTranslator(cfg, l)
		if err != nil {
			return err
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()

		translated, err := tr.Translate(ctx, text, target())
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), translated)
		return nil
	},
}

var feedCmd = &cobra.Command{
	Use:   "feed <url>",
	Short: "Fetch a feed and print it with every item translated",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tr, err := app.NewTranslator(cfg, l)
		if err != nil {
			return err
		}

		var detect feed.DetectFunc
		if cfg.Translate.SkipSameLanguage {
			detect = langdetect.DetectISO6393
		}
		fp := feed.NewProcessor(tr, detect, cfg.Translate.Concurrency, nil, l)

		ctx, cancel := commandContext(cmd)
		defer cancel()

		f, err := fp.Fetch(ctx, args[0])
		if err != nil {
			return err
		}

		result, _, err := feed.Render(fp.TranslateFeed(ctx, f, target()), feedFormat)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), result)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yml", "path to config file")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "overall time limit of a command, 0 for none")

	translateCmd.Flags().StringVarP(&targetLang, "to", "t", "", "target ISO 639-3 code (default from config)")
	feedCmd.Flags().StringVarP(&targetLang, "to", "t", "", "target ISO 639-3 code (default from config)")
	feedCmd.Flags().StringVar(&feedFormat, "format", "rss", "output format: rss, atom or json")

	rootCmd.AddCommand(serveCmd, detectCmd, translateCmd, feedCmd)
}

func target() string {
	lang := targetLang
	if lang == "" {
		lang = cfg.Translate.DefaultLang
	}
	return strings.ToLower(strings.TrimSpace(lang))
}

func inputText(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	raw, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	if strings.TrimSpace(string(raw)) == "" {
		return "", translate.ErrEmptyText
	}
	return string(raw), nil
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}
