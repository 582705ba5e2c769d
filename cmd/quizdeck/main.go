package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/sanketk/quizdeck/internal/bank"
	"github.com/sanketk/quizdeck/internal/handler"
	appI18n "github.com/sanketk/quizdeck/internal/i18n"
	"github.com/sanketk/quizdeck/internal/leaderboard"
	"github.com/sanketk/quizdeck/internal/notes"
	"github.com/sanketk/quizdeck/internal/session"
	"github.com/sanketk/quizdeck/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "quizdeck",
		Short: "Timed multiple-choice quiz server with a spreadsheet question bank",
	}

	serve := serveCmd()
	root.AddCommand(serve, sampleCmd(), statsCmd(), hashPasswordCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `quizdeck --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP quiz server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.StringP("bank", "b", "quizbank.xlsx", "Question bank workbook path")
	f.Bool("create-sample-bank", true, "Write the sample bank when the bank file is missing")
	f.String("results", "results.xlsx", "Results workbook path (workbook driver)")
	f.String("results-driver", store.DriverWorkbook, "Results store driver (workbook, sqlite)")
	f.String("results-db", "results.db", "Results database path (sqlite driver)")
	f.String("notes-dir", "notes", "Directory of PDF study notes")
	f.StringP("lang", "l", "en", "Message language (en, hi)")
	f.Int("seconds-per-question", 60, "Time budget per question in seconds")
	f.Int("min-questions", 1, "Smallest allowed question count")
	f.Int("max-questions", 50, "Largest allowed question count")
	f.IntP("default-questions", "n", 10, "Default question count")
	f.Duration("session-grace", time.Hour, "How long finished or expired sessions stay retrievable")
	f.String("admin-password", "", "bcrypt hash guarding the admin endpoints (empty disables them)")
	f.String("base-path", "", "URL prefix for sub-path deployments (e.g. /quiz)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func sampleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Write the built-in sample question bank",
		RunE:  runSample,
	}
	f := cmd.Flags()
	f.StringP("output", "o", "quizbank.xlsx", "Output workbook path")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print leaderboard aggregates from the results store as JSON",
		RunE:  runStats,
	}
	f := cmd.Flags()
	f.String("results", "results.xlsx", "Results workbook path (workbook driver)")
	f.String("results-driver", store.DriverWorkbook, "Results store driver (workbook, sqlite)")
	f.String("results-db", "results.db", "Results database path (sqlite driver)")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print the bcrypt hash of a password for the admin-password setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := bcrypt.GenerateFromPassword([]byte(args[0]), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(hash))
			return nil
		},
	}
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("QUIZDECK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("quizdeck")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/quizdeck")
	v.AddConfigPath("/etc/quizdeck")
	v.AddConfigPath("/data")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// loadBank reads the question bank, optionally writing the sample bank first
// when the file does not exist yet.
func loadBank(path string, createSample bool) (*bank.Bank, error) {
	b, err := bank.Load(path)
	if errors.Is(err, bank.ErrMissing) && createSample {
		slog.Info("question bank missing, writing sample", "path", path)
		if werr := bank.WriteSample(path); werr != nil {
			return nil, fmt.Errorf("write sample bank: %w", werr)
		}
		b, err = bank.Load(path)
	}
	if err != nil {
		return nil, fmt.Errorf("load question bank: %w", err)
	}
	slog.Info("question bank loaded", "path", path, "questions", b.Len())
	return b, nil
}

// openStore opens the configured results backend and returns it together
// with the raw file path backing it.
func openStore(v *viper.Viper) (store.Store, string, error) {
	driver := v.GetString("results-driver")
	path := v.GetString("results")
	if driver == store.DriverSQLite {
		path = v.GetString("results-db")
	}
	st, err := store.Open(driver, path)
	if err != nil {
		return nil, "", fmt.Errorf("open results store: %w", err)
	}
	return st, path, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	b, err := loadBank(v.GetString("bank"), v.GetBool("create-sample-bank"))
	if err != nil {
		return err
	}

	st, resultsPath, err := openStore(v)
	if err != nil {
		return err
	}
	defer st.Close()

	notesDir, err := notes.NewDir(v.GetString("notes-dir"))
	if err != nil {
		return fmt.Errorf("open notes directory: %w", err)
	}

	reg := session.NewRegistry(v.GetDuration("session-grace"))
	go func() {
		t := time.NewTicker(10 * time.Minute)
		defer t.Stop()
		for now := range t.C {
			if n := reg.Sweep(now); n > 0 {
				slog.Info("swept expired quiz sessions", "count", n)
			}
		}
	}()

	h := handler.New(b, reg, st, notesDir, handler.Config{
		MinQuestions:     v.GetInt("min-questions"),
		MaxQuestions:     v.GetInt("max-questions"),
		DefaultQuestions: v.GetInt("default-questions"),
		PerQuestion:      time.Duration(v.GetInt("seconds-per-question")) * time.Second,
		BankPath:         v.GetString("bank"),
		ResultsPath:      resultsPath,
		AdminPassword:    v.GetString("admin-password"),
	})

	// Normalize base path.
	basePath := strings.TrimRight(v.GetString("base-path"), "/")
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))

	if basePath != "" {
		r.Route(basePath, func(sub chi.Router) {
			h.Routes(sub)
		})
		r.Get(basePath, func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, basePath+"/", http.StatusMovedPermanently)
		})
	} else {
		h.Routes(r)
	}

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"bank", v.GetString("bank"),
		"questions", b.Len(),
		"results_driver", v.GetString("results-driver"),
		"results", resultsPath,
		"notes_dir", v.GetString("notes-dir"),
		"lang", lang,
		"seconds_per_question", v.GetInt("seconds-per-question"),
		"base_path", basePath,
	)
	return http.ListenAndServe(addr, r)
}

func runSample(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	path := v.GetString("output")
	if err := bank.WriteSample(path); err != nil {
		return fmt.Errorf("write sample bank: %w", err)
	}
	b, err := bank.Load(path)
	if err != nil {
		return fmt.Errorf("verify sample bank: %w", err)
	}
	slog.Info("sample question bank written", "path", path, "questions", b.Len())
	return nil
}

func runStats(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	st, _, err := openStore(v)
	if err != nil {
		return err
	}
	defer st.Close()

	rows, err := st.ReadAll()
	if err != nil {
		return fmt.Errorf("read results: %w", err)
	}

	data, err := json.MarshalIndent(leaderboard.Build(rows), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)

	return nil
}
