// Package main is the NurseDesk CLI entry point.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/medhelm/nursedesk/internal/bot"
	"github.com/medhelm/nursedesk/internal/composer"
	"github.com/medhelm/nursedesk/internal/config"
	"github.com/medhelm/nursedesk/internal/index"
	"github.com/medhelm/nursedesk/internal/ingest"
	"github.com/medhelm/nursedesk/internal/knowledge"
	"github.com/medhelm/nursedesk/internal/retrieval"
	"github.com/medhelm/nursedesk/internal/server"
	"github.com/medhelm/nursedesk/internal/session"
	"github.com/medhelm/nursedesk/internal/storage"
	"github.com/medhelm/nursedesk/internal/watcher"
	"github.com/medhelm/nursedesk/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/nursedesk/config.yaml"

// loadConfig loads config from path. When path is the default, it first
// looks for config.yaml in the current directory (for development); if that
// exists it is used. Returns the config and the path actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	switch os.Args[1] {
	case "server":
		runServer()
	case "ask":
		runAsk()
	case "ingest":
		runIngest()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("nursedesk version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`NurseDesk - nursing department knowledge chatbot

Usage:
  nursedesk server  [-config path]              Start the webhook server
  nursedesk ask     [-config path] <question>   Ask the knowledge base directly
  nursedesk ingest  [-config path] [-dept code] [-watch] [paths...]
                                                Ingest content files or directories
  nursedesk status  [-config path]              Show knowledge base status
  nursedesk version                             Print version
`)
}

// setup loads config, builds the logger, and opens the store.
func setup(fs *flag.FlagSet, args []string) (*config.Config, *zap.Logger, storage.Store) {
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(args)

	cfg, resolved, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug || *debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("config loaded", zap.String("config_path", resolved))

	store, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Fatal("Failed to open store", zap.Error(err))
	}
	return cfg, logger, store
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	cfg, logger, store := setup(fs, os.Args[2:])
	defer logger.Sync()
	defer store.Close()

	repo := knowledge.NewRepository(store, logger)
	engine := retrieval.NewEngine(store, repo, logger)
	sessions := session.NewStore(cfg.Bot.MaxHistory)
	handler := bot.NewHandler(engine, sessions, composer.New(nil), logger)
	srv := server.NewServer(handler, repo, sessions, store, cfg, logger)

	var watchCancel context.CancelFunc
	if len(cfg.Ingest.Directories) > 0 {
		ingester := ingest.NewIngester(store, logger)
		dept := cfg.Ingest.DefaultDepartment
		w := watcher.New(
			cfg.Ingest.Directories,
			cfg.Ingest.Extensions,
			cfg.Ingest.RecursiveOrDefault(),
			func(path string) {
				if _, err := ingester.IngestFile(context.Background(), path, dept); err != nil {
					logger.Warn("watch ingest failed", zap.String("path", path), zap.Error(err))
				}
			},
			func(path string) {
				id := dept + "-" + ingest.Slug(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
				if err := ingester.Remove(context.Background(), id); err != nil {
					logger.Warn("watch remove failed", zap.String("path", path), zap.Error(err))
				}
			},
			logger,
		)
		var watchCtx context.Context
		watchCtx, watchCancel = context.WithCancel(context.Background())
		if err := w.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
	}

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	if watchCancel != nil {
		watchCancel()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runAsk() {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	_, logger, store := setup(fs, reorderArgs(os.Args[2:]))
	defer logger.Sync()
	defer store.Close()

	question := strings.Join(fs.Args(), " ")
	if question == "" {
		fmt.Println("Usage: nursedesk ask <question>")
		os.Exit(1)
	}

	repo := knowledge.NewRepository(store, logger)
	engine := retrieval.NewEngine(store, repo, logger)
	sessions := session.NewStore(0)
	handler := bot.NewHandler(engine, sessions, composer.New(rand.New(rand.NewSource(time.Now().UnixNano()))), logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	replies := handler.HandleEvent(ctx, bot.TextEvent("cli", question))
	for _, reply := range replies {
		switch reply.Type {
		case bot.EventText:
			fmt.Println(reply.Text)
		case bot.EventImage:
			fmt.Printf("[image] %s\n", reply.ImageURL)
		case bot.EventVideo:
			fmt.Printf("[video] %s\n", reply.VideoURL)
		}
	}
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	dept := fs.String("dept", "", "department code for ingested files")
	watch := fs.Bool("watch", false, "keep running and re-ingest on changes")
	cfg, logger, store := setup(fs, reorderArgs(os.Args[2:]))
	defer logger.Sync()
	defer store.Close()

	department := *dept
	if department == "" {
		department = cfg.Ingest.DefaultDepartment
	}
	paths := fs.Args()
	if len(paths) == 0 {
		paths = cfg.Ingest.Directories
	}
	if len(paths) == 0 {
		fmt.Println("Usage: nursedesk ingest [-dept code] [-watch] <paths...>")
		os.Exit(1)
	}

	ingester := ingest.NewIngester(store, logger)
	ctx := context.Background()
	total := 0
	var dirs []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			logger.Fatal("Cannot stat path", zap.String("path", path), zap.Error(err))
		}
		if info.IsDir() {
			dirs = append(dirs, path)
			n, err := ingester.IngestDir(ctx, path, department, cfg.Ingest.Extensions, cfg.Ingest.RecursiveOrDefault())
			if err != nil {
				logger.Fatal("Ingest failed", zap.String("path", path), zap.Error(err))
			}
			total += n
			continue
		}
		if _, err := ingester.IngestFile(ctx, path, department); err != nil {
			logger.Fatal("Ingest failed", zap.String("path", path), zap.Error(err))
		}
		total++
	}
	fmt.Printf("Ingested %d document(s)\n", total)

	if !*watch {
		return
	}
	if len(dirs) == 0 {
		fmt.Println("-watch requires at least one directory path")
		os.Exit(1)
	}
	w := watcher.New(dirs, cfg.Ingest.Extensions, cfg.Ingest.RecursiveOrDefault(),
		func(path string) {
			if _, err := ingester.IngestFile(context.Background(), path, department); err != nil {
				logger.Warn("watch ingest failed", zap.String("path", path), zap.Error(err))
			}
		},
		nil,
		logger,
	)
	watchCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(watchCtx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	fmt.Println("Watching for changes. Ctrl-C to stop.")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	w.Stop()
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	cfg, logger, store := setup(fs, os.Args[2:])
	defer logger.Sync()
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo := knowledge.NewRepository(store, logger)
	ids := repo.ListIDs(ctx)
	fmt.Printf("Documents: %d\n", len(ids))

	if ix, err := index.Load(ctx, store); err == nil {
		fmt.Printf("Keyword index entries: %d\n", ix.Len())
	} else {
		fmt.Println("Keyword index: not initialized")
	}
	if bytes, err := storage.DiskUsageBytes(cfg.Storage.DatabasePath); err == nil {
		fmt.Printf("Disk usage: %d bytes\n", bytes)
	}
}

// reorderArgs moves flag arguments before positionals so the flag package
// parses "nursedesk ask how do I set up cvvh -debug" as expected.
func reorderArgs(args []string) []string {
	var flags, positionals []string
	i := 0
	for i < len(args) {
		arg := args[i]
		if strings.HasPrefix(arg, "-") {
			flags = append(flags, arg)
			if !strings.Contains(arg, "=") && i+1 < len(args) && needsValue(arg) {
				flags = append(flags, args[i+1])
				i++
			}
		} else {
			positionals = append(positionals, arg)
		}
		i++
	}
	return append(flags, positionals...)
}

// needsValue reports whether the flag takes a separate value argument.
func needsValue(arg string) bool {
	name := strings.TrimLeft(arg, "-")
	switch name {
	case "config", "dept":
		return true
	}
	return false
}
