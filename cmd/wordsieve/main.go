// Copyright 2025 The WordServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the vocabulary sieve server, HTTP API and CLI [DBG] application.

Note: This is a BETA release. APIs and functionality may rapidly change.

WordSieve reads texts, clusters every word with its inflected forms under one
stem and splits the result into words still to learn and words the user
already knows. Stems come from suffix folding over an arena trie plus an
irregular table (go/went/gone), and known words from a vocabulary store.

# Usage

Start the MessagePack IPC server with default settings:

	wsieve

Serve the HTTP API instead, storing vocabulary in SQLite:

	wsieve -http 127.0.0.1:8787 -store sqlite -db ~/vocab.db

Sieve files or article URLs once and print the target words as JSON:

	wsieve -batch -segment target book.txt https://example.com/article

Run the CLI for interactive testing:

	wsieve -c -d

# Configuration

Runtime configuration lives in a TOML file, created with defaults on first run:

	[engine]
	min_target_length = 3
	max_word_length = 32

	[cache]
	refresh_delay_ms = 50

	[store]
	driver = "memory"
	path = ""

	[dict]
	irregular_path = ""
	use_builtin = true

	[server]
	max_limit = 64

Flags override config values for one run.

# Snapshots

-snapshot writes the engine built in batch mode as zstd compressed msgpack;
-inspect reads one back and prints its sizes.
*/
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bastiangx/wordsieve/internal/cli"
	"github.com/bastiangx/wordsieve/internal/utils"
	"github.com/bastiangx/wordsieve/pkg/config"
	"github.com/bastiangx/wordsieve/pkg/dictionary"
	"github.com/bastiangx/wordsieve/pkg/httpapi"
	"github.com/bastiangx/wordsieve/pkg/server"
	"github.com/bastiangx/wordsieve/pkg/sieve"
	"github.com/bastiangx/wordsieve/pkg/source"
	"github.com/bastiangx/wordsieve/pkg/store"
	"github.com/bastiangx/wordsieve/pkg/store/memstore"
	"github.com/bastiangx/wordsieve/pkg/store/sqlite"
	"github.com/bastiangx/wordsieve/pkg/vocab"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const (
	Version = "0.3.0-beta"
	AppName = "wordsieve"
	gh      = "https://github.com/bastiangx/wordsieve"
)

// sigHandler cancels the returned context on the first signal and exits on the second.
func sigHandler() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		cancel()
		<-c
		os.Exit(1)
	}()
	return ctx
}

// main wires config, store and table into one of the run modes.
// main() does not implement logic for them and only manages the flow.
func main() {
	ctx := sigHandler()

	showVersion := flag.Bool("version", false, "Show current version")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	configFile := flag.String("config", "", "Path to a custom config.toml")
	cliMode := flag.Bool("c", false, "Run CLI -- useful for testing and debugging")
	httpAddr := flag.String("http", "", "Serve the HTTP API on this address instead of IPC")
	batchMode := flag.Bool("batch", false, "Sieve the files or URLs given as arguments and print JSON")
	segment := flag.String("segment", "target", "Segment printed in batch mode")
	user := flag.String("user", "local", "User whose vocabulary state is used")
	driver := flag.String("store", "", "Store driver: memory or sqlite")
	dbPath := flag.String("db", "", "SQLite database path")
	irregular := flag.String("irregular", "", "Irregular table file (.yaml, .toml, .txt)")
	ranked := flag.String("ranked", "", "Shared word list to load into the store, most common first")
	minLen := flag.Int("min", 0, "Minimum target word length in runes")
	limit := flag.Int("limit", 0, "Rows printed per listing in CLI mode")
	snapshotOut := flag.String("snapshot", "", "Write the batch engine snapshot to this file")
	inspect := flag.String("inspect", "", "Print the sizes of an engine snapshot and exit")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if *debugMode {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	if *inspect != "" {
		if err := inspectSnapshot(*inspect); err != nil {
			log.Fatalf("Failed to read snapshot: %v", err)
		}
		return
	}

	appConfig, configPath, err := config.LoadConfigWithPriority(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Debugf("Using config file: (%s)", config.GetActiveConfigPath(configPath))
	applyFlags(appConfig, *driver, *dbPath, *irregular, *minLen, *limit, *httpAddr)

	pathResolver, err := utils.NewPathResolver()
	if err != nil {
		log.Fatalf("Failed to initialize path resolver: %v", err)
	}

	st, err := openStore(ctx, appConfig, pathResolver)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	if *ranked != "" {
		if err := loadRanked(ctx, st, *ranked); err != nil {
			log.Fatalf("Failed to load ranked words: %v", err)
		}
	}

	table, err := loadTable(appConfig)
	if err != nil {
		log.Fatalf("Failed to load irregular table: %v", err)
	}

	switch {
	case *batchMode:
		if err := runBatch(ctx, st, table, appConfig, pathResolver, *user, *segment, *snapshotOut, flag.Args()); err != nil {
			log.Fatalf("Batch failed: %v", err)
		}

	case *httpAddr != "":
		api, err := httpapi.New(st, table, appConfig)
		if err != nil {
			log.Fatalf("Failed to create HTTP API: %v", err)
		}
		showStartupInfo("http", appConfig, pathResolver)
		if err := api.Start(ctx); err != nil {
			log.Fatalf("HTTP API error: %v", err)
		}

	default:
		session := vocab.NewSession(st, table, vocab.Options{
			User:            *user,
			MinTargetLength: appConfig.Engine.MinTargetLength,
			RefreshDelay:    appConfig.Cache.RefreshDelay(),
		})
		defer session.Close()
		docs, err := openInputs(ctx, pathResolver, flag.Args())
		if err != nil {
			log.Fatalf("Failed to load input: %v", err)
		}
		for _, doc := range docs {
			session.Add(doc.Text)
		}

		// CLI would be mainly used for testing and dbg purposes.
		if *cliMode {
			log.SetReportTimestamp(false)
			inputHandler := cli.NewInputHandler(session, os.Stdin, appConfig.CLI.DefaultLimit, appConfig.CLI.ShowCommon)
			if err := inputHandler.Start(ctx); err != nil {
				log.Fatalf("CLI error: %v", err)
			}
			return
		}

		log.Debug("spawning IPC")
		srv := server.NewServer(session, appConfig, configPath, os.Stdin, os.Stdout)
		showStartupInfo("ipc", appConfig, pathResolver)
		if err := srv.Start(ctx); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}
}

// applyFlags overrides config values with the flags that were set
func applyFlags(cfg *config.Config, driver, dbPath, irregular string, minLen, limit int, httpAddr string) {
	if driver != "" {
		cfg.Store.Driver = driver
	}
	if dbPath != "" {
		cfg.Store.Path = dbPath
		if driver == "" {
			cfg.Store.Driver = "sqlite"
		}
	}
	if irregular != "" {
		cfg.Dict.IrregularPath = irregular
	}
	if minLen > 0 {
		cfg.Engine.MinTargetLength = minLen
	}
	if limit > 0 {
		cfg.CLI.DefaultLimit = limit
	}
	if httpAddr != "" {
		cfg.HTTP.Addr = httpAddr
	}
}

// openStore picks the store backend named in the config
func openStore(ctx context.Context, cfg *config.Config, pr *utils.PathResolver) (store.Store, error) {
	switch cfg.Store.Driver {
	case "", "memory":
		st := memstore.New()
		st.SetMaxWordLength(cfg.Engine.MaxWordLength)
		return st, nil
	case "sqlite":
		path := cfg.Store.Path
		if path == "" {
			path = pr.DataFile("vocab.db")
		}
		log.Debugf("Using sqlite store at: %s", path)
		st, err := sqlite.Open(ctx, path)
		if err != nil {
			return nil, err
		}
		st.SetMaxWordLength(cfg.Engine.MaxWordLength)
		return st, nil
	default:
		return nil, fmt.Errorf("%w: %q", store.ErrUnknownStore, cfg.Store.Driver)
	}
}

func loadRanked(ctx context.Context, st store.Store, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	words, err := store.ParseRanked(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	log.Debugf("Loading %d ranked words from %s", len(words), path)
	return st.UpsertRanked(ctx, words)
}

// loadTable merges the builtin table with the configured file, the file
// winning on shared stems.
func loadTable(cfg *config.Config) (dictionary.Table, error) {
	var table dictionary.Table
	if cfg.Dict.UseBuiltin {
		table = dictionary.Builtin()
	}
	if cfg.Dict.IrregularPath == "" {
		return table, nil
	}
	custom, err := dictionary.Load(cfg.Dict.IrregularPath)
	if err != nil {
		return nil, err
	}
	return table.Merge(custom), nil
}

// runBatch sieves every source in one engine and prints the segment as JSON.
func runBatch(ctx context.Context, st store.Store, table dictionary.Table, cfg *config.Config, pr *utils.PathResolver, user, segment, snapshotOut string, args []string) error {
	if len(args) == 0 {
		return errors.New("no input given")
	}
	seg, err := sieve.ParseSegment(segment)
	if err != nil {
		return err
	}
	docs, err := openInputs(ctx, pr, args)
	if err != nil {
		return err
	}
	texts := make([]string, 0, len(docs))
	for _, doc := range docs {
		texts = append(texts, doc.Text)
	}
	states, err := st.Words(ctx, user)
	if err != nil {
		return err
	}

	start := time.Now()
	eng, err := sieve.Build(texts, states, table)
	if err != nil {
		return err
	}
	entries := sieve.Select(eng.Flatten(), seg, cfg.Engine.MinTargetLength)
	log.Debugf("Sieved %s words into %d %s entries in %v",
		utils.FormatWithCommas(eng.WordCount()), len(entries), seg, time.Since(start))

	if snapshotOut != "" {
		f, err := os.Create(snapshotOut)
		if err != nil {
			return err
		}
		if err := eng.WriteSnapshot(f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

// openInputs loads every argument. URLs are fetched as given; files are
// looked up in the working dir and then next to the executable.
func openInputs(ctx context.Context, pr *utils.PathResolver, args []string) ([]source.Document, error) {
	docs := make([]source.Document, 0, len(args))
	for _, arg := range args {
		location := arg
		if !strings.HasPrefix(arg, "http://") && !strings.HasPrefix(arg, "https://") {
			resolved, err := pr.ResolveInput(arg)
			if err != nil {
				return nil, fmt.Errorf("load %s: %w", arg, err)
			}
			location = resolved
		}
		doc, err := source.Open(ctx, location)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", arg, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func inspectSnapshot(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	eng, err := sieve.ReadSnapshot(f)
	if err != nil {
		return err
	}
	nodes, labels := eng.Size()
	target, common := eng.Segregate(sieve.DefaultMinTargetLength)
	fmt.Printf("%s: %s words in %d sentences | %s nodes, %s labels | %d target, %d common\n",
		path, utils.FormatWithCommas(eng.WordCount()), len(eng.Sentences()),
		utils.FormatWithCommas(nodes), utils.FormatWithCommas(labels), len(target), len(common))
	return nil
}

func printVersion() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	logger.SetStyles(styles)

	logger.Print("")
	logger.Print("[ WordSieve ] Sorts the words of a text into stems you know and stems to learn")
	logger.Print("", "version", Version)
	logger.Print("")
	logger.Print("use -h or --help to see available options")
	logger.Print("Github Repo", "gh", gh)
}

// showStartupInfo displays some basic info about the init process on stderr.
func showStartupInfo(mode string, cfg *config.Config, pr *utils.PathResolver) {
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	fmt.Fprintln(os.Stderr, "===========")
	fmt.Fprintln(os.Stderr, " WordSieve ")
	fmt.Fprintln(os.Stderr, "===========")
	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", os.Getpid())
	log.Infof("mode: %s", mode)
	log.Infof("store: %s", strings.TrimSpace(cfg.Store.Driver+" "+cfg.Store.Path))
	log.Infof("data dir: %s", pr.DataDir())
	if mode == "http" {
		log.Infof("listening: %s", cfg.HTTP.Addr)
	}
	log.Info("status: ready")
	fmt.Fprintln(os.Stderr, "Press Ctrl+C to exit")

	log.SetLevel(currentLevel)
}
