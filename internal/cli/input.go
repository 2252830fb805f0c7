// Package cli handles cmd line input for DBG and trying the sieve interactively
package cli

import (
	"bufio"
	"context"
	"io"
	"strings"
	"time"

	"github.com/bastiangx/wordsieve/internal/utils"
	"github.com/bastiangx/wordsieve/pkg/sieve"
	"github.com/bastiangx/wordsieve/pkg/vocab"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

var (
	wordStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	commonStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	helpStyle   = lipgloss.NewStyle().Faint(true)
)

const help = `lines of text are added to the session. commands:
  :list [segment]     all, target, common, new, acquainted, mine, top
  :find <prefix>      prefix lookup over stems and derived forms
  :know <word>...     mark words as acquainted
  :forget <word>      revoke an acquainted word
  :stats              session sizes
  :reset              drop every added line
  :help`

// InputHandler reads lines from a reader, adding text to the session or
// running commands, and prints the sieved vocabulary.
type InputHandler struct {
	session      *vocab.Session
	in           io.Reader
	limit        int
	showCommon   bool
	requestCount int
}

// NewInputHandler handles initialization of the InputHandler with basic parameters
func NewInputHandler(session *vocab.Session, in io.Reader, limit int, showCommon bool) *InputHandler {
	if limit < 1 {
		limit = 24
	}
	return &InputHandler{
		session:    session,
		in:         in,
		limit:      limit,
		showCommon: showCommon,
	}
}

// Start begins the interface loop. It ends on EOF, ":q" or when ctx is done.
func (h *InputHandler) Start(ctx context.Context) error {
	log.Print("WordSieve CLI [BETA]")
	log.Print(helpStyle.Render("type some text and press Enter, :help for commands (Ctrl+C to exit):"))
	scanner := bufio.NewScanner(h.in)
	scanner.Buffer(make([]byte, 64*1024), 4<<20)

	for {
		if ctx.Err() != nil {
			return nil
		}
		log.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == ":q" || line == ":quit" {
			return nil
		}
		h.handleInput(ctx, line)
	}
}

// handleInput runs a command, or adds the line and prints the targets
func (h *InputHandler) handleInput(ctx context.Context, line string) {
	h.requestCount++
	if !strings.HasPrefix(line, ":") {
		h.session.Add(line)
		h.printList(ctx, string(sieve.SegmentTarget))
		return
	}

	cmd, arg, _ := strings.Cut(line[1:], " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case "list", "ls":
		h.printList(ctx, arg)
	case "find", "f":
		h.find(ctx, arg)
	case "know", "acquaint":
		words := utils.UniqueWords(strings.Fields(arg))
		n, err := h.session.Acquaint(ctx, words...)
		if err != nil {
			log.Errorf("Acquaint failed: %v", err)
			return
		}
		log.Printf("%d word(s) marked as acquainted", n)
	case "forget", "revoke":
		if err := h.session.Revoke(ctx, arg); err != nil {
			log.Errorf("Revoke failed: %v", err)
			return
		}
		log.Printf("%q forgotten", arg)
	case "stats":
		h.stats(ctx)
	case "reset":
		h.session.Reset()
		log.Print("Session cleared")
	case "help", "h":
		log.Print(help)
	default:
		log.Errorf("Unknown command: %s (try :help)", cmd)
	}
}

func (h *InputHandler) snapshot(ctx context.Context) (*vocab.Snapshot, bool) {
	snap, err := h.session.Snapshot(ctx)
	if err != nil {
		log.Errorf("Building vocabulary: %v", err)
		return nil, false
	}
	return snap, true
}

func (h *InputHandler) printList(ctx context.Context, name string) {
	seg, err := sieve.ParseSegment(name)
	if err != nil {
		log.Error(err)
		return
	}
	snap, ok := h.snapshot(ctx)
	if !ok {
		return
	}
	var entries []sieve.Entry
	switch seg {
	case sieve.SegmentTarget:
		entries = snap.Target
	case sieve.SegmentCommon:
		entries = snap.Common
	default:
		entries = sieve.Select(snap.Entries, seg, 0)
	}
	log.Printf("%s: %d word(s), built in %v", seg, len(entries), snap.Took)
	h.printEntries(entries)
	if h.showCommon && seg == sieve.SegmentTarget && len(snap.Common) > 0 {
		log.Printf("common: %d word(s)", len(snap.Common))
		h.printEntries(snap.Common)
	}
}

func (h *InputHandler) printEntries(entries []sieve.Entry) {
	for i, en := range entries {
		if i == h.limit {
			log.Printf("    … %d more", len(entries)-h.limit)
			break
		}
		style := wordStyle
		if en.Phase() == sieve.PhaseAcquainted {
			style = commonStyle
		}
		derived := ""
		if len(en.Derived) > 0 {
			derived = utils.Truncate(strings.Join(en.Derived, ", "), 48)
		}
		log.Printf("%3d. %-24s (freq: %6s) %s", i+1, style.Render(en.Word), utils.FormatWithCommas(en.Frequency()), derived)
	}
}

// find validates the prefix the way the IPC server does before looking it up
func (h *InputHandler) find(ctx context.Context, prefix string) {
	if !utils.IsValidInput(prefix) {
		log.Warnf("Not a searchable prefix: '%s'", prefix)
		return
	}
	snap, ok := h.snapshot(ctx)
	if !ok {
		return
	}
	start := time.Now()
	found := snap.Index.Lookup(prefix, h.limit)
	log.Debugf("Took [ %v ] for prefix '%s'", time.Since(start), prefix)
	if len(found) == 0 {
		log.Warnf("No words found for prefix: '%s'", prefix)
		return
	}
	log.Printf("Found %d word(s) for prefix '%s':", len(found), prefix)
	h.printEntries(found)
}

func (h *InputHandler) stats(ctx context.Context) {
	snap, ok := h.snapshot(ctx)
	if !ok {
		return
	}
	nodes, labels := snap.Engine.Size()
	log.Printf("texts %d | words %s | entries %d (target %d, common %d) | trie %s nodes, %s labels | builds %d",
		h.session.Texts(), utils.FormatWithCommas(snap.WordCount), len(snap.Entries), len(snap.Target), len(snap.Common),
		utils.FormatWithCommas(nodes), utils.FormatWithCommas(labels), h.session.Cache().Builds())
}
