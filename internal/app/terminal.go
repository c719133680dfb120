package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/edgard/chatwidget/internal/crawl"
	"github.com/edgard/chatwidget/internal/transport"
	"github.com/edgard/chatwidget/internal/widget"
)

const terminalHelp = "commands: /open /close /toggle /reset /session /transcript /crawl <client> [url] /help /quit"

// SessionClient looks up backend sessions for /session and /transcript.
type SessionClient interface {
	GetSession(ctx context.Context, id string) (transport.Session, error)
	SessionMessages(ctx context.Context, id string) ([]transport.Exchange, error)
}

// Crawler starts website crawls for /crawl.
type Crawler interface {
	StartCrawl(ctx context.Context, clientID, target string) (crawl.Job, error)
}

// TerminalOption configures optional terminal commands.
type TerminalOption func(*TerminalSurface)

// WithSessionClient enables /session and /transcript.
func WithSessionClient(c SessionClient) TerminalOption {
	return func(t *TerminalSurface) { t.sessions = c }
}

// WithCrawler enables /crawl.
func WithCrawler(c Crawler) TerminalOption {
	return func(t *TerminalSurface) { t.crawler = c }
}

// TerminalSurface is a line-oriented chat session on a terminal.
type TerminalSurface struct {
	widget   *widget.Widget
	in       io.Reader
	out      io.Writer
	logger   *slog.Logger
	sessions SessionClient
	crawler  Crawler
}

// NewTerminalSurface reads commands and messages from in and writes notices
// to out. Widget output goes wherever its view writes.
func NewTerminalSurface(w *widget.Widget, in io.Reader, out io.Writer, logger *slog.Logger, opts ...TerminalOption) *TerminalSurface {
	t := &TerminalSurface{
		widget: w,
		in:     in,
		out:    out,
		logger: logger.With("component", "terminal"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Run opens the widget and processes input until /quit, end of input, or ctx
// cancellation.
func (t *TerminalSurface) Run(ctx context.Context) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(t.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	fmt.Fprintln(t.out, terminalHelp)
	t.widget.Open(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("read input: %w", err)
					}
				default:
				}
				return nil
			}
			if quit := t.handle(ctx, line); quit {
				return nil
			}
		}
	}
}

func (t *TerminalSurface) handle(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	command := ""
	if len(fields) > 0 && strings.HasPrefix(fields[0], "/") {
		command = fields[0]
	}

	switch command {
	case "/quit", "/exit":
		return true
	case "/open":
		t.widget.Open(ctx)
	case "/close":
		t.widget.Close()
	case "/toggle":
		t.widget.Toggle(ctx)
	case "/reset":
		if err := t.widget.Reset(ctx); err != nil {
			t.logger.WarnContext(ctx, "Reset failed", "error", err)
		}
	case "/session":
		t.showSession(ctx)
	case "/transcript":
		t.showTranscript(ctx)
	case "/crawl":
		t.startCrawl(ctx, fields[1:])
	case "/help":
		fmt.Fprintln(t.out, terminalHelp)
	default:
		err := t.widget.Send(ctx, line)
		if errors.Is(err, widget.ErrWindowClosed) {
			fmt.Fprintln(t.out, "the chat is closed, type /open first")
		} else if err != nil {
			t.logger.ErrorContext(ctx, "Send failed", "error", err)
		}
	}
	return false
}

func (t *TerminalSurface) currentSession() (string, bool) {
	if t.sessions == nil {
		fmt.Fprintln(t.out, "session lookup is not available")
		return "", false
	}
	id := t.widget.SessionID()
	if id == "" {
		fmt.Fprintln(t.out, "no session yet, send a message first")
		return "", false
	}
	return id, true
}

func (t *TerminalSurface) showSession(ctx context.Context) {
	id, ok := t.currentSession()
	if !ok {
		return
	}
	session, err := t.sessions.GetSession(ctx, id)
	if err != nil {
		t.logger.ErrorContext(ctx, "Session lookup failed", "session_id", id, "error", err)
		fmt.Fprintln(t.out, "could not fetch the session")
		return
	}
	state := "active"
	if session.EndTime != nil {
		state = "ended " + session.EndTime.Format(time.RFC3339)
	}
	fmt.Fprintf(t.out, "session %s started %s, %s\n", session.ID, session.StartTime.Format(time.RFC3339), state)
}

func (t *TerminalSurface) showTranscript(ctx context.Context) {
	id, ok := t.currentSession()
	if !ok {
		return
	}
	exchanges, err := t.sessions.SessionMessages(ctx, id)
	if err != nil {
		t.logger.ErrorContext(ctx, "Transcript lookup failed", "session_id", id, "error", err)
		fmt.Fprintln(t.out, "could not fetch the transcript")
		return
	}
	for _, e := range exchanges {
		fmt.Fprintf(t.out, "[%s] you: %s\n[%s] bot: %s\n",
			e.CreatedAt.Format(time.Kitchen), e.UserMessage, e.CreatedAt.Format(time.Kitchen), e.BotResponse)
	}
	fmt.Fprintf(t.out, "%d exchanges in session %s\n", len(exchanges), id)
}

func (t *TerminalSurface) startCrawl(ctx context.Context, args []string) {
	if t.crawler == nil {
		fmt.Fprintln(t.out, "crawling is not configured")
		return
	}
	if len(args) == 0 || len(args) > 2 {
		fmt.Fprintln(t.out, "usage: /crawl <client> [url]")
		return
	}
	target := ""
	if len(args) == 2 {
		target = args[1]
	}
	job, err := t.crawler.StartCrawl(ctx, args[0], target)
	if err != nil {
		t.logger.ErrorContext(ctx, "Crawl request failed", "client_id", args[0], "error", err)
		fmt.Fprintln(t.out, "could not start the crawl")
		return
	}
	fmt.Fprintf(t.out, "crawl job %s for %s is %s\n", job.ID, args[0], job.Status)
}
