// Package console is the terminal front end: it reads start, stop and exit
// commands from an input stream and prints loop events as they happen.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/anatolykoptev/ytwatch/internal/engine"
	"github.com/anatolykoptev/ytwatch/internal/watcher"
)

// Control is the operator surface of the watcher.
type Control interface {
	Start() bool
	Stop() bool
	Exit()
	Status() watcher.Status
}

// Console implements watcher.Observer and the command prompt.
type Console struct {
	in       io.Reader
	term     string
	interval time.Duration

	mu  sync.Mutex // serializes writes from the loop and the prompt
	out io.Writer
}

// New creates a Console.
func New(in io.Reader, out io.Writer, term string, interval time.Duration) *Console {
	return &Console{in: in, out: out, term: term, interval: interval}
}

func (c *Console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

// Banner prints the command help.
func (c *Console) Banner() {
	c.printf("Type 'start' to begin checking for '%s' every %s.\n", c.term, formatInterval(c.interval))
	c.printf("Type 'stop' to end the loop.\n")
	c.printf("Type 'status' or 'metrics' to inspect the watcher.\n")
	c.printf("Type 'exit' to quit the program.\n\n")
}

// Run reads commands until "exit", end of input or ctx cancellation, then
// exits the controller.
func (c *Console) Run(ctx context.Context, ctrl Control) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(c.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	for {
		c.printf("> ")
		select {
		case <-ctx.Done():
			c.printf("\nExiting program.\n")
			ctrl.Exit()
			return nil
		case err := <-readErr:
			c.printf("\nExiting program.\n")
			ctrl.Exit()
			return err
		case line := <-lines:
			if !c.handle(strings.ToLower(strings.TrimSpace(line)), ctrl) {
				ctrl.Exit()
				return nil
			}
		}
	}
}

// handle runs one command. It returns false on exit.
func (c *Console) handle(cmd string, ctrl Control) bool {
	switch cmd {
	case "":
	case "start":
		if ctrl.Start() {
			c.printf("Started searching.\n\n")
		} else if ctrl.Status().State == watcher.StopRequested.String() {
			c.printf("Still stopping, try again once the current check finishes.\n\n")
		} else {
			c.printf("Already running.\n\n")
		}
	case "stop":
		if ctrl.Stop() {
			c.printf("Stopping... Will end after current check finishes.\n\n")
		} else {
			c.printf("Not running.\n\n")
		}
	case "status":
		c.printStatus(ctrl.Status())
	case "metrics":
		c.printf("%s\n", engine.FormatMetrics())
	case "exit", "quit":
		c.printf("Exiting program.\n")
		return false
	default:
		c.printf("Unknown command. Use 'start', 'stop', 'status', 'metrics' or 'exit'.\n\n")
	}
	return true
}

func (c *Console) printStatus(st watcher.Status) {
	last := "never"
	if st.HasLastPass() {
		last = st.LastPass.Format("2006-01-02 15:04:05")
		if st.LastPassFailed {
			last += " (failed)"
		}
	}
	c.printf("State: %s\nLast check: %s\nChecks run: %d\nNew videos found: %d\n\n",
		st.State, last, st.Passes, st.NewMatches)
}

// PassStarted implements watcher.Observer.
func (c *Console) PassStarted(info watcher.PassInfo) {
	c.printf("\nSearching for: %s\nSearch URL: %s\n", info.Term, info.SearchURL)
}

// MatchFound implements watcher.Observer.
func (c *Console) MatchFound(m engine.Match) {
	c.printf("\n📺 Title: %s\n👤 Uploader: %s\n🔗 Link: %s\n🕒 Uploaded: %s\n",
		m.Title, m.Uploader, m.URL, m.UploadDate.Format("2006-01-02"))
}

// PassCompleted implements watcher.Observer.
func (c *Console) PassCompleted(r watcher.PassReport) {
	switch {
	case len(r.Matches) > 0:
	case r.Failed(), r.Counts.Candidates == 0:
		c.printf("No search results found.\n")
	default:
		c.printf("No new videos uploaded today matching the search term were found.\n")
	}
	c.printf("\nWaiting %s until next check...\n\n", formatInterval(c.interval))
}

// PersistenceWarning implements watcher.Observer.
func (c *Console) PersistenceWarning(err error) {
	c.printf("\n⚠️  WARNING: seen-video ledger unavailable, videos may be reported again: %v\n", err)
}

func formatInterval(d time.Duration) string {
	if d >= time.Minute && d%time.Minute == 0 {
		n := int(d / time.Minute)
		if n == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", n)
	}
	return d.String()
}
