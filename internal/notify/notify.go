// Package notify pushes the newest activity record or conversation message
// to a live connection whenever the underlying log file changes.
//
// Each connection owns its watches through a Handle. Watches are created
// only for targets that exist when the connection attaches; a log created
// later is not picked up until the viewer reconnects. Delivery is
// at-least-once: one logical write may surface as several filesystem events
// and every event produces a push.
package notify

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/Zuo-Peng/axel-dashboard/internal/logstore"
	"github.com/Zuo-Peng/axel-dashboard/internal/parse"
)

const (
	TypeActivity     = "activity"
	TypeConversation = "conversation"
)

// Message is the payload pushed to a live connection.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Sender delivers one message to one connection. Send may be called from
// several goroutines at once.
type Sender interface {
	Send(msg Message) error
}

type Config struct {
	ActivityFile    string
	ConversationDir string
}

type Notifier struct {
	cfg Config
	log zerolog.Logger
}

func New(cfg Config, logger zerolog.Logger) *Notifier {
	return &Notifier{cfg: cfg, log: logger.With().Str("component", "notify").Logger()}
}

// Attach starts watching on behalf of one connection. The caller owns the
// returned Handle and must Close it when the connection ends.
func (n *Notifier) Attach(s Sender) (*Handle, error) {
	h := &Handle{log: n.log}

	if info, err := os.Stat(n.cfg.ActivityFile); err == nil && !info.IsDir() {
		if err := h.watch(n.cfg.ActivityFile, func(ev fsnotify.Event) {
			n.handleActivity(ev, s)
		}); err != nil {
			h.Close()
			return nil, fmt.Errorf("watch activity log: %w", err)
		}
	}

	if info, err := os.Stat(n.cfg.ConversationDir); err == nil && info.IsDir() {
		if err := h.watch(n.cfg.ConversationDir, func(ev fsnotify.Event) {
			n.handleConversation(ev, s)
		}); err != nil {
			h.Close()
			return nil, fmt.Errorf("watch conversations: %w", err)
		}
	}

	return h, nil
}

// handleActivity pushes the last line of the activity log.
func (n *Notifier) handleActivity(ev fsnotify.Event, s Sender) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return
	}
	line, err := parse.LastLine(n.cfg.ActivityFile)
	if err != nil {
		n.log.Debug().Err(err).Msg("read activity tail")
		return
	}
	if line == "" {
		return
	}
	n.send(s, Message{Type: TypeActivity, Data: parse.ParseActivity(line)})
}

// handleConversation pushes the last message of the changed conversation log.
func (n *Notifier) handleConversation(ev fsnotify.Event, s Sender) {
	if ev.Op == fsnotify.Chmod {
		return
	}
	name := filepath.Base(ev.Name)
	if !strings.HasSuffix(name, logstore.ConversationExt) {
		return
	}
	path := filepath.Join(n.cfg.ConversationDir, name)
	if _, err := os.Stat(path); err != nil {
		return // removed or renamed away
	}
	line, err := parse.LastLine(path)
	if err != nil {
		n.log.Debug().Err(err).Str("file", name).Msg("read conversation tail")
		return
	}
	msg, ok := parse.ParseMessage([]byte(line))
	if !ok {
		return
	}
	n.send(s, Message{Type: TypeConversation, Data: msg})
}

func (n *Notifier) send(s Sender, msg Message) {
	if err := s.Send(msg); err != nil {
		n.log.Debug().Err(err).Str("type", msg.Type).Msg("push dropped")
	}
}

// Handle owns the watches of one connection.
type Handle struct {
	log      zerolog.Logger
	watchers []*fsnotify.Watcher
	wg       sync.WaitGroup

	once     sync.Once
	closeErr error
}

func (h *Handle) watch(path string, fn func(fsnotify.Event)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return err
	}
	h.watchers = append(h.watchers, w)

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				fn(ev)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				h.log.Warn().Err(err).Str("path", path).Msg("watch error")
			}
		}
	}()
	return nil
}

// Watching returns the number of active watches.
func (h *Handle) Watching() int {
	return len(h.watchers)
}

// Close releases every watch and waits for in-flight pushes to finish.
// It is safe to call more than once.
func (h *Handle) Close() error {
	h.once.Do(func() {
		var errs []error
		for _, w := range h.watchers {
			if err := w.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		h.wg.Wait()
		h.closeErr = errors.Join(errs...)
	})
	return h.closeErr
}
