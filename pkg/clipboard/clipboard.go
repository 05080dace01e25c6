package clipboard

import (
	"sync"

	sysclipboard "github.com/atotto/clipboard"
	"go.uber.org/zap"

	"github.com/status-im/status-wallet-session-go/signal"
)

const (
	AcknowledgeTitle = "Copied"
	AcknowledgeBody  = "The content was copied to the clipboard."
)

const (
	ClipboardWrite = "wallet-session.clipboard-write"
	Acknowledge    = "wallet-session.acknowledge"
)

// ClipboardService writes text to the system clipboard. Platform failures are not reported.
type ClipboardService interface {
	Write(text string)
}

// NotifierService shows a user-visible, fire-and-forget acknowledgement.
type NotifierService interface {
	Acknowledge(title, body string)
}

// Copier writes the text verbatim and then acknowledges it exactly once.
type Copier struct {
	clipboard ClipboardService
	notifier  NotifierService
}

func NewCopier(clipboard ClipboardService, notifier NotifierService) *Copier {
	return &Copier{clipboard: clipboard, notifier: notifier}
}

func (c *Copier) Copy(text string) {
	c.clipboard.Write(text)
	c.notifier.Acknowledge(AcknowledgeTitle, AcknowledgeBody)
}

// MemoryClipboard keeps copied text in process memory.
type MemoryClipboard struct {
	mu      sync.Mutex
	history []string
}

func (m *MemoryClipboard) Write(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history, text)
}

// Text returns the last written value.
func (m *MemoryClipboard) Text() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.history) == 0 {
		return ""
	}
	return m.history[len(m.history)-1]
}

func (m *MemoryClipboard) History() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	history := make([]string, len(m.history))
	copy(history, m.history)
	return history
}

// SystemClipboard writes the desktop clipboard of the host running the process.
type SystemClipboard struct {
	Logger *zap.Logger
}

func (c SystemClipboard) Write(text string) {
	err := sysclipboard.WriteAll(text)
	if err != nil {
		logger := c.Logger
		if logger == nil {
			logger = zap.L()
		}
		logger.Warn("failed to write system clipboard", zap.Error(err))
	}
}

type ClipboardWriteEvent struct {
	Text string `json:"text"`
}

type AcknowledgeEvent struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// SignalClipboard asks the native host to write the clipboard.
type SignalClipboard struct{}

func (SignalClipboard) Write(text string) {
	signal.Send(ClipboardWrite, ClipboardWriteEvent{Text: text})
}

// SignalNotifier asks the native host to show an alert.
type SignalNotifier struct{}

func (SignalNotifier) Acknowledge(title, body string) {
	signal.Send(Acknowledge, AcknowledgeEvent{Title: title, Body: body})
}
