// Package report renders run progress and the final summary for people
// (terminal lines, notification text) and for machines (a YAML file).
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/i358/discord-message-deleter/internal/purge"
)

// Printer writes progress and summary lines. It implements purge.Observer.
type Printer struct {
	mu  sync.Mutex
	out io.Writer
	p   *message.Printer
}

// NewPrinter создает Printer для языка lang (BCP 47, например "en" или "de").
// Неизвестный язык заменяется английским.
func NewPrinter(out io.Writer, lang string) *Printer {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.English
	}
	if out == nil {
		out = io.Discard
	}
	return &Printer{
		out: out,
		p:   message.NewPrinter(tag),
	}
}

// OnProgress prints the overall progress after a batch.
func (pr *Printer) OnProgress(p purge.Progress) {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	fmt.Fprintln(pr.out, pr.FormatProgress(p))
}

// OnComplete prints the final summary.
func (pr *Printer) OnComplete(s purge.Summary) {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	fmt.Fprintln(pr.out, pr.FormatSummary(s))
}

// FormatProgress returns the one-line progress text.
func (pr *Printer) FormatProgress(p purge.Progress) string {
	return pr.p.Sprintf("📊 Overall Progress: batches %d, found %d, deleted %d, failed %d, skipped %d, in process %d, remaining %d",
		p.Batches, p.Found, p.Deleted, p.Failed, p.Skipped, p.InProcess, p.Remaining())
}

// FormatSummary returns the multi-line final report.
func (pr *Printer) FormatSummary(s purge.Summary) string {
	var b strings.Builder

	b.WriteString("\n✅ Operation complete!\n")
	b.WriteString(pr.p.Sprintf("  Deleted: %d\n", s.Deleted))
	b.WriteString(pr.p.Sprintf("  Failed:  %d\n", s.Failed))
	b.WriteString(pr.p.Sprintf("  Skipped: %d\n", s.Skipped))
	b.WriteString(pr.p.Sprintf("  Found:   %d in %d batch(es)\n", s.Found, s.Batches))
	b.WriteString(pr.p.Sprintf("  Time:    %.2f seconds\n", s.ElapsedSeconds()))
	b.WriteString(fmt.Sprintf("  Stopped: %s", describeStop(s.StopReason)))
	if s.Error != "" {
		b.WriteString(fmt.Sprintf("\n  ❌ Error: %s", s.Error))
	}

	return b.String()
}

func describeStop(r purge.StopReason) string {
	switch r {
	case purge.StopExhausted:
		return "no more messages in channel history"
	case purge.StopAborted:
		return "scan stopped by decision"
	case purge.StopDeleterGone:
		return "deleter stopped unexpectedly"
	case purge.StopCancelled:
		return "cancelled"
	case purge.StopFailed:
		return "listing failed"
	default:
		return string(r)
	}
}

// File is the on-disk form of a run report.
type File struct {
	GeneratedAt time.Time     `yaml:"generated_at"`
	Run         purge.Summary `yaml:"run"`
	ElapsedSecs float64       `yaml:"elapsed_seconds"`
}

// Marshal encodes s as a YAML report.
func Marshal(s purge.Summary, now time.Time) ([]byte, error) {
	data, err := yaml.Marshal(File{
		GeneratedAt: now.UTC(),
		Run:         s,
		ElapsedSecs: s.ElapsedSeconds(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return data, nil
}

// WriteFile writes the YAML report to path, creating parent directories.
// The file is replaced atomically.
func WriteFile(path string, s purge.Summary, now time.Time) error {
	data, err := Marshal(s, now)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create report directory %s: %w", dir, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// ReadFile reads a report written by WriteFile.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &f, nil
}
