// Package main provides UI utilities for the phone advisor CLI.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

type statusStyle struct {
	symbol string
	paint  *color.Color
}

var (
	styleSuccess = statusStyle{"✓", color.New(color.FgGreen)}
	styleError   = statusStyle{"✗", color.New(color.FgRed)}
	styleWarning = statusStyle{"⚠", color.New(color.FgYellow)}
	styleInfo    = statusStyle{"ℹ", color.New(color.FgCyan)}

	paintSection = color.New(color.FgMagenta, color.Bold)
	paintKey     = color.New(color.FgYellow)
	paintHeader  = color.New(color.FgCyan, color.Bold)
)

// UI renders command output for humans, or nothing but JSON when jsonMode
// is set.
type UI struct {
	out      io.Writer
	progress *mpb.Progress
	noColor  bool
	jsonMode bool
}

// NewUI creates a UI writing to out. Colors are off when stdout is not a
// terminal.
func NewUI(out io.Writer, jsonMode, noColor bool) *UI {
	return &UI{
		out:      out,
		noColor:  noColor || !isTerminal(os.Stdout),
		jsonMode: jsonMode,
	}
}

// Close flushes pending progress bars.
func (ui *UI) Close() {
	if ui.progress == nil {
		return
	}
	// Wait hangs when the bars never rendered.
	if isTerminal(os.Stdout) {
		ui.progress.Wait()
		return
	}
	ui.progress.Shutdown()
}

func (ui *UI) paint(c *color.Color, s string) string {
	if ui.noColor {
		return s
	}
	return c.Sprint(s)
}

func (ui *UI) printStatus(st statusStyle, format string, args []interface{}) {
	if ui.jsonMode {
		return
	}
	line := st.symbol + " " + fmt.Sprintf(format, args...)
	fmt.Fprintln(ui.out, ui.paint(st.paint, line))
}

func (ui *UI) Success(format string, args ...interface{}) { ui.printStatus(styleSuccess, format, args) }
func (ui *UI) Error(format string, args ...interface{})   { ui.printStatus(styleError, format, args) }
func (ui *UI) Warning(format string, args ...interface{}) { ui.printStatus(styleWarning, format, args) }
func (ui *UI) Info(format string, args ...interface{})    { ui.printStatus(styleInfo, format, args) }

// Println prints text as is. No-op in JSON mode.
func (ui *UI) Println(text string) {
	if !ui.jsonMode {
		fmt.Fprintln(ui.out, text)
	}
}

// Section prints an upper-cased banner surrounded by blank lines.
func (ui *UI) Section(title string) {
	if ui.jsonMode {
		return
	}
	banner := fmt.Sprintf("━━━ %s ━━━", strings.ToUpper(title))
	fmt.Fprintf(ui.out, "\n%s\n\n", ui.paint(paintSection, banner))
}

// KeyValue prints an indented "key: value" line.
func (ui *UI) KeyValue(key string, value interface{}) {
	if ui.jsonMode {
		return
	}
	fmt.Fprintf(ui.out, "  %s %v\n", ui.paint(paintKey, key+":"), value)
}

// Table prints rows aligned under headers with a dashed rule.
func (ui *UI) Table(headers []string, rows [][]string) {
	if ui.jsonMode || len(headers) == 0 {
		return
	}

	tw := tabwriter.NewWriter(ui.out, 0, 0, 2, ' ', 0)
	rule := make([]string, len(headers))
	for i, h := range headers {
		rule[i] = strings.Repeat("-", len(h))
	}

	fmt.Fprintln(tw, ui.paint(paintHeader, strings.Join(headers, "\t")))
	fmt.Fprintln(tw, strings.Join(rule, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	_ = tw.Flush()
}

// JSON writes v as indented JSON regardless of mode.
func (ui *UI) JSON(v interface{}) error {
	enc := json.NewEncoder(ui.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ProgressBar adds a counter bar to the shared mpb container. It returns
// nil when there is no terminal to draw on; callers must nil-check.
func (ui *UI) ProgressBar(name string, total int64) *mpb.Bar {
	if ui.jsonMode || !isTerminal(os.Stdout) {
		return nil
	}
	if ui.progress == nil {
		ui.progress = mpb.New(mpb.WithWidth(64), mpb.WithOutput(os.Stderr))
	}

	label := decor.WC{W: len(name) + 1, C: decor.DSyncSpaceR}
	return ui.progress.AddBar(total,
		mpb.PrependDecorators(
			decor.Name(name, label),
			decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.Percentage(decor.WC{W: 5}),
			decor.OnComplete(decor.AverageETA(decor.ET_STYLE_GO, decor.WC{W: 12}), " done"),
		),
	)
}

// Spinner animates on stderr while a chat turn is in flight. The zero value
// is a no-op.
type Spinner struct {
	s *spinner.Spinner
}

// NewSpinner returns a spinner labelled with message.
func (ui *UI) NewSpinner(message string) *Spinner {
	if ui.jsonMode || !isTerminal(os.Stderr) {
		return &Spinner{}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + message
	return &Spinner{s: s}
}

func (sp *Spinner) Start() {
	if sp.s != nil {
		sp.s.Start()
	}
}

func (sp *Spinner) Stop() {
	if sp.s != nil {
		sp.s.Stop()
	}
}

// NewImportBar returns the bar shown while phones are written to a store.
func (ui *UI) NewImportBar(total int, description string) *progressbar.ProgressBar {
	if ui.jsonMode || !isTerminal(os.Stderr) {
		return progressbar.DefaultSilent(int64(total), description)
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("phones"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(os.Stderr) }),
	)
}

// FormatDuration renders d as ms, seconds or minutes.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}
