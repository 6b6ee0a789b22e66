package diag

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// Collector buffers decision trace lines for one request.
type Collector struct {
	mu    sync.Mutex
	lines []string
}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) Printf(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	c.mu.Lock()
	c.lines = append(c.lines, line)
	c.mu.Unlock()
}

func (c *Collector) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lines...)
}

func (c *Collector) String() string {
	return strings.Join(c.Lines(), "\n")
}

// Printer renders collected traces, highlighting verdict words when colour is on.
type Printer struct {
	pass *color.Color
	fail *color.Color
	soft *color.Color
}

func NewPrinter(colored bool) *Printer {
	p := &Printer{
		pass: color.New(color.FgGreen, color.Bold),
		fail: color.New(color.FgRed, color.Bold),
		soft: color.New(color.FgYellow),
	}
	for _, c := range []*color.Color{p.pass, p.fail, p.soft} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p *Printer) Render(line string) string {
	// SOFTPASS first so that its PASS suffix is not painted twice.
	if strings.Contains(line, "SOFTPASS") {
		return strings.ReplaceAll(line, "SOFTPASS", p.soft.Sprint("SOFTPASS"))
	}
	line = replaceWord(line, "PASS", p.pass.Sprint("PASS"))
	return replaceWord(line, "FAIL", p.fail.Sprint("FAIL"))
}

func (p *Printer) WriteTo(w io.Writer, c *Collector) (int64, error) {
	var total int64
	for _, line := range c.Lines() {
		n, err := fmt.Fprintln(w, p.Render(line))
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func replaceWord(line, word, repl string) string {
	fields := strings.Split(line, " ")
	for i, f := range fields {
		if f == word || f == word+":" {
			fields[i] = strings.Replace(f, word, repl, 1)
		}
	}
	return strings.Join(fields, " ")
}
