package notify

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gingfrederik/docx"
)

// Archive keeps a .docx copy of every briefing in a directory.
type Archive struct {
	Dir string
}

func NewArchive(dir string) *Archive {
	return &Archive{Dir: dir}
}

func (a *Archive) Name() string { return "archive" }

// Path is briefing-YYYY-MM-DD.docx. Later briefings on the same day get the
// time appended, then seconds, then a counter; an existing file is never
// replaced.
func (a *Archive) Path(msg Message) string {
	base := "briefing-" + msg.Date.Format("2006-01-02")
	candidates := []string{
		base,
		base + msg.Date.Format("-1504"),
		base + msg.Date.Format("-150405"),
	}
	for _, name := range candidates {
		if p := filepath.Join(a.Dir, name+".docx"); !exists(p) {
			return p
		}
	}
	last := candidates[len(candidates)-1]
	for n := 2; ; n++ {
		if p := filepath.Join(a.Dir, fmt.Sprintf("%s-%d.docx", last, n)); !exists(p) {
			return p
		}
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}

func (a *Archive) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(a.Dir, 0o755); err != nil {
		return fmt.Errorf("create archive directory: %w", err)
	}

	f := docx.NewFile()

	run := f.AddParagraph().AddText(msg.Subject)
	run.Size(20)
	f.AddParagraph() // Spacer

	lines := strings.Split(strings.TrimRight(msg.Body, "\n"), "\n")
	for i, line := range lines {
		switch {
		case strings.TrimSpace(line) == "":
			f.AddParagraph()
		case strings.HasPrefix(line, "----"):
			// rule under a heading, the heading itself carries the styling
		case i+1 < len(lines) && strings.HasPrefix(lines[i+1], "----"):
			f.AddParagraph().AddText(line).Size(14)
		case strings.Contains(line, "data unavailable"):
			f.AddParagraph().AddText(line).Color("C00000")
		default:
			f.AddParagraph().AddText(line)
		}
	}

	return f.Save(a.Path(msg))
}
