package notify

import (
	"context"
	"fmt"
	"io"
	"strings"
)

var banner = strings.Repeat("=", 60)

// Console prints the briefing between banners.
type Console struct {
	Out io.Writer
}

func NewConsole(out io.Writer) *Console {
	return &Console{Out: out}
}

func (c *Console) Name() string { return "console" }

func (c *Console) Send(_ context.Context, msg Message) error {
	_, err := fmt.Fprintf(c.Out, "%s\nDAILY BRIEFING\n%s\n%s\n%s\n", banner, banner, strings.TrimRight(msg.Body, "\n"), banner)
	return err
}
