package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"dailybriefing/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}
