package logger

import (
	"fmt"
	"os"
	"time"
)

// ANSI colors, disabled when NO_COLOR is set.
const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	dim    = "\033[2m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	cyan   = "\033[36m"
)

func colorize(color, s string) string {
	if os.Getenv("NO_COLOR") != "" {
		return s
	}
	return color + s + reset
}

// write goes through os.Stdout at call time so tests can redirect it.
func write(level, color, tag, msg string) {
	ts := time.Now().Format("15:04:05")
	fmt.Fprintf(os.Stdout, "%s %s %s %s\n",
		colorize(dim, ts),
		colorize(color, level),
		colorize(bold, "["+tag+"]"),
		msg)
}

// Info logs a routine event under a component tag.
func Info(tag, msg string) { write("INFO ", cyan, tag, msg) }

// Success logs a completed step.
func Success(tag, msg string) { write("OK   ", green, tag, msg) }

// Warn logs a recoverable problem.
func Warn(tag, msg string) { write("WARN ", yellow, tag, msg) }

// Error logs a failure.
func Error(tag, msg string) { write("ERROR", red, tag, msg) }

// Banner prints the startup header.
func Banner(version string) {
	name := "GasGauge"
	if version != "" {
		name += " " + version
	}
	fmt.Fprintf(os.Stdout, "\n%s\n%s\n\n",
		colorize(bold, name),
		colorize(dim, "multi-chain gas fee tracker"))
}

// Section prints a titled divider for grouped startup output.
func Section(name string) {
	fmt.Fprintf(os.Stdout, "\n%s\n", colorize(bold, "== "+name+" =="))
}

// Stats prints one aligned key/value line under a Section.
func Stats(key string, value any) {
	fmt.Fprintf(os.Stdout, "  %-18s %v\n", key, value)
}

// Server announces the listen address once the HTTP server is up.
func Server(addr string) {
	fmt.Fprintf(os.Stdout, "\n%s %s\n\n",
		colorize(green, "Serving on"),
		colorize(bold, "http://"+addr))
}
