package main

import (
	"fmt"
	"io"
	"log"
	"os"
)

func debugLog(format string, a ...any) {
	if Debug {
		s := fmt.Sprintf(format, a...)
		fmt.Fprintf(os.Stderr, "[wp-migrate] %s", s)
	}
}

// newLogger is what the migration packages narrate into.  Without --debug they only report
// problems through their return values and the run summary.
func newLogger() *log.Logger {
	if !Debug {
		return log.New(io.Discard, "", 0)
	}
	return log.New(os.Stderr, "[wp-migrate] ", log.Ltime)
}
