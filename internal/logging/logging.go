package logging

import (
	"io"
	"log"
	"os"
)

// Init routes the standard logger to w (stdout when nil) with microsecond
// timestamps.
func Init(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	log.SetOutput(w)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
}

// Quiet discards all log output.
func Quiet() {
	log.SetOutput(io.Discard)
}
