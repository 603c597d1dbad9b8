package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// A stand-in target: start it as `child klippy.py` and it will match.
func main() {
	fmt.Println("pid:", os.Getpid())
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	<-ch
}
