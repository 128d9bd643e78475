package util

import (
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
)

// PartialSuffix marks a page that is still being written.
const PartialSuffix = ".part"

func SetupInterruptHandler(seriesDir string) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sig
		fmt.Println("\nInterrupt received. Cleaning up...")

		n := RemovePartialFiles(seriesDir)
		if n > 0 {
			fmt.Printf("Removed %d unfinished page(s)\n", n)
		}
		fmt.Println("Exiting due to interrupt. Re-run the same command to resume.")

		os.Exit(1)
	}()
}

// RemovePartialFiles deletes every unfinished page below dir and returns
// how many were removed.
func RemovePartialFiles(dir string) int {
	removed := 0

	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), PartialSuffix) {
			return nil
		}

		if err := os.Remove(path); err != nil {
			fmt.Printf("Error cleaning up %s: %v\n", path, err)
			return nil
		}
		removed++

		return nil
	})

	return removed
}
