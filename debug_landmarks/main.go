package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cult-booker/booking"
	"cult-booker/config"
	"cult-booker/diag"
)

// Reports which booking landmarks a saved HTML snapshot contains, so a
// site change can be located without launching a browser.
//
//	go run ./debug_landmarks -time "07:00 AM" diagnostics/*.html
func main() {
	target := flag.String("time", "", "class time to look for")
	overrides := flag.String("landmarks", "", "YAML landmarks override file")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: debug_landmarks [-time '07:00 AM'] [-landmarks file.yaml] snapshot.html...")
		os.Exit(2)
	}

	o, err := config.LoadOverrides(*overrides)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	lm := booking.DefaultLandmarks().Merge(o.Landmarks)

	failed := false
	for _, path := range flag.Args() {
		f, err := os.Open(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			failed = true
			continue
		}
		in, err := diag.InspectLandmarks(f, lm, *target)
		f.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			failed = true
			continue
		}

		fmt.Printf("== %s\n", filepath.Base(path))
		fmt.Printf("  location trigger : %v\n", in.LocationTrigger)
		fmt.Printf("  center modal     : %v (SELECT controls: %d)\n", in.ModalTitle, in.SelectControls)
		fmt.Printf("  date cells       : %d\n", in.DateCells)
		fmt.Printf("  time rows        : %d\n", in.TimeRows)
		fmt.Printf("  class cells      : %d (unavailable: %d)\n", in.ClassCells, in.UnavailableCells)
		fmt.Printf("  confirm controls : %d\n", in.ConfirmControls)
		fmt.Printf("  app interstitial : %v\n", in.AppInterstitial)
		if *target != "" {
			fmt.Printf("  row for %s : %v\n", *target, in.TargetRow)
		}
		if missing := in.Missing(); len(missing) > 0 {
			fmt.Printf("  MISSING          : %s\n", strings.Join(missing, ", "))
		}
	}
	if failed {
		os.Exit(1)
	}
}
