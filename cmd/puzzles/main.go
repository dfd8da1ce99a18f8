// Command puzzles runs the GPU puzzle suite on the simulator and reports
// pass/fail for each kernel against its reference function.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/minigpu/minigpu"
	"github.com/minigpu/minigpu/puzzles"
)

func main() {
	var (
		seed    = flag.Uint64("seed", 0, "Scheduling-order seed (0 = random)")
		match   = flag.String("run", "", "Only run puzzles whose name contains this substring")
		list    = flag.Bool("list", false, "List puzzle names and exit")
		verbose = flag.Bool("v", false, "Print launch configuration for each puzzle")
	)
	flag.Parse()

	all := puzzles.All()
	if *list {
		for _, p := range all {
			fmt.Println(p.Name)
		}
		return
	}

	dev := minigpu.CPU()
	if dev.TotalMem > 0 {
		fmt.Printf("Simulating on %s (%d cores, %.1f GB)\n\n",
			dev.Name, dev.NumCores, float64(dev.TotalMem)/(1<<30))
	} else {
		fmt.Printf("Simulating on %s (%d cores)\n\n", dev.Name, dev.NumCores)
	}

	var opts []minigpu.Option
	if *seed != 0 {
		opts = append(opts, minigpu.WithSeed(*seed))
	}

	failures := 0
	for _, p := range all {
		if *match != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(*match)) {
			continue
		}
		if *verbose {
			p.Show()
		}
		result, err := p.Check(opts...)
		if err != nil {
			fmt.Printf("ERROR %s: %v\n", p.Name, err)
			failures++
			continue
		}
		fmt.Println(result)
		if !result.Passed {
			failures++
		}
	}

	if failures > 0 {
		fmt.Printf("\n%d puzzle(s) failed\n", failures)
		os.Exit(1)
	}
}
