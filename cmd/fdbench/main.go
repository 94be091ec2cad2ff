// Command fdbench runs the standing reference scenarios and reports each
// pricer's error against its closed-form or published value.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/meenmo/derivlib/benchmark"
)

func main() {
	filter := flag.String("run", "", "Only run cases whose name contains this substring")
	flag.Parse()

	cases := benchmark.Presets()
	if *filter != "" {
		var kept []benchmark.Case
		for _, c := range cases {
			if strings.Contains(c.Name, *filter) {
				kept = append(kept, c)
			}
		}
		if len(kept) == 0 {
			fmt.Fprintf(os.Stderr, "fdbench: no cases match %q\n", *filter)
			os.Exit(2)
		}
		cases = kept
	}

	if err := benchmark.Run(os.Stdout, cases); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
