// Command resemble prints how similar (from 0 to 100%) two files are.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/mverno/resemble/internal/similarity"
)

func main() {
	binary := flag.Bool("binary", false, "treat files as binary files (don't ignore CRLF)")
	spans := flag.Bool("spans", false, "use the span-overlap estimator instead of the trigram matcher")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 2 {
		usage()
		os.Exit(2)
	}

	percent, err := run(flag.Arg(0), flag.Arg(1), *binary, *spans)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		for e := errors.Unwrap(err); e != nil; e = errors.Unwrap(e) {
			fmt.Fprintf(os.Stderr, "caused by: %v\n", e)
		}
		os.Exit(1)
	}
	fmt.Printf("%.2f\n", percent)
}

func run(left, right string, binary, spans bool) (float64, error) {
	if spans {
		score, err := similarity.EstimateFiles(left, right, binary)
		if err != nil {
			return 0, err
		}
		return score.Percent(), nil
	}
	return similarity.TrigramFiles(left, right)
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [flags] <left> <right>\n\nprints how similar (from 0 to 100%%) two files are\n\n", os.Args[0])
	flag.PrintDefaults()
}
