// Command rebook-replay runs outcome detection and segment extraction against
// a saved reservation page, for checking selectors without a live lookup.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
)

func main() {
	var opts replayOpts
	flag.StringVar(&opts.configPath, "config", os.Getenv("configPath"), "config file with selector overrides")
	flag.StringVar(&opts.htmlPath, "html", "", "saved page to inspect (required)")
	flag.StringVar(&opts.url, "url", "", "URL to report for the saved page")
	flag.StringVar(&opts.firstName, "first", "", "passenger first name")
	flag.StringVar(&opts.lastName, "last", "", "passenger last name")
	flag.BoolVar(&opts.debug, "debug", false, "attach URL and HTML preview")
	flag.DurationVar(&opts.timeout, "timeout", 2*time.Second, "how long to wait for an outcome marker")
	flag.Parse()

	if opts.htmlPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := runReplay(context.Background(), opts, os.Stdout); err != nil {
		if !errors.Is(err, errLookupFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
