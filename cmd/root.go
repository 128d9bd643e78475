package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/brogergvhs/mangasee/internal/config"

	"github.com/spf13/cobra"
)

var (
	flagIgnoreConfig bool
	flagVerbose      bool

	// network
	flagOrigin     string
	flagTimeout    time.Duration
	flagUserAgent  string
	flagCookie     string
	flagCookieFile string
	flagCFBypass   bool
)

var rootCmd = &cobra.Command{
	Use:           "mangasee",
	Short:         "Download manga chapters from mangasee123 into series/chapter/page folders",
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "add debugging output")
	pf.BoolVar(&flagIgnoreConfig, "ignore-config", false, "ignore config and use only CLI flags")

	pf.StringVar(&flagOrigin, "origin", "", "site origin (default "+config.DefaultOrigin+")")
	pf.DurationVar(&flagTimeout, "timeout", 0, "per-request timeout (default 30s)")
	pf.StringVar(&flagUserAgent, "user-agent", "", "override User-Agent")
	pf.StringVar(&flagCookie, "cookie", "", "cookie string, e.g. \"key=value; other=123\"")
	pf.StringVar(&flagCookieFile, "cookie-file", "", "path to a text file with cookies (one header line)")
	pf.BoolVar(&flagCFBypass, "cf-bypass", false, "wrap requests with Cloudflare bypass headers and TLS settings")
}

func baseOptions() config.Options {
	return config.Options{
		IgnoreConfig:     flagIgnoreConfig,
		Verbose:          flagVerbose,
		Origin:           flagOrigin,
		Timeout:          flagTimeout,
		UserAgent:        flagUserAgent,
		Cookie:           flagCookie,
		CookieFile:       flagCookieFile,
		CloudflareBypass: flagCFBypass,
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
