// Package main provides the offline dialogue checker. It validates rule
// files against the plugin descriptors without a running game, for use in
// content CI.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/cory-johannsen/dialogue/internal/config"
	"github.com/cory-johannsen/dialogue/internal/dialog/plugin"
	"github.com/cory-johannsen/dialogue/internal/dialog/validate"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	quiet := flag.Bool("quiet", false, "suppress warnings, report errors only")
	flag.Parse()

	if flag.NArg() == 0 {
		log.Fatal("usage: dialogcheck [flags] <rule file> [<rule file> ...]")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	descriptors, err := plugin.LoadDescriptors(cfg.Dialog.PluginDir)
	if err != nil {
		log.Fatalf("loading plugin descriptors: %v", err)
	}
	if err := descriptors.Verify(plugin.Builtins()); err != nil {
		log.Fatalf("plugin descriptors out of sync: %v", err)
	}

	validator := validate.New(cfg.Dialog.Root, descriptors, cfg.Dialog.MaxMessageLength)

	var files, rules, errorCount, warningCount int
	for _, path := range flag.Args() {
		report := validator.Validate(path)
		files += report.Files
		rules += report.Rules
		errorCount += len(report.Errors)
		warningCount += len(report.Warnings)

		for _, f := range report.Errors {
			fmt.Fprintf(os.Stderr, "error: %s\n", f)
		}
		if !*quiet {
			for _, f := range report.Warnings {
				fmt.Fprintf(os.Stderr, "warning: %s\n", f)
			}
		}
	}

	fmt.Printf("checked %d file(s), %d rule(s): %d error(s), %d warning(s) [%s]\n",
		files, rules, errorCount, warningCount, time.Since(start))
	if errorCount > 0 {
		os.Exit(1)
	}
}
