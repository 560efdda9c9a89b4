package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/gookit/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/linerun-dev/linerun/engine"
	"github.com/linerun-dev/linerun/manifest"
	"github.com/linerun-dev/linerun/script"
)

var (
	dumpStateFlag   string
	fingerprintFlag bool
)

var runCmd = &cobra.Command{
	Use:   "run FILE",
	Short: "Run a program file (.star) or a run manifest (.toml)",
	Args:  cobra.MinimumNArgs(1),
	Run:   runCommand,
}

func init() {
	runCmd.Flags().StringVar(&dumpStateFlag, "dump-state", "", "Write the final state to FILE as msgpack")
	runCmd.Flags().BoolVar(&fingerprintFlag, "fingerprint", false, "Print the final state's 64-bit fingerprint")
}

func runCommand(cmd *cobra.Command, args []string) {
	filename := args[0]

	var final *engine.State
	var err error
	if strings.HasSuffix(filename, ".toml") {
		var m *manifest.Manifest
		m, err = manifest.LoadFromFile(filename)
		if err != nil {
			log.Fatal().Err(err).Msg("Couldn't load manifest")
		}
		var run *manifest.Run
		run, err = m.BuildRun()
		if err != nil {
			log.Fatal().Err(err).Msg("Couldn't load program for manifest")
		}
		final, err = run.Execute()
	} else {
		loader := script.NewCachingLoader(script.NewLoader(), 0)
		var prog *engine.Program
		prog, err = loader.Load(filename)
		if err != nil {
			log.Fatal().Err(err).Msg("Couldn't load program")
		}
		final, err = engine.Run(prog, engine.WithLoader(loader))
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Run failed")
	}

	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, color.Green.Sprint("✓ Run finished"))
	fmt.Fprintln(os.Stderr, "Final state:")
	fmt.Fprint(os.Stderr, final.PrettyPrint())

	if fingerprintFlag {
		fp, err := final.Fingerprint()
		if err != nil {
			log.Fatal().Err(err).Msg("Couldn't fingerprint final state")
		}
		fmt.Fprintf(os.Stderr, "Fingerprint: %016x\n", fp)
	}

	if dumpStateFlag != "" {
		f, err := os.Create(dumpStateFlag)
		if err != nil {
			log.Fatal().Err(err).Msg("Couldn't create state dump file")
		}
		defer f.Close()
		if err := final.Serialize(f); err != nil {
			log.Fatal().Err(err).Msg("Couldn't serialize final state")
		}
		fmt.Fprintf(os.Stderr, "State written to %s\n", dumpStateFlag)
	}
}
