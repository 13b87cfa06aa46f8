package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/camtools/camrec/internal/config"
)

// CreateValidateCmd creates the validate command: load the cameras file,
// report problems, and show the generated capture commands.
func CreateValidateCmd() *cobra.Command {
	var camerasFile string
	var quiet bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the cameras configuration file",
		Long:  `Parses the cameras file, checks every camera definition, and prints the ffmpeg command that would run for each enabled camera.`,
		Run: func(_ *cobra.Command, _ []string) {
			cfg, err := config.LoadCameras(camerasFile)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", camerasFile, err)
				os.Exit(1)
			}

			targets, err := cfg.Targets()
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", camerasFile, err)
				os.Exit(1)
			}

			if !quiet {
				for _, target := range targets {
					fmt.Printf("%s:\n  %s\n", target.Name, target.Command)
				}
			}
			fmt.Printf("%s: OK (%d camera(s) enabled)\n", camerasFile, len(targets))
		},
	}

	cmd.Flags().StringVar(&camerasFile, "cameras", "cameras.toml", "Path to cameras configuration file")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only print the final verdict")

	return cmd
}
