package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var configFile string
	app := &app{}

	rootCmd := &cobra.Command{
		Use:           "bf",
		Short:         "Browser farm CLI (bf): start, confirm and stop remote browser sessions",
		Long:          "bf starts remote browsers on a cloud device farm, confirms each one reached its target page through a local correlation hub, and throttles new sessions against the farm's free machines.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations[skipWiringAnnotation] == "true" {
				return nil
			}
			return app.wire(configFile)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			app.close()
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default ~/.browserfarm/config.toml)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newStartCmd(app),
		newStopCmd(app),
		newURLCmd(app),
		newSessionsCmd(app),
		newCapacityCmd(app),
		newHubCmd(app),
	)

	return rootCmd
}
