package cmd

import "github.com/spf13/cobra"

func RootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use: "door-rl-testing",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			UpdateFlags()
			return flags.Record()
		},
	}
	AddFlags(cmd)

	cmd.AddCommand(
		DoorCommand(),
	)

	return cmd
}
