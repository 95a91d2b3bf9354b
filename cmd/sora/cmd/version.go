package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the sora CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sora version %s\n", version)
		fmt.Println("Incremental synchronizer and query tool for the SORA dataset")
		fmt.Println("https://github.com/rustyeddy/sora")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
