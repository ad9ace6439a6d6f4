package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mhon-emma/Impact-Venture/internal/sample"
)

var sampleOutput string

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Write a sample project financial model workbook",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := sample.Write(sampleOutput); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Created sample financial model: %s\n", sampleOutput)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sampleCmd)
	sampleCmd.Flags().StringVarP(&sampleOutput, "output", "o", sample.DefaultFilename, "path of the workbook to write")
}
