package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"renfe-backend/lib/scrapers/renfe"
	"renfe-backend/lib/serviceutil"
)

var parseJson *bool

func init() {
	parseJson = parseCmd.Flags().Bool("json", false, "Output parsed trains as JSON instead of a table.")
	rootCmd.AddCommand(parseCmd)
}

var parseCmd = &cobra.Command{
	Use:   "parse <path/to/results.html>",
	Short: "Parses an archived results page and prints the extracted trains.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		contents, err := os.ReadFile(args[0])
		if err != nil {
			serviceutil.Fatal("failed to read results page", err)
		}

		trains := renfe.ParseTrainList(cmd.Context(), string(contents))

		if *parseJson {
			out, err := json.MarshalIndent(trains, "", "  ")
			if err != nil {
				serviceutil.Fatal("failed to encode trains", err)
			}
			fmt.Println(string(out))
			return
		}
		renderTrains(trains)
	},
}
