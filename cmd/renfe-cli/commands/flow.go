package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"renfe-backend/lib/archive"
	"renfe-backend/lib/scrapers/renfe"
	"renfe-backend/lib/scrapers/renfe/flow"
	"renfe-backend/lib/serviceutil"
	"renfe-backend/services/trains"
)

var (
	flowFrom      *string
	flowTo        *string
	flowDate      *string
	flowReturn    *string
	flowAdults    *int
	flowResponses *string
	flowHeaded    *bool
	flowSlowMo    *float64
)

func init() {
	flowFrom = flowCmd.Flags().String("from", "", "Origin station name or code.")
	flowTo = flowCmd.Flags().String("to", "", "Destination station name or code.")
	flowDate = flowCmd.Flags().String("date", "", "Outbound date (YYYY-MM-DD).")
	flowReturn = flowCmd.Flags().String("return", "", "Optional return date (YYYY-MM-DD).")
	flowAdults = flowCmd.Flags().Int("adults", 1, "Number of adult passengers.")
	flowResponses = flowCmd.Flags().String("responses", "responses", "Directory to archive upstream responses in.")
	flowHeaded = flowCmd.Flags().Bool("headed", false, "Run the browser with a visible window.")
	flowSlowMo = flowCmd.Flags().Float64("slow-mo", 0, "Milliseconds to wait between browser actions, for watching the flow.")
	flowCmd.MarkFlagRequired("from")
	flowCmd.MarkFlagRequired("to")
	flowCmd.MarkFlagRequired("date")
	rootCmd.AddCommand(flowCmd)
}

var flowCmd = &cobra.Command{
	Use:   "flow --from <station> --to <station> --date <YYYY-MM-DD>",
	Short: "Searches trains by driving the homepage UI with a browser.",
	Run: func(cmd *cobra.Command, args []string) {
		store, err := archive.NewStore(*flowResponses)
		if err != nil {
			serviceutil.Fatal("failed to open response archive", err)
		}
		defer store.Close()

		config := flow.DefaultConfig()
		config.Headless = !*flowHeaded
		config.SlowMo = *flowSlowMo

		service := trains.NewService(nil, flow.NewRunner(config), store)
		result, err := service.SearchFlow(cmd.Context(), renfe.SearchQuery{
			Origin:      *flowFrom,
			Destination: *flowTo,
			DateOut:     *flowDate,
			DateReturn:  *flowReturn,
			Adults:      *flowAdults,
		})
		if err != nil {
			if result.Filepath != "" {
				fmt.Println("captured page archived at:", result.Filepath)
			}
			serviceutil.Fatal("flow failed", err)
		}

		fmt.Println(result.Message)
		fmt.Println("archived at:", result.Filepath)
		renderTrains(result.Trains)
	},
}
