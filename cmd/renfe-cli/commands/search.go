package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"renfe-backend/lib/archive"
	"renfe-backend/lib/restyutil"
	"renfe-backend/lib/scrapers/renfe"
	"renfe-backend/lib/serviceutil"
	"renfe-backend/services/trains"
)

var (
	searchFrom      *string
	searchTo        *string
	searchDate      *string
	searchReturn    *string
	searchAdults    *int
	searchResponses *string
	searchDumpHttp  *bool
)

func init() {
	searchFrom = searchCmd.Flags().String("from", "", "Origin station name or code.")
	searchTo = searchCmd.Flags().String("to", "", "Destination station name or code.")
	searchDate = searchCmd.Flags().String("date", "", "Outbound date (YYYY-MM-DD).")
	searchReturn = searchCmd.Flags().String("return", "", "Optional return date (YYYY-MM-DD).")
	searchAdults = searchCmd.Flags().Int("adults", 1, "Number of adult passengers.")
	searchResponses = searchCmd.Flags().String("responses", "responses", "Directory to archive upstream responses in.")
	searchDumpHttp = searchCmd.Flags().Bool("dump-http", false, "Dump every upstream exchange under .dev/resty.")
	searchCmd.MarkFlagRequired("from")
	searchCmd.MarkFlagRequired("to")
	searchCmd.MarkFlagRequired("date")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search --from <station> --to <station> --date <YYYY-MM-DD>",
	Short: "Searches trains through the direct POST endpoint.",
	Run: func(cmd *cobra.Command, args []string) {
		store, err := archive.NewStore(*searchResponses)
		if err != nil {
			serviceutil.Fatal("failed to open response archive", err)
		}
		defer store.Close()

		var output restyutil.InstrumentOutput
		if *searchDumpHttp {
			output = restyutil.NewFilesystemOutput(".dev/resty/renfe-cli")
		}
		client, err := renfe.NewClient(renfe.ClientOptions{Output: output})
		if err != nil {
			serviceutil.Fatal("failed to initialize renfe client", err)
		}

		service := trains.NewService(client, nil, store)
		result, err := service.SearchDirect(cmd.Context(), renfe.SearchQuery{
			Origin:      *searchFrom,
			Destination: *searchTo,
			DateOut:     *searchDate,
			DateReturn:  *searchReturn,
			Adults:      *searchAdults,
		})
		if err != nil {
			serviceutil.Fatal("search failed", err)
		}

		renderTrains(result.Trains)
		if result.ReturnTrains != nil {
			fmt.Println("return trains:")
			renderTrains(result.ReturnTrains)
		}
	},
}
