package commands

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"renfe-backend/lib/scrapers/renfe"
)

func init() {
	rootCmd.AddCommand(stationsCmd)
}

var stationsCmd = &cobra.Command{
	Use:   "stations [query]",
	Short: "Lists the station catalog, or resolves a query the way a search would.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		t := newTable()
		t.AppendHeader(table.Row{"Name", "Code", "Clave"})

		if len(args) == 1 {
			station := renfe.FindStation(cmd.Context(), args[0])
			t.AppendRow(table.Row{station.DesgEstacion, station.CdgoEstacion, station.Clave})
			t.Render()
			return
		}

		for _, station := range renfe.Stations() {
			t.AppendRow(table.Row{station.DesgEstacion, station.CdgoEstacion, station.Clave})
		}
		t.Render()
	},
}
