package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"renfe-backend/lib/scrapers/renfe"
)

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

func renderTrains(trains []renfe.Train) {
	t := newTable()
	t.AppendHeader(table.Row{"ID", "Type", "Dep", "Arr", "Duration", "From", "Fares", "Badges", "Flags"})
	for _, train := range trains {
		fares := make([]string, 0, len(train.Fares))
		for _, fare := range train.Fares {
			fares = append(fares, fmt.Sprintf("%s %.2f", fare.Name, fare.Price))
		}
		flags := ""
		if train.Accessible {
			flags += "H"
		}
		if train.EcoFriendly {
			flags += "E"
		}
		t.AppendRow(table.Row{
			train.TrainID,
			train.ServiceType,
			train.DepartureTime,
			train.ArrivalTime,
			train.Duration,
			fmt.Sprintf("%.2f %s", train.PriceFrom, train.Currency),
			strings.Join(fares, ", "),
			strings.Join(train.Badges, ", "),
			flags,
		})
	}
	t.Render()
}
