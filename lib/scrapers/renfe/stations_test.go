package renfe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStationsCatalog(t *testing.T) {
	catalog := Stations()
	require.NotEmpty(t, catalog)
	for _, station := range catalog {
		require.NotEmpty(t, station.DesgEstacion)
		require.NotEmpty(t, station.DesgEstacionPlano)
		require.NotEmpty(t, station.CdgoEstacion)
		require.Equal(t, "0071", station.CdgoAdmon)
		require.Equal(t, "0071,"+station.CdgoEstacion+",null", station.Clave)
	}
}

func TestFindStationExactName(t *testing.T) {
	station := FindStation(context.Background(), "barcelona-sants")
	require.Equal(t, "71801", station.CdgoEstacion)
	require.Equal(t, "0071,71801,null", station.Clave)
}

func TestFindStationByCode(t *testing.T) {
	station := FindStation(context.Background(), "60000")
	require.Equal(t, "MADRID-PUERTA DE ATOCHA-ALMUDENA GRANDES", station.DesgEstacionPlano)
}

func TestFindStationSubstring(t *testing.T) {
	station := FindStation(context.Background(), "atocha")
	require.Equal(t, "60000", station.CdgoEstacion)

	station = FindStation(context.Background(), "  Santa Justa ")
	require.Equal(t, "51003", station.CdgoEstacion)
}

func TestFindStationFallback(t *testing.T) {
	station := FindStation(context.Background(), "Villarriba del Monte")
	require.Equal(t, "VILLARRIBA DEL MONTE", station.DesgEstacion)
	require.Equal(t, "VILLA", station.CdgoEstacion)
	require.Equal(t, "0071", station.CdgoAdmon)
	require.Equal(t, "0071,VILLA,null", station.Clave)
}

func TestFindStationFallbackShortName(t *testing.T) {
	station := FindStation(context.Background(), "Xyz")
	require.Equal(t, "XYZ", station.CdgoEstacion)
	require.Equal(t, "0071,XYZ,null", station.Clave)
}
