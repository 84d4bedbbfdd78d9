package fusion

// planetCoordinates maps fictional planets to terrestrial locations with a
// comparable climate, so a real weather reading can stand in for the
// planet's own. Built once; never mutated at runtime. Lookup is by exact
// name, no case folding.
var planetCoordinates = map[string]Coordinate{
	"Tatooine":       {Lat: 25.0, Lon: 35.0, TerrestrialEquivalent: "Desierto de Arabia", ExpectedClimate: "desert"},
	"Alderaan":       {Lat: 46.8, Lon: 8.2, TerrestrialEquivalent: "Suiza", ExpectedClimate: "temperate"},
	"Yavin IV":       {Lat: -3.4, Lon: -60.0, TerrestrialEquivalent: "Amazonas", ExpectedClimate: "tropical"},
	"Hoth":           {Lat: -75.0, Lon: 0.0, TerrestrialEquivalent: "Antártida", ExpectedClimate: "frozen"},
	"Dagobah":        {Lat: 10.0, Lon: -84.0, TerrestrialEquivalent: "Costa Rica", ExpectedClimate: "swamp"},
	"Bespin":         {Lat: 40.7, Lon: -74.0, TerrestrialEquivalent: "Nueva York", ExpectedClimate: "temperate"},
	"Endor":          {Lat: 47.0, Lon: -121.0, TerrestrialEquivalent: "Bosques del Pacífico", ExpectedClimate: "forest"},
	"Naboo":          {Lat: 45.4, Lon: 12.3, TerrestrialEquivalent: "Venecia", ExpectedClimate: "temperate"},
	"Coruscant":      {Lat: 51.5, Lon: -0.1, TerrestrialEquivalent: "Londres", ExpectedClimate: "urban"},
	"Kamino":         {Lat: 20.0, Lon: -155.0, TerrestrialEquivalent: "Hawaii", ExpectedClimate: "oceanic"},
	"Geonosis":       {Lat: -24.0, Lon: 133.0, TerrestrialEquivalent: "Outback Australiano", ExpectedClimate: "arid"},
	"Utapau":         {Lat: 36.0, Lon: 103.0, TerrestrialEquivalent: "Mesetas de Asia Central", ExpectedClimate: "arid"},
	"Mustafar":       {Lat: 19.4, Lon: -155.3, TerrestrialEquivalent: "Volcanes de Hawaii", ExpectedClimate: "volcanic"},
	"Kashyyyk":       {Lat: 6.0, Lon: -75.0, TerrestrialEquivalent: "Selva Colombiana", ExpectedClimate: "forest"},
	"Polis Massa":    {Lat: 69.0, Lon: 33.0, TerrestrialEquivalent: "Ártico", ExpectedClimate: "frozen"},
	"Mygeeto":        {Lat: -77.0, Lon: 166.0, TerrestrialEquivalent: "Antártida", ExpectedClimate: "frozen"},
	"Felucia":        {Lat: -6.0, Lon: 107.0, TerrestrialEquivalent: "Java", ExpectedClimate: "tropical"},
	"Cato Neimoidia": {Lat: 40.0, Lon: 116.0, TerrestrialEquivalent: "Beijing", ExpectedClimate: "temperate"},
	"Saleucami":      {Lat: 25.0, Lon: 46.0, TerrestrialEquivalent: "Arabia", ExpectedClimate: "desert"},
	"Stewjon":        {Lat: 56.0, Lon: -3.0, TerrestrialEquivalent: "Escocia", ExpectedClimate: "temperate"},
	"Eriadu":         {Lat: 52.0, Lon: 13.0, TerrestrialEquivalent: "Berlín", ExpectedClimate: "temperate"},
	"Corellia":       {Lat: 41.9, Lon: 12.5, TerrestrialEquivalent: "Roma", ExpectedClimate: "temperate"},
	"Rodia":          {Lat: 10.0, Lon: -69.0, TerrestrialEquivalent: "Venezuela", ExpectedClimate: "tropical"},
	"Nal Hutta":      {Lat: 31.0, Lon: 35.0, TerrestrialEquivalent: "Medio Oriente", ExpectedClimate: "arid"},
	"Dantooine":      {Lat: 45.0, Lon: -93.0, TerrestrialEquivalent: "Praderas de Minnesota", ExpectedClimate: "grassland"},
	"Bestine IV":     {Lat: 30.0, Lon: 31.0, TerrestrialEquivalent: "Egipto", ExpectedClimate: "desert"},
	"Ord Mantell":    {Lat: 40.0, Lon: -74.0, TerrestrialEquivalent: "Nueva York", ExpectedClimate: "urban"},
}

// MapPlanetCoordinate resolves a planet name to its terrestrial stand-in.
// Unknown names, including the empty string, have no mapping.
func MapPlanetCoordinate(planetName string) (Coordinate, bool) {
	coord, ok := planetCoordinates[planetName]
	return coord, ok
}
