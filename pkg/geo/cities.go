package geo

import "github.com/hervehildenbrand/threat-radar/pkg/models"

// BuiltinCities covers every region so generated traffic spans the map.
var BuiltinCities = []models.Location{
	// North America
	{Name: "New York", Country: "USA", Region: models.RegionNA, Lat: 40.7128, Lng: -74.0060},
	{Name: "San Francisco", Country: "USA", Region: models.RegionNA, Lat: 37.7749, Lng: -122.4194},
	{Name: "Chicago", Country: "USA", Region: models.RegionNA, Lat: 41.8781, Lng: -87.6298},
	{Name: "Toronto", Country: "Canada", Region: models.RegionNA, Lat: 43.6532, Lng: -79.3832},
	{Name: "Mexico City", Country: "Mexico", Region: models.RegionNA, Lat: 19.4326, Lng: -99.1332},
	// South America
	{Name: "São Paulo", Country: "Brazil", Region: models.RegionSA, Lat: -23.5505, Lng: -46.6333},
	{Name: "Buenos Aires", Country: "Argentina", Region: models.RegionSA, Lat: -34.6037, Lng: -58.3816},
	{Name: "Bogotá", Country: "Colombia", Region: models.RegionSA, Lat: 4.7110, Lng: -74.0721},
	{Name: "Santiago", Country: "Chile", Region: models.RegionSA, Lat: -33.4489, Lng: -70.6693},
	// Europe
	{Name: "London", Country: "UK", Region: models.RegionEU, Lat: 51.5074, Lng: -0.1278},
	{Name: "Frankfurt", Country: "Germany", Region: models.RegionEU, Lat: 50.1109, Lng: 8.6821},
	{Name: "Amsterdam", Country: "Netherlands", Region: models.RegionEU, Lat: 52.3676, Lng: 4.9041},
	{Name: "Paris", Country: "France", Region: models.RegionEU, Lat: 48.8566, Lng: 2.3522},
	{Name: "Moscow", Country: "Russia", Region: models.RegionEU, Lat: 55.7558, Lng: 37.6173},
	{Name: "Stockholm", Country: "Sweden", Region: models.RegionEU, Lat: 59.3293, Lng: 18.0686},
	// Asia
	{Name: "Tokyo", Country: "Japan", Region: models.RegionAS, Lat: 35.6762, Lng: 139.6503},
	{Name: "Beijing", Country: "China", Region: models.RegionAS, Lat: 39.9042, Lng: 116.4074},
	{Name: "Singapore", Country: "Singapore", Region: models.RegionAS, Lat: 1.3521, Lng: 103.8198},
	{Name: "Mumbai", Country: "India", Region: models.RegionAS, Lat: 19.0760, Lng: 72.8777},
	{Name: "Seoul", Country: "South Korea", Region: models.RegionAS, Lat: 37.5665, Lng: 126.9780},
	{Name: "Dubai", Country: "UAE", Region: models.RegionAS, Lat: 25.2048, Lng: 55.2708},
	// Africa
	{Name: "Lagos", Country: "Nigeria", Region: models.RegionAF, Lat: 6.5244, Lng: 3.3792},
	{Name: "Johannesburg", Country: "South Africa", Region: models.RegionAF, Lat: -26.2041, Lng: 28.0473},
	{Name: "Cairo", Country: "Egypt", Region: models.RegionAF, Lat: 30.0444, Lng: 31.2357},
	{Name: "Nairobi", Country: "Kenya", Region: models.RegionAF, Lat: -1.2921, Lng: 36.8219},
	// Oceania
	{Name: "Sydney", Country: "Australia", Region: models.RegionOC, Lat: -33.8688, Lng: 151.2093},
	{Name: "Melbourne", Country: "Australia", Region: models.RegionOC, Lat: -37.8136, Lng: 144.9631},
	{Name: "Auckland", Country: "New Zealand", Region: models.RegionOC, Lat: -36.8485, Lng: 174.7633},
}
