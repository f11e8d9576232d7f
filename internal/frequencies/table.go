package frequencies

// builtinStations covers the airports in the built-in gazetteer that
// publish distinct clearance delivery frequencies. Airports absent here
// resolve through the CSV file or fall back to tower-only phraseology.
var builtinStations = []Station{
	{ICAO: "EGPH", Delivery: "121.975", Ground: "121.75", Tower: "118.7", Departure: "121.2", Approach: "121.2"},
	{ICAO: "EGKK", Delivery: "121.95", Ground: "121.8", Tower: "124.225", Departure: "126.825", Approach: "126.825"},
	{ICAO: "EGLL", Delivery: "121.975", Ground: "121.9", Tower: "118.5", Departure: "134.975", Approach: "119.725"},
	{ICAO: "EGCC", Delivery: "121.7", Ground: "121.85", Tower: "118.625", Departure: "118.575", Approach: "118.575"},
	{ICAO: "EGSS", Delivery: "121.95", Ground: "121.725", Tower: "123.8", Departure: "120.625", Approach: "120.625"},
	{ICAO: "EGGW", Delivery: "121.895", Ground: "121.75", Tower: "132.55", Departure: "129.55", Approach: "129.55"},
	{ICAO: "EGBB", Delivery: "121.925", Ground: "121.8", Tower: "118.305", Departure: "123.98", Approach: "123.98"},
	{ICAO: "EGPF", Delivery: "121.7", Ground: "121.7", Tower: "118.8", Departure: "119.1", Approach: "119.1"},
	{ICAO: "EIDW", Delivery: "121.875", Ground: "121.8", Tower: "118.6", Departure: "124.65", Approach: "121.1"},
	{ICAO: "LFPG", Delivery: "126.425", Ground: "121.6", Tower: "119.25", Departure: "133.375", Approach: "118.15"},
	{ICAO: "EHAM", Delivery: "121.975", Ground: "121.7", Tower: "119.225", Departure: "119.05", Approach: "121.2"},
	{ICAO: "EDDF", Delivery: "121.9", Ground: "121.8", Tower: "119.9", Departure: "120.8", Approach: "118.5"},
	{ICAO: "EDDM", Delivery: "121.775", Ground: "121.7", Tower: "118.7", Departure: "126.55", Approach: "123.9"},
	{ICAO: "LSZH", Delivery: "121.925", Ground: "121.9", Tower: "118.1", Departure: "125.95", Approach: "118.0"},
	{ICAO: "LOWW", Delivery: "122.125", Ground: "121.6", Tower: "119.4", Departure: "124.55", Approach: "128.2"},
	{ICAO: "LEMD", Delivery: "130.075", Ground: "121.85", Tower: "118.15", Departure: "127.1", Approach: "124.025"},
	{ICAO: "LEBL", Delivery: "121.65", Ground: "121.7", Tower: "118.1", Departure: "124.7", Approach: "119.1"},
	{ICAO: "LIRF", Delivery: "121.925", Ground: "121.9", Tower: "118.7", Departure: "125.5", Approach: "119.2"},
	{ICAO: "LPPT", Delivery: "118.95", Ground: "121.75", Tower: "118.1", Departure: "125.125", Approach: "119.1"},
	{ICAO: "EKCH", Delivery: "121.9", Ground: "121.7", Tower: "118.1", Departure: "119.625", Approach: "119.8"},
	{ICAO: "ESSA", Delivery: "121.825", Ground: "121.7", Tower: "118.5", Departure: "123.75", Approach: "120.15"},
	{ICAO: "ESMS", Delivery: "121.85", Ground: "121.85", Tower: "118.8", Departure: "124.75", Approach: "124.75"},
	{ICAO: "ENGM", Delivery: "121.675", Ground: "121.925", Tower: "118.3", Departure: "121.0", Approach: "120.45"},
	{ICAO: "CYYZ", Delivery: "121.3", Ground: "121.9", Tower: "118.7", Departure: "127.575", Approach: "124.475"},
	{ICAO: "CYVR", Delivery: "121.4", Ground: "121.7", Tower: "118.7", Departure: "120.5", Approach: "120.5"},
	{ICAO: "CYUL", Delivery: "122.9", Ground: "121.9", Tower: "119.9", Departure: "124.65", Approach: "126.9"},
	{ICAO: "CYYC", Delivery: "121.3", Ground: "121.9", Tower: "118.4", Departure: "119.0", Approach: "120.5"},
	{ICAO: "KJFK", Delivery: "135.05", Ground: "121.9", Tower: "119.1", Departure: "135.9", Approach: "127.4"},
	{ICAO: "KLAX", Delivery: "121.4", Ground: "121.65", Tower: "120.95", Departure: "125.2", Approach: "124.5"},
	{ICAO: "KORD", Delivery: "121.6", Ground: "121.75", Tower: "120.75", Departure: "125.0", Approach: "119.0"},
	{ICAO: "KSFO", Delivery: "118.2", Ground: "121.8", Tower: "120.5", Departure: "135.1", Approach: "134.5"},
	{ICAO: "KBOS", Delivery: "121.65", Ground: "121.75", Tower: "128.8", Departure: "133.0", Approach: "120.6"},
	{ICAO: "KSEA", Delivery: "128.0", Ground: "121.7", Tower: "119.9", Departure: "119.2", Approach: "119.2"},
	{ICAO: "KDEN", Delivery: "118.75", Ground: "121.85", Tower: "118.3", Departure: "128.25", Approach: "120.35"},
	{ICAO: "KATL", Delivery: "118.1", Ground: "121.9", Tower: "119.1", Departure: "125.7", Approach: "127.25"},
	{ICAO: "KMIA", Delivery: "119.65", Ground: "121.8", Tower: "118.3", Departure: "119.45", Approach: "124.85"},
	{ICAO: "YSSY", Delivery: "133.8", Ground: "121.7", Tower: "120.5", Departure: "123.0", Approach: "124.4"},
	{ICAO: "NZAA", Delivery: "128.3", Ground: "121.9", Tower: "118.7", Departure: "123.7", Approach: "124.3"},
	{ICAO: "RJTT", Delivery: "121.825", Ground: "121.7", Tower: "118.1", Departure: "126.0", Approach: "119.1"},
	{ICAO: "VHHH", Delivery: "129.875", Ground: "121.6", Tower: "118.7", Departure: "123.8", Approach: "119.1"},
	{ICAO: "WSSS", Delivery: "121.65", Ground: "121.725", Tower: "118.6", Departure: "121.3", Approach: "120.3"},
	{ICAO: "OMDB", Delivery: "120.35", Ground: "118.35", Tower: "118.75", Departure: "126.1", Approach: "124.45"},
}
