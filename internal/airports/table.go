package airports

// builtinAirports covers the airports most commonly flown in simulators.
// A CSV override extends or replaces entries without a rebuild.
var builtinAirports = []Airport{
	{ICAO: "CYOW", Name: "Ottawa Macdonald-Cartier Intl", City: "Ottawa", Country: "CA"},
	{ICAO: "CYUL", Name: "Montreal Trudeau Intl", City: "Montreal", Country: "CA"},
	{ICAO: "CYVR", Name: "Vancouver Intl", City: "Vancouver", Country: "CA"},
	{ICAO: "CYYC", Name: "Calgary Intl", City: "Calgary", Country: "CA"},
	{ICAO: "CYYZ", Name: "Toronto Pearson Intl", City: "Toronto", Country: "CA"},
	{ICAO: "EBBR", Name: "Brussels Airport", City: "Brussels", Country: "BE"},
	{ICAO: "EDDF", Name: "Frankfurt Main", City: "Frankfurt", Country: "DE"},
	{ICAO: "EDDM", Name: "Munich Airport", City: "Munich", Country: "DE"},
	{ICAO: "EFHK", Name: "Helsinki Vantaa", City: "Helsinki", Country: "FI"},
	{ICAO: "EGAA", Name: "Belfast Intl", City: "Belfast", Country: "GB"},
	{ICAO: "EGBB", Name: "Birmingham Airport", City: "Birmingham", Country: "GB"},
	{ICAO: "EGCC", Name: "Manchester Airport", City: "Manchester", Country: "GB"},
	{ICAO: "EGGD", Name: "Bristol Airport", City: "Bristol", Country: "GB"},
	{ICAO: "EGGW", Name: "London Luton", City: "Luton", Country: "GB"},
	{ICAO: "EGKK", Name: "London Gatwick", City: "Gatwick", Country: "GB"},
	{ICAO: "EGLC", Name: "London City", City: "London City", Country: "GB"},
	{ICAO: "EGLL", Name: "London Heathrow", City: "Heathrow", Country: "GB"},
	{ICAO: "EGNT", Name: "Newcastle Intl", City: "Newcastle", Country: "GB"},
	{ICAO: "EGPD", Name: "Aberdeen Dyce", City: "Aberdeen", Country: "GB"},
	{ICAO: "EGPF", Name: "Glasgow Airport", City: "Glasgow", Country: "GB"},
	{ICAO: "EGPH", Name: "Edinburgh Airport", City: "Edinburgh", Country: "GB"},
	{ICAO: "EGSS", Name: "London Stansted", City: "Stansted", Country: "GB"},
	{ICAO: "EHAM", Name: "Amsterdam Schiphol", City: "Amsterdam", Country: "NL"},
	{ICAO: "EIDW", Name: "Dublin Airport", City: "Dublin", Country: "IE"},
	{ICAO: "EKCH", Name: "Copenhagen Kastrup", City: "Copenhagen", Country: "DK"},
	{ICAO: "ENGM", Name: "Oslo Gardermoen", City: "Oslo", Country: "NO"},
	{ICAO: "ESSA", Name: "Stockholm Arlanda", City: "Stockholm", Country: "SE"},
	{ICAO: "ESMS", Name: "Malmö Airport", City: "Malmö", Country: "SE"},
	{ICAO: "KATL", Name: "Hartsfield-Jackson Atlanta Intl", City: "Atlanta", Country: "US"},
	{ICAO: "KBOS", Name: "Boston Logan Intl", City: "Boston", Country: "US"},
	{ICAO: "KDEN", Name: "Denver Intl", City: "Denver", Country: "US"},
	{ICAO: "KDFW", Name: "Dallas Fort Worth Intl", City: "Dallas", Country: "US"},
	{ICAO: "KEWR", Name: "Newark Liberty Intl", City: "Newark", Country: "US"},
	{ICAO: "KIAD", Name: "Washington Dulles Intl", City: "Washington", Country: "US"},
	{ICAO: "KJFK", Name: "New York Kennedy Intl", City: "Kennedy", Country: "US"},
	{ICAO: "KLAS", Name: "Las Vegas Harry Reid Intl", City: "Las Vegas", Country: "US"},
	{ICAO: "KLAX", Name: "Los Angeles Intl", City: "Los Angeles", Country: "US"},
	{ICAO: "KMIA", Name: "Miami Intl", City: "Miami", Country: "US"},
	{ICAO: "KORD", Name: "Chicago O'Hare Intl", City: "Chicago", Country: "US"},
	{ICAO: "KPHX", Name: "Phoenix Sky Harbor Intl", City: "Phoenix", Country: "US"},
	{ICAO: "KSEA", Name: "Seattle-Tacoma Intl", City: "Seattle", Country: "US"},
	{ICAO: "KSFO", Name: "San Francisco Intl", City: "San Francisco", Country: "US"},
	{ICAO: "LEBL", Name: "Barcelona El Prat", City: "Barcelona", Country: "ES"},
	{ICAO: "LEMD", Name: "Madrid Barajas", City: "Madrid", Country: "ES"},
	{ICAO: "LFPG", Name: "Paris Charles de Gaulle", City: "Paris", Country: "FR"},
	{ICAO: "LFPO", Name: "Paris Orly", City: "Paris Orly", Country: "FR"},
	{ICAO: "LGAV", Name: "Athens Eleftherios Venizelos", City: "Athens", Country: "GR"},
	{ICAO: "LIRF", Name: "Rome Fiumicino", City: "Rome", Country: "IT"},
	{ICAO: "LOWW", Name: "Vienna Schwechat", City: "Vienna", Country: "AT"},
	{ICAO: "LPPT", Name: "Lisbon Humberto Delgado", City: "Lisbon", Country: "PT"},
	{ICAO: "LSZH", Name: "Zürich Airport", City: "Zürich", Country: "CH"},
	{ICAO: "LTFM", Name: "Istanbul Airport", City: "Istanbul", Country: "TR"},
	{ICAO: "OMDB", Name: "Dubai Intl", City: "Dubai", Country: "AE"},
	{ICAO: "OTHH", Name: "Doha Hamad Intl", City: "Doha", Country: "QA"},
	{ICAO: "RJTT", Name: "Tokyo Haneda", City: "Tokyo", Country: "JP"},
	{ICAO: "VHHH", Name: "Hong Kong Intl", City: "Hong Kong", Country: "HK"},
	{ICAO: "WSSS", Name: "Singapore Changi", City: "Singapore", Country: "SG"},
	{ICAO: "YSSY", Name: "Sydney Kingsford Smith", City: "Sydney", Country: "AU"},
}
