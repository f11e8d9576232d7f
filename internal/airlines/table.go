package airlines

// builtinAirlines covers the carriers most commonly flown in simulators.
// A CSV override extends or replaces entries without a rebuild.
var builtinAirlines = []Airline{
	{ICAO: "AAL", Name: "American Airlines", Radio: "American"},
	{ICAO: "ACA", Name: "Air Canada", Radio: "Air Canada"},
	{ICAO: "AFR", Name: "Air France", Radio: "Airfrans"},
	{ICAO: "ASA", Name: "Alaska Airlines", Radio: "Alaska"},
	{ICAO: "AUA", Name: "Austrian Airlines", Radio: "Austrian"},
	{ICAO: "AWE", Name: "US Airways", Radio: "Cactus"},
	{ICAO: "BAW", Name: "British Airways", Radio: "Speedbird"},
	{ICAO: "BEL", Name: "Brussels Airlines", Radio: "Beeline"},
	{ICAO: "CFG", Name: "Condor", Radio: "Condor"},
	{ICAO: "CPA", Name: "Cathay Pacific", Radio: "Cathay"},
	{ICAO: "DAL", Name: "Delta Air Lines", Radio: "Delta"},
	{ICAO: "DLH", Name: "Lufthansa", Radio: "Lufthansa"},
	{ICAO: "EIN", Name: "Aer Lingus", Radio: "Shamrock"},
	{ICAO: "EJU", Name: "Easyjet Europe", Radio: "Alpine"},
	{ICAO: "ETD", Name: "Etihad Airways", Radio: "Etihad"},
	{ICAO: "EWG", Name: "Eurowings", Radio: "Eurowings"},
	{ICAO: "EZY", Name: "Easyjet", Radio: "Easy"},
	{ICAO: "FDX", Name: "FedEx Express", Radio: "FedEx"},
	{ICAO: "FIN", Name: "Finnair", Radio: "Finnair"},
	{ICAO: "GEC", Name: "Lufthansa Cargo", Radio: "Lufthansa Cargo"},
	{ICAO: "IBE", Name: "Iberia", Radio: "Iberia"},
	{ICAO: "ICE", Name: "Icelandair", Radio: "Iceair"},
	{ICAO: "JBU", Name: "JetBlue Airways", Radio: "JetBlue"},
	{ICAO: "JZA", Name: "Air Canada Jazz", Radio: "Jazz"},
	{ICAO: "KLM", Name: "KLM", Radio: "KLM"},
	{ICAO: "LOT", Name: "LOT Polish Airlines", Radio: "Pollot"},
	{ICAO: "NAX", Name: "Norwegian Air Shuttle", Radio: "Nor Shuttle"},
	{ICAO: "NKS", Name: "Spirit Airlines", Radio: "Spirit Wings"},
	{ICAO: "QFA", Name: "Qantas", Radio: "Qantas"},
	{ICAO: "QTR", Name: "Qatar Airways", Radio: "Qatari"},
	{ICAO: "RYR", Name: "Ryanair", Radio: "Ryanair"},
	{ICAO: "SAS", Name: "Scandinavian Airlines", Radio: "Scandinavian"},
	{ICAO: "SIA", Name: "Singapore Airlines", Radio: "Singapore"},
	{ICAO: "SWA", Name: "Southwest Airlines", Radio: "Southwest"},
	{ICAO: "SWR", Name: "Swiss International", Radio: "Swiss"},
	{ICAO: "TAP", Name: "TAP Air Portugal", Radio: "Air Portugal"},
	{ICAO: "THY", Name: "Turkish Airlines", Radio: "Turkish"},
	{ICAO: "TOM", Name: "TUI Airways", Radio: "Tomjet"},
	{ICAO: "TSC", Name: "Air Transat", Radio: "Transat"},
	{ICAO: "UAE", Name: "Emirates", Radio: "Emirates"},
	{ICAO: "UAL", Name: "United Airlines", Radio: "United"},
	{ICAO: "UPS", Name: "UPS Airlines", Radio: "UPS"},
	{ICAO: "VIR", Name: "Virgin Atlantic", Radio: "Virgin"},
	{ICAO: "VLG", Name: "Vueling", Radio: "Vueling"},
	{ICAO: "WJA", Name: "WestJet", Radio: "WestJet"},
	{ICAO: "WZZ", Name: "Wizz Air", Radio: "Wizz Air"},
}
