package normalize

// cityFixes maps lowercase misspellings and nicknames to the proper city name.
var cityFixes = map[string]string{
	"san fransisco": "San Francisco",
	"san francsico": "San Francisco",
	"sanfrancisco":  "San Francisco",
	"san fran":      "San Francisco",
	"sf":            "San Francisco",
	"nyc":           "New York",
	"new york city": "New York",
	"new yrok":      "New York",
	"newyork":       "New York",
	"los angelas":   "Los Angeles",
	"los angelos":   "Los Angeles",
	"losangeles":    "Los Angeles",
	"seatle":        "Seattle",
	"chicgo":        "Chicago",
	"chicaco":       "Chicago",
	"philly":        "Philadelphia",
	"philidelphia":  "Philadelphia",
	"pheonix":       "Phoenix",
	"huston":        "Houston",
	"atlana":        "Atlanta",
	"cincinatti":    "Cincinnati",
	"cincinnatti":   "Cincinnati",
	"pittsburg":     "Pittsburgh",
	"albuquerqe":    "Albuquerque",
	"sanjose":       "San Jose",
	"san deigo":     "San Diego",
	"sandiego":      "San Diego",
}

// stateCodes maps lowercase state names, common misspellings and the codes
// themselves to the two-letter postal code.
var stateCodes = map[string]string{
	"al": "AL", "alabama": "AL",
	"ak": "AK", "alaska": "AK",
	"az": "AZ", "arizona": "AZ", "arizonia": "AZ",
	"ar": "AR", "arkansas": "AR",
	"ca": "CA", "california": "CA", "californa": "CA", "calfornia": "CA", "cali": "CA",
	"co": "CO", "colorado": "CO", "colarado": "CO",
	"ct": "CT", "connecticut": "CT", "conneticut": "CT",
	"de": "DE", "delaware": "DE",
	"dc": "DC", "district of columbia": "DC", "d.c.": "DC",
	"fl": "FL", "florida": "FL", "flordia": "FL",
	"ga": "GA", "georgia": "GA",
	"hi": "HI", "hawaii": "HI", "hawai": "HI",
	"id": "ID", "idaho": "ID",
	"il": "IL", "illinois": "IL", "illinios": "IL", "ilinois": "IL",
	"in": "IN", "indiana": "IN",
	"ia": "IA", "iowa": "IA",
	"ks": "KS", "kansas": "KS",
	"ky": "KY", "kentucky": "KY",
	"la": "LA", "louisiana": "LA",
	"me": "ME", "maine": "ME",
	"md": "MD", "maryland": "MD",
	"ma": "MA", "massachusetts": "MA", "massachusets": "MA", "massachussets": "MA",
	"mi": "MI", "michigan": "MI",
	"mn": "MN", "minnesota": "MN",
	"ms": "MS", "mississippi": "MS", "missisippi": "MS",
	"mo": "MO", "missouri": "MO",
	"mt": "MT", "montana": "MT",
	"ne": "NE", "nebraska": "NE",
	"nv": "NV", "nevada": "NV",
	"nh": "NH", "new hampshire": "NH",
	"nj": "NJ", "new jersey": "NJ",
	"nm": "NM", "new mexico": "NM",
	"ny": "NY", "new york": "NY", "new yrok": "NY",
	"nc": "NC", "north carolina": "NC",
	"nd": "ND", "north dakota": "ND",
	"oh": "OH", "ohio": "OH",
	"ok": "OK", "oklahoma": "OK",
	"or": "OR", "oregon": "OR",
	"pa": "PA", "pennsylvania": "PA", "pensylvania": "PA", "pennsylvannia": "PA",
	"ri": "RI", "rhode island": "RI",
	"sc": "SC", "south carolina": "SC",
	"sd": "SD", "south dakota": "SD",
	"tn": "TN", "tennessee": "TN", "tennesee": "TN",
	"tx": "TX", "texas": "TX",
	"ut": "UT", "utah": "UT",
	"vt": "VT", "vermont": "VT",
	"va": "VA", "virginia": "VA", "virgina": "VA",
	"wa": "WA", "washington": "WA", "washinton": "WA",
	"wv": "WV", "west virginia": "WV",
	"wi": "WI", "wisconsin": "WI", "wisconson": "WI",
	"wy": "WY", "wyoming": "WY",
}
