package agency

// ttcSubwayStations holds the stop codes of TTC subway platforms
var ttcSubwayStations = setOf(
	"13731", "13732", "13733", "13734", "13735", "13736", "13737", "13738",
	"13739", "13740", "13741", "13742", "13743", "13744", "13745", "13746",
	"13747", "13748", "13749", "13750", "13751", "13752", "13753", "13754",
	"13755", "13756", "13757", "13758", "13759", "13760", "13761", "13762",
	"13763", "13764", "13765", "13766", "13767", "13768", "13769", "13770",
	"13771", "13772", "13773", "13774", "13775", "13776", "13777", "13778",
	"13779", "13780", "13781", "13782", "13783", "13784", "13785", "13789",
	"13790", "13791", "13792", "13793", "13794", "13795", "13796", "13797",
	"13798", "13799", "13800", "13801", "13802", "13803", "13804", "13805",
	"13806", "13807", "13808", "13809", "13810", "13811", "13812", "13813",
	"13814", "13815", "13816", "13817", "13818", "13819", "13820", "13821",
	"13822", "13823", "13824", "13825", "13826", "13827", "13828", "13829",
	"13830", "13831", "13832", "13833", "13834", "13835", "13836", "13837",
	"13838", "13839", "13840", "13843", "13844", "13845", "13846", "13847",
	"13848", "13851", "13852", "13853", "13854", "13855", "13856", "13857",
	"13858", "13859", "13860", "13861", "13862", "13863", "13864", "13865",
	"14109", "14110", "14111", "14944", "14945", "14947", "14948", "14949",
	"15656", "15657", "15658", "15659", "15660", "15661", "15662", "15663",
	"15664", "15665", "15666", "15667",
)

// goTrainStations holds the stop ids of GO train stations
var goTrainStations = setOf(
	"AC", "AD", "AG", "AJ", "AL", "AP", "AU", "BA", "BD", "BE",
	"BL", "BM", "BO", "BR", "BU", "CE", "CL", "CO", "DA", "DI",
	"DW", "EA", "EG", "ER", "ET", "EX", "GE", "GL", "GO", "GU",
	"HA", "KC", "KE", "KI", "KP", "LA", "LI", "LN", "LO", "LS",
	"MA", "ME", "MI", "MJ", "MK", "ML", "MO", "MP", "MR", "NE",
	"NI", "OA", "OL", "OR", "OS", "PIN", "PO", "RI", "RO", "RU",
	"SC", "SCTH", "SF", "SM", "SR", "ST", "UI", "UN", "WE", "WH",
	"WR",
)

// unionLines are the GO lines that terminate at Union Station
var unionLines = []string{"LW", "LE", "GT", "MI", "BR", "RH", "ST"}

// goTrainLines maps every other GO station to the line serving it
var goTrainLines = map[string]string{
	// LW
	"MI":   "LW",
	"OA":   "LW",
	"AP":   "LW",
	"BO":   "LW",
	"SCTH": "LW",
	"LO":   "LW",
	"BU":   "LW",
	"WR":   "LW",
	"CL":   "LW",
	"NI":   "LW",
	"EX":   "LW",
	"HA":   "LW",
	"AL":   "LW",
	"PO":   "LW",
	// LE
	"OS":  "LE",
	"WH":  "LE",
	"SC":  "LE",
	"RO":  "LE",
	"PIN": "LE",
	"GU":  "LE",
	"AJ":  "LE",
	"EG":  "LE",
	"DA":  "LE",
	// MI
	"ML": "MI",
	"LS": "MI",
	"CO": "MI",
	"SR": "MI",
	"ME": "MI",
	"KP": "MI",
	"DI": "MI",
	"ER": "MI",
	// GT
	"AC": "GT",
	"SM": "GT",
	"MA": "GT",
	"KI": "GT",
	"SF": "GT",
	"BE": "GT",
	"MO": "GT",
	"GE": "GT",
	"GL": "GT",
	"WE": "GT",
	"BL": "GT",
	"LN": "GT",
	"ET": "GT",
	"BR": "GT",
	// BR
	"AD": "BR",
	"RU": "BR",
	"AU": "BR",
	"KC": "BR",
	"MP": "BR",
	"NE": "BR",
	"EA": "BR",
	"BD": "BR",
	"DW": "BR",
	"BA": "BR",
	// RH
	"OR": "RH",
	"BM": "RH",
	"GO": "RH",
	"OL": "RH",
	"LA": "RH",
	"RI": "RH",
	// ST
	"ST": "ST",
	"CE": "ST",
	"AG": "ST",
	"MJ": "ST",
	"KE": "ST",
	"MR": "ST",
	"UI": "ST",
	"MK": "ST",
	"LI": "ST",
}

func setOf(values ...string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
