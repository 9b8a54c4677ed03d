package refdata

import "maps"

// Set bundles every lookup table a pipeline needs.
type Set struct {
	Rates           Rates
	EmploymentTypes map[string]string // short code -> label
	JobTitles       map[string]string // raw title -> canonical title
	Countries       map[string]string // name or code -> ISO2
	Regions         map[string]string // ISO2 -> region
}

// Default returns fresh copies of the bundled tables.
func Default() Set {
	return Set{
		Rates:           DefaultRates(),
		EmploymentTypes: maps.Clone(employmentTypes),
		JobTitles:       maps.Clone(jobTitles),
		Countries:       maps.Clone(countries),
		Regions:         maps.Clone(regions),
	}
}

var employmentTypes = map[string]string{
	"FT": "Full-time",
	"PT": "Part-time",
	"CT": "Contract",
	"FL": "Freelance",
}

// jobTitles keys are matched exactly first and then lowercased, so the
// lowercase spellings double as the case-insensitive fallback.
var jobTitles = map[string]string{
	"ML Engineer":                "Machine Learning Engineer",
	"ml engineer":                "Machine Learning Engineer",
	"machine learning engineer":  "Machine Learning Engineer",
	"MLE":                        "Machine Learning Engineer",
	"Data Scientist":             "Data Scientist",
	"data scientist":             "Data Scientist",
	"DS":                         "Data Scientist",
	"Sr Data Scientist":          "Senior Data Scientist",
	"sr. data scientist":         "Senior Data Scientist",
	"senior data scientist":      "Senior Data Scientist",
	"Data Analyst":               "Data Analyst",
	"data analyst":               "Data Analyst",
	"BI Analyst":                 "Business Intelligence Analyst",
	"bi analyst":                 "Business Intelligence Analyst",
	"Data Engineer":              "Data Engineer",
	"data engineer":              "Data Engineer",
	"DE":                         "Data Engineer",
	"big data engineer":          "Data Engineer",
	"Analytics Engineer":         "Analytics Engineer",
	"analytics engineer":         "Analytics Engineer",
	"Research Scientist":         "Research Scientist",
	"research scientist":         "Research Scientist",
	"AI Scientist":               "Research Scientist",
	"ai scientist":               "Research Scientist",
	"Head of Data":               "Head of Data",
	"head of data":               "Head of Data",
	"director of data science":   "Head of Data",
	"Data Architect":             "Data Architect",
	"data architect":             "Data Architect",
	"computer vision engineer":   "Machine Learning Engineer",
	"applied scientist":          "Research Scientist",
	"machine learning scientist": "Research Scientist",
}

var countries = map[string]string{
	"US": "US", "us": "US", "usa": "US", "united states": "US", "united states of america": "US",
	"CA": "CA", "canada": "CA",
	"MX": "MX", "mexico": "MX",
	"BR": "BR", "brazil": "BR",
	"GB": "GB", "UK": "GB", "uk": "GB", "united kingdom": "GB", "great britain": "GB",
	"FR": "FR", "france": "FR",
	"DE": "DE", "germany": "DE",
	"ES": "ES", "spain": "ES",
	"IT": "IT", "italy": "IT",
	"NL": "NL", "netherlands": "NL",
	"PL": "PL", "poland": "PL",
	"CH": "CH", "switzerland": "CH",
	"PT": "PT", "portugal": "PT",
	"IE": "IE", "ireland": "IE",
	"IN": "IN", "india": "IN",
	"JP": "JP", "japan": "JP",
	"SG": "SG", "singapore": "SG",
	"AU": "AU", "australia": "AU",
	"NZ": "NZ", "new zealand": "NZ",
	"ZA": "ZA", "south africa": "ZA",
	"NG": "NG", "nigeria": "NG",
}

var regions = map[string]string{
	"US": "North America",
	"CA": "North America",
	"MX": "Latin America",
	"BR": "Latin America",
	"GB": "Europe",
	"FR": "Europe",
	"DE": "Europe",
	"ES": "Europe",
	"IT": "Europe",
	"NL": "Europe",
	"PL": "Europe",
	"CH": "Europe",
	"PT": "Europe",
	"IE": "Europe",
	"IN": "Asia",
	"JP": "Asia",
	"SG": "Asia",
	"AU": "Oceania",
	"NZ": "Oceania",
	"ZA": "Africa",
	"NG": "Africa",
}
