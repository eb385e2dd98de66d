package worldbank

// TrackedIndicators is the curated list of World Bank indicator codes the
// engine ingests. Chosen for their relevance to happiness analysis; this is
// deliberately not the full upstream catalog.
var TrackedIndicators = []string{
	"NY.GDP.PCAP.CD",    // GDP per capita (current US$)
	"NY.GDP.PCAP.PP.CD", // GDP per capita, PPP (current international $)
	"SI.POV.GINI",       // GINI index
	"SP.DYN.LE00.IN",    // Life expectancy at birth
	"SH.XPD.CHEX.GD.ZS", // Current health expenditure (% of GDP)
	"SE.XPD.TOTL.GD.ZS", // Government expenditure on education (% of GDP)
	"SL.UEM.TOTL.ZS",    // Unemployment rate
	"EN.ATM.CO2E.PC",    // CO2 emissions (metric tons per capita)
	"IT.NET.USER.ZS",    // Internet users (% of population)
	"SP.URB.TOTL.IN.ZS", // Urban population (% of total)
}
