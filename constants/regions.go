package constants

// RegionNames maps Chilean region roman-numeral codes to names. Static lookup
// data consumed when normalizing extracted project metadata.
var RegionNames = map[string]string{
	"XV":   "Arica y Parinacota",
	"I":    "Tarapacá",
	"II":   "Antofagasta",
	"III":  "Atacama",
	"IV":   "Coquimbo",
	"V":    "Valparaíso",
	"RM":   "Metropolitana",
	"VI":   "O'Higgins",
	"VII":  "Maule",
	"XVI":  "Ñuble",
	"VIII": "Biobío",
	"IX":   "Araucanía",
	"XIV":  "Los Ríos",
	"X":    "Los Lagos",
	"XI":   "Aysén",
	"XII":  "Magallanes",
}

// Directorates of the ministry that issue bidding documents.
var Directorates = map[string]string{
	"DV":   "Dirección de Vialidad",
	"DOH":  "Dirección de Obras Hidráulicas",
	"DA":   "Dirección de Arquitectura",
	"DOP":  "Dirección de Obras Portuarias",
	"DAP":  "Dirección de Aeropuertos",
	"DGOP": "Dirección General de Obras Públicas",
}
