package store

var catalogSequences = map[CatalogKind]Sequence{
	ConsultationTypes: SeqConsultationType,
	LabAnalyses:       SeqLabAnalysis,
	ExternalServices:  SeqExternalService,
}

type defaultEntry struct {
	name  string
	price float64
}

var defaultCatalogs = map[CatalogKind][]defaultEntry{
	ConsultationTypes: {
		{"Consultation Générale", 500},
		{"Consultation Spéciale", 400},
		{"Consultation Pédiatrique", 300},
		{"Consultation Gynécologique", 600},
	},
	LabAnalyses: {
		{"Analyse de sang", 300},
		{"Analyse d'urine", 200},
		{"Analyse de selles", 250},
		{"Échographie", 800},
		{"Radiographie", 500},
		{"ECG", 400},
		{"Sonographie", 700},
		{"IRM", 1500},
	},
	ExternalServices: {
		{"Pansement", 150},
		{"Piqûre", 200},
		{"Planning familial", 300},
		{"Vaccination", 250},
		{"Soins infirmiers", 180},
		{"Prélèvement sanguin", 120},
	},
}

// Default emergency prices in Gdes.
const (
	DefaultEmergencyConsultationPrice = 800
	DefaultEmergencyAnalysisPrice     = 500
)

// DefaultHospital is the profile a fresh store starts with.
var DefaultHospital = HospitalProfile{
	Name:    "Hôpital Saint-Luc",
	Address: "Port-au-Prince, Haïti",
	Phone:   "+509 2222-3333",
}

func applyDefaults(s *memoryState) {
	for _, kind := range []CatalogKind{ConsultationTypes, LabAnalyses, ExternalServices} {
		q := catalogSequences[kind]
		for _, entry := range defaultCatalogs[kind] {
			s.counters[q.Prefix]++
			s.catalogs[kind] = append(s.catalogs[kind], &CatalogItem{
				ID:     q.Format(s.counters[q.Prefix]),
				Name:   entry.name,
				Price:  entry.price,
				Active: true,
			})
		}
	}
	s.prices = EmergencyPrices{
		Consultation: DefaultEmergencyConsultationPrice,
		Analysis:     DefaultEmergencyAnalysisPrice,
	}
	s.hospital = DefaultHospital
}
