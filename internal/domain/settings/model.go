package settings

import (
	"github.com/stluc/hms/internal/store"
)

var kinds = map[string]store.CatalogKind{
	string(store.ConsultationTypes): store.ConsultationTypes,
	string(store.LabAnalyses):       store.LabAnalyses,
	string(store.ExternalServices):  store.ExternalServices,
}

// CatalogItemRequest adds a catalog entry or changes its price. Name is
// ignored on update.
type CatalogItemRequest struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// Settings is everything the settings screen shows at once.
type Settings struct {
	ConsultationTypes []*store.CatalogItem  `json:"consultation_types"`
	LabAnalyses       []*store.CatalogItem  `json:"lab_analyses"`
	ExternalServices  []*store.CatalogItem  `json:"external_services"`
	EmergencyPrices   store.EmergencyPrices `json:"emergency_prices"`
	Hospital          store.HospitalProfile `json:"hospital"`
}
