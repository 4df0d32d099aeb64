package models

// Collection describes one catalog collection known to the registry.
type Collection struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Type         string  `json:"type"`
	GSD          float64 `json:"gsd,omitempty"`
	CloudCeiling *int    `json:"cloudCeiling,omitempty"`
	FilterExempt bool    `json:"filterExempt"`
}

// CollectionList is the response for GET /v1/metadata/collections.
type CollectionList struct {
	RegistryVersion string       `json:"registryVersion"`
	Items           []Collection `json:"items"`
}

// Domain describes one keyword profile in the registry.
type Domain struct {
	Domain   string   `json:"domain"`
	Keywords []string `json:"keywords"`
	Primary  []string `json:"primary"`
}

// DomainList is the response for GET /v1/metadata/domains.
type DomainList struct {
	RegistryVersion string   `json:"registryVersion"`
	Items           []Domain `json:"items"`
}
