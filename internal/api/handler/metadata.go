package handler

import (
	"net/http"

	"github.com/skylens/skylens/internal/api/models"
	"github.com/skylens/skylens/internal/api/response"
	"github.com/skylens/skylens/internal/registry"
)

// MetadataHandler handles registry metadata endpoints.
type MetadataHandler struct {
	registry *registry.Registry
}

// NewMetadataHandler creates a new MetadataHandler.
func NewMetadataHandler(reg *registry.Registry) *MetadataHandler {
	return &MetadataHandler{registry: reg}
}

// ListCollections handles GET /v1/metadata/collections.
func (h *MetadataHandler) ListCollections(w http.ResponseWriter, r *http.Request) {
	ids := h.registry.CollectionIDs()

	list := models.CollectionList{
		RegistryVersion: h.registry.Version(),
		Items:           make([]models.Collection, 0, len(ids)),
	}
	for _, id := range ids {
		info, ok := h.registry.Collection(id)
		if !ok {
			continue
		}
		list.Items = append(list.Items, models.Collection{
			ID:           info.ID,
			Title:        info.Title,
			Type:         string(info.Type),
			GSD:          info.GSD,
			CloudCeiling: info.CloudCeiling,
			FilterExempt: info.FilterExempt(),
		})
	}

	response.JSON(w, r, http.StatusOK, list)
}

// ListDomains handles GET /v1/metadata/domains.
func (h *MetadataHandler) ListDomains(w http.ResponseWriter, r *http.Request) {
	profiles := h.registry.Profiles()

	list := models.DomainList{
		RegistryVersion: h.registry.Version(),
		Items:           make([]models.Domain, 0, len(profiles)),
	}
	for _, p := range profiles {
		list.Items = append(list.Items, models.Domain{
			Domain:   p.Domain,
			Keywords: p.Keywords,
			Primary:  p.Primary,
		})
	}

	response.JSON(w, r, http.StatusOK, list)
}
