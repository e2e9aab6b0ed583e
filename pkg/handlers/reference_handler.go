package handlers

import (
	"tourism-dashboard-api/pkg/models"
	"tourism-dashboard-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// ReferenceEntity 州ごとの参照情報
type ReferenceEntity struct {
	Name       string            `json:"name"`
	Region     string            `json:"region"`
	Activities []string          `json:"activities"`
	Coordinate models.Coordinate `json:"coordinate"`
	Popularity float64           `json:"popularity"`
}

// ReferenceRegion 地域グループと季節係数
type ReferenceRegion struct {
	Name          string      `json:"name"`
	Entities      []string    `json:"entities"`
	SeasonalCurve [12]float64 `json:"seasonal_curve"`
}

// ReferenceHandler は合成データ生成に使う参照テーブルを返します。
type ReferenceHandler struct {
	Reference *services.ReferenceData
}

// NewReferenceHandler は新しいReferenceHandlerを生成します。
func NewReferenceHandler(ref *services.ReferenceData) *ReferenceHandler {
	return &ReferenceHandler{Reference: ref}
}

// GetEntities は州の一覧を返します。
func (h *ReferenceHandler) GetEntities(c *gin.Context) {
	ref := h.Reference
	entities := make([]ReferenceEntity, len(ref.Entities))
	for i, name := range ref.Entities {
		entities[i] = ReferenceEntity{
			Name:       name,
			Region:     ref.RegionOf(name),
			Activities: ref.ActivitiesOf(name),
			Coordinate: ref.CoordinateOf(name),
			Popularity: ref.PopularityOf(name),
		}
	}
	respondOK(c, entities)
}

// GetRegions は地域グループと月ごとの季節係数を返します。
func (h *ReferenceHandler) GetRegions(c *gin.Context) {
	ref := h.Reference
	regions := make([]ReferenceRegion, 0, len(ref.SeasonalCurves))
	for _, name := range ref.Regions() {
		regions = append(regions, ReferenceRegion{
			Name:          name,
			Entities:      ref.EntitiesIn(name),
			SeasonalCurve: ref.SeasonalCurves[name],
		})
	}
	respondOK(c, regions)
}
