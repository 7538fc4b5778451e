package orders

import (
	"strings"
	"time"

	"github.com/gutterguard/inventory/internal/config"
	"github.com/gutterguard/inventory/internal/domain"
)

const defaultKitWidthMM = 250

// variantColour reads the colour from a variant title like "50m / Monument".
func variantColour(variant string) string {
	parts := strings.Split(variant, "/")
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSpace(parts[len(parts)-1])
}

// Summarize maps order line items onto kit components and totals them.
// Line items that match no kit are ignored.
func Summarize(cat *config.Catalog, orders []Order, days int, fetchedAt time.Time) domain.UsageSummary {
	s := domain.ZeroUsageSummary(days)
	s.OrderCount = len(orders)
	s.FetchedAt = fetchedAt

	for _, o := range orders {
		for _, item := range o.LineItems {
			if item.Quantity <= 0 {
				continue
			}
			comp, ok := cat.FindKitComponents(item.Title, item.Variant)
			if !ok {
				continue
			}
			qty := item.Quantity

			if comp.Mesh != nil {
				width := comp.Mesh.WidthMM
				if width <= 0 {
					width = defaultKitWidthMM
				}
				s.Mesh = append(s.Mesh, domain.MeshDemand{
					MeshType: comp.Mesh.MeshType,
					WidthMM:  width,
					LengthM:  comp.Mesh.LengthM * float64(qty),
					Colour:   variantColour(item.Variant),
				})
			}
			s.Saddles += comp.Saddles * qty
			s.SaddleScrews += comp.SaddleScrews * qty
			s.TrimScrews += comp.TrimScrews * qty
			s.MeshScrews += comp.MeshScrews * qty
			s.Trims += comp.Trims * qty
		}
	}

	if days > 0 {
		d := float64(days)
		s.DailyAvg[domain.UsageSaddles] = float64(s.Saddles) / d
		s.DailyAvg[domain.UsageSaddleScrews] = float64(s.SaddleScrews) / d
		s.DailyAvg[domain.UsageTrimScrews] = float64(s.TrimScrews) / d
		s.DailyAvg[domain.UsageMeshScrews] = float64(s.MeshScrews) / d
		s.DailyAvg[domain.UsageTrims] = float64(s.Trims) / d
		s.DailyAvg[domain.UsageOrders] = float64(s.OrderCount) / d
	}
	return s
}
