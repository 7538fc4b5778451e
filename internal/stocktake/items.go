package stocktake

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gutterguard/inventory/internal/config"
	"github.com/gutterguard/inventory/internal/domain"
)

// Category is a stocktake section. Saddles and mesh are split by type so
// each can be counted on its own day.
type Category string

const (
	CategoryScrews            Category = "screws"
	CategoryTrims             Category = "trims"
	CategoryCorrugatedSaddles Category = "corrugated_saddles"
	CategoryTrimdekSaddles    Category = "trimdek_saddles"
	CategoryBoxes             Category = "boxes"
	CategoryMesh4mm           Category = "mesh_4mm"
	CategoryMesh2mm           Category = "mesh_2mm"
)

// Categories lists every section in count order.
func Categories() []Category {
	return []Category{
		CategoryScrews,
		CategoryTrims,
		CategoryCorrugatedSaddles,
		CategoryTrimdekSaddles,
		CategoryBoxes,
		CategoryMesh4mm,
		CategoryMesh2mm,
	}
}

var categoryNames = map[Category]string{
	CategoryScrews:            "Screws",
	CategoryTrims:             "Trims",
	CategoryCorrugatedSaddles: "Corrugated Saddles",
	CategoryTrimdekSaddles:    "Trimdek Saddles",
	CategoryBoxes:             "Boxes",
	CategoryMesh4mm:           "4mm Mesh",
	CategoryMesh2mm:           "2mm Ember Mesh",
}

func (c Category) Name() string { return categoryNames[c] }

func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := categoryNames[c]; !ok {
		return "", fmt.Errorf("%w: stocktake category %q", domain.ErrUnknownCategory, s)
	}
	return c, nil
}

// saddleType maps a saddle section onto the saddle type it counts.
func (c Category) saddleType() string {
	switch c {
	case CategoryCorrugatedSaddles:
		return "corrugated"
	case CategoryTrimdekSaddles:
		return "trimdek"
	}
	return ""
}

// screwType is the type every counted screw box is booked under.
const screwType = "screws"

// Item is one line of a count sheet.
type Item struct {
	ID          string   `json:"id"`
	Category    Category `json:"category"`
	Type        string   `json:"type,omitempty"`
	TypeName    string   `json:"type_name"`
	Description string   `json:"description,omitempty"`
	Colour      string   `json:"colour,omitempty"`
	WidthMM     int      `json:"width_mm,omitempty"`
	LengthM     float64  `json:"length_m,omitempty"`
	Unit        string   `json:"unit"`
	PackSize    int      `json:"pack_size,omitempty"`
}

// Entry is a counted item.
type Entry struct {
	Item
	Quantity int `json:"quantity"`
}

func slug(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
}

// Items generates the lines to count for a category from the catalogue.
func Items(cat *config.Catalog, c Category) ([]Item, error) {
	colours := cat.SortedColours()

	switch c {
	case CategoryScrews:
		items := make([]Item, 0, len(colours))
		for _, colour := range colours {
			items = append(items, Item{
				ID: "screw_" + slug(colour), Category: c, Type: screwType, TypeName: "Screws",
				Colour: colour, Unit: "boxes", PackSize: cat.Pricing.ScrewBoxSize,
			})
		}
		return items, nil

	case CategoryTrims:
		items := make([]Item, 0, len(colours))
		for _, colour := range colours {
			items = append(items, Item{
				ID: "trim_" + slug(colour), Category: c, TypeName: "Trims", Colour: colour, Unit: "trims",
			})
		}
		return items, nil

	case CategoryCorrugatedSaddles, CategoryTrimdekSaddles:
		typ := c.saddleType()
		name := c.Name()
		items := make([]Item, 0, len(colours))
		for _, colour := range colours {
			items = append(items, Item{
				ID: typ + "_saddle_" + slug(colour), Category: c, Type: typ, TypeName: name,
				Colour: colour, Unit: "saddles",
			})
		}
		return items, nil

	case CategoryBoxes:
		types := make([]string, 0, len(cat.Boxes.Types))
		for t := range cat.Boxes.Types {
			types = append(types, t)
		}
		sort.Strings(types)
		items := make([]Item, 0, len(types))
		for _, t := range types {
			bt := cat.Boxes.Types[t]
			items = append(items, Item{
				ID: "box_" + t, Category: c, Type: t, TypeName: cat.BoxName(t),
				Description: bt.Description, Unit: "boxes", PackSize: bt.PackSize,
			})
		}
		return items, nil

	case CategoryMesh4mm, CategoryMesh2mm:
		meshType, mt, ok := meshTypeFor(cat, c)
		if !ok {
			return nil, fmt.Errorf("%w: no mesh type is counted under %s", domain.ErrUnknownCategory, c)
		}
		var items []Item
		for _, colour := range colours {
			for _, w := range mt.Widths {
				for _, l := range mt.Lengths {
					items = append(items, Item{
						ID:       fmt.Sprintf("%s_%d_%s_%s", c, w, strconv.FormatFloat(l, 'f', -1, 64), slug(colour)),
						Category: c, Type: meshType, TypeName: cat.MeshName(meshType),
						Colour: colour, WidthMM: w, LengthM: l, Unit: "rolls",
					})
				}
			}
		}
		return items, nil
	}

	return nil, fmt.Errorf("%w: stocktake category %q", domain.ErrUnknownCategory, c)
}

func meshTypeFor(cat *config.Catalog, c Category) (string, config.MeshType, bool) {
	for name, mt := range cat.Mesh.Types {
		if mt.StocktakeCategory == string(c) {
			return name, mt, true
		}
	}
	return "", config.MeshType{}, false
}

// ItemCounts reports how many lines each category has.
func ItemCounts(cat *config.Catalog) map[Category]int {
	counts := make(map[Category]int, len(categoryNames))
	for _, c := range Categories() {
		items, err := Items(cat, c)
		if err != nil {
			continue
		}
		counts[c] = len(items)
	}
	return counts
}
