package pageconfig

import "strings"

// ExtractRecommendedItems returns the items of the first block typed
// recommended_actions, in order. Later blocks with the same type are
// ignored. Entries without a slug are skipped.
func ExtractRecommendedItems(blocks []Block) []RecommendedItem {
	for _, b := range blocks {
		if b.Type != RecommendedActionsType {
			continue
		}
		return itemsFrom(b.Fields["plugins"])
	}
	return []RecommendedItem{}
}

func itemsFrom(raw any) []RecommendedItem {
	items := []RecommendedItem{}
	add := func(entry map[string]any) {
		slug, _ := entry["slug"].(string)
		slug = strings.TrimSpace(slug)
		if slug == "" {
			return
		}
		items = append(items, RecommendedItem{ID: slug, Display: entry})
	}
	switch plugins := raw.(type) {
	case []any:
		for _, p := range plugins {
			if entry, ok := p.(map[string]any); ok {
				add(entry)
			}
		}
	case []map[string]any:
		for _, entry := range plugins {
			add(entry)
		}
	}
	return items
}

// IDs lists item ids in order.
func IDs(items []RecommendedItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}
