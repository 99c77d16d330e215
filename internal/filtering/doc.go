// Package filtering restricts which catalog entries become visible.
//
// Filters are configured per catalog and applied to a freshly fetched
// snapshot before it replaces the visible one, so ranking, sorting and change
// tracking only ever see the filtered entries.
//
// # Architecture
//
//   - NameFilter: case-insensitive glob patterns on entry names (gobwas/glob,
//     so '*' also matches across '/')
//   - TagFilter: case-insensitive exact matching on labels, used for theme
//     tags and extension statuses
//   - FilterService: applies all configured filters (logical AND)
//
// # Filtering Logic
//
// Each filter follows the same precedence rules:
//
//  1. If exclude patterns/tags are specified and match -> exclude (precedence)
//  2. If include patterns/tags are specified and match -> include
//  3. If include patterns/tags are specified but no match -> exclude
//  4. Otherwise -> include
//
// # Usage Example
//
//	service := NewDefaultFilterService()
//	filter := &config.FilterConfig{
//		Names:    &config.NameFilterConfig{Exclude: []string{"*-legacy"}},
//		Statuses: &config.TagFilterConfig{Exclude: []string{"broken"}},
//	}
//
//	visible, err := service.ApplyFilters(ctx, entries, filter)
package filtering
