package view

import "strings"

// Tab selects which slice of the catalog is shown.
type Tab string

const (
	TabDiscover    Tab = "discover"
	TabFavorites   Tab = "favorites"
	TabReading     Tab = "reading"
	TabToRead      Tab = "to_read"
	TabTopRated    Tab = "top_rated"
	TabNewArrivals Tab = "new_arrivals"
	TabByGenre     Tab = "by_genre"
)

// Tabs lists every tab in menu order.
var Tabs = []Tab{TabDiscover, TabFavorites, TabReading, TabToRead, TabTopRated, TabNewArrivals, TabByGenre}

var tabTitles = map[Tab]string{
	TabDiscover:    "Discover books",
	TabFavorites:   "My favorites",
	TabReading:     "Reading now",
	TabToRead:      "To read",
	TabTopRated:    "Top rated",
	TabNewArrivals: "New arrivals",
	TabByGenre:     "Books by genre",
}

// ParseTab accepts the tab name with either '_' or '-' separators.
// Anything unrecognised falls back to TabDiscover.
func ParseTab(s string) Tab {
	t := Tab(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if _, ok := tabTitles[t]; ok {
		return t
	}
	return TabDiscover
}

// Title is the section heading for the tab.
func (t Tab) Title() string {
	if title, ok := tabTitles[t]; ok {
		return title
	}
	return tabTitles[TabDiscover]
}

func (t Tab) String() string {
	return string(t)
}
