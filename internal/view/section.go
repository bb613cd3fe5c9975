package view

import "fmt"

// Section is the heading block shown above the list.
type Section struct {
	Title   string
	Visible int
	Total   int
	Caption string
}

// Describe builds the section heading for a built list.
func Describe(tab Tab, visible, total int, loading bool) Section {
	s := Section{Title: tab.Title(), Visible: visible, Total: total}
	switch {
	case loading:
		s.Caption = "Loading your library..."
	case visible == 0 && tab == TabFavorites:
		s.Caption = "No favorite books yet."
	case visible == 0:
		s.Caption = "No books match your query. Try another search."
	case tab == TabFavorites:
		s.Caption = fmt.Sprintf("Showing %d favorite books", visible)
	default:
		s.Caption = fmt.Sprintf("Showing %d of %d books", visible, total)
	}
	return s
}
