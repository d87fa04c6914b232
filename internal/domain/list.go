package domain

import "time"

// Canonical titles of the two system lists every user gets on demand.
const (
	SeenListTitle      = "Seen Content"
	WatchlistListTitle = "Watchlist"
)

// SystemListKind selects one of the system lists.
type SystemListKind int

const (
	KindSeen SystemListKind = iota + 1
	KindWatchlist
)

// Title returns the canonical list title for the kind.
func (k SystemListKind) Title() string {
	switch k {
	case KindSeen:
		return SeenListTitle
	case KindWatchlist:
		return WatchlistListTitle
	default:
		return ""
	}
}

func (k SystemListKind) String() string {
	switch k {
	case KindSeen:
		return "seen"
	case KindWatchlist:
		return "watchlist"
	default:
		return "unknown"
	}
}

// MovieList is a user-owned collection of movies. System lists are provisioned
// lazily and cannot be deleted; custom lists are created and deleted by their owner.
type MovieList struct {
	ID        string
	UserID    string
	Title     string
	IsSystem  bool
	CreatedAt time.Time
}

// OwnedBy reports whether userID owns the list.
func (l MovieList) OwnedBy(userID string) bool {
	return userID != "" && l.UserID == userID
}

// ListItem places one movie in one list.
type ListItem struct {
	ID        string
	ListID    string
	MovieID   string
	DateAdded time.Time
}

// ListEntry is a list item joined with the movie it references.
type ListEntry struct {
	Item  ListItem
	Movie Movie
}

// ListWithEntries is a list together with its contents.
type ListWithEntries struct {
	List    MovieList
	Entries []ListEntry
}

// MembershipState is the result of toggling a movie in a system list.
type MembershipState struct {
	Present bool
}

// EngagementStatus reports a movie's presence in the caller's system lists.
type EngagementStatus struct {
	Seen        bool
	InWatchlist bool
}

// EngagementSnapshot lists the movie ids in the caller's system lists.
type EngagementSnapshot struct {
	SeenMovieIDs      []string
	WatchlistMovieIDs []string
}
