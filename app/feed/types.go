package feed

// Item is a single feed entry. After enrichment Link is absolute,
// Description is never empty when a title exists, and ImageURL never
// points at site furniture like logos or icons.
type Item struct {
	GUID        string `json:"guid"`
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description"`
	PubDate     string `json:"pubDate"`
	ImageURL    string `json:"imageUrl"`
}

// Channel is a complete feed ready for serialization. Items keep the
// order the source page presented them in.
type Channel struct {
	Title         string `json:"title"`
	Link          string `json:"link"`
	Description   string `json:"description"`
	LastBuildDate string `json:"lastBuildDate"`
	Items         []Item `json:"items"`
}
