package domain

// RecommendationMode is the branch the recommender took.
type RecommendationMode string

const (
	ModePersonalized RecommendationMode = "personalized"
	ModeDiscovery    RecommendationMode = "discovery"
)

// Reason tags explaining why a book was recommended.
const (
	ReasonGenreAffinity = "genre affinity match"
	ReasonPopular       = "popular among readers"
	ReasonHighlyRated   = "highly rated"
	ReasonDiscovery     = "discovery"
)

// Recommendation is one recommended book.
type Recommendation struct {
	Book   Book   `json:"book"`
	Reason string `json:"reason"`
}

// Recommendations is the recommender's output.
type Recommendations struct {
	Items     []Recommendation   `json:"items"`
	BooksRead int                `json:"books_read"`
	Mode      RecommendationMode `json:"recommendation_mode"`
}
