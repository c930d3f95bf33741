package domain

// NoFavoriteGenre is reported when the user has read nothing.
const NoFavoriteGenre = "None"

// ReadingStats summarises a user's reading for the current calendar year.
type ReadingStats struct {
	Year              int            `json:"year"`
	BooksReadThisYear int            `json:"books_read_this_year"`
	TotalPages        int            `json:"total_pages"`
	AverageRating     float64        `json:"average_rating"`
	GenreBreakdown    map[string]int `json:"genre_breakdown"`
	FavoriteGenre     string         `json:"favorite_genre"`
	MonthlyReading    [12]int        `json:"monthly_reading"`
	ReadingStreak     int            `json:"reading_streak"`
	TotalBooksRead    int            `json:"total_books_read"`
	CurrentlyReading  int            `json:"currently_reading"`
	WantToRead        int            `json:"want_to_read"`
	Goal              *GoalProgress  `json:"goal,omitempty"`
}

// GoalProgress compares the year's finished books to the reading goal.
type GoalProgress struct {
	Year      int `json:"year"`
	Target    int `json:"target"`
	Completed int `json:"completed"`
	Percent   int `json:"percent"`
}

// CatalogOverview is the moderator dashboard summary.
type CatalogOverview struct {
	TotalBooks     int            `json:"total_books"`
	TotalUsers     int            `json:"total_users"`
	TotalReviews   int            `json:"total_reviews"`
	PendingReviews int            `json:"pending_reviews"`
	BooksPerGenre  map[string]int `json:"books_per_genre"`
	TopRated       []Book         `json:"top_rated"`
	MostShelved    []Book         `json:"most_shelved"`
}
