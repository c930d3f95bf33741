package genre

// Seed is a genre created on first start when the catalog has none.
type Seed struct {
	Name        string
	Description string
}

// Defaults is the starter genre list, in display order.
var Defaults = []Seed{
	{Name: "Fiction", Description: "Literary and general fiction"},
	{Name: "Fantasy", Description: "Magic, myth and invented worlds"},
	{Name: "Science Fiction", Description: "Speculative futures, space and technology"},
	{Name: "Mystery", Description: "Crime, detectives and puzzles"},
	{Name: "Thriller", Description: "Suspense and high stakes"},
	{Name: "Romance", Description: "Love stories"},
	{Name: "Horror", Description: "Fear and the uncanny"},
	{Name: "Historical Fiction", Description: "Stories set in the past"},
	{Name: "Biography", Description: "Lives and memoirs"},
	{Name: "History", Description: "Nonfiction about the past"},
	{Name: "Science", Description: "Popular science and nature"},
	{Name: "Self Help", Description: "Personal growth and productivity"},
}
