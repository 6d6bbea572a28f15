package venuesearch

// Offer is a vendor listing to index.
type Offer struct {
	VendorID      string
	Title         string
	City          string
	HeadcountMin  int
	HeadcountMax  int
	PriceMin      float64
	PriceMax      float64
	DurationHours float64
	Occasion      []string
	Tags          []string
	UpdatedAt     string // YYYY-MM-DD
	Description   string
}

// Filters are caller-applied constraints. Zero values are not applied.
// Applied filters always override what is extracted from the query.
type Filters struct {
	City      string
	Occasion  string
	Headcount int
	Budget    float64
	Date      string
}

// Slots are the criteria the engine searched with. Nil means unset.
type Slots struct {
	Intent      string
	City        *string
	Occasion    *string
	Headcount   *int
	Budget      *float64
	Date        *string
	Constraints *string
}

// Venue is a ranked search hit.
type Venue struct {
	ID           int64
	VendorID     string
	Title        string
	City         string
	HeadcountMin int
	HeadcountMax int
	PriceMin     float64
	PriceMax     float64
	Occasion     []string
	Tags         []string
	UpdatedAt    string
	Snippet      string
	Score        float64
}

// Result is the outcome of a search.
type Result struct {
	RunID    string
	Answer   string
	Venues   []Venue
	Missing  []string // slots worth asking the user for
	StaleIDs []int64  // venues needing reconfirmation
	Slots    Slots
}

// IndexStats describes the indexes after a build.
type IndexStats struct {
	Stable     int
	Hot        int
	Dense      bool
	Generation uint64
}

// LoadReport counts the rows of a CSV load.
type LoadReport struct {
	Read     int
	Inserted int
	Skipped  int
}
