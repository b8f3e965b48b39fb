package venue

// Defaults returns the built-in New York venue set
func Defaults() []Profile {
	return []Profile{
		{
			ID:              "met",
			DisplayName:     "The Met",
			DefaultLocation: "The Met Fifth Avenue, 1000 Fifth Avenue, New York, NY",
			BaseURL:         "https://www.metmuseum.org",
			FileKeywords:    []string{"met"},
		},
		{
			ID:              "moma",
			DisplayName:     "MoMA",
			DefaultLocation: "MoMA, 11 West 53rd Street, New York, NY",
			BaseURL:         "https://www.moma.org",
			FileKeywords:    []string{"moma"},
		},
		{
			ID:              "nyu",
			DisplayName:     "NYU Institute",
			DefaultLocation: "NYU Institute of Fine Arts, 1 East 78th Street, New York, NY",
			BaseURL:         "https://ifa.nyu.edu",
			FileKeywords:    []string{"nyu"},
		},
		{
			ID:              "arts",
			DisplayName:     "National Arts Club",
			DefaultLocation: "National Arts Club, 15 Gramercy Park South, New York, NY",
			BaseURL:         "https://www.nationalartsclub.org",
			FileKeywords:    []string{"arts", "national"},
		},
		{
			ID:              "explorers",
			DisplayName:     "Explorers Club",
			DefaultLocation: "The Explorers Club, 46 East 70th Street, New York, NY",
			BaseURL:         "https://explorers.org",
			FileKeywords:    []string{"explorer"},
		},
		{
			ID:              "womens",
			DisplayName:     "Women's History",
			DefaultLocation: "New-York Historical Society, 170 Central Park West, New York, NY",
			BaseURL:         "https://www.nyhistory.org",
			FileKeywords:    []string{"women", "history"},
		},
		{
			ID:              "asia",
			DisplayName:     "Asia Society",
			DefaultLocation: "Asia Society, 725 Park Avenue, New York, NY",
			BaseURL:         "https://asiasociety.org",
			FileKeywords:    []string{"asia"},
		},
	}
}
