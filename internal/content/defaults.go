package content

// Defaults seed the store the first time a document is requested and no
// file exists in the repository yet.

// DefaultEvents returns the seed events document.
func DefaultEvents() *EventsDocument {
	doc := &EventsDocument{
		PastEvents: map[string]PastEventGroup{
			"saturday-sessions": {
				Events: []EventItem{
					{
						Title:       "Saturday Seminar 1: Data Meets Finance",
						Description: "Exploring the intersection of data analytics and financial decision-making",
					},
					{
						Title:       "Saturday Seminar 2: Banking 101: Demystifying India's Backbone",
						Description: "Understanding the fundamentals of India's banking system",
					},
				},
			},
			"networking-events": {ComingSoon: true},
			"flagship-event":    {ComingSoon: true},
		},
		UpcomingEvents: []UpcomingEvent{},
	}
	doc.Touch()
	return doc
}

// DefaultSponsors returns the seed sponsors document.
func DefaultSponsors() *SponsorsDocument {
	doc := &SponsorsDocument{
		Sponsors: []Sponsor{
			{
				ID:          "citizen-cooperative-bank",
				Name:        "Citizen Cooperative Bank",
				Logo:        "/sponsors/citizen-cooperative-bank.png",
				Industry:    "Banking",
				Description: "Cooperative banking institution dedicated to financial inclusion and community development.",
				Website:     "https://citizenbankdelhi.com",
			},
			{
				ID:          "zest-global-education",
				Name:        "Zest Global Education",
				Logo:        "/sponsors/zest-global-education.png",
				Industry:    "Education",
				Description: "International education consultancy providing global opportunities and career guidance to students.",
				Website:     "https://zestglobaleducation.com",
			},
		},
	}
	doc.Touch()
	return doc
}

// DefaultLuminaries returns the seed faculty-and-leadership document.
func DefaultLuminaries() *LuminariesDocument {
	doc := &LuminariesDocument{
		Faculty: []TeamMember{
			{
				ID:    "sanjay-parab",
				Name:  "Dr. Sanjay Parab",
				Title: "Vice Principal and Associate Professor",
				Bio:   "Holds M.Com., M.A., M.Phil., Ph.D., LL.M., and FCS qualifications with over 21 years of teaching experience, researching Corporate Governance, Business Administration, and Corporate Finance.",
				Image: "/placeholder.svg",
				Email: "sanjay.parab@xaviers.edu",
				Achievements: []string{
					"Over 21 years of teaching experience",
					"University topper in Company Law (LLB)",
				},
				Expertise: []string{"Corporate Governance", "Corporate Finance", "Company Law"},
				Quote:     "Excellence in corporate governance and finance education drives sustainable business growth.",
			},
		},
		Leadership: []TeamMember{},
	}
	doc.Touch()
	return doc
}
