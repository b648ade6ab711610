package registry

// DefaultCatalog returns the built-in Mergington High School activities.
// Each call returns a fresh copy.
func DefaultCatalog() Catalog {
	return Catalog{
		{Name: "Chess Club", Activity: Activity{
			Description:     "Learn strategies and compete in chess tournaments",
			Schedule:        "Fridays, 3:30 PM - 5:00 PM",
			MaxParticipants: 12,
			Participants:    []string{"michael@mergington.edu", "daniel@mergington.edu"},
		}},
		{Name: "Programming Class", Activity: Activity{
			Description:     "Learn programming fundamentals and build software projects",
			Schedule:        "Tuesdays and Thursdays, 3:30 PM - 4:30 PM",
			MaxParticipants: 20,
			Participants:    []string{"emma@mergington.edu", "sophia@mergington.edu"},
		}},
		{Name: "Gym Class", Activity: Activity{
			Description:     "Physical education and sports activities",
			Schedule:        "Mondays, Wednesdays, Fridays, 2:00 PM - 3:00 PM",
			MaxParticipants: 30,
			Participants:    []string{"john@mergington.edu", "olivia@mergington.edu"},
		}},
		{Name: "Soccer Team", Activity: Activity{
			Description:     "Join the school soccer team and compete in matches",
			Schedule:        "Tuesdays and Thursdays, 4:00 PM - 5:30 PM",
			MaxParticipants: 22,
			Participants:    []string{"liam@mergington.edu", "noah@mergington.edu"},
		}},
		{Name: "Basketball Team", Activity: Activity{
			Description:     "Practice and play basketball with the school team",
			Schedule:        "Wednesdays and Fridays, 3:30 PM - 5:00 PM",
			MaxParticipants: 15,
			Participants:    []string{"ava@mergington.edu", "mia@mergington.edu"},
		}},
		{Name: "Art Studio", Activity: Activity{
			Description:     "Explore painting, drawing and sculpture",
			Schedule:        "Mondays, 3:30 PM - 5:00 PM",
			MaxParticipants: 15,
			Participants:    []string{"amelia@mergington.edu", "harper@mergington.edu"},
		}},
		{Name: "Drama Club", Activity: Activity{
			Description:     "Act, direct and produce plays and performances",
			Schedule:        "Tuesdays, 4:00 PM - 5:30 PM",
			MaxParticipants: 20,
			Participants:    []string{"ella@mergington.edu", "scarlett@mergington.edu"},
		}},
		{Name: "Math Club", Activity: Activity{
			Description:     "Solve challenging problems and prepare for math competitions",
			Schedule:        "Thursdays, 3:30 PM - 4:30 PM",
			MaxParticipants: 10,
			Participants:    []string{"james@mergington.edu", "benjamin@mergington.edu"},
		}},
		{Name: "Debate Team", Activity: Activity{
			Description:     "Develop public speaking and argumentation skills",
			Schedule:        "Fridays, 4:00 PM - 5:30 PM",
			MaxParticipants: 12,
			Participants:    []string{"charlotte@mergington.edu", "henry@mergington.edu"},
		}},
	}
}
