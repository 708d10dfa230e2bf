package lifecycle

// rosterSource is one place an event's attendee ids may be recorded. Older
// event records used participants or registrations instead of registeredStudents.
type rosterSource struct {
	name string
	ids  func(Event) []string
}

// rosterSources are consulted in priority order; the first non-empty one wins.
var rosterSources = []rosterSource{
	{name: "registeredStudents", ids: func(ev Event) []string { return ev.RegisteredStudents }},
	{name: "participants", ids: func(ev Event) []string { return ev.Participants }},
	{name: "registrations", ids: func(ev Event) []string {
		ids := make([]string, 0, len(ev.Registrations))
		for _, reg := range ev.Registrations {
			if reg.UserID != "" {
				ids = append(ids, reg.UserID)
			}
		}
		return ids
	}},
}

// resolveRoster returns the authoritative attendee ids of ev and the source they came from.
func resolveRoster(ev Event) (string, []string) {
	for _, src := range rosterSources {
		if ids := src.ids(ev); len(ids) > 0 {
			return src.name, ids
		}
	}
	return "", nil
}
