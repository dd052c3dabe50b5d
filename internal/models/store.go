package models

// Store is the single persisted document holding every player on a device profile
type Store struct {
	Users       []User  `json:"users"`
	CurrentUser *string `json:"currentUser"`
}

// NewStore returns an empty store
func NewStore() *Store {
	return &Store{Users: []User{}}
}

// FindByID returns the user with the given ID
func (s *Store) FindByID(id string) *User {
	for i := range s.Users {
		if s.Users[i].ID == id {
			return &s.Users[i]
		}
	}
	return nil
}

// FindByUsername returns the user whose name matches case-insensitively
func (s *Store) FindByUsername(username string) *User {
	for i := range s.Users {
		if s.Users[i].MatchesUsername(username) {
			return &s.Users[i]
		}
	}
	return nil
}

// Current returns the logged-in user, or nil
func (s *Store) Current() *User {
	if s.CurrentUser == nil {
		return nil
	}
	return s.FindByID(*s.CurrentUser)
}

// SetCurrent points the current-user marker at id; an empty id clears it
func (s *Store) SetCurrent(id string) {
	if id == "" {
		s.CurrentUser = nil
		return
	}
	s.CurrentUser = &id
}

// Remove deletes the user with the given ID and reports whether one was found
func (s *Store) Remove(id string) bool {
	for i := range s.Users {
		if s.Users[i].ID == id {
			s.Users = append(s.Users[:i], s.Users[i+1:]...)
			if s.CurrentUser != nil && *s.CurrentUser == id {
				s.CurrentUser = nil
			}
			return true
		}
	}
	return false
}
