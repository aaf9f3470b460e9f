package session

// Identity describes one connected client. Clients are keyed by name plus
// network address.
type Identity struct {
	Name   string
	Avatar string

	// Addr is the client's reply-to network address.
	Addr string

	// Solo is true when the client plays alone against the computer. A solo
	// client occupies the entire subscriber weight of a session.
	Solo bool
}

// Weight is the number of subscriber slots the client occupies.
func (id Identity) Weight() int {
	if id.Solo {
		return 2
	}
	return 1
}

// Equal reports whether two identities refer to the same client.
func (id Identity) Equal(other Identity) bool {
	return id.Name == other.Name && id.Addr == other.Addr
}
