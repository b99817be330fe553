package domain

// AdminUser is one row of the admin user list.
type AdminUser struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	IsBanned  bool   `json:"isBanned"`
}

// ClientStatus is a snapshot of client-side counters served on /status.
type ClientStatus struct {
	Session         SessionState `json:"session"`
	Logins          int64        `json:"logins"`
	Logouts         int64        `json:"logouts"`
	Expirations     int64        `json:"expirations"`
	GuardAllowed    int64        `json:"guardAllowed"`
	GuardRedirected int64        `json:"guardRedirected"`
	RemoteErrors    int64        `json:"remoteErrors"`
	SharedListCalls int64        `json:"sharedListCalls"`
}
