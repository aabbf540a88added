package types

// ContactInfo holds reachable contact details for a person
type ContactInfo struct {
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	DeviceToken string `json:"device_token,omitempty"`
}

// HasAnyChannel reports whether at least one delivery channel is available
func (c ContactInfo) HasAnyChannel() bool {
	return c.Email != "" || c.Phone != "" || c.DeviceToken != ""
}
