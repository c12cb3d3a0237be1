package domain

// BootstrapData is the first administrator created on an empty store.
type BootstrapData struct {
	Admin Registration
}
