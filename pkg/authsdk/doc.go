/*
Package authsdk provides a client SDK for the HotelListing account service.

# SDKClient vs Session

  - SDKClient: unauthenticated operations (register, login, refresh, bootstrap, health)
  - Session: operations that need a bearer access token, with automatic refresh

	client := authsdk.NewSDKClient("https://api.example.com")

	// Create an account
	err := client.Register(ctx, authsdk.RegisterRequest{
		Email:     "ada@example.com",
		Password:  "secret1",
		FirstName: "Ada",
		LastName:  "Lovelace",
	})

	// Log in and use the session
	session, err := client.AuthenticateWithPassword(ctx, "ada@example.com", "secret1")
	profile, err := session.Me(ctx)

# Refresh tokens

Each principal has exactly one live refresh token. Every successful login or
refresh replaces it, and presenting a spent or stolen refresh token
invalidates all of the principal's refresh tokens. A Session refreshes its
pair when the service rejects its access token, so a Session must not be
copied between processes that refresh independently.

# Errors

Every non-2xx response is returned as *APIError. Authentication failures
match ErrUnauthorized:

	_, err := client.Login(ctx, email, password)
	if errors.Is(err, authsdk.ErrUnauthorized) {
		// wrong email or password; the service does not say which
	}

Registration failures carry the validation codes:

	var apiErr *authsdk.APIError
	if errors.As(err, &apiErr) && apiErr.HasError("DuplicateEmail") {
		// pick another email
	}

# Thread Safety

Sessions are safe for concurrent use.
*/
package authsdk
