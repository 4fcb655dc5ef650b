package api

import "context"

// AuthClient handles session and account-credential operations.
type AuthClient struct {
	client *Client
}

// Login exchanges username/password for a session token. The token is NOT
// attached to the client automatically; callers decide whether to persist
// and install it.
func (a *AuthClient) Login(ctx context.Context, username, password string) (string, error) {
	resp, err := a.client.post(ctx, "/session/login", map[string]string{
		"username": username,
		"password": password,
	})
	result, err := decode[struct {
		Key string `json:"key"`
	}](resp, err)
	if err != nil {
		return "", err
	}
	return result.Key, nil
}

// Logout invalidates the server-side session.
func (a *AuthClient) Logout(ctx context.Context) error {
	resp, err := a.client.post(ctx, "/session/logout", map[string]string{})
	if err != nil {
		return err
	}
	return resp.Error()
}

// CreateAccount registers a new user. Email is optional.
func (a *AuthClient) CreateAccount(ctx context.Context, username, password1, password2, email string) error {
	payload := map[string]string{
		"username":  username,
		"password1": password1,
		"password2": password2,
	}
	if email != "" {
		payload["email"] = email
	}
	resp, err := a.client.post(ctx, "/register/", payload)
	if err != nil {
		return err
	}
	return resp.Error()
}

// ChangePassword updates the current account's password.
func (a *AuthClient) ChangePassword(ctx context.Context, password1, password2 string) error {
	resp, err := a.client.post(ctx, "/auth/password/change/", map[string]string{
		"password1": password1,
		"password2": password2,
	})
	if err != nil {
		return err
	}
	return resp.Error()
}

// SendPasswordResetEmail triggers a password reset email.
func (a *AuthClient) SendPasswordResetEmail(ctx context.Context, email string) error {
	resp, err := a.client.post(ctx, "/auth/password/reset/", map[string]string{
		"email": email,
	})
	if err != nil {
		return err
	}
	return resp.Error()
}

// ResetPassword completes a password reset started by email.
func (a *AuthClient) ResetPassword(ctx context.Context, uid, token, newPassword1, newPassword2 string) error {
	resp, err := a.client.post(ctx, "/auth/password/reset/confirm/", map[string]string{
		"uid":           uid,
		"token":         token,
		"new_password1": newPassword1,
		"new_password2": newPassword2,
	})
	if err != nil {
		return err
	}
	return resp.Error()
}

// VerifyEmail confirms an account email address.
func (a *AuthClient) VerifyEmail(ctx context.Context, key string) error {
	resp, err := a.client.post(ctx, "/registration/verify-email/", map[string]string{
		"key": key,
	})
	if err != nil {
		return err
	}
	return resp.Error()
}

// AccountDetails returns the authenticated user's profile.
func (a *AuthClient) AccountDetails(ctx context.Context) (User, error) {
	resp, err := a.client.get(ctx, "/accounts/user")
	return decode[User](resp, err)
}

// UpdateAccountDetails patches the authenticated user's profile.
func (a *AuthClient) UpdateAccountDetails(ctx context.Context, fields map[string]any) (User, error) {
	resp, err := a.client.patch(ctx, "/accounts/user", fields)
	return decode[User](resp, err)
}
