package api

import (
	"context"
	"net/url"
)

// UsersClient handles the hub's user directory.
type UsersClient struct {
	client *Client
}

// List returns all known users.
func (u *UsersClient) List(ctx context.Context) ([]User, error) {
	resp, err := u.client.get(ctx, "/users")
	return decode[[]User](resp, err)
}

// Get returns a single user by username.
func (u *UsersClient) Get(ctx context.Context, username string) (User, error) {
	resp, err := u.client.get(ctx, "/users/"+username)
	return decode[User](resp, err)
}

// Search filters users by a free-form search term.
func (u *UsersClient) Search(ctx context.Context, term string) ([]User, error) {
	resp, err := u.client.get(ctx, "/users?search="+url.QueryEscape(term))
	return decode[[]User](resp, err)
}
