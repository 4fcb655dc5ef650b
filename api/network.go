package api

import "context"

// NetworkClient reports the hub's view of its blockchain node.
type NetworkClient struct {
	client *Client
}

// Network returns the network status client.
func (c *Client) Network() *NetworkClient {
	return &NetworkClient{client: c}
}

// Status returns the current node connectivity and sync state.
func (n *NetworkClient) Status(ctx context.Context) (NetworkStatus, error) {
	resp, err := n.client.getRoot(ctx, "/status/network")
	return decode[NetworkStatus](resp, err)
}
