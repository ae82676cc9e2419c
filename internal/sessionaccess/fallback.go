package sessionaccess

import (
	"fmt"

	"clipwatch/internal/catalog"
	"clipwatch/internal/ipc"
)

// Handle pairs an Access with its cleanup function.
type Handle struct {
	Access Access
	// Live reports whether the daemon answered over IPC.
	Live  bool
	close func() error
}

// Close releases resources associated with the handle.
func (h Handle) Close() error {
	if h.close == nil {
		return nil
	}
	return h.close()
}

// OpenWithFallback tries IPC-backed access first, then falls back to direct store access.
func OpenWithFallback(
	dial func() (*ipc.Client, error),
	openStore func() (*catalog.Store, error),
) (Handle, error) {
	if dial != nil {
		if client, err := dial(); err == nil {
			return Handle{
				Access: NewIPCAccess(client),
				Live:   true,
				close:  client.Close,
			}, nil
		}
	}

	if openStore == nil {
		return Handle{}, fmt.Errorf("open session catalog: no store opener configured")
	}
	store, err := openStore()
	if err != nil {
		return Handle{}, fmt.Errorf("open session catalog: %w", err)
	}
	return Handle{
		Access: NewStoreAccess(store),
		close:  store.Close,
	}, nil
}
