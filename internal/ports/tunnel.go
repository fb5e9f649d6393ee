package ports

import "context"

type Tunnel interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
