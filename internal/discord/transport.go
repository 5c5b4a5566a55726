package discord

import (
	"context"

	"github.com/hay-kot/nowplaying/internal/discord/ipc"
)

// Transport is one open presence channel bound to an application id.
type Transport interface {
	Connect(ctx context.Context) error
	SetActivity(ctx context.Context, a Activity) error
	ClearActivity(ctx context.Context) error
	Close() error
}

// Dialer creates an unconnected Transport for clientID.
type Dialer func(clientID string) Transport

// IPCDialer returns Transports backed by the local Discord IPC socket.
func IPCDialer(clientID string) Transport {
	return &ipcTransport{clientID: clientID}
}

type ipcTransport struct {
	clientID string
	conn     *ipc.Conn
}

func (t *ipcTransport) Connect(ctx context.Context) error {
	conn, err := ipc.Dial(ctx, t.clientID)
	if err != nil {
		return err
	}
	t.conn = conn
	return nil
}

func (t *ipcTransport) SetActivity(ctx context.Context, a Activity) error {
	if t.conn == nil {
		return ipc.ErrClosed
	}
	return t.conn.SetActivity(ctx, a.wire())
}

func (t *ipcTransport) ClearActivity(ctx context.Context) error {
	if t.conn == nil {
		return ipc.ErrClosed
	}
	return t.conn.SetActivity(ctx, nil)
}

func (t *ipcTransport) Close() error {
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}
