package adapter

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/drand/drand-mcp/common"
)

// Serve connects the adapter over t and blocks until the host ends the
// session or ctx is done. Cancelling ctx closes the session and is not an
// error.
func (a *Adapter) Serve(ctx context.Context, t mcp.Transport) error {
	ss, err := a.server.Connect(ctx, t, nil)
	if err != nil {
		return fmt.Errorf("connecting transport: %w", err)
	}
	a.l.Infow(fmt.Sprintf("%s running", common.AppName), "version", common.GetAppVersion().String())

	done := make(chan error, 1)
	go func() {
		done <- ss.Wait()
	}()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("session ended: %w", err)
		}
		a.l.Infow("host disconnected")
		return nil
	case <-ctx.Done():
		a.l.Infow("closing session", "reason", context.Cause(ctx))
		if err := ss.Close(); err != nil {
			a.l.Debugw("closing session", "err", err)
		}
		<-done
		return nil
	}
}
