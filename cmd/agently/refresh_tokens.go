package agently

import (
	"context"
	"fmt"
)

// RefreshTokensCmd runs a single TokenRefreshWorker poll pass and exits,
// for use from an external cron rather than the long-running serve process.
type RefreshTokensCmd struct {
	Config string `short:"f" long:"config" description:"runtime config YAML path" default:"agently.yaml"`
}

func (c *RefreshTokensCmd) Execute(_ []string) error {
	rt, err := newRuntime(c.Config)
	if err != nil {
		return err
	}
	rt.refresh.Tick(context.Background())
	fmt.Println("refresh pass complete")
	return nil
}
