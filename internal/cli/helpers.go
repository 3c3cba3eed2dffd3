package cli

import (
	"fmt"

	"github.com/timecard-io/timecard/internal/daemon"
	"github.com/timecard-io/timecard/internal/domain"
)

// resolveActor looks up the user named by the [identity] config section.
// CLI commands act as that user; the HTTP API resolves its actor per
// request instead.
func resolveActor(d *daemon.Daemon) (*domain.User, error) {
	name := d.Config.Identity.User
	if name == "" {
		return nil, fmt.Errorf("no identity configured: set [identity] user in %s/config.toml or run 'timecard users add'", daemon.TimecardHome())
	}

	u, err := d.DB.GetUserByName(name)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("user %q not found: run 'timecard users add %s --operator'", name, name)
	}
	return u, nil
}
