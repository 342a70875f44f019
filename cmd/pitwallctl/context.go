package main

import (
	"strings"
	"sync"
	"time"

	"github.com/okian/pitwall/internal/domain/roster"
)

const (
	defaultServerURL = "http://localhost:9080"
	requestTimeout   = 30 * time.Second
)

type commandContext struct {
	rosterFlag *string
	serverFlag *string

	rosterOnce sync.Once
	roster     *roster.Roster
	rosterErr  error
}

func newCommandContext(rosterFlag, serverFlag *string) *commandContext {
	return &commandContext{
		rosterFlag: rosterFlag,
		serverFlag: serverFlag,
	}
}

func (c *commandContext) ensureRoster() (*roster.Roster, error) {
	c.rosterOnce.Do(func() {
		var path string
		if c.rosterFlag != nil {
			path = strings.TrimSpace(*c.rosterFlag)
		}
		if path == "" {
			c.roster = roster.Default()
			return
		}
		c.roster, c.rosterErr = roster.LoadFile(path)
	})
	return c.roster, c.rosterErr
}

func (c *commandContext) serverURL() string {
	if c.serverFlag == nil || strings.TrimSpace(*c.serverFlag) == "" {
		return defaultServerURL
	}
	return strings.TrimRight(strings.TrimSpace(*c.serverFlag), "/")
}

func (c *commandContext) client() *serverClient {
	return newServerClient(c.serverURL(), requestTimeout)
}
