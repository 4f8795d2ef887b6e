package config

import (
	"strings"
	"time"
)

const (
	// DefaultModuleBase is the GWT module base of the planning application.
	DefaultModuleBase = "https://ade.bordeaux-inp.fr/direct/gwtdirectplanning/"
	// DefaultSessionSeed is the seed the session key is derived from (0xC0FFEE).
	DefaultSessionSeed uint64 = 12648430
	// DefaultRootFolderID is the synthetic root of the resource tree.
	DefaultRootFolderID = -3

	defaultCrawlConcurrency = 4
	maxCrawlConcurrency     = 32
)

// GWTConfig contains the GWT-RPC endpoint settings.
type GWTConfig struct {
	ModuleBase   string `env:"GWT_MODULE_BASE"    envDefault:"https://ade.bordeaux-inp.fr/direct/gwtdirectplanning/"`
	Permutation  string `env:"GWT_PERMUTATION"    envDefault:"B6FB4BD1F96498A84974F1F52B318B82"`
	SessionSeed  uint64 `env:"GWT_SESSION_SEED"   envDefault:"12648430"`
	RootFolderID int    `env:"GWT_ROOT_FOLDER_ID" envDefault:"-3"`
	// TreeLabel is echoed in tree listings; empty selects the gateway default.
	TreeLabel string `env:"GWT_TREE_LABEL"`
}

// Sanitize trims values and restores defaults for blanks.
func (c *GWTConfig) Sanitize() {
	c.ModuleBase = strings.TrimSpace(c.ModuleBase)
	if c.ModuleBase == "" {
		c.ModuleBase = DefaultModuleBase
	}
	c.Permutation = strings.TrimSpace(c.Permutation)
	c.TreeLabel = strings.TrimSpace(c.TreeLabel)
}

// CalendarConfig contains the anonymous calendar feed settings.
type CalendarConfig struct {
	FeedURL         string `env:"CALENDAR_FEED_URL"          envDefault:"https://adeapp.bordeaux-inp.fr/jsp/custom/modules/plannings/anonymous_cal.jsp"`
	ProjectID       int    `env:"CALENDAR_PROJECT_ID"        envDefault:"1"`
	DisplayConfigID int    `env:"CALENDAR_DISPLAY_CONFIG_ID" envDefault:"71"`
	// Timezone resolves default date ranges and floating event times.
	Timezone string `env:"CALENDAR_TIMEZONE" envDefault:"Europe/Paris"`
}

// Sanitize clamps identifiers and falls back to UTC for an unknown timezone.
func (c *CalendarConfig) Sanitize() {
	c.FeedURL = strings.TrimSpace(c.FeedURL)
	if c.ProjectID < 1 {
		c.ProjectID = 1
	}
	if c.DisplayConfigID < 1 {
		c.DisplayConfigID = 71
	}
	c.Timezone = strings.TrimSpace(c.Timezone)
	if _, err := time.LoadLocation(c.Timezone); err != nil || c.Timezone == "" {
		c.Timezone = "UTC"
	}
}

// Location returns the configured timezone.
func (c *CalendarConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// CrawlConfig tunes the resource tree crawl.
type CrawlConfig struct {
	// Concurrency bounds the number of in-flight tree listings.
	Concurrency int `env:"CRAWL_CONCURRENCY" envDefault:"4"`
}

// Sanitize clamps Concurrency to 1..32.
func (c *CrawlConfig) Sanitize() {
	if c.Concurrency < 1 {
		c.Concurrency = defaultCrawlConcurrency
	}
	if c.Concurrency > maxCrawlConcurrency {
		c.Concurrency = maxCrawlConcurrency
	}
}
