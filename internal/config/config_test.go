package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	. "gopkg.in/check.v1"
)

func Test(t *testing.T) { TestingT(t) }

type configSuite struct{}

var _ = Suite(&configSuite{})

func (s *configSuite) TestLoadMissingFileWritesDefaults(c *C) {
	path := filepath.Join(c.MkDir(), "config.yaml")

	cfg, err := Load(path)
	c.Assert(err, IsNil)
	c.Check(cfg.Listen, Equals, "127.0.0.1:8080")
	c.Check(cfg.Timezone, Equals, "Asia/Shanghai")
	c.Check(cfg.SemesterStart, Equals, "2025-09-01")
	c.Check(cfg.MaxWeeks, Equals, 20)
	c.Check(cfg.Periods, HasLen, 12)
	c.Check(cfg.RowSlots, HasLen, 5)

	// The default file must have been created, readable only by the owner.
	info, err := os.Stat(path)
	c.Assert(err, IsNil)
	c.Check(info.Mode().Perm(), Equals, os.FileMode(0o600))
}

func (s *configSuite) TestSaveLoadRoundTrip(c *C) {
	path := filepath.Join(c.MkDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.Listen = "0.0.0.0:9000"
	cfg.Semester = "2026-2027学年第一学期"
	cfg.SemesterStart = "2026-09-07"
	cfg.MaxWeeks = 18
	cfg.RefreshCron = "0 5 * * *"
	cfg.ICS = []ICSConfig{{ID: "jw", Name: "教务处", URL: "https://jw.example.edu/class.ics"}}
	cfg.BasicAuth = &BasicAuthConfig{Username: "admin", Password: "secret"}

	c.Assert(Save(path, cfg), IsNil)

	loaded, err := Load(path)
	c.Assert(err, IsNil)
	c.Check(loaded.Listen, Equals, "0.0.0.0:9000")
	c.Check(loaded.Semester, Equals, "2026-2027学年第一学期")
	c.Check(loaded.SemesterStart, Equals, "2026-09-07")
	c.Check(loaded.MaxWeeks, Equals, 18)
	c.Check(loaded.RefreshCron, Equals, "0 5 * * *")
	c.Assert(loaded.ICS, HasLen, 1)
	c.Check(loaded.ICS[0].ID, Equals, "jw")
	c.Assert(loaded.BasicAuth, NotNil)
	c.Check(loaded.BasicAuth.Username, Equals, "admin")
}

func (s *configSuite) TestNormalizeFillsZeroValues(c *C) {
	cfg := &Config{}
	cfg.Normalize()
	c.Check(cfg.Listen, Equals, "127.0.0.1:8080")
	c.Check(cfg.MaxWeeks, Equals, 20)
	c.Check(cfg.Periods, HasLen, 12)
	c.Check(cfg.RowSlots, HasLen, 5)
	c.Check(cfg.ICS, NotNil)
}

func (s *configSuite) TestValidateRejectsBadSemesterStart(c *C) {
	cfg := DefaultConfig()
	cfg.SemesterStart = "2025/09/01"
	c.Check(cfg.Validate(), ErrorMatches, `config: bad semester_start.*`)
}

func (s *configSuite) TestValidateRejectsBadPeriodClock(c *C) {
	cfg := DefaultConfig()
	cfg.Periods[0].End = "25:00"
	c.Check(cfg.Validate(), ErrorMatches, `config: bad clock time.*`)
}

func (s *configSuite) TestValidateRejectsInvertedRowSlot(c *C) {
	cfg := DefaultConfig()
	cfg.RowSlots[0].StartPeriod = 4
	cfg.RowSlots[0].EndPeriod = 3
	c.Check(cfg.Validate(), ErrorMatches, `config: bad row slot.*`)
}

func (s *configSuite) TestSemesterAnchorIsLocalMidnight(c *C) {
	loc, err := time.LoadLocation("Asia/Shanghai")
	c.Assert(err, IsNil)

	cfg := DefaultConfig()
	anchor := cfg.SemesterAnchor(loc)
	c.Check(anchor.Equal(time.Date(2025, 9, 1, 0, 0, 0, 0, loc)), Equals, true)
	c.Check(anchor.Weekday(), Equals, time.Monday)
}
