package models

import (
	"context"
	"sync"
	"time"

	"github.com/beego/beego/v2/client/orm"
	"github.com/beego/beego/v2/core/logs"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultHistoryDSN keeps the history in memory; it is gone on restart.
const DefaultHistoryDSN = "file:ticc_history?mode=memory&cache=shared"

const defaultHistoryLimit = 60

var registerDriverOnce sync.Once

// PollSample is one point of the poll history: how many clients the status
// command listed and how they split by severity and address family.
type PollSample struct {
	Id          int64     `json:"id"`
	Clients     int       `json:"clients"`
	OK          int       `orm:"column(ok)" json:"ok"`
	Warning     int       `orm:"column(warning)" json:"warning"`
	Critical    int       `orm:"column(critical)" json:"critical"`
	Hostnames   int       `orm:"column(hostnames)" json:"hostnames"`
	IPv4        int       `orm:"column(ipv4)" json:"ipv4"`
	IPv6        int       `orm:"column(ipv6)" json:"ipv6"`
	Error       string    `orm:"type(text);null" json:"error,omitempty"`
	Fingerprint string    `orm:"size(64);index" json:"fingerprint"`
	DurationMs  int64     `json:"duration_ms"`
	CollectedAt time.Time `orm:"type(datetime);index" json:"collected_at"`
}

// InitHistoryDB registers the history database under the default alias and
// creates its table. Must be called once, before any other function here.
func InitHistoryDB(dsn string) error {
	registerDriverOnce.Do(func() {
		if err := orm.RegisterDriver("sqlite3", orm.DRSqlite); err != nil {
			panic(err)
		}
	})
	if dsn == "" {
		dsn = DefaultHistoryDSN
	}

	// A shared-cache memory database lives as long as one connection does.
	if err := orm.RegisterDataBase("default", "sqlite3", dsn,
		orm.MaxOpenConnections(1), orm.MaxIdleConnections(1)); err != nil {
		return err
	}
	orm.RegisterModel(new(PollSample))

	return orm.RunSyncdb("default", false, false)
}

func SavePollSample(s *PollSample) error {
	_, err := orm.NewOrm().Insert(s)
	return err
}

// RecentPollSamples returns up to limit samples, newest first.
func RecentPollSamples(limit int) ([]PollSample, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	var samples []PollSample
	if _, err := orm.NewOrm().QueryTable(new(PollSample)).OrderBy("-Id").Limit(limit).All(&samples); err != nil {
		return nil, err
	}
	if samples == nil {
		samples = []PollSample{}
	}
	return samples, nil
}

// PrunePollSamples deletes samples collected before cutoff.
func PrunePollSamples(cutoff time.Time) (int64, error) {
	return orm.NewOrm().QueryTable(new(PollSample)).Filter("CollectedAt__lt", cutoff).Delete()
}

// StartHistoryRetention prunes samples older than retention every interval
// until ctx is done.
func StartHistoryRetention(ctx context.Context, retention, interval time.Duration) {
	if retention <= 0 || interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				n, err := PrunePollSamples(now.Add(-retention))
				if err != nil {
					logs.Warn("history retention: %v", err)
					continue
				}
				if n > 0 {
					logs.Debug("history retention: pruned %d samples", n)
				}
			}
		}
	}()
}
