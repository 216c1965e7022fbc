package core

import (
	"bufio"
	"context"
	"os"
	"strconv"
	"strings"
	"time"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SessionCounter is satisfied by *RedisSessionStore.
type SessionCounter interface {
	Count(ctx context.Context) (int, error)
}

// SystemStatus is the aggregated health view served on /api/v1/system/status.
type SystemStatus struct {
	Database struct {
		OK bool `json:"ok"`
	} `json:"database"`
	Redis struct {
		OK bool `json:"ok"`
	} `json:"redis"`
	Sessions struct {
		Active int `json:"active"`
	} `json:"sessions"`
	Memory struct {
		UsedBytes  uint64 `json:"used_bytes"`
		TotalBytes uint64 `json:"total_bytes"`
	} `json:"memory"`
	UptimeSeconds int64 `json:"uptime_seconds"`
}

// StatusCollector probes the backing stores. Every probe is best-effort.
type StatusCollector struct {
	db        Pinger
	redis     RedisClientRaw
	sessions  SessionCounter
	startedAt time.Time
}

func NewStatusCollector(db Pinger, redis RedisClientRaw, sessions SessionCounter, startedAt time.Time) *StatusCollector {
	return &StatusCollector{db: db, redis: redis, sessions: sessions, startedAt: startedAt}
}

// Healthy reports whether both Postgres and Redis answer a ping.
func (s *StatusCollector) Healthy(ctx context.Context) bool {
	st := s.Collect(ctx)
	return st.Database.OK && st.Redis.OK
}

// Collect gathers the current status.
func (s *StatusCollector) Collect(ctx context.Context) SystemStatus {
	var st SystemStatus

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if s.db != nil {
		st.Database.OK = s.db.Ping(ctx) == nil
	}
	if s.redis != nil {
		st.Redis.OK = s.redis.Ping(ctx).Err() == nil
	}
	if s.sessions != nil && st.Redis.OK {
		if n, err := s.sessions.Count(ctx); err == nil {
			st.Sessions.Active = n
		}
	}

	used, total := readMemInfo()
	st.Memory.UsedBytes = used
	st.Memory.TotalBytes = total

	if !s.startedAt.IsZero() {
		st.UptimeSeconds = int64(time.Since(s.startedAt).Seconds())
	}
	return st
}

// readMemInfo returns used and total bytes using /proc/meminfo.
// If unavailable, returns zeros.
func readMemInfo() (used, total uint64) {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0, 0
	}
	defer f.Close()
	var memTotal, memAvailable uint64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "MemTotal:") {
			memTotal = parseKiBLine(line)
		} else if strings.HasPrefix(line, "MemAvailable:") {
			memAvailable = parseKiBLine(line)
		}
	}
	if memTotal > 0 {
		total = memTotal * 1024
		if memAvailable <= memTotal {
			used = (memTotal - memAvailable) * 1024
		}
	}
	return used, total
}

func parseKiBLine(line string) uint64 {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0
	}
	v, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return 0
	}
	return v
}
