package monitoring

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	ws "github.com/paymybuddy/paymybuddy-be/internal/websocket"
)

// HostStats is a snapshot of the host the service is running on.
type HostStats struct {
	CPUPercent    float64   `json:"cpuPercent"`
	MemoryPercent float64   `json:"memoryPercent"`
	MemoryUsedMB  uint64    `json:"memoryUsedMb"`
	MemoryTotalMB uint64    `json:"memoryTotalMb"`
	SampledAt     time.Time `json:"sampledAt"`
}

// HealthMonitor periodically samples host CPU and memory usage, keeps the
// latest snapshot for the system stats endpoint and pushes updates to global
// websocket subscribers.
type HealthMonitor struct {
	hub    *ws.Hub
	ticker *time.Ticker
	done   chan bool

	mu     sync.RWMutex
	latest HostStats
}

// NewHealthMonitor creates a new HealthMonitor.
func NewHealthMonitor(hub *ws.Hub) *HealthMonitor {
	return &HealthMonitor{
		hub:  hub,
		done: make(chan bool),
	}
}

// Run starts the periodic sampling.
func (m *HealthMonitor) Run() {
	log.Info().Msg("Starting host health monitor...")
	m.ticker = time.NewTicker(30 * time.Second)
	defer m.ticker.Stop()

	// Sample once immediately on start
	m.sample()

	for {
		select {
		case <-m.done:
			log.Info().Msg("Stopping host health monitor.")
			return
		case <-m.ticker.C:
			m.sample()
		}
	}
}

// Stop halts the periodic sampling.
func (m *HealthMonitor) Stop() {
	m.done <- true
}

// Latest returns the most recent snapshot.
func (m *HealthMonitor) Latest() HostStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest
}

func (m *HealthMonitor) sample() {
	stats := HostStats{SampledAt: time.Now()}

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		stats.CPUPercent = percents[0]
	} else if err != nil {
		log.Warn().Err(err).Msg("HealthMonitor: Failed to sample CPU usage")
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		stats.MemoryPercent = vm.UsedPercent
		stats.MemoryUsedMB = vm.Used / 1024 / 1024
		stats.MemoryTotalMB = vm.Total / 1024 / 1024
	} else {
		log.Warn().Err(err).Msg("HealthMonitor: Failed to sample memory usage")
	}

	m.mu.Lock()
	m.latest = stats
	m.mu.Unlock()

	if m.hub != nil {
		if payload, err := json.Marshal(ws.Message{Action: "system.stats", Payload: stats}); err == nil {
			m.hub.Broadcast <- payload
		}
	}
}
