package httpapi

import (
	"net/http"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

type healthResponse struct {
	Status         string  `json:"status"`
	UptimeSeconds  float64 `json:"uptime_seconds"`
	OnlineSessions int     `json:"online_sessions"`
	RAMBytes       uint64  `json:"ram_bytes"`
	CPUPercent     float64 `json:"cpu_percent"`
}

// Health reports liveness plus process self-stats for operators.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:         "ok",
		UptimeSeconds:  time.Since(h.startedAt).Seconds(),
		OnlineSessions: h.sessions.Count(),
	}

	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if memInfo, err := p.MemoryInfo(); err == nil {
			resp.RAMBytes = memInfo.RSS
		}
		if cpuPercent, err := p.CPUPercent(); err == nil {
			resp.CPUPercent = cpuPercent
		}
	}

	h.JSON(w, http.StatusOK, resp)
}
