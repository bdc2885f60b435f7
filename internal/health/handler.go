package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/response"
)

const pingTimeout = 3 * time.Second

// Pinger is satisfied by *sql.DB and *sqlx.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Memory struct {
	Used  uint64 `json:"used"`
	Total uint64 `json:"total"`
	Unit  string `json:"unit"`
}

type Status struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    float64   `json:"uptime,omitempty"`
	Database  string    `json:"database"`
	Memory    *Memory   `json:"memory,omitempty"`
	Error     string    `json:"error,omitempty"`
}

type Handler struct {
	db      Pinger
	started time.Time
	logger  *zap.SugaredLogger
	now     func() time.Time
}

func NewHandler(db Pinger, logger *zap.SugaredLogger) *Handler {
	return &Handler{db: db, started: time.Now(), logger: logger, now: time.Now}
}

// Check handles GET /health.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	now := h.now()
	if err := h.db.PingContext(ctx); err != nil {
		h.logger.Warnw("health check failed", "err", err)
		response.JSON(w, http.StatusServiceUnavailable, response.Envelope{
			Success: false,
			Message: "System is unhealthy",
			Data: Status{
				Status:    "DOWN",
				Timestamp: now,
				Database:  "Disconnected",
				Error:     err.Error(),
			},
		})
		return
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	response.Send(w, http.StatusOK, "System is healthy", Status{
		Status:    "UP",
		Timestamp: now,
		Uptime:    now.Sub(h.started).Seconds(),
		Database:  "Connected",
		Memory:    heapMemory(&ms),
	})
}

// heapMemory reports heap usage against the heap the runtime reserved.
func heapMemory(ms *runtime.MemStats) *Memory {
	return &Memory{
		Used:  ms.HeapAlloc / 1024 / 1024,
		Total: ms.HeapSys / 1024 / 1024,
		Unit:  "MB",
	}
}
