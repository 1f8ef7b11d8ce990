package handler

import (
	"bufio"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/formbuilder/internal/config"
	"github.com/stemsi/formbuilder/internal/forest"
	"github.com/stemsi/formbuilder/internal/service"
)

// SystemHandler reports liveness together with a few runtime figures.
type SystemHandler struct {
	questionService *service.QuestionService
	storageDriver   string
	startTime       time.Time
}

func NewSystemHandler(questionService *service.QuestionService, cfg *config.Config) *SystemHandler {
	return &SystemHandler{
		questionService: questionService,
		storageDriver:   cfg.StorageDriver,
		startTime:       time.Now(),
	}
}

type healthStatus struct {
	Status      string `json:"status"`
	Uptime      string `json:"uptime"`
	Storage     string `json:"storage"`
	Questions   int    `json:"questions"`
	Submitted   bool   `json:"submitted"`
	Goroutines  int    `json:"goroutines"`
	HeapAlloc   uint64 `json:"heap_alloc"`
	AppRSSBytes uint64 `json:"app_rss_bytes,omitempty"`
	GoVersion   string `json:"go_version"`
}

// Health godoc
// GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	s := healthStatus{
		Status:     "ok",
		Uptime:     formatDuration(time.Since(h.startTime)),
		Storage:    h.storageDriver,
		Questions:  forest.Count(h.questionService.Questions()),
		Submitted:  h.questionService.Submitted() != nil,
		Goroutines: runtime.NumGoroutine(),
		HeapAlloc:  ms.HeapAlloc,
		GoVersion:  runtime.Version(),
	}
	s.AppRSSBytes, _ = readProcessRSS()

	c.JSON(http.StatusOK, s)
}

// readProcessRSS reads VmRSS from /proc/self/status. Not available off Linux.
func readProcessRSS() (uint64, error) {
	f, err := os.Open("/proc/self/status")
	if err != nil {
		return 0, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "VmRSS:") {
			continue
		}
		// Format: "VmRSS:     10240 kB"
		fields := strings.Fields(line)
		if len(fields) < 2 {
			break
		}
		kb, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return 0, err
		}
		return kb * 1024, nil
	}
	return 0, fmt.Errorf("VmRSS not found")
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}
