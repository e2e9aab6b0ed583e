package services

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// maxLogEntries を超えた古いログは捨てる
const maxLogEntries = 10000

// LogEntry は単一のリクエストログを表します。
type LogEntry struct {
	Timestamp    time.Time     `json:"timestamp"`
	Path         string        `json:"path"`
	Method       string        `json:"method"`
	StatusCode   int           `json:"status_code"`
	ResponseTime time.Duration `json:"response_time_ns"`
}

// MonitoringService はAPIリクエストをメモリ上に記録し、集計します。
type MonitoringService struct {
	logs     []LogEntry
	location *time.Location
	now      func() time.Time
	mu       sync.RWMutex
}

// NewMonitoringService は新しいMonitoringServiceを生成します。時刻はインド標準時で集計します。
func NewMonitoringService() *MonitoringService {
	ist, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		// tzdata がない環境では固定オフセットで代用
		ist = time.FixedZone("IST", 5*60*60+30*60)
	}
	return &MonitoringService{
		logs:     make([]LogEntry, 0),
		location: ist,
		now:      time.Now,
	}
}

// LogRequest はリクエストを記録します。
func (s *MonitoringService) LogRequest(entry LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, entry)
	if len(s.logs) > maxLogEntries {
		s.logs = append(s.logs[:0:0], s.logs[len(s.logs)-maxLogEntries:]...)
	}
}

// LoggingMiddleware はリクエスト情報を記録するGinミドルウェアです。
// 管理系とモニタリング自身のリクエストは記録しません。
func (s *MonitoringService) LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := s.now()
		c.Next()

		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/api/v1/admin") || strings.HasPrefix(path, "/api/v1/monitoring") {
			return
		}

		// セッションIDごとにエンドポイントが分かれないようルート定義で集計する
		if route := c.FullPath(); route != "" {
			path = route
		}

		s.LogRequest(LogEntry{
			Timestamp:    start,
			Path:         path,
			Method:       c.Request.Method,
			StatusCode:   c.Writer.Status(),
			ResponseTime: s.now().Sub(start),
		})
	}
}

// ParsePeriod は "1h", "24h", "7d" 形式の期間を時間数に変換します。
func ParsePeriod(period string) (int, error) {
	switch period {
	case "", "24h":
		return 24, nil
	case "1h":
		return 1, nil
	case "7d":
		return 7 * 24, nil
	}
	return 0, fmt.Errorf("unsupported period %q (use 1h, 24h or 7d): %w", period, ErrInvalidRange)
}

// HourlyCount 1時間ごとのリクエスト数
type HourlyCount struct {
	Time     string `json:"time"`
	Requests int    `json:"requests"`
}

// StatusCount ステータスクラスごとの件数
type StatusCount struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// EndpointLatency エンドポイントごとの平均応答時間（ミリ秒）
type EndpointLatency struct {
	Endpoint     string `json:"endpoint"`
	ResponseTime int64  `json:"responseTime"`
}

// DashboardData はモニタリング画面に表示するための集計済みデータです。
type DashboardData struct {
	RequestsOverTime []HourlyCount     `json:"requestsOverTime"`
	Endpoints        map[string]int    `json:"endpoints"`
	StatusCodes      []StatusCount     `json:"statusCodes"`
	AvgResponseTimes []EndpointLatency `json:"avgResponseTimes"`
	RecentErrors     []LogEntry        `json:"recentErrors"`
}

var statusClasses = []string{"2xx Success", "4xx Client Error", "5xx Server Error"}

// GetDashboardData は直近 periodHours 時間のログを集計します。
func (s *MonitoringService) GetDashboardData(periodHours int) DashboardData {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now().In(s.location)
	since := now.Add(-time.Duration(periodHours) * time.Hour)

	recent := make([]LogEntry, 0)
	for _, entry := range s.logs {
		if entry.Timestamp.After(since) {
			recent = append(recent, entry)
		}
	}

	// 古い時間から順に1時間ごとのバケットを用意
	overTime := make([]HourlyCount, periodHours)
	bucketIndex := make(map[time.Time]int, periodHours)
	for i := 0; i < periodHours; i++ {
		hour := startOfHour(now.Add(-time.Duration(periodHours-1-i) * time.Hour))
		overTime[i] = HourlyCount{Time: hour.Format("01/02 15:00")}
		bucketIndex[hour] = i
	}

	endpoints := make(map[string]int)
	statusCounts := make(map[string]int, len(statusClasses))
	latencySum := make(map[string]time.Duration)
	for _, entry := range recent {
		if i, ok := bucketIndex[startOfHour(entry.Timestamp.In(s.location))]; ok {
			overTime[i].Requests++
		}
		endpoints[entry.Path]++
		latencySum[entry.Path] += entry.ResponseTime

		switch {
		case entry.StatusCode >= 500:
			statusCounts[statusClasses[2]]++
		case entry.StatusCode >= 400:
			statusCounts[statusClasses[1]]++
		case entry.StatusCode >= 200 && entry.StatusCode < 300:
			statusCounts[statusClasses[0]]++
		}
	}

	statuses := make([]StatusCount, len(statusClasses))
	for i, name := range statusClasses {
		statuses[i] = StatusCount{Name: name, Value: statusCounts[name]}
	}

	latencies := make([]EndpointLatency, 0, len(latencySum))
	for path, total := range latencySum {
		latencies = append(latencies, EndpointLatency{
			Endpoint:     path,
			ResponseTime: total.Milliseconds() / int64(endpoints[path]),
		})
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i].Endpoint < latencies[j].Endpoint })

	recentErrors := make([]LogEntry, 0)
	for i := len(recent) - 1; i >= 0 && len(recentErrors) < 10; i-- {
		if recent[i].StatusCode >= 500 {
			recentErrors = append(recentErrors, recent[i])
		}
	}

	return DashboardData{
		RequestsOverTime: overTime,
		Endpoints:        endpoints,
		StatusCodes:      statuses,
		AvgResponseTimes: latencies,
		RecentErrors:     recentErrors,
	}
}

// startOfHour はその地域の時刻での正時を返します（IST は UTC+5:30 のため Truncate は使えない）。
func startOfHour(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
}
