package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"tourism-dashboard-api/pkg/models"
	"tourism-dashboard-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// statusFor はサービス層のエラーを HTTP ステータスに対応付けます。
func statusFor(err error) int {
	var cfgErr *services.ConfigurationError
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInvalidRange),
		errors.Is(err, services.ErrLengthMismatch),
		errors.As(err, &cfgErr):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrInsufficientData),
		errors.Is(err, services.ErrDivisionByZero):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// respondError は {"success": false, "error": ...} を返します。
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("❌ %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"success": false, "error": err.Error()})
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

// splitList parses "a, b,c" into its non-empty trimmed parts.
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseIntList(name, value string) ([]int, error) {
	parts := splitList(value)
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("%s must be a comma separated list of integers, got %q: %w", name, p, services.ErrInvalidRange)
		}
		out = append(out, n)
	}
	return out, nil
}

// queryInt は整数のクエリパラメータを読みます。未指定なら def を返します。
func queryInt(c *gin.Context, name string, def int) (int, error) {
	value := strings.TrimSpace(c.Query(name))
	if value == "" {
		return def, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q: %w", name, value, services.ErrInvalidRange)
	}
	return n, nil
}

// parseMonths は months クエリを読み、1-12 以外の月を拒否します。
func parseMonths(c *gin.Context) ([]int, error) {
	months, err := parseIntList("months", c.Query("months"))
	if err != nil {
		return nil, err
	}
	for _, m := range months {
		if m < 1 || m > 12 {
			return nil, fmt.Errorf("month %d is outside 1-12: %w", m, services.ErrInvalidRange)
		}
	}
	return months, nil
}

// parseFilter は year, regions, months, entities のクエリからフィルターを作ります。
func parseFilter(c *gin.Context) (models.RecordFilter, error) {
	var filter models.RecordFilter

	years, err := parseIntList("year", c.Query("year"))
	if err != nil {
		return filter, err
	}
	months, err := parseMonths(c)
	if err != nil {
		return filter, err
	}

	filter.Years = years
	filter.Months = months
	filter.Regions = splitList(c.Query("regions"))
	filter.Entities = splitList(c.Query("entities"))
	return filter, nil
}

// parseSelection はダッシュボード系の単一年の選択（year, regions, months, entity）を読みます。
func parseSelection(c *gin.Context) (services.DashboardQuery, error) {
	var q services.DashboardQuery

	year, err := queryInt(c, "year", 0)
	if err != nil {
		return q, err
	}
	horizon, err := queryInt(c, "horizon", 0)
	if err != nil {
		return q, err
	}
	months, err := parseMonths(c)
	if err != nil {
		return q, err
	}

	q.Year = year
	q.Horizon = horizon
	q.Months = months
	q.Regions = splitList(c.Query("regions"))
	q.Entity = strings.TrimSpace(c.Query("entity"))
	return q, nil
}
