// internal/health/health.go
package health

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tamzrod/mdc-controller/internal/executor"
)

// Overall is the three-tier health classification plus ERROR for a check
// that could not run to completion.
type Overall string

const (
	Unknown  Overall = "UNKNOWN"
	Healthy  Overall = "HEALTHY"
	Warning  Overall = "WARNING"
	Critical Overall = "CRITICAL"
	Errored  Overall = "ERROR"
)

// TempStatus classifies a temperature reading.
type TempStatus string

const (
	TempNormal      TempStatus = "NORMAL"
	TempWarning     TempStatus = "WARNING"
	TempCritical    TempStatus = "CRITICAL"
	TempUnavailable TempStatus = "UNAVAILABLE"
)

// Thresholds in degrees Celsius.
const (
	TempWarnAt     = 60
	TempCriticalAt = 70
)

// Issue texts.
const (
	IssueConnectionFailed   = "Connection failed"
	IssuePowerCheckFailed   = "Power status check failed"
	issueHighTemperatureFmt = "High temperature: %d°C"
)

type Connection struct {
	Status     string    `json:"status"` // connected | failed
	ErrorCount int       `json:"error_count"`
	LastSeen   time.Time `json:"last_seen,omitempty"`
}

type Power struct {
	Status     string `json:"status"` // on | off | unknown
	Responsive bool   `json:"responsive"`
	Error      string `json:"error,omitempty"`
}

type Temperature struct {
	Value  *int       `json:"value,omitempty"`
	Status TempStatus `json:"status"`
	Unit   string     `json:"unit,omitempty"`
}

// SystemInfo is fetched best-effort. Missing names the fields that could not be read.
type SystemInfo struct {
	SerialNumber    string   `json:"serial_number,omitempty"`
	ModelNumber     string   `json:"model_number,omitempty"`
	SoftwareVersion string   `json:"software_version,omitempty"`
	Missing         []string `json:"missing,omitempty"`
}

// Report is the result of one health check. Built fresh each time.
type Report struct {
	RunID       string      `json:"run_id"`
	DisplayID   uint8       `json:"display_id"`
	Name        string      `json:"name"`
	CheckedAt   time.Time   `json:"checked_at"`
	Connection  Connection  `json:"connection"`
	Power       Power       `json:"power"`
	Temperature Temperature `json:"temperature"`
	SystemInfo  SystemInfo  `json:"system_info"`
	Issues      []string    `json:"issues"`
	Overall     Overall     `json:"overall_health"`
	Error       string      `json:"error,omitempty"`
}

// ClassifyTemperature maps a reading to NORMAL (<60), WARNING (60-69) or CRITICAL (>=70).
func ClassifyTemperature(c int) TempStatus {
	switch {
	case c >= TempCriticalAt:
		return TempCritical
	case c >= TempWarnAt:
		return TempWarning
	default:
		return TempNormal
	}
}

// Classify derives the overall health from the issue list.
// No issues is HEALTHY; an issue mentioning "critical" or "failed" is CRITICAL;
// anything else is WARNING.
func Classify(issues []string) Overall {
	if len(issues) == 0 {
		return Healthy
	}
	for _, is := range issues {
		l := strings.ToLower(is)
		if strings.Contains(l, "critical") || strings.Contains(l, "failed") {
			return Critical
		}
	}
	return Warning
}

// CheckHealth runs the diagnostic sequence against one display.
// Commands go through the display's executor, so they never overlap with
// other commands for the same display.
func CheckHealth(ctx context.Context, ex *executor.Executor) (rep Report) {
	ep := ex.Endpoint()
	rep = Report{
		RunID:       uuid.NewString(),
		DisplayID:   ep.ID,
		Name:        ep.Name,
		CheckedAt:   time.Now(),
		Connection:  Connection{Status: "unknown"},
		Power:       Power{Status: "unknown"},
		Temperature: Temperature{Status: TempUnavailable},
		Issues:      []string{},
		Overall:     Unknown,
	}

	defer func() {
		if r := recover(); r != nil {
			rep.Overall = Errored
			rep.Error = fmt.Sprint(r)
		}
	}()

	// 1. connectivity
	connErr := ex.Connect(ctx)
	st := ex.Status()
	rep.Connection = Connection{
		Status:     "connected",
		ErrorCount: st.ErrorCount,
		LastSeen:   st.LastSeen,
	}
	if connErr != nil {
		rep.Connection.Status = "failed"
		rep.Issues = append(rep.Issues, IssueConnectionFailed)
		rep.Overall = Critical
		return rep
	}

	// 2. power
	on, err := ex.PowerStatus(ctx)
	if err != nil {
		rep.Power.Error = err.Error()
		rep.Issues = append(rep.Issues, IssuePowerCheckFailed)
	} else {
		rep.Power = Power{Status: "off", Responsive: true}
		if on {
			rep.Power.Status = "on"
		}
	}

	// 3. temperature
	if c, err := ex.Temperature(ctx); err == nil {
		rep.Temperature = Temperature{Value: &c, Status: ClassifyTemperature(c), Unit: "celsius"}
		if c >= TempCriticalAt {
			rep.Issues = append(rep.Issues, fmt.Sprintf(issueHighTemperatureFmt, c))
		}
	}

	// 4. system info, gaps are not issues
	info := &rep.SystemInfo
	if v, err := ex.SerialNumber(ctx); err == nil {
		info.SerialNumber = v
	} else {
		info.Missing = append(info.Missing, "serial_number")
	}
	if v, err := ex.ModelNumber(ctx); err == nil {
		info.ModelNumber = v
	} else {
		info.Missing = append(info.Missing, "model_number")
	}
	if v, err := ex.SoftwareVersion(ctx); err == nil {
		info.SoftwareVersion = v
	} else {
		info.Missing = append(info.Missing, "software_version")
	}

	if err := ctx.Err(); err != nil {
		rep.Overall = Errored
		rep.Error = err.Error()
		return rep
	}

	rep.Overall = Classify(rep.Issues)
	return rep
}
