package server

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ahmethakanbesel/countervalues/internal/apperror"
	"github.com/ahmethakanbesel/countervalues/internal/countervalue"
)

const maxBatchPoints = 1000

// ConvertRequest is a single conversion. Value is in the smallest unit of
// From; a zero Date asks for the latest rate.
type ConvertRequest struct {
	From            string
	To              string
	Value           float64
	Date            time.Time
	DisableRounding bool
}

func (r ConvertRequest) Validate() *apperror.AppError {
	if r.From == "" || r.To == "" {
		return apperror.New(apperror.BadRequest, "from and to are required")
	}
	if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
		return apperror.New(apperror.BadRequest, "value must be a finite number")
	}
	return nil
}

type BatchRequest struct {
	From   string                   `json:"-"`
	To     string                   `json:"-"`
	Points []countervalue.DataPoint `json:"points"`
}

func (r BatchRequest) Validate() *apperror.AppError {
	if r.From == "" || r.To == "" {
		return apperror.New(apperror.BadRequest, "from and to are required")
	}
	if len(r.Points) == 0 {
		return apperror.New(apperror.BadRequest, "points cannot be empty")
	}
	if len(r.Points) > maxBatchPoints {
		return apperror.New(apperror.BadRequest, fmt.Sprintf("at most %d points per request", maxBatchPoints))
	}
	return nil
}

// parseDate accepts YYYY-MM-DD, YYYY-MM-DDTHH (an hour key) or RFC3339. An
// empty string is the zero time.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.DateOnly, "2006-01-02T15", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD or RFC3339", s)
}

func parseBool(s string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(s))
	return b
}
