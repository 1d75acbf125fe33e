package stats

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"myfinance/internal/core"
)

var ErrInvalidWindow = errors.New("invalid window")

// Kind is the granularity of a Window.
type Kind int

const (
	KindDay Kind = iota
	KindMonth
	KindYear
)

func (k Kind) String() string {
	switch k {
	case KindDay:
		return "day"
	case KindMonth:
		return "month"
	case KindYear:
		return "year"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Window scopes an aggregation to a day, a month or a whole year.
type Window struct {
	Kind  Kind
	Year  int
	Month int
	Day   int
}

func Day(d core.Date) Window {
	return Window{Kind: KindDay, Year: d.Year(), Month: d.Month(), Day: d.Day()}
}

func Month(year, month int) Window {
	return Window{Kind: KindMonth, Year: year, Month: month}
}

func Year(year int) Window {
	return Window{Kind: KindYear, Year: year}
}

// ParseWindow accepts YYYY-MM-DD, YYYY-MM or YYYY.
func ParseWindow(s string) (Window, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, "-")
	nums := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Window{}, fmt.Errorf("%w: %q", ErrInvalidWindow, s)
		}
		nums = append(nums, n)
	}

	var w Window
	switch len(nums) {
	case 1:
		w = Year(nums[0])
	case 2:
		w = Month(nums[0], nums[1])
	case 3:
		w = Window{Kind: KindDay, Year: nums[0], Month: nums[1], Day: nums[2]}
	default:
		return Window{}, fmt.Errorf("%w: %q", ErrInvalidWindow, s)
	}
	if err := w.Validate(); err != nil {
		return Window{}, err
	}
	return w, nil
}

func (w Window) Validate() error {
	if w.Year < 1 || w.Year > 9999 {
		return fmt.Errorf("%w: year %d", ErrInvalidWindow, w.Year)
	}
	switch w.Kind {
	case KindYear:
		return nil
	case KindMonth, KindDay:
	default:
		return fmt.Errorf("%w: kind %s", ErrInvalidWindow, w.Kind)
	}
	if w.Month < 1 || w.Month > 12 {
		return fmt.Errorf("%w: month %d", ErrInvalidWindow, w.Month)
	}
	if w.Kind == KindDay {
		// time.Date normalizes out-of-range days into the next month.
		t := time.Date(w.Year, time.Month(w.Month), w.Day, 0, 0, 0, 0, time.UTC)
		if w.Day < 1 || t.Day() != w.Day {
			return fmt.Errorf("%w: day %d", ErrInvalidWindow, w.Day)
		}
	}
	return nil
}

// Date returns the day of a KindDay window.
func (w Window) Date() core.Date {
	return core.NewDate(w.Year, w.Month, w.Day)
}

// Contains reports whether d falls inside the window.
func (w Window) Contains(d core.Date) bool {
	switch w.Kind {
	case KindDay:
		return d.Year() == w.Year && d.Month() == w.Month && d.Day() == w.Day
	case KindMonth:
		return d.Year() == w.Year && d.Month() == w.Month
	case KindYear:
		return d.Year() == w.Year
	}
	return false
}

func (w Window) String() string {
	switch w.Kind {
	case KindDay:
		return fmt.Sprintf("%04d-%02d-%02d", w.Year, w.Month, w.Day)
	case KindMonth:
		return fmt.Sprintf("%04d-%02d", w.Year, w.Month)
	default:
		return fmt.Sprintf("%04d", w.Year)
	}
}
