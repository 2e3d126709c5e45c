package passes

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	kitlog "github.com/go-kit/kit/log"
)

var (
	// ErrInvalidTLE is returned for element sets which cannot be handed to SGP4.
	ErrInvalidTLE = errors.New("invalid TLE")
	// ErrPropagation is returned when SGP4 produces a non finite or absurd state.
	ErrPropagation = errors.New("sgp4 propagation failed")
)

// TLE is a NORAD two-line element set with its name line.
type TLE struct {
	Name    string
	NORADID int
	Epoch   time.Time
	Line1   string
	Line2   string
}

func (t TLE) String() string {
	return fmt.Sprintf("%s (%d) epoch %s", t.Name, t.NORADID, t.Epoch.Format(time.RFC3339))
}

// NewTLE validates the lines and decodes the NORAD ID and the epoch.
func NewTLE(name, line1, line2 string) (TLE, error) {
	line1 = strings.TrimSpace(line1)
	line2 = strings.TrimSpace(line2)
	if err := validateTLELines(line1, line2); err != nil {
		return TLE{}, err
	}
	noradID, err := strconv.Atoi(strings.TrimSpace(line1[2:7]))
	if err != nil {
		return TLE{}, fmt.Errorf("%w: NORAD ID `%s`", ErrInvalidTLE, line1[2:7])
	}
	epoch, err := parseEpoch(strings.TrimSpace(line1[18:32]))
	if err != nil {
		return TLE{}, err
	}
	return TLE{Name: strings.TrimSpace(name), NORADID: noradID, Epoch: epoch, Line1: line1, Line2: line2}, nil
}

// ParseTLE reads 3-line element sets. Malformed entries are skipped with a warning.
func ParseTLE(r io.Reader, logger kitlog.Logger) ([]TLE, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		if line := strings.TrimRight(scanner.Text(), "\r\n "); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading TLE data: %w", err)
	}

	var entries []TLE
	for i := 0; i+2 < len(lines); {
		name, line1, line2 := lines[i], lines[i+1], lines[i+2]
		if !strings.HasPrefix(line1, "1 ") || !strings.HasPrefix(line2, "2 ") {
			// Resynchronize on the next line.
			logger.Log("level", "warning", "subsys", "tle", "message", "skipping malformed entry", "line", i+1, "name", name)
			i++
			continue
		}
		entry, err := NewTLE(name, line1, line2)
		if err != nil {
			logger.Log("level", "warning", "subsys", "tle", "message", "skipping invalid entry", "line", i+1, "name", name, "err", err)
		} else {
			entries = append(entries, entry)
		}
		i += 3
	}
	return entries, nil
}

// validateTLELines checks the format before SGP4 sees the lines, since go-satellite
// calls log.Fatal on parse errors.
func validateTLELines(line1, line2 string) error {
	for i, line := range []string{line1, line2} {
		if len(line) != 69 {
			return fmt.Errorf("%w: line%d length %d, expected 69", ErrInvalidTLE, i+1, len(line))
		}
		if line[0] != byte('1'+i) {
			return fmt.Errorf("%w: line%d must start with '%d'", ErrInvalidTLE, i+1, i+1)
		}
		if sum := checksum(line[:68]); int(line[68]-'0') != sum {
			return fmt.Errorf("%w: line%d checksum %c, expected %d", ErrInvalidTLE, i+1, line[68], sum)
		}
	}
	if line1[2:7] != line2[2:7] {
		return fmt.Errorf("%w: catalog numbers differ", ErrInvalidTLE)
	}
	return nil
}

// checksum is the sum of the digits modulo 10, a minus sign counting as one.
func checksum(s string) int {
	sum := 0
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
			sum += int(c - '0')
		case c == '-':
			sum++
		}
	}
	return sum % 10
}

// parseEpoch converts a TLE epoch in YYDDD.DDDDDDDD format. Years 57-99 are in the 1900s.
func parseEpoch(s string) (time.Time, error) {
	if len(s) < 5 {
		return time.Time{}, fmt.Errorf("%w: epoch `%s` too short", ErrInvalidTLE, s)
	}
	year, err := strconv.Atoi(s[:2])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: epoch year `%s`", ErrInvalidTLE, s[:2])
	}
	if year >= 57 {
		year += 1900
	} else {
		year += 2000
	}
	day, err := strconv.ParseFloat(s[2:], 64)
	if err != nil || day < 1 || day >= 367 {
		return time.Time{}, fmt.Errorf("%w: epoch day `%s`", ErrInvalidTLE, s[2:])
	}
	// Day 1 is January 1st.
	dt := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	return dt.Add(time.Duration((day - 1) * float64(24*time.Hour))), nil
}
