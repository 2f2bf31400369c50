package cookies

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseJSON reads cookies in the JSON array format produced by browser
// DevTools and extensions like EditThisCookie. Unknown fields are
// ignored.
func ParseJSON(r io.Reader) ([]Cookie, error) {
	var cs []Cookie
	if err := json.NewDecoder(r).Decode(&cs); err != nil {
		return nil, fmt.Errorf("invalid cookie JSON: %w", err)
	}
	if len(cs) == 0 {
		return nil, fmt.Errorf("no cookies in input")
	}
	for i, c := range cs {
		if c.Name == "" {
			return nil, fmt.Errorf("cookie %d has no name", i)
		}
	}
	return cs, nil
}

// ParseNetscape reads the cookies.txt format: seven tab-separated
// fields per line (domain, include-subdomains, path, secure, expires,
// name, value). Comments and blank lines are skipped.
func ParseNetscape(r io.Reader) ([]Cookie, error) {
	var cs []Cookie
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.Split(text, "\t")
		if len(fields) < 7 {
			return nil, fmt.Errorf("line %d: expected 7 tab-separated fields, got %d", line, len(fields))
		}

		expires, err := strconv.ParseFloat(fields[4], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid expiry %q", line, fields[4])
		}

		cs = append(cs, Cookie{
			Domain:  fields[0],
			Path:    fields[2],
			Secure:  strings.EqualFold(fields[3], "TRUE"),
			Expires: expires,
			Name:    fields[5],
			Value:   fields[6],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(cs) == 0 {
		return nil, fmt.Errorf("no cookies in input")
	}
	return cs, nil
}

// MaxExpiry returns the latest cookie expiry as a unix timestamp, or 0
// when no cookie carries one.
func MaxExpiry(cs []Cookie) float64 {
	max := 0.0
	for _, c := range cs {
		if c.Expires > max {
			max = c.Expires
		}
	}
	return max
}
