package app

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

/********** payload lookups **********/

// lookupAny walks a dot path through nested maps; nil when any hop is missing.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupStr returns string at path or "".
func lookupStr(m map[string]any, path string) string {
	if v := lookupAny(m, path); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// lookupText is lookupStr that also renders numeric ids (TripAdvisor locationId).
func lookupText(m map[string]any, path string) string {
	switch v := lookupAny(m, path).(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	}
	return ""
}

// firstNonEmptyAlias tries each path registered under key, in order.
func firstNonEmptyAlias(m map[string]any, aliases map[string][]string, key string) *string {
	for _, p := range aliases[key] {
		if s := lookupText(m, p); s != "" {
			return &s
		}
	}
	return nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func joinNonEmpty(parts ...string) string {
	var out []string
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return strings.Join(out, " ")
}

// getFloatFlexible: finite number from several paths (float64/int/string like "4,5").
func getFloatFlexible(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		var f float64
		switch v := lookupAny(m, k).(type) {
		case float64:
			f = v
		case int:
			f = float64(v)
		case int64:
			f = float64(v)
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			n, err := strconv.ParseFloat(s, 64)
			if err != nil {
				continue
			}
			f = n
		default:
			continue
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		return &f
	}
	return nil
}

// firstInt64Flexible reads a count from several paths (float64/int/string like "1.234").
func firstInt64Flexible(m map[string]any, paths ...string) *int64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			x := int64(v)
			return &x
		case int:
			x := int64(v)
			return &x
		case int64:
			x := v
			return &x
		case string:
			s := strings.TrimSpace(strings.NewReplacer(".", "", ",", "").Replace(v))
			if s == "" {
				continue
			}
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				return &n
			}
		}
	}
	return nil
}

// lookupBool reads a boolean flag (Google open_now, crawler openNow).
func lookupBool(m map[string]any, paths ...string) *bool {
	for _, k := range paths {
		if b, ok := lookupAny(m, k).(bool); ok {
			return &b
		}
	}
	return nil
}

// sliceStrings: accept []any with either strings or {url/src/name/text}.
func sliceStrings(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			return []string{strings.TrimSpace(s)}
		}
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, it := range raw {
		switch t := it.(type) {
		case string:
			if t = strings.TrimSpace(t); t != "" {
				out = append(out, t)
			}
		case map[string]any:
			for _, k := range []string{"url", "src", "name", "text"} {
				if u, ok := t[k].(string); ok && strings.TrimSpace(u) != "" {
					out = append(out, strings.TrimSpace(u))
					break
				}
			}
		}
	}
	return out
}

// firstSliceStrings returns the first non-empty list among paths.
func firstSliceStrings(m map[string]any, paths ...string) []string {
	for _, k := range paths {
		if out := sliceStrings(lookupAny(m, k)); len(out) > 0 {
			return out
		}
	}
	return nil
}

// collectStrings unions every list and scalar found at paths, first seen
// first; limit <= 0 means no cap.
func collectStrings(m map[string]any, limit int, paths ...string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, k := range paths {
		for _, s := range sliceStrings(lookupAny(m, k)) {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
			if limit > 0 && len(out) == limit {
				return out
			}
		}
	}
	return out
}

// pluck reads key from every object of the list at path (review snippets).
func pluck(m map[string]any, path, key string, limit int) []string {
	raw, _ := lookupAny(m, path).([]any)
	var out []string
	for _, it := range raw {
		obj, ok := it.(map[string]any)
		if !ok {
			continue
		}
		if s := strings.TrimSpace(lookupStr(obj, key)); s != "" {
			out = append(out, s)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out
}

/********** price **********/

var priceLevelNames = map[string]int{
	"FREE":           0,
	"INEXPENSIVE":    1,
	"MODERATE":       2,
	"EXPENSIVE":      3,
	"VERY_EXPENSIVE": 4,
}

// ParsePriceLevel reads a provider price marker: a named level (with or
// without the PRICE_LEVEL_ prefix), a run of "$", or a number. Result is
// clamped to 0..4; anything unreadable is 0.
func ParsePriceLevel(v any) int {
	var n int
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0
		}
		n = int(t)
	case int:
		n = t
	case int64:
		n = int(t)
	case string:
		s := strings.ToUpper(strings.TrimSpace(t))
		if s == "" {
			return 0
		}
		if lvl, ok := priceLevelNames[strings.TrimPrefix(s, "PRICE_LEVEL_")]; ok {
			return lvl
		}
		if c := strings.Count(s, "$"); c > 0 {
			n = c
		} else if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			n = int(f)
		}
	}
	return min(max(n, 0), 4)
}

// PriceText renders a level as "$".."$$$$"; 0 renders empty.
func PriceText(level int) string {
	if level <= 0 {
		return ""
	}
	return strings.Repeat("$", min(level, 4))
}

/********** hours **********/

var weekdaysPT = map[string]string{
	"monday":    "Segunda",
	"tuesday":   "Terça",
	"wednesday": "Quarta",
	"thursday":  "Quinta",
	"friday":    "Sexta",
	"saturday":  "Sábado",
	"sunday":    "Domingo",
}

func translateDay(day string) string {
	if pt, ok := weekdaysPT[strings.ToLower(strings.TrimSpace(day))]; ok {
		return pt
	}
	return strings.TrimSpace(day)
}

// hoursFrom accepts either plain strings or {day, hours} rows and renders
// rows as "Segunda: 11:00-23:00".
func hoursFrom(m map[string]any, paths ...string) []string {
	for _, k := range paths {
		raw, ok := lookupAny(m, k).([]any)
		if !ok || len(raw) == 0 {
			continue
		}
		out := make([]string, 0, len(raw))
		for _, it := range raw {
			switch t := it.(type) {
			case string:
				if t = strings.TrimSpace(t); t != "" {
					out = append(out, t)
				}
			case map[string]any:
				day, hours := lookupStr(t, "day"), lookupStr(t, "hours")
				if day == "" && hours == "" {
					continue
				}
				if day == "" {
					out = append(out, hours)
					continue
				}
				out = append(out, fmt.Sprintf("%s: %s", translateDay(day), strings.TrimSpace(hours)))
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}
