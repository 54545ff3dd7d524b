package models

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
	"unicode"

	"yogastore-backend/store"
	"yogastore-backend/utils"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// Record is a read-only view of a stored document with field names folded to
// lower case, so "customerId", "CustomerId" and "customerID" all resolve to
// the same value. Every DTO in this package is decoded through a Record.
type Record struct {
	Key     string
	Version int64
	fields  map[string]gjson.Result
}

func NewRecord(doc store.Document) Record {
	r := Record{Key: doc.Key, Version: doc.Version, fields: map[string]gjson.Result{}}
	raw, err := json.Marshal(doc.Data)
	if err != nil {
		return r
	}
	// Keys arrive sorted, so a canonical "CustomerId" is seen before a legacy
	// "customerId" and wins when both are present.
	gjson.ParseBytes(raw).ForEach(func(key, value gjson.Result) bool {
		name := strings.ToLower(key.String())
		if _, seen := r.fields[name]; !seen {
			r.fields[name] = value
		}
		return true
	})
	return r
}

func (r Record) get(name string) gjson.Result {
	return r.fields[strings.ToLower(name)]
}

func (r Record) Has(name string) bool {
	v := r.get(name)
	return v.Exists() && v.Type != gjson.Null
}

func (r Record) String(name string) string {
	v := r.get(name)
	if v.Type == gjson.Null {
		return ""
	}
	return v.String()
}

// Int reads integers stored either as numbers or as strings with a leading
// number ("45 min").
func (r Record) Int(name string) int64 {
	v := r.get(name)
	switch v.Type {
	case gjson.Number:
		return v.Int()
	case gjson.String:
		return leadingInt(v.Str)
	}
	return 0
}

// Decimal reads money amounts stored as numbers or as strings, with or
// without a currency prefix.
func (r Record) Decimal(name string) decimal.Decimal {
	v := r.get(name)
	switch v.Type {
	case gjson.Number:
		d, err := decimal.NewFromString(v.Raw)
		if err != nil {
			return decimal.NewFromFloat(v.Num)
		}
		return d
	case gjson.String:
		return ParsePrice(v.Str)
	}
	return decimal.Zero
}

func (r Record) Bool(name string) bool {
	return r.get(name).Bool()
}

func (r Record) Time(name string) time.Time {
	t, _ := utils.ParseDate(r.String(name))
	return t
}

// ParsePrice turns a stored price such as "$39.99" into a decimal. Leading
// currency symbols and whitespace are dropped; anything unparseable is zero.
func ParsePrice(s string) decimal.Decimal {
	s = strings.TrimLeftFunc(strings.TrimSpace(s), func(r rune) bool {
		return unicode.Is(unicode.Sc, r) || unicode.IsSpace(r)
	})
	s = strings.ReplaceAll(s, ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FormatPrice renders an amount the way prices are stored.
func FormatPrice(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func leadingInt(s string) int64 {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0
	}
	return n
}
