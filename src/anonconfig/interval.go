/*
Copyright (c) YugabyteDB, Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package anonconfig

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	UNIT_SECOND = "second"
	UNIT_MINUTE = "minute"
	UNIT_HOUR   = "hour"
	UNIT_DAY    = "day"
	UNIT_MONTH  = "month"
	UNIT_YEAR   = "year"
)

var unitAliases = map[string]string{
	"s": UNIT_SECOND, "sec": UNIT_SECOND, "second": UNIT_SECOND, "seconds": UNIT_SECOND,
	"min": UNIT_MINUTE, "minute": UNIT_MINUTE, "minutes": UNIT_MINUTE,
	"h": UNIT_HOUR, "hour": UNIT_HOUR, "hours": UNIT_HOUR,
	"d": UNIT_DAY, "day": UNIT_DAY, "days": UNIT_DAY,
	"week": UNIT_DAY, "weeks": UNIT_DAY,
	"month": UNIT_MONTH, "months": UNIT_MONTH,
	"y": UNIT_YEAR, "year": UNIT_YEAR, "years": UNIT_YEAR,
}

// Interval is a single-unit duration such as "3 days" or "2 months".
type Interval struct {
	Amount int64
	Unit   string
}

func (i Interval) IsZero() bool {
	return i.Amount == 0
}

func (i Interval) String() string {
	return fmt.Sprintf("%d %s", i.Amount, i.Unit)
}

// ParseInterval parses "<amount> <unit>". Weeks are converted to days.
func ParseInterval(s string) (Interval, error) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(s)))
	if len(fields) != 2 {
		return Interval{}, fmt.Errorf("invalid interval %q, expected \"<amount> <unit>\"", s)
	}
	amount, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return Interval{}, fmt.Errorf("invalid interval amount %q", fields[0])
	}
	unit, ok := unitAliases[fields[1]]
	if !ok {
		return Interval{}, fmt.Errorf("invalid interval unit %q", fields[1])
	}
	if strings.HasPrefix(fields[1], "week") {
		amount *= 7
	}
	return Interval{Amount: amount, Unit: unit}, nil
}
