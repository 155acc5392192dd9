package command

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// timePattern はコマンドテキストから時刻（HH:MM）を抽出するパターン。
var timePattern = regexp.MustCompile(`(\d{1,2}):(\d{2})`)

// parseRepeatTime はRepeatコマンドのテキストから時刻を抽出する。
//
// 抽出できない場合は found=false。時刻として不正な場合（時>23、分>59）は
// valid=false。am/pm表記は12時間表記として補正する。
func parseRepeatTime(text string) (hour, minute int, found, valid bool) {
	match := timePattern.FindStringSubmatch(text)
	if match == nil {
		return 0, 0, false, false
	}

	hour, _ = strconv.Atoi(match[1])
	minute, _ = strconv.Atoi(match[2])

	lower := strings.ToLower(text)
	if strings.Contains(lower, "pm") && hour < 12 {
		hour += 12
	} else if strings.Contains(lower, "am") && hour == 12 {
		hour = 0
	}

	if hour > 23 || minute > 59 {
		return 0, 0, true, false
	}
	return hour, minute, true, true
}

// isFutureToday は当日の指定時刻がnowより厳密に未来かを判定する。
// now以前（同時刻含む）はfalse。
func isFutureToday(now time.Time, hour, minute int) bool {
	target := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	return target.After(now)
}
