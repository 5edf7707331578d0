package scheduler

import (
	"sort"
	"strconv"
	"strings"
)

// defaultReminderDays используется, когда настройка пуста или не содержит ни одного числа
var defaultReminderDays = []int{3, 1}

// ParseReminderDays разбирает список вида "3,1". Нечисловые и отрицательные
// значения отбрасываются, повторы схлопываются, порядок - по убыванию.
func ParseReminderDays(value string) []int {
	seen := make(map[int]bool)
	var days []int
	for _, part := range strings.Split(value, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 || seen[n] {
			continue
		}
		seen[n] = true
		days = append(days, n)
	}
	if len(days) == 0 {
		return append([]int(nil), defaultReminderDays...)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(days)))
	return days
}
