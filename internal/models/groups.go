package models

import (
	"fmt"
	"time"
)

// GroupLabel identifies a time bucket in the conversation sidebar.
type GroupLabel string

// Sidebar bucket labels, oldest last.
const (
	GroupToday          GroupLabel = "Today"
	GroupYesterday      GroupLabel = "Yesterday"
	GroupPrevious7Days  GroupLabel = "Previous 7 Days"
	GroupPrevious30Days GroupLabel = "Previous 30 Days"
	GroupOlder          GroupLabel = "Older"
)

// GroupOrder is the display order of the sidebar buckets.
var GroupOrder = []GroupLabel{
	GroupToday,
	GroupYesterday,
	GroupPrevious7Days,
	GroupPrevious30Days,
	GroupOlder,
}

// GroupByDate buckets conversations by UpdatedAt relative to now,
// preserving the input order within each bucket. Day boundaries are local
// midnight, matching what a user expects from "Today" and "Yesterday".
func GroupByDate(conversations []Conversation, now time.Time) map[GroupLabel][]Conversation {
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).UnixMilli()
	const day = int64(24 * time.Hour / time.Millisecond)
	yesterdayStart := todayStart - day
	sevenDaysAgo := todayStart - 7*day
	thirtyDaysAgo := todayStart - 30*day

	grouped := make(map[GroupLabel][]Conversation)
	for _, conv := range conversations {
		ts := conv.UpdatedAt
		switch {
		case ts >= todayStart:
			grouped[GroupToday] = append(grouped[GroupToday], conv)
		case ts >= yesterdayStart:
			grouped[GroupYesterday] = append(grouped[GroupYesterday], conv)
		case ts >= sevenDaysAgo:
			grouped[GroupPrevious7Days] = append(grouped[GroupPrevious7Days], conv)
		case ts >= thirtyDaysAgo:
			grouped[GroupPrevious30Days] = append(grouped[GroupPrevious30Days], conv)
		default:
			grouped[GroupOlder] = append(grouped[GroupOlder], conv)
		}
	}
	return grouped
}

// FormatRelativeTime renders a millisecond timestamp as a short relative
// string for list displays.
func FormatRelativeTime(ms int64, now time.Time) string {
	t := time.UnixMilli(ms)
	diff := now.Sub(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2")
	}
}
